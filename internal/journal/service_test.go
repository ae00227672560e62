package journal

import (
	"strings"
	"testing"
)

func TestValidateFields(t *testing.T) {
	long := strings.Repeat("x", maxFieldLen+1)

	cases := []struct {
		name      string
		date      string
		completed string
		learned   string
		items     []NewItem
		wantErr   bool
	}{
		{"valid", "2024-03-10", "shipped the parser", "tokenizer edge cases", nil, false},
		{"valid with items", "2024-03-10", "a", "b", []NewItem{{Text: "review BFS"}}, false},
		{"bad date", "10-03-2024", "a", "b", nil, true},
		{"impossible date", "2024-02-31", "a", "b", nil, true},
		{"empty completed", "2024-03-10", "   ", "b", nil, true},
		{"empty learned", "2024-03-10", "a", "", nil, true},
		{"completed too long", "2024-03-10", long, "b", nil, true},
		{"blank item", "2024-03-10", "a", "b", []NewItem{{Text: "  "}}, true},
		{"item too long", "2024-03-10", "a", "b", []NewItem{{Text: long}}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateFields(c.date, c.completed, c.learned, c.items)
			if (err != nil) != c.wantErr {
				t.Errorf("validateFields(%s) err = %v, wantErr %v", c.name, err, c.wantErr)
			}
		})
	}
}
