package question

import "testing"

func TestPickTemplateLeastUsed(t *testing.T) {
	candidates := []Template{
		{ID: 1, Category: "learning", UsageCount: 0},
		{ID: 2, Category: "learning", UsageCount: 2},
		{ID: 3, Category: "learning", UsageCount: 5},
	}
	got := pickTemplate(candidates, map[uint64]bool{})
	if got == nil || got.ID != 1 {
		t.Fatalf("expected template 1, got %+v", got)
	}
}

func TestPickTemplateSkipsRecentlyAsked(t *testing.T) {
	candidates := []Template{
		{ID: 1, UsageCount: 0},
		{ID: 2, UsageCount: 2},
		{ID: 3, UsageCount: 5},
	}
	got := pickTemplate(candidates, map[uint64]bool{1: true, 2: true})
	if got == nil || got.ID != 3 {
		t.Fatalf("expected template 3, got %+v", got)
	}
}

func TestPickTemplateAllAsked(t *testing.T) {
	candidates := []Template{{ID: 1}, {ID: 2}}
	if got := pickTemplate(candidates, map[uint64]bool{1: true, 2: true}); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestPickTemplateEmpty(t *testing.T) {
	if got := pickTemplate(nil, map[uint64]bool{}); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSeedCatalogShape(t *testing.T) {
	if len(seedTemplates) != 16 {
		t.Fatalf("expected 16 seed templates, got %d", len(seedTemplates))
	}
	byCategory := map[string]int{}
	for _, tmpl := range seedTemplates {
		byCategory[tmpl.Category]++
		if !tmpl.Active {
			t.Errorf("seed template %q is inactive", tmpl.Text)
		}
	}
	for _, c := range Categories {
		if byCategory[c] == 0 {
			t.Errorf("category %q has no seed templates", c)
		}
	}
	if len(byCategory) != len(Categories) {
		t.Errorf("seed templates use %d categories, rotation expects %d", len(byCategory), len(Categories))
	}
}
