package schedule

import "testing"

func TestProductiveHours(t *testing.T) {
	tasks := []Task{
		{Name: "deep work", Duration: 90, Completed: true},
		{Name: "review", Duration: 45, Completed: true},
		{Name: "skipped", Duration: 120, Completed: false},
	}
	if got := ProductiveHours(tasks); got != 2.25 {
		t.Errorf("got %v, want 2.25", got)
	}
	if got := ProductiveHours(nil); got != 0 {
		t.Errorf("empty: got %v, want 0", got)
	}
}

func TestAvailableHours(t *testing.T) {
	cases := []struct {
		wake, bed string
		want      float64
	}{
		{"07:00", "23:00", 16},
		{"08:30", "00:30", 16},
		{"23:00", "07:00", 8},
		{"", "23:00", 0},
		{"7am", "23:00", 0},
	}
	for _, c := range cases {
		if got := AvailableHours(c.wake, c.bed); got != c.want {
			t.Errorf("AvailableHours(%q, %q) = %v, want %v", c.wake, c.bed, got, c.want)
		}
	}
}

func TestTaskDuration(t *testing.T) {
	if got := taskDuration("09:00", "10:30"); got != 90 {
		t.Errorf("got %d, want 90", got)
	}
	if got := taskDuration("23:30", "00:30"); got != 60 {
		t.Errorf("across midnight: got %d, want 60", got)
	}
	if got := taskDuration("", "10:00"); got != 0 {
		t.Errorf("missing start: got %d, want 0", got)
	}
}
