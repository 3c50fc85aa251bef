package post

import (
	"errors"
	"testing"
	"time"
)

func TestCompose(t *testing.T) {
	d := Draft{
		Title:       "Morning routine",
		Description: "Start the day right",
		Todos:       []string{"stretch", " ", "run 5k", "shower "},
		Date:        time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
	}

	got, err := Compose(d)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	want := "Morning routine\nStart the day right\nTodos: stretch, run 5k, shower\nDate: 03/07/2026"
	if got != want {
		t.Errorf("Compose = %q, want %q", got, want)
	}
	if d.XP() != 30 {
		t.Errorf("XP = %d, want 30", d.XP())
	}
}

func TestComposeIncomplete(t *testing.T) {
	base := Draft{
		Title:       "t",
		Description: "d",
		Todos:       []string{"a"},
		Date:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name   string
		mutate func(*Draft)
	}{
		{"no title", func(d *Draft) { d.Title = "  " }},
		{"no description", func(d *Draft) { d.Description = "" }},
		{"no todos", func(d *Draft) { d.Todos = nil }},
		{"blank todos", func(d *Draft) { d.Todos = []string{"", "  "} }},
		{"no date", func(d *Draft) { d.Date = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			tt.mutate(&d)
			_, err := Compose(d)
			if !errors.Is(err, ErrIncompleteDraft) {
				t.Errorf("err = %v, want ErrIncompleteDraft", err)
			}
		})
	}
}

func TestDraftXPIgnoresBlankTodos(t *testing.T) {
	d := Draft{Todos: []string{"a", "", "b"}}
	if d.XP() != 20 {
		t.Errorf("XP = %d, want 20", d.XP())
	}
}
