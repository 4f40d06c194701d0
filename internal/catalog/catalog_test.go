package catalog

import (
	"errors"
	"testing"

	"routinetimer/internal/types"
)

func TestDefaultsAreStable(t *testing.T) {
	first := Defaults()
	second := Defaults()
	if len(first) != 3 {
		t.Fatalf("expected 3 default routines, got %d", len(first))
	}
	if first[0].Name != "Morning Launch" || len(first[0].Steps) != 5 || first[0].TotalMinutes() != 16 {
		t.Fatalf("unexpected first routine %#v", first[0])
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].ID == "" {
			t.Fatalf("expected deterministic ids, got %q and %q", first[i].ID, second[i].ID)
		}
	}
	first[0].Name = "mutated"
	if Defaults()[0].Name != "Morning Launch" {
		t.Fatalf("Defaults must return copies")
	}
}

func TestResolve(t *testing.T) {
	cat := New(Defaults())
	work := cat.List()[1]

	cases := []struct {
		query string
		want  string
	}{
		{query: work.ID, want: "Work Start"},
		{query: "work start", want: "Work Start"},
		{query: "  WORKOUT START ", want: "Workout Start"},
		{query: "mornin lanch", want: "Morning Launch"},
	}
	for _, tc := range cases {
		got, err := cat.Resolve(tc.query)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tc.query, err)
		}
		if got.Name != tc.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tc.query, got.Name, tc.want)
		}
	}
	for _, query := range []string{"", "laundry day"} {
		if _, err := cat.Resolve(query); !errors.Is(err, ErrRoutineNotFound) {
			t.Fatalf("Resolve(%q): expected not found, got %v", query, err)
		}
	}
}

func TestUpdateReplacesWholeRoutine(t *testing.T) {
	cat := New(Defaults())
	routine := cat.List()[0]
	routine.Steps = routine.Steps[:2]
	routine.Name = "Short Morning"
	if err := cat.Update(routine); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, ok := cat.Find(routine.ID)
	if !ok || got.Name != "Short Morning" || len(got.Steps) != 2 {
		t.Fatalf("unexpected routine after update %#v", got)
	}

	missing := types.Routine{ID: "nope", Name: "Nope"}
	if err := cat.Update(missing); !errors.Is(err, ErrRoutineNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	invalid := routine
	invalid.Steps = []types.Step{{ID: "s", Title: "x", Minutes: 0}}
	if err := cat.Update(invalid); !errors.Is(err, ErrInvalidRoutine) {
		t.Fatalf("expected invalid routine, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	cat := New(Defaults())
	summary, ok := cat.Summary("Work Start")
	if !ok {
		t.Fatalf("expected summary")
	}
	want := "Phone away / Focus mode (2m) • Open the ONE doc (2m) • Ugly outline (no polish) (6m) • Write next micro-step at top (2m)"
	if summary != want {
		t.Fatalf("unexpected summary:\n got: %s\nwant: %s", summary, want)
	}
}

func TestFindIgnoresBlankID(t *testing.T) {
	cat := New(Defaults())
	if _, ok := cat.Find("  "); ok {
		t.Fatalf("blank id should not match")
	}
}
