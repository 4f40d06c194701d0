package app

import (
	"strings"
	"testing"

	"routinetimer/internal/types"
)

func TestRoutineMarkdownListsSteps(t *testing.T) {
	md := RoutineMarkdown(*morning())
	for _, want := range []string{"# Morning Launch", "1. **Water** (1 min)", "2. **Stretch** (5 min)", "Total: 6 min across 2 steps"} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in:\n%s", want, md)
		}
	}
	if !strings.Contains(RoutineMarkdown(types.Routine{Name: "Empty"}), "_No steps._") {
		t.Fatalf("expected empty marker")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	cases := map[string]string{
		"# heading":   "\\# heading",
		"1. numbered": "\\1. numbered",
		"a_b*c`d":     "a\\_b\\*c\\`d",
		"plain":       "plain",
	}
	for input, want := range cases {
		if got := escapeMarkdown(input); got != want {
			t.Fatalf("escapeMarkdown(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestRenderMarkdownKeepsText(t *testing.T) {
	out := RenderMarkdown(RoutineMarkdown(*morning()), 60)
	if !strings.Contains(out, "Water") || !strings.Contains(out, "Stretch") {
		t.Fatalf("expected rendered step titles, got %q", out)
	}
	if RenderMarkdown("\n\n", 60) != "" {
		t.Fatalf("expected empty output for blank input")
	}
}
