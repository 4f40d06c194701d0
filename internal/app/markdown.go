package app

import (
	"fmt"
	"strings"
	"sync"

	"routinetimer/internal/app/sanitizer"
	"routinetimer/internal/types"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

var (
	rendererMu       sync.Mutex
	renderersByStyle = map[markdownRendererKey]*glamour.TermRenderer{}
	darkOnce         sync.Once
	markdownDark     = true
)

type markdownRendererKey struct {
	width int
	dark  bool
}

// RoutineMarkdown describes a routine as a numbered markdown list.
func RoutineMarkdown(routine types.Routine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(sanitizer.Label(routine.Name, 0)))
	if len(routine.Steps) == 0 {
		b.WriteString("_No steps._\n")
		return b.String()
	}
	for i, step := range routine.Steps {
		fmt.Fprintf(&b, "%d. **%s** (%d min)\n", i+1, escapeMarkdown(sanitizer.Label(step.Title, 0)), step.Minutes)
	}
	fmt.Fprintf(&b, "\nTotal: %d min across %d steps\n", routine.TotalMinutes(), len(routine.Steps))
	return b.String()
}

// RenderMarkdown renders input for a terminal of the given width. Rendering
// failures fall back to the raw text.
func RenderMarkdown(input string, width int) string {
	input = strings.TrimRight(input, "\n")
	if input == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := getRenderer(width, markdownBackgroundDark())
	if r == nil {
		return input
	}
	out, err := r.Render(input)
	if err != nil {
		return input
	}
	out = strings.TrimRight(out, "\n")
	out = xansi.Hardwrap(out, width, true)
	return strings.TrimRight(out, "\n")
}

func markdownBackgroundDark() bool {
	darkOnce.Do(func() {
		markdownDark = lipgloss.HasDarkBackground()
	})
	return markdownDark
}

func getRenderer(width int, dark bool) *glamour.TermRenderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	key := markdownRendererKey{width: width, dark: dark}
	if renderer, ok := renderersByStyle[key]; ok && renderer != nil {
		return renderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(buildStyleConfig(dark)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderersByStyle[key] = r
	return r
}

func buildStyleConfig(dark bool) glamouransi.StyleConfig {
	base := styles.LightStyleConfig
	if dark {
		base = styles.DarkStyleConfig
	}
	base.Document.StylePrimitive.BlockPrefix = ""
	base.Document.StylePrimitive.BlockSuffix = ""
	zero := uint(0)
	base.Document.Margin = &zero
	return base
}

func escapeMarkdown(text string) string {
	if text == "" {
		return ""
	}
	replacer := strings.NewReplacer("`", "\\`", "*", "\\*", "_", "\\_")
	text = replacer.Replace(text)
	trimmed := strings.TrimLeft(text, " \t")
	switch {
	case strings.HasPrefix(trimmed, "#"),
		strings.HasPrefix(trimmed, ">"),
		strings.HasPrefix(trimmed, "- "),
		strings.HasPrefix(trimmed, "+ "),
		isNumberedList(trimmed):
		return "\\" + trimmed
	}
	return trimmed
}

func isNumberedList(text string) bool {
	dot := strings.IndexByte(text, '.')
	if dot <= 0 || dot+1 >= len(text) || text[dot+1] != ' ' {
		return false
	}
	for i := 0; i < dot; i++ {
		if text[i] < '0' || text[i] > '9' {
			return false
		}
	}
	return true
}
