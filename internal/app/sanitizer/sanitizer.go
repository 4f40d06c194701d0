// Package sanitizer cleans user supplied routine text before it reaches the
// terminal. Routine files are hand edited, so titles may carry stray escape
// sequences or pasted control characters.
package sanitizer

import (
	"regexp"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

var orphanedMousePattern = regexp.MustCompile(`\[<[0-9]+;[0-9]+;[0-9]+[Mm]`)

type Config struct {
	AllowNewlines bool
	// MaxWidth truncates by display cells when positive.
	MaxWidth int
}

type Sanitizer struct {
	config Config
}

func New(config Config) *Sanitizer {
	return &Sanitizer{config: config}
}

// Label is for single line titles: newlines collapse to spaces.
func Label(input string, maxWidth int) string {
	return New(Config{MaxWidth: maxWidth}).Sanitize(input)
}

func (s *Sanitizer) Sanitize(input string) string {
	if input == "" {
		return input
	}
	input = xansi.Strip(input)
	input = orphanedMousePattern.ReplaceAllString(input, "")

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case r == '\n':
			if s.config.AllowNewlines {
				b.WriteRune(r)
			} else {
				b.WriteByte(' ')
			}
		case r == '\t':
			b.WriteByte(' ')
		case r < 32 || r == 127:
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if !s.config.AllowNewlines {
		out = strings.Join(strings.Fields(out), " ")
	}
	if s.config.MaxWidth > 0 && runewidth.StringWidth(out) > s.config.MaxWidth {
		out = runewidth.Truncate(out, s.config.MaxWidth, "…")
	}
	return out
}
