package types

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRoutine = errors.New("invalid routine")

type Step struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Minutes int    `json:"minutes"`
}

// Seconds is the full length of the step in seconds.
func (s Step) Seconds() int {
	if s.Minutes <= 0 {
		return 0
	}
	return s.Minutes * 60
}

type Routine struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

func (r Routine) TotalMinutes() int {
	total := 0
	for _, step := range r.Steps {
		total += step.Minutes
	}
	return total
}

func (r Routine) Clone() Routine {
	out := r
	if r.Steps != nil {
		out.Steps = append([]Step{}, r.Steps...)
	}
	return out
}

// Summary renders the steps as "Title (Nm) • Title (Nm)".
func (r Routine) Summary() string {
	parts := make([]string, 0, len(r.Steps))
	for _, step := range r.Steps {
		parts = append(parts, fmt.Sprintf("%s (%dm)", step.Title, step.Minutes))
	}
	return strings.Join(parts, " • ")
}

func (r Routine) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRoutine)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRoutine)
	}
	for i, step := range r.Steps {
		if strings.TrimSpace(step.Title) == "" {
			return fmt.Errorf("%w: step %d has no title", ErrInvalidRoutine, i+1)
		}
		if step.Minutes < 1 {
			return fmt.Errorf("%w: step %q must last at least one minute", ErrInvalidRoutine, step.Title)
		}
	}
	return nil
}

func CloneRoutines(in []Routine) []Routine {
	if in == nil {
		return nil
	}
	out := make([]Routine, 0, len(in))
	for _, routine := range in {
		out = append(out, routine.Clone())
	}
	return out
}
