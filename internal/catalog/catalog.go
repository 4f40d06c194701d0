package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"routinetimer/internal/types"
)

var (
	ErrRoutineNotFound = errors.New("routine not found")
	ErrInvalidRoutine  = types.ErrInvalidRoutine
)

// maxResolveDistance is the largest normalized edit distance Resolve accepts
// for a fuzzy name match.
const maxResolveDistance = 0.4

// Catalog holds the ordered routine definitions. It is safe for concurrent
// use; callers always receive copies.
type Catalog struct {
	mu       sync.RWMutex
	routines []types.Routine
}

func New(routines []types.Routine) *Catalog {
	return &Catalog{routines: types.CloneRoutines(routines)}
}

func (c *Catalog) List() []types.Routine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return types.CloneRoutines(c.routines)
}

func (c *Catalog) Find(id string) (types.Routine, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Routine{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, routine := range c.routines {
		if routine.ID == id {
			return routine.Clone(), true
		}
	}
	return types.Routine{}, false
}

// Update replaces the definition with the same id. Routines are replaced
// whole; steps are never patched in place.
func (c *Catalog) Update(routine types.Routine) error {
	if err := routine.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.routines {
		if c.routines[i].ID == routine.ID {
			c.routines[i] = routine.Clone()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrRoutineNotFound, routine.ID)
}

func (c *Catalog) Replace(routines []types.Routine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routines = types.CloneRoutines(routines)
}

// Resolve finds a routine by id, then by case-insensitive name, then by the
// closest name within maxResolveDistance.
func (c *Catalog) Resolve(query string) (types.Routine, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.Routine{}, fmt.Errorf("%w: empty query", ErrRoutineNotFound)
	}
	if routine, ok := c.Find(query); ok {
		return routine, nil
	}
	routines := c.List()
	needle := strings.ToLower(query)
	for _, routine := range routines {
		if strings.ToLower(routine.Name) == needle {
			return routine, nil
		}
	}
	best := -1
	bestScore := maxResolveDistance
	for i, routine := range routines {
		score := nameDistance(needle, strings.ToLower(routine.Name))
		if score < bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return types.Routine{}, fmt.Errorf("%w: %s", ErrRoutineNotFound, query)
	}
	return routines[best], nil
}

// Summary returns the step summary of the routine named name.
func (c *Catalog) Summary(name string) (string, bool) {
	routine, err := c.Resolve(name)
	if err != nil {
		return "", false
	}
	return routine.Summary(), true
}

func nameDistance(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}
