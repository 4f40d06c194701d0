package catalog

import (
	_ "embed"
	"sync"

	"routinetimer/internal/types"
)

var (
	//go:embed default_routines.toml
	defaultRoutinesTOML []byte

	defaultRoutinesOnce sync.Once
	defaultRoutines     []types.Routine
)

// Defaults returns the seed routines. Ids are derived from names so they are
// stable across restarts.
func Defaults() []types.Routine {
	defaultRoutinesOnce.Do(func() {
		routines, err := parseRoutines(defaultRoutinesTOML, formatTOML)
		if err != nil {
			panic("catalog: failed to parse default routines: " + err.Error())
		}
		if len(routines) == 0 {
			panic("catalog: default routines contain no routines")
		}
		defaultRoutines = routines
	})
	return types.CloneRoutines(defaultRoutines)
}
