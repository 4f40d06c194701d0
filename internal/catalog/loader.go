package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"routinetimer/internal/types"
)

type fileFormat string

const (
	formatTOML fileFormat = "toml"
	formatYAML fileFormat = "yaml"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("routinetimer"))

type routinesFile struct {
	Routines []routineEntry `toml:"routines" yaml:"routines"`
}

type routineEntry struct {
	ID    string      `toml:"id" yaml:"id"`
	Name  string      `toml:"name" yaml:"name"`
	Steps []stepEntry `toml:"steps" yaml:"steps"`
}

type stepEntry struct {
	ID      string `toml:"id" yaml:"id"`
	Title   string `toml:"title" yaml:"title"`
	Minutes int    `toml:"minutes" yaml:"minutes"`
}

// LoadFile reads routines from a .toml, .yaml or .yml file. A missing file
// returns nil routines and no error so callers fall back to Defaults.
func LoadFile(path string) ([]types.Routine, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("path is required")
	}
	format, err := formatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	routines, err := parseRoutines(data, format)
	if err != nil {
		return nil, fmt.Errorf("load routines %s: %w", path, err)
	}
	return routines, nil
}

// LoadOrDefault is LoadFile falling back to Defaults when the file is
// missing or empty.
func LoadOrDefault(path string) ([]types.Routine, error) {
	routines, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if len(routines) == 0 {
		return Defaults(), nil
	}
	return routines, nil
}

func formatForPath(path string) (fileFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return formatTOML, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unsupported routines file extension: %s", filepath.Ext(path))
	}
}

func parseRoutines(data []byte, format fileFormat) ([]types.Routine, error) {
	var file routinesFile
	switch format {
	case formatTOML:
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, err
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	out := make([]types.Routine, 0, len(file.Routines))
	seen := map[string]struct{}{}
	for _, entry := range file.Routines {
		routine := entry.toRoutine()
		if err := routine.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[routine.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate routine id %s", ErrInvalidRoutine, routine.ID)
		}
		seen[routine.ID] = struct{}{}
		out = append(out, routine)
	}
	return out, nil
}

func (e routineEntry) toRoutine() types.Routine {
	name := strings.TrimSpace(e.Name)
	id := strings.TrimSpace(e.ID)
	if id == "" && name != "" {
		id = derivedID("routine", name)
	}
	routine := types.Routine{ID: id, Name: name, Steps: make([]types.Step, 0, len(e.Steps))}
	for i, step := range e.Steps {
		title := strings.TrimSpace(step.Title)
		stepID := strings.TrimSpace(step.ID)
		if stepID == "" {
			stepID = derivedID("step", id, strconv.Itoa(i), title)
		}
		routine.Steps = append(routine.Steps, types.Step{ID: stepID, Title: title, Minutes: step.Minutes})
	}
	return routine
}

func derivedID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "\x00"))).String()
}

// EncodeTOML renders routines in the routines file shape.
func EncodeTOML(routines []types.Routine) ([]byte, error) {
	file := routinesFile{Routines: make([]routineEntry, 0, len(routines))}
	for _, routine := range routines {
		entry := routineEntry{ID: routine.ID, Name: routine.Name}
		for _, step := range routine.Steps {
			entry.Steps = append(entry.Steps, stepEntry{ID: step.ID, Title: step.Title, Minutes: step.Minutes})
		}
		file.Routines = append(file.Routines, entry)
	}
	return toml.Marshal(file)
}
