package formats

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoParameterDefs is returned when a definitions file declares no parameters.
var ErrNoParameterDefs = errors.New("no scenario parameter definitions")

// ParameterOption is one selectable value of a scenario parameter.
type ParameterOption struct {
	Name  string
	Value int
}

// ParameterDef is one [ParameterDef] block of ParameterDefs.txt.
type ParameterDef struct {
	ID      string
	Name    string
	Default int
	Options []ParameterOption
}

// ParseParameterDefs parses ParameterDefs.txt. [Option] sections belong to
// the closest preceding [ParameterDef].
func ParseParameterDefs(data []byte) ([]ParameterDef, error) {
	f, err := loadDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("parsing parameter definitions: %w", err)
	}

	var defs []ParameterDef
	for _, sec := range f.Sections() {
		switch sec.Name() {
		case "parameterdef":
			id := strings.TrimSpace(sec.Key("id").String())
			if id == "" {
				return nil, fmt.Errorf("parameter definition %d has no ID", len(defs)+1)
			}
			defs = append(defs, ParameterDef{
				ID:      id,
				Name:    sec.Key("name").String(),
				Default: sec.Key("default").MustInt(0),
			})
		case "option":
			if len(defs) == 0 {
				continue
			}
			def := &defs[len(defs)-1]
			def.Options = append(def.Options, ParameterOption{
				Name:  sec.Key("name").String(),
				Value: sec.Key("value").MustInt(0),
			})
		}
	}

	if len(defs) == 0 {
		return nil, ErrNoParameterDefs
	}
	return defs, nil
}

// ScenarioParameters holds parameter definitions and the values selected for
// a render. Values that were never set fall back to the definition default.
type ScenarioParameters struct {
	defs   []ParameterDef
	values map[string]int
}

// NewScenarioParameters creates a parameter set from definitions.
func NewScenarioParameters(defs []ParameterDef) *ScenarioParameters {
	return &ScenarioParameters{
		defs:   defs,
		values: make(map[string]int),
	}
}

// Defs returns the parameter definitions.
func (s *ScenarioParameters) Defs() []ParameterDef {
	return s.defs
}

// ValueByID returns the selected value of a parameter, its definition
// default, or defaultValue for unknown IDs.
func (s *ScenarioParameters) ValueByID(id string, defaultValue int) int {
	if v, ok := s.values[id]; ok {
		return v
	}
	for _, def := range s.defs {
		if def.ID == id {
			return def.Default
		}
	}
	return defaultValue
}

// SetValue selects a value. With onlyIfLarger, smaller values are ignored.
func (s *ScenarioParameters) SetValue(id string, value int, onlyIfLarger bool) {
	if current, ok := s.values[id]; ok && onlyIfLarger && value <= current {
		return
	}
	s.values[id] = value
}

// Constants returns the script constants registered for a script map,
// SCENPAR_<ID> mapped to the effective value, sorted by name.
func (s *ScenarioParameters) Constants() []ScriptConstant {
	consts := make([]ScriptConstant, 0, len(s.defs))
	for _, def := range s.defs {
		consts = append(consts, ScriptConstant{
			Name:  "SCENPAR_" + def.ID,
			Value: s.ValueByID(def.ID, def.Default),
		})
	}
	sort.Slice(consts, func(i, j int) bool {
		return consts[i].Name < consts[j].Name
	})
	return consts
}

// ScriptConstant is a named integer made visible to map scripts.
type ScriptConstant struct {
	Name  string
	Value int
}
