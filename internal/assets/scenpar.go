package assets

import (
	"fmt"
	"path/filepath"

	"github.com/Faultbox/ocmapgen/pkg/c4group"
	"github.com/Faultbox/ocmapgen/pkg/formats"
)

// ParameterDefsFile holds the scenario parameter definitions of a scenario.
const ParameterDefsFile = "ParameterDefs.txt"

// ErrNoParameterDefs is returned when a directory declares no scenario
// parameters. Callers render without scenario parameters.
var ErrNoParameterDefs = formats.ErrNoParameterDefs

// LoadScenpar loads the scenario parameters declared in dir.
func LoadScenpar(dir string) (*formats.ScenarioParameters, error) {
	dir, err := canonicalize(dir)
	if err != nil {
		return nil, err
	}
	if !exists(filepath.Join(dir, ParameterDefsFile)) {
		return nil, fmt.Errorf("%w in %s", ErrNoParameterDefs, dir)
	}

	g, err := c4group.Open(dir, false)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	data, err := g.LoadEntry(ParameterDefsFile)
	if err != nil {
		return nil, err
	}
	defs, err := formats.ParseParameterDefs(data)
	if err != nil {
		return nil, err
	}
	return formats.NewScenarioParameters(defs), nil
}
