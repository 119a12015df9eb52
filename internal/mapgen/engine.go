// Package mapgen is the boundary to the map generation engine. It owns the
// process-wide engine token, turns engine results into handles and
// materializes indexed rasters into images.
package mapgen

import (
	"github.com/Faultbox/ocmapgen/internal/mattex"
	"github.com/Faultbox/ocmapgen/pkg/c4group"
	"github.com/Faultbox/ocmapgen/pkg/formats"
)

// Engine is the map generation engine. Implementations keep process-wide
// state; use Init to obtain the single live Generator wrapping one.
type Engine interface {
	// SetMapLibrary binds the map script library group.
	SetMapLibrary(lib *c4group.Group) error
	// LoadScript makes a system script available to later renders.
	LoadScript(filename, source string) error
	SetStartupPlayerCount(n int32)
	SetStartupTeamCount(n int32)
	// Seed resets the engine's random source.
	Seed(seed uint32)
	RenderScript(job ScriptJob) (*Raster, error)
	RenderLandscape(job LandscapeJob) (*Raster, error)
}

// ScriptJob describes a Map.c render.
type ScriptJob struct {
	Filename  string
	Source    string
	Scenpar   *formats.ScenarioParameters // optional
	Materials *mattex.MaterialMap
	Textures  *mattex.TextureMap
	Width     int
	Height    int
}

// LandscapeJob describes a Landscape.txt render.
type LandscapeJob struct {
	Filename string
	Source   string
	// ScriptPath is used by Algo=Script landscapes.
	ScriptPath string
	Materials  *mattex.MaterialMap
	Textures   *mattex.TextureMap
	Width      int
	Height     int
}

// Raster is the engine's output. FG and BG hold one texture map index per
// cell at x + y*Rowstride; BG is nil when the map has no background layer.
type Raster struct {
	Width     int
	Height    int
	Rowstride int
	FG        []byte
	BG        []byte

	Warnings     string
	ScriptOutput string
}

func (r *Raster) validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return &Error{Message: "engine returned an empty map"}
	}
	if r.Rowstride < r.Width {
		return &Error{Message: "engine returned a raster with rowstride smaller than width"}
	}
	need := r.Rowstride*(r.Height-1) + r.Width
	if len(r.FG) < need {
		return &Error{Message: "engine returned a truncated foreground raster"}
	}
	if r.BG != nil && len(r.BG) < need {
		return &Error{Message: "engine returned a truncated background raster"}
	}
	return nil
}
