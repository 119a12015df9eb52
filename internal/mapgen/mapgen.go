package mapgen

import (
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/ocmapgen/internal/logger"
	"github.com/Faultbox/ocmapgen/internal/mattex"
	"github.com/Faultbox/ocmapgen/pkg/c4group"
)

// ErrAlreadyInitialized is returned by Init while another Generator is live.
var ErrAlreadyInitialized = errors.New("map generator already initialized")

// ErrClosed is returned by a Generator after Close.
var ErrClosed = errors.New("map generator closed")

// Error is an engine-level render failure carrying the engine diagnostic.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "map generation failed: " + e.Message
}

// live guards the engine's process-wide state.
var live atomic.Bool

// Generator is the token for the single live engine instance.
type Generator struct {
	engine Engine
	closed bool
}

// Init claims the engine. Only one Generator may be live per process; Close
// releases the claim.
func Init(e Engine) (*Generator, error) {
	if !live.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInitialized
	}
	return &Generator{engine: e}, nil
}

// Close releases the engine claim. It is safe to call more than once.
func (g *Generator) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	live.Store(false)
	return nil
}

// SetMapLibrary binds the map script library.
func (g *Generator) SetMapLibrary(lib *c4group.Group) error {
	if g.closed {
		return ErrClosed
	}
	return g.engine.SetMapLibrary(lib)
}

// LoadScript loads a system script into the engine.
func (g *Generator) LoadScript(filename, source string) error {
	if g.closed {
		return ErrClosed
	}
	return g.engine.LoadScript(filename, source)
}

// SetStartupPlayerCount sets the result of GetStartupPlayerCount().
func (g *Generator) SetStartupPlayerCount(n int32) {
	g.engine.SetStartupPlayerCount(n)
}

// SetStartupTeamCount sets the result of GetStartupTeamCount().
func (g *Generator) SetStartupTeamCount(n int32) {
	g.engine.SetStartupTeamCount(n)
}

// Seed resets the engine's random source.
func (g *Generator) Seed(seed uint32) {
	g.engine.Seed(seed)
}

// RenderScript renders a Map.c script.
func (g *Generator) RenderScript(job ScriptJob) (*Handle, error) {
	if g.closed {
		return nil, ErrClosed
	}
	start := time.Now()
	raster, err := g.engine.RenderScript(job)
	return g.finish(job.Filename, raster, err, job.Materials, job.Textures, start)
}

// RenderLandscape renders a Landscape.txt definition.
func (g *Generator) RenderLandscape(job LandscapeJob) (*Handle, error) {
	if g.closed {
		return nil, ErrClosed
	}
	start := time.Now()
	raster, err := g.engine.RenderLandscape(job)
	return g.finish(job.Filename, raster, err, job.Materials, job.Textures, start)
}

func (g *Generator) finish(filename string, raster *Raster, err error, materials *mattex.MaterialMap, textures *mattex.TextureMap, start time.Time) (*Handle, error) {
	if err != nil {
		var mgErr *Error
		if errors.As(err, &mgErr) {
			return nil, mgErr
		}
		return nil, &Error{Message: err.Error()}
	}
	if raster == nil {
		return nil, &Error{Message: "engine returned no map"}
	}
	if err := raster.validate(); err != nil {
		return nil, err
	}

	logger.Debug("rendered map",
		zap.String("file", filename),
		zap.Int("width", raster.Width),
		zap.Int("height", raster.Height),
		zap.Bool("background", raster.BG != nil),
		zap.Duration("took", time.Since(start)))
	return &Handle{raster: raster, materials: materials, textures: textures}, nil
}
