// Package render drives map renders: it sets up the engine and catalogs for
// a planet directory, builds render configurations and delivers results as
// files, on file changes or over the service protocol.
package render

import (
	_ "embed"
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/ocmapgen/internal/assets"
	"github.com/Faultbox/ocmapgen/internal/logger"
	"github.com/Faultbox/ocmapgen/internal/mapgen"
	"github.com/Faultbox/ocmapgen/internal/mattex"
	"github.com/Faultbox/ocmapgen/pkg/c4group"
)

// standaloneCompat defines what scripts expect from a running game.
//
//go:embed StandaloneCompat.c
var standaloneCompat string

// Default map size.
const (
	DefaultWidth  = 200
	DefaultHeight = 200
)

// Renderer owns the engine token, the catalogs and the groups they were
// loaded from. Only one Renderer can exist per process.
type Renderer struct {
	gen        *mapgen.Generator
	materials  *mattex.MaterialMap
	textures   *mattex.TextureMap
	resolution *assets.Resolution
	library    *c4group.Group
	log        *zap.Logger
}

// New claims the engine and loads the standalone compatibility script.
func New(engine mapgen.Engine) (*Renderer, error) {
	gen, err := mapgen.Init(engine)
	if err != nil {
		return nil, err
	}
	if err := gen.LoadScript("StandaloneCompat.c", standaloneCompat); err != nil {
		gen.Close()
		return nil, err
	}
	return &Renderer{
		gen:       gen,
		materials: mattex.NewMaterialMap(),
		textures:  mattex.NewTextureMap(),
		log:       logger.Named("render"),
	}, nil
}

// SetBasePath loads materials, textures and system scripts for the planet
// containing path. path is the planet root or any directory below it.
func (r *Renderer) SetBasePath(path string) error {
	if r.resolution != nil {
		return errors.New("base path already set")
	}

	res, err := assets.Resolve(path, r.textures)
	if err != nil {
		return err
	}
	r.resolution = res

	lib, err := assets.MapLibrary(res.Root)
	if err != nil {
		r.log.Warn("no map library", zap.String("root", res.RootDir), zap.Error(err))
	} else {
		if err := r.gen.SetMapLibrary(lib); err != nil {
			return err
		}
		r.library = lib
	}

	if err := assets.LoadSystem(r.gen, res.RootDir); err != nil {
		return err
	}
	return res.Load(r.materials, r.textures)
}

// SetStartupPlayerCount sets the result of GetStartupPlayerCount().
func (r *Renderer) SetStartupPlayerCount(n int) {
	r.gen.SetStartupPlayerCount(int32(n))
}

// SetStartupTeamCount sets the result of GetStartupTeamCount().
func (r *Renderer) SetStartupTeamCount(n int) {
	r.gen.SetStartupTeamCount(int32(n))
}

// Seed resets the engine's random source.
func (r *Renderer) Seed(seed uint32) {
	r.gen.Seed(seed)
}

// Materials returns the material catalog.
func (r *Renderer) Materials() *mattex.MaterialMap {
	return r.materials
}

// Textures returns the texture catalog.
func (r *Renderer) Textures() *mattex.TextureMap {
	return r.textures
}

// Build starts a render configuration with the default size.
func (r *Renderer) Build() *Config {
	return &Config{
		r:      r,
		width:  DefaultWidth,
		height: DefaultHeight,
	}
}

// Close releases the groups and the engine token.
func (r *Renderer) Close() error {
	var err error
	if r.library != nil {
		err = multierr.Append(err, r.library.Close())
		r.library = nil
	}
	if r.resolution != nil {
		err = multierr.Append(err, r.resolution.Close())
		r.resolution = nil
	}
	return multierr.Append(err, r.gen.Close())
}
