// Package assets locates the planet root and the material groups of a
// project directory and loads them into the material and texture catalogs.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/ocmapgen/internal/logger"
	"github.com/Faultbox/ocmapgen/internal/mattex"
	"github.com/Faultbox/ocmapgen/pkg/c4group"
)

// Well-known entries of a planet directory.
const (
	MaterialGroup = "Material.ocg"
	SystemGroup   = "System.ocg"
	ObjectsGroup  = "Objects.ocd"
)

// mapLibraryPath is the nested group holding the map script library.
var mapLibraryPath = []string{ObjectsGroup, "Libraries.ocd", "Map.ocd"}

// Resolution errors.
var (
	ErrRootNotFound    = errors.New("couldn't find base path")
	ErrNoMaterialGroup = errors.New("couldn't find " + MaterialGroup)
	ErrNothingLoaded   = errors.New("nothing loaded")
)

// Resolution holds the groups discovered while walking up from a start
// directory. Groups are owned by the Resolution until Close.
type Resolution struct {
	// Base is the Material.ocg closest to the start directory.
	Base *c4group.Group
	// Overlays are further Material.ocg groups found while overload
	// continuation was requested, in discovery order.
	Overlays []*c4group.Group
	// Root is the planet root directory opened as a folder group.
	Root *c4group.Group
	// RootDir is the path of Root.
	RootDir string
}

// Resolve walks from start towards the filesystem root. Material groups are
// collected on the way: the first one found becomes the base, further ones
// are only considered while the texture map last loaded requests overload
// continuation. The walk stops at the first directory holding both
// System.ocg and Objects.ocd.
func Resolve(start string, textures *mattex.TextureMap) (*Resolution, error) {
	dir, err := canonicalize(start)
	if err != nil {
		return nil, err
	}

	res := &Resolution{}
	continueOverload := false
	for {
		if res.Base == nil || continueOverload {
			path := filepath.Join(dir, MaterialGroup)
			if exists(path) {
				g, err := c4group.Open(path, false)
				if err != nil {
					res.Close()
					return nil, err
				}
				result, err := textures.LoadMap(g)
				if err != nil {
					g.Close()
					res.Close()
					return nil, err
				}
				continueOverload = result.Overloads()
				if res.Base == nil {
					res.Base = g
				} else {
					res.Overlays = append(res.Overlays, g)
				}
				logger.Debug("found material group",
					zap.String("path", path),
					zap.Bool("overload", continueOverload))
			}
		}

		if exists(filepath.Join(dir, SystemGroup)) && exists(filepath.Join(dir, ObjectsGroup)) {
			root, err := c4group.Open(dir, false)
			if err != nil {
				res.Close()
				return nil, err
			}
			res.Root = root
			res.RootDir = dir
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			res.Close()
			return nil, fmt.Errorf("%w (searched up from %s)", ErrRootNotFound, start)
		}
		dir = parent
	}

	if res.Base == nil {
		res.Close()
		return nil, ErrNoMaterialGroup
	}

	logger.Info("resolved planet root",
		zap.String("root", res.RootDir),
		zap.String("materials", res.Base.FullName()),
		zap.Int("overlays", len(res.Overlays)))
	return res, nil
}

// Groups returns the base material group followed by the overlays.
func (r *Resolution) Groups() []*c4group.Group {
	if r.Base == nil {
		return r.Overlays
	}
	return append([]*c4group.Group{r.Base}, r.Overlays...)
}

// Load fills the catalogs from the discovered material groups. Materials and
// textures load base first, then overlays. The base texture map is loaded a
// second time once the images are known; zero materials or zero texture map
// entries fail with ErrNothingLoaded.
func (r *Resolution) Load(materials *mattex.MaterialMap, textures *mattex.TextureMap) error {
	groups := r.Groups()

	total := 0
	for _, g := range groups {
		n, err := materials.Load(g)
		if err != nil {
			return err
		}
		total += n
	}
	if total == 0 {
		return fmt.Errorf("%w: no materials", ErrNothingLoaded)
	}

	for _, g := range groups {
		g.Rewind()
		if err := textures.LoadTextures(g); err != nil {
			return err
		}
	}

	result, err := textures.LoadMap(r.Base)
	if err != nil {
		return err
	}
	if result.Loaded == 0 {
		return fmt.Errorf("%w: no textures", ErrNothingLoaded)
	}

	materials.SetDefaultTextures(textures)
	logger.Info("loaded catalogs",
		zap.Int("materials", materials.Len()),
		zap.Int("textures", len(textures.TextureNames())),
		zap.Int("texmap_entries", result.Loaded))
	return nil
}

// Close closes every group of the resolution.
func (r *Resolution) Close() error {
	var err error
	for _, g := range r.Groups() {
		err = multierr.Append(err, g.Close())
	}
	if r.Root != nil {
		err = multierr.Append(err, r.Root.Close())
	}
	r.Base, r.Overlays, r.Root = nil, nil, nil
	return err
}

// MapLibrary opens Objects.ocd/Libraries.ocd/Map.ocd below root.
func MapLibrary(root *c4group.Group) (*c4group.Group, error) {
	g := root
	for _, name := range mapLibraryPath {
		child, err := c4group.OpenAsChild(g, name, false, false)
		if err != nil {
			return nil, err
		}
		g = child
	}
	return g, nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
