// Package strata is a small deterministic map engine. It does not execute
// map scripts; it validates their structure, collects the materials they
// draw and paints them as layered strata below a random surface line.
package strata

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/ocmapgen/internal/logger"
	"github.com/Faultbox/ocmapgen/internal/mapgen"
	"github.com/Faultbox/ocmapgen/internal/mattex"
	"github.com/Faultbox/ocmapgen/pkg/c4group"
)

// Engine diagnostics.
var (
	ErrNoInitializeMap = errors.New("no InitializeMap() function present in the script, or it returns false")
	ErrNoMapDefinition = errors.New("no map definition in source file")
	ErrNoMaterials     = errors.New("no materials available")
)

const (
	maxMapSize = 4096
	// rowAlign pads raster rows like bitmap scanlines.
	rowAlign = 4
)

var (
	reInitializeMap = regexp.MustCompile(`\bfunc\s+InitializeMap\s*\(`)
	reResize        = regexp.MustCompile(`\bResize\(\s*(\d+)\s*,\s*(\d+)\s*\)`)
	reLog           = regexp.MustCompile(`\bLog\(\s*"((?:[^"\\]|\\.)*)"`)
	reDraw          = regexp.MustCompile(`\bDraw(?:Material)?\(\s*"([^"]+)"`)
	reScenpar       = regexp.MustCompile(`\bSCENPAR_\w+`)
	reMapSection    = regexp.MustCompile(`(?m)^\s*(?:map|overlay)\b`)
	reLandscapeMat  = regexp.MustCompile(`\bmat\s*=\s*([\w-]+)`)
)

// Engine implements mapgen.Engine.
type Engine struct {
	rng     *rand.Rand
	players int32
	teams   int32
	library *c4group.Group
	scripts map[string]string
}

// New creates an engine seeded from the clock.
func New() *Engine {
	e := &Engine{
		players: 1,
		teams:   1,
		scripts: make(map[string]string),
	}
	e.Seed(uint32(time.Now().UnixNano()))
	return e
}

var _ mapgen.Engine = (*Engine)(nil)

// SetMapLibrary binds the map script library.
func (e *Engine) SetMapLibrary(lib *c4group.Group) error {
	e.library = lib
	logger.Debug("bound map library", zap.String("group", lib.FullName()))
	return nil
}

// LoadScript checks and stores a system script.
func (e *Engine) LoadScript(filename, source string) error {
	if err := checkBalance(filename, source); err != nil {
		return err
	}
	e.scripts[filename] = source
	return nil
}

func (e *Engine) SetStartupPlayerCount(n int32) { e.players = n }
func (e *Engine) SetStartupTeamCount(n int32)   { e.teams = n }

// Seed resets the random source.
func (e *Engine) Seed(seed uint32) {
	e.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// RenderScript renders a Map.c script.
func (e *Engine) RenderScript(job mapgen.ScriptJob) (*mapgen.Raster, error) {
	if err := checkBalance(job.Filename, job.Source); err != nil {
		return nil, err
	}
	if !reInitializeMap.MatchString(job.Source) {
		return nil, ErrNoInitializeMap
	}

	width, height := job.Width, job.Height
	if m := reResize.FindStringSubmatch(job.Source); m != nil {
		width, _ = strconv.Atoi(m[1])
		height, _ = strconv.Atoi(m[2])
	}

	var warnings []string
	defined := make(map[string]bool)
	if job.Scenpar != nil {
		for _, c := range job.Scenpar.Constants() {
			defined[c.Name] = true
		}
	}
	for _, name := range reScenpar.FindAllString(job.Source, -1) {
		if !defined[name] {
			warnings = append(warnings, fmt.Sprintf("%s: unknown identifier %s", job.Filename, name))
			defined[name] = true
		}
	}

	indices, unknown := drawnIndices(reDraw, job.Source, job.Textures)
	for _, spec := range unknown {
		warnings = append(warnings, fmt.Sprintf("%s: unknown material %q", job.Filename, spec))
	}

	var output []string
	for _, m := range reLog.FindAllStringSubmatch(job.Source, -1) {
		output = append(output, unescape(m[1]))
	}

	raster, err := e.paint(width, height, indices, job.Textures, true)
	if err != nil {
		return nil, err
	}
	raster.Warnings = strings.Join(warnings, "\n")
	raster.ScriptOutput = strings.Join(output, "\n")
	return raster, nil
}

// RenderLandscape renders a Landscape.txt definition.
func (e *Engine) RenderLandscape(job mapgen.LandscapeJob) (*mapgen.Raster, error) {
	if err := checkBalance(job.Filename, job.Source); err != nil {
		return nil, err
	}
	if !reMapSection.MatchString(job.Source) {
		return nil, ErrNoMapDefinition
	}
	if job.ScriptPath != "" {
		if _, ok := e.scripts[job.ScriptPath]; !ok {
			return nil, fmt.Errorf("algorithm script %s not loaded", job.ScriptPath)
		}
	}

	indices, unknown := drawnIndices(reLandscapeMat, job.Source, job.Textures)
	var warnings []string
	for _, spec := range unknown {
		warnings = append(warnings, fmt.Sprintf("%s: unknown material %q", job.Filename, spec))
	}

	raster, err := e.paint(job.Width, job.Height, indices, job.Textures, false)
	if err != nil {
		return nil, err
	}
	raster.Warnings = strings.Join(warnings, "\n")
	return raster, nil
}

// drawnIndices resolves the material specs matched by re to texture map
// indices, in order of first appearance.
func drawnIndices(re *regexp.Regexp, src string, textures *mattex.TextureMap) (indices []byte, unknown []string) {
	seen := make(map[string]bool)
	for _, m := range re.FindAllStringSubmatch(src, -1) {
		spec := m[1]
		if seen[strings.ToLower(spec)] {
			continue
		}
		seen[strings.ToLower(spec)] = true

		if textures != nil {
			if index, ok := textures.IndexOf(spec); ok {
				indices = append(indices, byte(index))
				continue
			}
		}
		unknown = append(unknown, spec)
	}
	return indices, unknown
}

// paint fills a raster: sky above a random-walk surface line, the drawn
// materials as strata below it. Without drawn materials the first texture
// map entry is used.
func (e *Engine) paint(width, height int, indices []byte, textures *mattex.TextureMap, background bool) (*mapgen.Raster, error) {
	if width <= 0 || height <= 0 || width > maxMapSize || height > maxMapSize {
		return nil, fmt.Errorf("invalid map size %dx%d", width, height)
	}
	if len(indices) == 0 && textures != nil {
		if all := textures.Indices(); len(all) > 0 {
			indices = []byte{byte(all[0])}
		}
	}
	if len(indices) == 0 {
		return nil, ErrNoMaterials
	}

	rowstride := (width + rowAlign - 1) / rowAlign * rowAlign
	r := &mapgen.Raster{
		Width:     width,
		Height:    height,
		Rowstride: rowstride,
		FG:        make([]byte, rowstride*height),
	}
	if background {
		r.BG = make([]byte, rowstride*height)
	}

	surface := e.walk(width, height/4, height*3/4)
	for x := 0; x < width; x++ {
		top := surface[x]
		depth := height - top
		for y := top; y < height; y++ {
			band := (y - top) * len(indices) / max(depth, 1)
			r.FG[y*rowstride+x] = indices[min(band, len(indices)-1)]
			if background {
				r.BG[y*rowstride+x] = indices[0]
			}
		}
	}
	return r, nil
}

// walk returns a random surface height per column, clamped to [lo, hi].
func (e *Engine) walk(width, lo, hi int) []int {
	heights := make([]int, width)
	h := lo + e.rng.IntN(max(hi-lo, 1))
	for x := range heights {
		h += e.rng.IntN(3) - 1
		h = max(lo, min(h, hi))
		heights[x] = h
	}
	return heights
}

func unescape(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}
