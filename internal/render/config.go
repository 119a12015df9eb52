package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/ocmapgen/internal/mapgen"
	"github.com/Faultbox/ocmapgen/pkg/formats"
)

// MapType selects the engine entry point.
type MapType int

const (
	// ScriptMap is a Map.c script.
	ScriptMap MapType = iota + 1
	// TextLandscape is a Landscape.txt definition.
	TextLandscape
)

func (t MapType) String() string {
	switch t {
	case ScriptMap:
		return "map.c"
	case TextLandscape:
		return "landscape.txt"
	default:
		return "unknown"
	}
}

// ParseMapType parses a map type name as given on the command line.
func ParseMapType(s string) (MapType, error) {
	switch strings.ToLower(s) {
	case "map.c", "c", "script":
		return ScriptMap, nil
	case "landscape.txt", "txt", "landscape":
		return TextLandscape, nil
	default:
		return 0, fmt.Errorf("unknown map type %q", s)
	}
}

const noFilename = "<no filename>"

// MapTypeDetectionError is returned when the map type is not set and cannot
// be derived from the file name.
type MapTypeDetectionError struct {
	Filename string
}

func (e *MapTypeDetectionError) Error() string {
	return "couldn't detect map type of " + e.Filename
}

// DetectMapType derives the map type from a file extension.
func DetectMapType(filename string) (MapType, error) {
	if filename == "" {
		return 0, &MapTypeDetectionError{Filename: noFilename}
	}
	switch filepath.Ext(filename) {
	case ".c":
		return ScriptMap, nil
	case ".txt":
		return TextLandscape, nil
	default:
		return 0, &MapTypeDetectionError{Filename: filename}
	}
}

// Config is a render configuration. Setters return the Config for chaining.
type Config struct {
	r *Renderer

	mapType        MapType
	filename       string
	source         *string
	width, height  int
	algoScriptPath string
	scenpar        *formats.ScenarioParameters
}

// MapType sets the map type. By default it is derived from the file name.
func (c *Config) MapType(t MapType) *Config {
	c.mapType = t
	return c
}

// Filename sets the file name used for messages and, if no source is set,
// as the file to read.
func (c *Config) Filename(name string) *Config {
	c.filename = name
	return c
}

// Source sets the map source text.
func (c *Config) Source(src string) *Config {
	c.source = &src
	return c
}

// Width sets the map width. Scripts may resize the map.
func (c *Config) Width(w int) *Config {
	c.width = w
	return c
}

// Height sets the map height. Scripts may resize the map.
func (c *Config) Height(h int) *Config {
	c.height = h
	return c
}

// AlgoScriptPath sets the script used by Algo=Script landscapes.
func (c *Config) AlgoScriptPath(path string) *Config {
	c.algoScriptPath = path
	return c
}

// Scenpar sets the scenario parameters for script maps.
func (c *Config) Scenpar(p *formats.ScenarioParameters) *Config {
	c.scenpar = p
	return c
}

// Clone returns an independent copy sharing the Renderer.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Render renders the configured map.
func (c *Config) Render() (*mapgen.Handle, error) {
	mapType := c.mapType
	if mapType == 0 {
		var err error
		if mapType, err = DetectMapType(c.filename); err != nil {
			return nil, err
		}
	}

	filename := c.filename
	if filename == "" {
		filename = noFilename
	}

	var source string
	switch {
	case c.source != nil:
		source = *c.source
	case c.filename != "":
		data, err := os.ReadFile(c.filename)
		if err != nil {
			return nil, fmt.Errorf("couldn't read input file: %w", err)
		}
		source = string(data)
	default:
		return nil, errors.New("neither source nor filename set")
	}

	r := c.r
	switch mapType {
	case ScriptMap:
		return r.gen.RenderScript(mapgen.ScriptJob{
			Filename:  filename,
			Source:    source,
			Scenpar:   c.scenpar,
			Materials: r.materials,
			Textures:  r.textures,
			Width:     c.width,
			Height:    c.height,
		})
	case TextLandscape:
		return r.gen.RenderLandscape(mapgen.LandscapeJob{
			Filename:   filename,
			Source:     source,
			ScriptPath: c.algoScriptPath,
			Materials:  r.materials,
			Textures:   r.textures,
			Width:      c.width,
			Height:     c.height,
		})
	default:
		return nil, fmt.Errorf("invalid map type %d", mapType)
	}
}
