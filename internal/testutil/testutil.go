// Package testutil builds planet directory fixtures for tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/Faultbox/ocmapgen/pkg/c4group"
)

// Well-known fixture colors.
var (
	EarthColor = color.NRGBA{R: 120, G: 80, B: 40, A: 255}
	RockColor  = color.NRGBA{R: 90, G: 90, B: 90, A: 255}
	WaterColor = color.NRGBA{R: 20, G: 60, B: 200, A: 255}
)

// MaterialGroup describes a Material.ocg fixture.
type MaterialGroup struct {
	// TexMap is written verbatim as TexMap.txt.
	TexMap string
	// Materials maps material name to its texture overlay.
	Materials map[string]string
	// Textures maps texture file names (with suffix) to a uniform color.
	Textures map[string]color.NRGBA
	// Packed writes the group as a packed file instead of a directory.
	Packed bool
}

// DefaultMaterialGroup returns a small but complete material group.
func DefaultMaterialGroup() MaterialGroup {
	return MaterialGroup{
		TexMap: strings.Join([]string{
			"# test texture map",
			"1=Earth-earth",
			"2=Rock-rock",
			"3=Water-water-water2",
			"",
		}, "\n"),
		Materials: map[string]string{
			"Earth": "earth",
			"Rock":  "rock",
			"Water": "water",
		},
		Textures: map[string]color.NRGBA{
			"earth.png": EarthColor,
			"rock.png":  RockColor,
			"water.png": WaterColor,
		},
	}
}

// Files returns the group entries in a stable order.
func (m MaterialGroup) Files(t testing.TB) []c4group.File {
	t.Helper()

	files := []c4group.File{{Name: "TexMap.txt", Data: []byte(m.TexMap)}}
	for _, name := range sortedKeys(m.Materials) {
		files = append(files, c4group.File{
			Name: name + ".ocm",
			Data: []byte(MaterialDefinition(name, m.Materials[name])),
		})
	}
	for _, name := range sortedKeys(m.Textures) {
		files = append(files, c4group.File{
			Name: name,
			Data: UniformPNG(t, 4, 4, m.Textures[name]),
		})
	}
	return files
}

// Write creates Material.ocg inside dir and returns its path.
func (m MaterialGroup) Write(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "Material.ocg")
	files := m.Files(t)
	if m.Packed {
		if err := c4group.WritePacked(path, files); err != nil {
			t.Fatalf("writing packed material group: %v", err)
		}
		return path
	}
	WriteFolder(t, path, files)
	return path
}

// MaterialDefinition returns a minimal *.ocm file.
func MaterialDefinition(name, overlay string) string {
	var b strings.Builder
	b.WriteString("[Material]\n")
	fmt.Fprintf(&b, "Name=%s\n", name)
	if overlay != "" {
		fmt.Fprintf(&b, "TextureOverlay=%s\n", overlay)
	}
	b.WriteString("Density=50\n")
	return b.String()
}

// Planet is a planet directory fixture: a root holding System.ocg and
// Objects.ocd, optionally with Material.ocg groups at several levels.
type Planet struct {
	Root string
}

// NewPlanet creates the root markers in a fresh temporary directory.
func NewPlanet(t testing.TB) *Planet {
	t.Helper()
	root := t.TempDir()
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	WriteFolder(t, filepath.Join(root, "System.ocg"), []c4group.File{
		{Name: "PlayerControls.txt", Data: []byte("[ControlDefs]\n[ControlDef]\nIdentifier=Left\n[ControlDef]\nIdentifier=Right\n")},
		{Name: "Map.c", Data: []byte("static const SYSTEM_MAP = 1;\n")},
	})

	libraries := filepath.Join(root, "Objects.ocd", "Libraries.ocd")
	if err := os.MkdirAll(libraries, 0755); err != nil {
		t.Fatal(err)
	}
	if err := c4group.WritePacked(filepath.Join(libraries, "Map.ocd"), []c4group.File{
		{Name: "Script.c", Data: []byte("static const Map = {};\n")},
	}); err != nil {
		t.Fatal(err)
	}

	return &Planet{Root: root}
}

// Dir creates a directory below the root and returns its path.
func (p *Planet) Dir(t testing.TB, elem ...string) string {
	t.Helper()
	dir := filepath.Join(append([]string{p.Root}, elem...)...)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

// AddMaterials writes a material group into the directory below the root.
func (p *Planet) AddMaterials(t testing.TB, m MaterialGroup, elem ...string) string {
	t.Helper()
	return m.Write(t, p.Dir(t, elem...))
}

// WriteFolder writes files as a folder group at path.
func WriteFolder(t testing.TB, path string, files []c4group.File) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		target := filepath.Join(path, f.Name)
		if f.Child {
			WriteFolder(t, target, f.Files)
			continue
		}
		if err := os.WriteFile(target, f.Data, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// UniformPNG encodes a w x h PNG filled with c.
func UniformPNG(t testing.TB, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return EncodePNG(t, img)
}

// EncodePNG encodes img as PNG.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
