package mapgen

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/ocmapgen/internal/mattex"
	"github.com/Faultbox/ocmapgen/internal/testutil"
	"github.com/Faultbox/ocmapgen/pkg/c4group"
)

type fakeEngine struct {
	raster *Raster
	err    error
	seed   uint32
}

func (e *fakeEngine) SetMapLibrary(*c4group.Group) error { return nil }
func (e *fakeEngine) LoadScript(string, string) error    { return nil }
func (e *fakeEngine) SetStartupPlayerCount(int32)        {}
func (e *fakeEngine) SetStartupTeamCount(int32)          {}
func (e *fakeEngine) Seed(seed uint32)                   { e.seed = seed }

func (e *fakeEngine) RenderScript(ScriptJob) (*Raster, error) {
	return e.raster, e.err
}

func (e *fakeEngine) RenderLandscape(LandscapeJob) (*Raster, error) {
	return e.raster, e.err
}

func loadCatalogs(t *testing.T, m testutil.MaterialGroup) (*mattex.MaterialMap, *mattex.TextureMap) {
	t.Helper()
	g, err := c4group.Open(m.Write(t, t.TempDir()), false)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	materials := mattex.NewMaterialMap()
	textures := mattex.NewTextureMap()
	if _, err := materials.Load(g); err != nil {
		t.Fatal(err)
	}
	if err := textures.LoadTextures(g); err != nil {
		t.Fatal(err)
	}
	if _, err := textures.LoadMap(g); err != nil {
		t.Fatal(err)
	}
	materials.SetDefaultTextures(textures)
	return materials, textures
}

func rgb(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func TestInitSingleton(t *testing.T) {
	g, err := Init(&fakeEngine{})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := Init(&fakeEngine{}); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}

	g.Close()
	g.Close()
	if _, err := g.RenderScript(ScriptJob{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	again, err := Init(&fakeEngine{})
	if err != nil {
		t.Fatalf("Init after Close failed: %v", err)
	}
	again.Close()
}

func TestMaterializeSky(t *testing.T) {
	materials, textures := loadCatalogs(t, testutil.DefaultMaterialGroup())

	raster := []byte{0, 0, 0, 9, 0, 200, 0, 0}
	img := Materialize(raster, 4, 2, 4, textures, materials)
	for i, idx := range raster {
		if idx == 1 || idx == 2 || idx == 3 {
			continue
		}
		if got := img.RGBAAt(i%4, i/4); got != SkyColor {
			t.Errorf("pixel %d (index %d): expected sky, got %v", i, idx, got)
		}
	}

	empty := Materialize([]byte{0, 1}, 2, 1, 2, mattex.NewTextureMap(), mattex.NewMaterialMap())
	if empty.RGBAAt(0, 0) != SkyColor || empty.RGBAAt(1, 0) != SkyColor {
		t.Error("expected sky for empty catalogs")
	}
}

func TestMaterializeResolution(t *testing.T) {
	m := testutil.MaterialGroup{
		TexMap: "1=Earth-earth\n2=Water-water-water2\n3=Lava-lava-lava2\n4=Acid-acid\n5=Ghost-ghost\n",
		Materials: map[string]string{
			"Earth": "earth",
			"Water": "water",
			"Lava":  "rock",
			"Acid":  "",
		},
		Textures: map[string]color.NRGBA{
			"earth.png": testutil.EarthColor,
			"water.png": testutil.WaterColor,
			"rock.png":  testutil.RockColor,
		},
	}
	materials, textures := loadCatalogs(t, m)

	tests := []struct {
		name  string
		index byte
		want  color.RGBA
	}{
		{"plain texture", 1, rgb(testutil.EarthColor)},
		{"animated uses first frame", 2, rgb(testutil.WaterColor)},
		{"unknown texture uses overlay", 3, rgb(testutil.RockColor)},
		{"no overlay is sky", 4, SkyColor},
		{"unknown material is sky", 5, SkyColor},
		{"undefined index is sky", 6, SkyColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := Materialize([]byte{tt.index}, 1, 1, 1, textures, materials)
			if got := img.RGBAAt(0, 0); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMaterializeRowstride(t *testing.T) {
	materials, textures := loadCatalogs(t, testutil.DefaultMaterialGroup())

	// Padding bytes past the width must be ignored.
	raster := []byte{
		1, 2, 99, 99,
		3, 0, 99, 99,
	}
	img := Materialize(raster, 2, 2, 4, textures, materials)
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if got := img.RGBAAt(0, 1); got != rgb(testutil.WaterColor) {
		t.Errorf("expected water at (0,1), got %v", got)
	}
	if got := img.RGBAAt(1, 0); got != rgb(testutil.RockColor) {
		t.Errorf("expected rock at (1,0), got %v", got)
	}
}

func TestRenderErrors(t *testing.T) {
	engine := &fakeEngine{err: errors.New("script.c:3: syntax error")}
	g, err := Init(engine)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	_, err = g.RenderScript(ScriptJob{Filename: "Map.c"})
	var mgErr *Error
	if !errors.As(err, &mgErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if mgErr.Message != "script.c:3: syntax error" {
		t.Errorf("unexpected message %q", mgErr.Message)
	}

	engine.err = nil
	engine.raster = &Raster{Width: 4, Height: 4, Rowstride: 4, FG: make([]byte, 8)}
	if _, err := g.RenderLandscape(LandscapeJob{}); !errors.As(err, &mgErr) {
		t.Errorf("expected truncated raster error, got %v", err)
	}
}

func TestHandleOutputs(t *testing.T) {
	materials, textures := loadCatalogs(t, testutil.DefaultMaterialGroup())

	engine := &fakeEngine{raster: &Raster{
		Width: 3, Height: 2, Rowstride: 3,
		FG:       []byte{0, 1, 2, 3, 2, 1},
		Warnings: "unused variable",
	}}
	g, err := Init(engine)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	h, err := g.RenderScript(ScriptJob{Materials: materials, Textures: textures})
	if err != nil {
		t.Fatalf("RenderScript failed: %v", err)
	}
	if h.Width() != 3 || h.Height() != 2 || h.Rowstride() != 3 {
		t.Errorf("unexpected dimensions %dx%d/%d", h.Width(), h.Height(), h.Rowstride())
	}
	if h.Warnings() != "unused variable" {
		t.Errorf("unexpected warnings %q", h.Warnings())
	}
	if h.HasBackground() {
		t.Error("unexpected background")
	}
	if _, err := h.BackgroundImage(); !errors.Is(err, ErrNoBackground) {
		t.Errorf("expected ErrNoBackground, got %v", err)
	}

	dir := t.TempDir()
	for _, name := range []string{"map.png", "map.jpg", "map.bmp"} {
		if err := h.Save(filepath.Join(dir, name)); err != nil {
			t.Errorf("Save(%s) failed: %v", name, err)
		}
	}
	if err := h.Save(filepath.Join(dir, "map.gif")); err == nil {
		t.Error("expected unsupported extension to fail")
	}

	data, err := os.ReadFile(filepath.Join(dir, "map.bmp"))
	if err != nil {
		t.Fatal(err)
	}
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding indexed map: %v", err)
	}
	paletted, ok := img.(*image.Paletted)
	if !ok {
		t.Fatalf("expected paletted image, got %T", img)
	}
	if paletted.ColorIndexAt(2, 0) != 2 || paletted.ColorIndexAt(0, 1) != 3 {
		t.Errorf("raster indices not preserved: %v", paletted.Pix)
	}
	if got := color.RGBAModel.Convert(paletted.At(1, 0)).(color.RGBA); got != rgb(testutil.EarthColor) {
		t.Errorf("unexpected palette color %v", got)
	}
}
