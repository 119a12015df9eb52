package mattex

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/ocmapgen/internal/logger"
	"github.com/Faultbox/ocmapgen/pkg/c4group"
	"github.com/Faultbox/ocmapgen/pkg/formats"
)

// TexMapFile is the texture map entry of a Material.ocg group.
const TexMapFile = "TexMap.txt"

// MaxIndex is the highest raster index; index 0 is sky.
const MaxIndex = 255

// textureSuffixes are the image entries recognized as textures. Matching is
// case-sensitive, hence the uppercase variants.
var textureSuffixes = []string{
	".png", ".jpg", ".jpeg", ".bmp",
	".PNG", ".JPG", ".JPEG", ".BMP",
}

// LoadMapResult reports a texture map load. The overload flags tell the
// asset resolver whether to keep searching parent directories for further
// Material.ocg groups.
type LoadMapResult struct {
	Loaded            int
	OverloadMaterials bool
	OverloadTextures  bool
}

// Overloads reports whether either overload flag is set.
func (r LoadMapResult) Overloads() bool {
	return r.OverloadMaterials || r.OverloadTextures
}

type textureInfo struct {
	name     string
	avgColor uint32
}

// TextureMap is the texture catalog: raster index entries from TexMap.txt,
// registered textures with their average colors, and the decoded images.
type TextureMap struct {
	entries [MaxIndex + 1]formats.TexMapEntry
	defined [MaxIndex + 1]bool

	textures map[string]*textureInfo // lowercased name
	order    []string

	// texturesLoaded is set by the first LoadTextures call.
	texturesLoaded bool

	// images is populated once per distinct lowercased name and never evicted.
	images map[string]image.Image
}

// NewTextureMap creates an empty texture catalog.
func NewTextureMap() *TextureMap {
	return &TextureMap{
		textures: make(map[string]*textureInfo),
		images:   make(map[string]image.Image),
	}
}

// LoadMap loads TexMap.txt from g. Entries overwrite earlier ones by index;
// no index is ever removed. Once textures have been loaded, only entries
// whose texture is registered count as loaded.
func (t *TextureMap) LoadMap(g *c4group.Group) (LoadMapResult, error) {
	data, err := g.LoadEntry(TexMapFile)
	if err != nil {
		return LoadMapResult{}, err
	}

	tm, err := formats.ParseTexMap(data)
	if err != nil {
		return LoadMapResult{}, fmt.Errorf("loading %s from %s: %w", TexMapFile, g.FullName(), err)
	}
	for _, invalid := range tm.Invalid {
		logger.Warn("skipping texture map line",
			zap.String("group", g.FullName()),
			zap.Error(invalid))
	}

	result := LoadMapResult{
		OverloadMaterials: tm.OverloadMaterials,
		OverloadTextures:  tm.OverloadTextures,
	}
	checkTextures := t.texturesLoaded || len(t.textures) > 0
	for _, e := range tm.Entries {
		t.entries[e.Index] = e
		t.defined[e.Index] = true
		if checkTextures && !t.HasTexture(baseTexture(e.Texture)) {
			continue
		}
		result.Loaded++
	}

	logger.Debug("loaded texture map",
		zap.String("group", g.FullName()),
		zap.Int("entries", result.Loaded),
		zap.Bool("overload_materials", result.OverloadMaterials),
		zap.Bool("overload_textures", result.OverloadTextures))
	return result, nil
}

// LoadTextures decodes every texture image of g whose name is not cached yet.
func (t *TextureMap) LoadTextures(g *c4group.Group) error {
	t.texturesLoaded = true
	g.Rewind()
	loaded := 0
	for name := range g.Entries("*") {
		suffix, ok := textureSuffix(name)
		if !ok {
			continue
		}
		texName := strings.TrimSuffix(name, suffix)
		key := strings.ToLower(texName)
		if _, ok := t.images[key]; ok {
			continue
		}

		data, err := g.LoadEntry(name)
		if err != nil {
			return err
		}
		img, err := DecodeTexture(data)
		if err != nil {
			return fmt.Errorf("could not load texture image %s: %w", name, err)
		}
		if err := t.AddTexture(texName, AverageColor(img)); err != nil {
			return err
		}
		t.images[key] = img
		loaded++
	}

	logger.Debug("loaded textures",
		zap.String("group", g.FullName()),
		zap.Int("count", loaded))
	return nil
}

func textureSuffix(name string) (string, bool) {
	for _, suffix := range textureSuffixes {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return suffix, true
		}
	}
	return "", false
}

// AddTexture registers a texture name with its average color.
func (t *TextureMap) AddTexture(name string, avgColor uint32) error {
	key := strings.ToLower(name)
	if _, ok := t.textures[key]; ok {
		return fmt.Errorf("failed adding texture %s: already registered", name)
	}
	t.textures[key] = &textureInfo{name: name, avgColor: avgColor}
	t.order = append(t.order, name)
	return nil
}

// HasTexture reports whether a texture is registered.
func (t *TextureMap) HasTexture(name string) bool {
	_, ok := t.textures[strings.ToLower(name)]
	return ok
}

// Texture returns the decoded image of a texture.
func (t *TextureMap) Texture(name string) (image.Image, bool) {
	img, ok := t.images[strings.ToLower(name)]
	return img, ok
}

// TextureNames returns the registered texture names in load order.
func (t *TextureMap) TextureNames() []string {
	return t.order
}

// AverageColor returns the precomputed 0xAARRGGBB average of a texture.
func (t *TextureMap) AverageColor(name string) (uint32, bool) {
	info, ok := t.textures[strings.ToLower(name)]
	if !ok {
		return 0, false
	}
	return info.avgColor, true
}

// Entry returns the texture map entry for a raster index.
func (t *TextureMap) Entry(index int) (formats.TexMapEntry, bool) {
	if index < 0 || index > MaxIndex || !t.defined[index] {
		return formats.TexMapEntry{}, false
	}
	return t.entries[index], true
}

// TextureName returns the texture of the entry at index, including any
// animation frames.
func (t *TextureMap) TextureName(index int) (string, bool) {
	e, ok := t.Entry(index)
	return e.Texture, ok
}

// MaterialName returns the material of the entry at index.
func (t *TextureMap) MaterialName(index int) (string, bool) {
	e, ok := t.Entry(index)
	return e.Material, ok
}

// Indices returns all defined indices in ascending order.
func (t *TextureMap) Indices() []int {
	var indices []int
	for i, ok := range t.defined {
		if ok {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)
	return indices
}

// IndexOf resolves "Material-texture" or a bare material name to a raster
// index, case-insensitively. A bare material resolves to its first entry.
func (t *TextureMap) IndexOf(spec string) (int, bool) {
	material, texture, hasTexture := strings.Cut(spec, "-")
	for i, ok := range t.defined {
		if !ok || !strings.EqualFold(t.entries[i].Material, material) {
			continue
		}
		if !hasTexture || strings.EqualFold(t.entries[i].Texture, texture) {
			return i, true
		}
	}
	return 0, false
}

// defaultIndex returns the entry of material using overlay, falling back to
// the material's first entry, or 0.
func (t *TextureMap) defaultIndex(material, overlay string) int {
	first := 0
	for i, ok := range t.defined {
		if !ok || !strings.EqualFold(t.entries[i].Material, material) {
			continue
		}
		if overlay != "" && strings.EqualFold(baseTexture(t.entries[i].Texture), overlay) {
			return i
		}
		if first == 0 {
			first = i
		}
	}
	return first
}

// baseTexture returns the first frame of an animated texture name.
func baseTexture(name string) string {
	first, _, _ := strings.Cut(name, "-")
	return first
}

// BaseTexture returns the first frame of an animated texture name
// ("water1-water2" -> "water1").
func BaseTexture(name string) string {
	return baseTexture(name)
}
