// Package mattex holds the material and texture catalogs loaded from
// Material.ocg groups.
package mattex

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/ocmapgen/internal/logger"
	"github.com/Faultbox/ocmapgen/pkg/c4group"
	"github.com/Faultbox/ocmapgen/pkg/formats"
)

// MaterialFiles is the wildcard matching material definitions in a group.
const MaterialFiles = "*.ocm"

type materialEntry struct {
	def        formats.MaterialDef
	defaultTex int
}

// MaterialMap is the ordered material catalog. Successive loads append;
// duplicates across groups are kept, so indices stay stable once assigned.
type MaterialMap struct {
	materials []materialEntry
}

// Material is a read-only view of a catalog entry. It is only valid while
// the MaterialMap it came from is alive.
type Material struct {
	m     *MaterialMap
	index int
}

// NewMaterialMap creates an empty material catalog.
func NewMaterialMap() *MaterialMap {
	return &MaterialMap{}
}

// Load appends every material definition of g and returns how many were
// loaded. Definitions that fail to parse are skipped with a warning.
func (m *MaterialMap) Load(g *c4group.Group) (int, error) {
	g.Rewind()
	loaded := 0
	for name := range g.Entries(MaterialFiles) {
		data, err := g.LoadEntry(name)
		if err != nil {
			return loaded, err
		}
		def, err := formats.ParseMaterial(data)
		if err != nil {
			logger.Warn("skipping material",
				zap.String("group", g.FullName()),
				zap.String("entry", name),
				zap.Error(err))
			continue
		}
		m.materials = append(m.materials, materialEntry{def: *def})
		loaded++
	}

	logger.Debug("loaded materials",
		zap.String("group", g.FullName()),
		zap.Int("count", loaded))
	return loaded, nil
}

// Len returns the number of materials.
func (m *MaterialMap) Len() int {
	return len(m.materials)
}

// ByIndex returns the material at index i.
func (m *MaterialMap) ByIndex(i int) (Material, bool) {
	if i < 0 || i >= len(m.materials) {
		return Material{}, false
	}
	return Material{m: m, index: i}, true
}

// ByName returns the first material whose name matches case-insensitively.
// Catalogs hold a few dozen materials, so a linear scan is enough.
func (m *MaterialMap) ByName(name string) (Material, bool) {
	for i, mat := range m.materials {
		if strings.EqualFold(mat.def.Name, name) {
			return Material{m: m, index: i}, true
		}
	}
	return Material{}, false
}

// SetDefaultTextures binds every material to a texture map index: the entry
// using the material's texture overlay if there is one, otherwise the first
// entry of the material. Call once after materials and textures are loaded.
func (m *MaterialMap) SetDefaultTextures(t *TextureMap) {
	for i := range m.materials {
		mat := &m.materials[i]
		mat.defaultTex = t.defaultIndex(mat.def.Name, mat.def.TextureOverlay)
		if mat.defaultTex == 0 {
			logger.Debug("material has no texture map entry", zap.String("material", mat.def.Name))
		}
	}
}

// Name returns the material name.
func (mat Material) Name() string {
	return mat.m.materials[mat.index].def.Name
}

// TextureOverlay returns the texture drawn for the material when its own
// texture is unavailable. It may be empty.
func (mat Material) TextureOverlay() string {
	return mat.m.materials[mat.index].def.TextureOverlay
}

// Density returns the material density.
func (mat Material) Density() int {
	return mat.m.materials[mat.index].def.Density
}

// DefaultTexIndex returns the texture map index bound by SetDefaultTextures,
// or 0 if the material has none.
func (mat Material) DefaultTexIndex() int {
	return mat.m.materials[mat.index].defaultTex
}

// Index returns the material's position in the catalog.
func (mat Material) Index() int {
	return mat.index
}
