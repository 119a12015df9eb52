package formats

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/Faultbox/ocmapgen/pkg/encoding"
)

// Material definition errors.
var (
	ErrNoMaterialSection = errors.New("missing [Material] section")
	ErrNoMaterialName    = errors.New("material has no name")
)

// MaterialDef is the subset of an *.ocm material definition used for
// rendering map previews.
type MaterialDef struct {
	Name           string
	TextureOverlay string
	Density        int
}

// definitionLoadOptions are shared by all OpenClonk INI-style files.
// Material files repeat [Reaction] sections and parameter files repeat
// [ParameterDef] and [Option] sections.
var definitionLoadOptions = ini.LoadOptions{
	InsensitiveSections:     true,
	InsensitiveKeys:         true,
	AllowNonUniqueSections:  true,
	SkipUnrecognizableLines: true,
	IgnoreInlineComment:     true,
}

func loadDefinition(data []byte) (*ini.File, error) {
	return ini.LoadSources(definitionLoadOptions, []byte(encoding.Windows1252ToUTF8(data)))
}

// ParseMaterial parses an *.ocm material definition.
func ParseMaterial(data []byte) (*MaterialDef, error) {
	f, err := loadDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("parsing material: %w", err)
	}

	sec, err := f.GetSection("material")
	if err != nil {
		return nil, ErrNoMaterialSection
	}

	def := &MaterialDef{
		Name:           strings.TrimSpace(sec.Key("name").String()),
		TextureOverlay: strings.TrimSpace(sec.Key("textureoverlay").String()),
		Density:        sec.Key("density").MustInt(0),
	}
	if def.Name == "" {
		return nil, ErrNoMaterialName
	}
	return def, nil
}
