package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/ocmapgen/pkg/encoding"
)

// TexMap.txt keywords.
const (
	keywordOverloadMaterials = "OverloadMaterials"
	keywordOverloadTextures  = "OverloadTextures"
)

// Texture map index limits. Index 0 is reserved for sky.
const (
	TexMapMinIndex = 1
	TexMapMaxIndex = 255
)

// TexMap errors.
var (
	ErrInvalidTexMapLine = errors.New("invalid texture map line")
	ErrTexMapIndexRange  = errors.New("texture map index out of range")
)

// TexMapEntry binds a raster index to a material and texture. Animated
// textures list several frames separated by '-'.
type TexMapEntry struct {
	Index    int
	Material string
	Texture  string
}

// Spec returns the entry in "Material-texture" form.
func (e TexMapEntry) Spec() string {
	return e.Material + "-" + e.Texture
}

// TexMap is a parsed TexMap.txt.
type TexMap struct {
	Entries           []TexMapEntry
	OverloadMaterials bool
	OverloadTextures  bool

	// Invalid collects lines that were skipped, with the reason.
	Invalid []error
}

// ParseTexMap parses TexMap.txt content. Malformed lines are skipped and
// reported in Invalid rather than failing the whole file.
func ParseTexMap(data []byte) (*TexMap, error) {
	tm := &TexMap{}

	text := encoding.Windows1252ToUTF8(data)
	scanner := bufio.NewScanner(bytes.NewReader([]byte(text)))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		switch {
		case strings.HasPrefix(line, keywordOverloadMaterials):
			tm.OverloadMaterials = true
			continue
		case strings.HasPrefix(line, keywordOverloadTextures):
			tm.OverloadTextures = true
			continue
		}

		entry, err := parseTexMapLine(line)
		if err != nil {
			tm.Invalid = append(tm.Invalid, fmt.Errorf("line %d: %w", lineNo, err))
			continue
		}
		tm.Entries = append(tm.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading texture map: %w", err)
	}

	return tm, nil
}

func parseTexMapLine(line string) (TexMapEntry, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return TexMapEntry{}, fmt.Errorf("%w: %q", ErrInvalidTexMapLine, line)
	}

	index, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil {
		return TexMapEntry{}, fmt.Errorf("%w: %q", ErrInvalidTexMapLine, line)
	}
	if index < TexMapMinIndex || index > TexMapMaxIndex {
		return TexMapEntry{}, fmt.Errorf("%w: %d", ErrTexMapIndexRange, index)
	}

	material, texture, ok := strings.Cut(strings.TrimSpace(value), "-")
	if !ok || material == "" || texture == "" {
		return TexMapEntry{}, fmt.Errorf("%w: %q", ErrInvalidTexMapLine, line)
	}

	return TexMapEntry{Index: index, Material: material, Texture: texture}, nil
}
