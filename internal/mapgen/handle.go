package mapgen

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/Faultbox/ocmapgen/internal/mattex"
)

// ErrNoBackground is returned when the background layer was requested from
// a map without one.
var ErrNoBackground = errors.New("map has no background layer")

// Layer selects the foreground or background raster of a Handle.
type Layer int

const (
	Foreground Layer = iota
	Background
)

func (l Layer) String() string {
	if l == Background {
		return "background"
	}
	return "foreground"
}

// Handle is a rendered map. It borrows the catalogs it was rendered with;
// they must stay alive while the Handle is used.
type Handle struct {
	raster    *Raster
	materials *mattex.MaterialMap
	textures  *mattex.TextureMap
}

func (h *Handle) Width() int     { return h.raster.Width }
func (h *Handle) Height() int    { return h.raster.Height }
func (h *Handle) Rowstride() int { return h.raster.Rowstride }

// HasBackground reports whether the map has a background layer.
func (h *Handle) HasBackground() bool {
	return h.raster.BG != nil
}

// Warnings returns the engine's warnings, if any.
func (h *Handle) Warnings() string {
	return h.raster.Warnings
}

// ScriptOutput returns text logged by the map script, if any.
func (h *Handle) ScriptOutput() string {
	return h.raster.ScriptOutput
}

func (h *Handle) layer(l Layer) ([]byte, error) {
	if l == Background {
		if h.raster.BG == nil {
			return nil, ErrNoBackground
		}
		return h.raster.BG, nil
	}
	return h.raster.FG, nil
}

// Image materializes a layer.
func (h *Handle) Image(l Layer) (*image.RGBA, error) {
	data, err := h.layer(l)
	if err != nil {
		return nil, err
	}
	return Materialize(data, h.raster.Width, h.raster.Height, h.raster.Rowstride, h.textures, h.materials), nil
}

// MapImage materializes the foreground layer.
func (h *Handle) MapImage() *image.RGBA {
	img, _ := h.Image(Foreground)
	return img
}

// BackgroundImage materializes the background layer.
func (h *Handle) BackgroundImage() (*image.RGBA, error) {
	return h.Image(Background)
}

// EncodePNG writes a layer as PNG.
func (h *Handle) EncodePNG(w io.Writer, l Layer) error {
	img, err := h.Image(l)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// EncodeIndexed writes a layer as an 8-bit paletted BMP.
func (h *Handle) EncodeIndexed(w io.Writer, l Layer) error {
	data, err := h.layer(l)
	if err != nil {
		return err
	}
	return EncodeIndexed(w, data, h.raster.Width, h.raster.Height, h.raster.Rowstride, h.textures, h.materials)
}

// SaveMap writes the foreground as an indexed BMP.
func (h *Handle) SaveMap(path string) error {
	return h.writeFile(path, func(w io.Writer) error { return h.EncodeIndexed(w, Foreground) })
}

// SaveBackground writes the background as an indexed BMP.
func (h *Handle) SaveBackground(path string) error {
	return h.writeFile(path, func(w io.Writer) error { return h.EncodeIndexed(w, Background) })
}

// Save writes the foreground to path, choosing the format by extension.
func (h *Handle) Save(path string) error {
	return h.Export(path, Foreground)
}

// Export writes a layer to path. ".bmp" writes an indexed bitmap, ".png"
// and ".jpg"/".jpeg" a materialized image.
func (h *Handle) Export(path string, l Layer) error {
	var encode func(io.Writer) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".bmp":
		encode = func(w io.Writer) error { return h.EncodeIndexed(w, l) }
	case ".png":
		encode = func(w io.Writer) error { return h.EncodePNG(w, l) }
	case ".jpg", ".jpeg":
		encode = func(w io.Writer) error {
			img, err := h.Image(l)
			if err != nil {
				return err
			}
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
		}
	default:
		return fmt.Errorf("unsupported image format %q", ext)
	}
	return h.writeFile(path, encode)
}

func (h *Handle) writeFile(path string, encode func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	if err := encode(f); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
