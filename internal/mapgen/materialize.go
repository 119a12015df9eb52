package mapgen

import (
	"image"
	"image/color"
	"io"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/ocmapgen/internal/mattex"
)

// SkyColor is drawn for index 0 and for indices that resolve to no texture.
var SkyColor = color.RGBA{R: 100, G: 100, B: 255, A: 255}

// Materialize converts an indexed raster into a true-color image. Each
// distinct index is resolved once per call.
func Materialize(raster []byte, width, height, rowstride int, textures *mattex.TextureMap, materials *mattex.MaterialMap) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	var cache [256]struct {
		c  color.RGBA
		ok bool
	}
	cache[0].c, cache[0].ok = SkyColor, true

	for y := 0; y < height; y++ {
		row := raster[y*rowstride : y*rowstride+width]
		out := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x, index := range row {
			slot := &cache[index]
			if !slot.ok {
				slot.c = resolveColor(int(index), textures, materials)
				slot.ok = true
			}
			out[x*4+0] = slot.c.R
			out[x*4+1] = slot.c.G
			out[x*4+2] = slot.c.B
			out[x*4+3] = 255
		}
	}
	return img
}

// resolveColor returns the average color of the texture drawn for a raster
// index. Animated textures use their first frame. Unknown textures fall back
// to the material's texture overlay, and then to sky.
func resolveColor(index int, textures *mattex.TextureMap, materials *mattex.MaterialMap) color.RGBA {
	if index == 0 {
		return SkyColor
	}

	name, ok := textures.TextureName(index)
	if !ok {
		return SkyColor
	}
	texture := mattex.BaseTexture(name)
	if !textures.HasTexture(texture) {
		texture = ""
		if matName, ok := textures.MaterialName(index); ok && materials != nil {
			if mat, ok := materials.ByName(matName); ok && mat.TextureOverlay() != "" {
				texture = mat.TextureOverlay()
			}
		}
	}

	avg, ok := textures.AverageColor(texture)
	if texture == "" || !ok {
		return SkyColor
	}
	r, g, b, _ := mattex.UnpackColor(avg)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Palette returns the 256 colors Materialize would draw for each index.
func Palette(textures *mattex.TextureMap, materials *mattex.MaterialMap) color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = resolveColor(i, textures, materials)
	}
	return p
}

// EncodeIndexed writes the raster as an 8-bit paletted BMP. Raster indices
// are kept as pixel values.
func EncodeIndexed(w io.Writer, raster []byte, width, height, rowstride int, textures *mattex.TextureMap, materials *mattex.MaterialMap) error {
	img := image.NewPaletted(image.Rect(0, 0, width, height), Palette(textures, materials))
	for y := 0; y < height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+width], raster[y*rowstride:y*rowstride+width])
	}
	return bmp.Encode(w, img)
}
