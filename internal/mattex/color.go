package mattex

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration

	_ "golang.org/x/image/bmp" // BMP decoder registration
)

// DecodeTexture decodes a PNG, JPEG or BMP texture image.
func DecodeTexture(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding texture: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decoding texture: empty %s image", format)
	}
	return img, nil
}

// AverageColor returns the per-channel mean of all pixels as 0xAARRGGBB.
// Channels are averaged unpremultiplied and rounded half up, so a uniform
// image yields its own color exactly and an even black/white split yields
// 0x80 per color channel.
func AverageColor(img image.Image) uint32 {
	b := img.Bounds()
	n := uint64(b.Dx()) * uint64(b.Dy())
	if n == 0 {
		return 0
	}

	var sr, sg, sb, sa uint64
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := nrgba.Pix[nrgba.PixOffset(b.Min.X, y):nrgba.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				sr += uint64(row[i])
				sg += uint64(row[i+1])
				sb += uint64(row[i+2])
				sa += uint64(row[i+3])
			}
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				sr += uint64(c.R)
				sg += uint64(c.G)
				sb += uint64(c.B)
				sa += uint64(c.A)
			}
		}
	}

	return PackColor(roundMean(sr, n), roundMean(sg, n), roundMean(sb, n), roundMean(sa, n))
}

func roundMean(sum, n uint64) uint8 {
	return uint8((2*sum + n) / (2 * n))
}

// PackColor packs channels as 0xAARRGGBB.
func PackColor(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// UnpackColor splits a 0xAARRGGBB value into channels.
func UnpackColor(c uint32) (r, g, b, a uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c), uint8(c >> 24)
}
