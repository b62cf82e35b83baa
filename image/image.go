/*
Package image adapts PIE images to the standard library image package.

Importing this package registers the "pie" format with image.Decode. Decoded
images are returned as *image.NRGBA; an RGB file decodes to fully opaque
pixels. Images that use an external palette can't be decoded through
image.Decode, use DecodeWithPalette instead.

When encoding, any image is flattened to non-premultiplied bytes, stored as RGB
if every pixel is opaque and as RGBA otherwise.
*/
package image

import (
	"image"
	"image/color"

	"github.com/bodgit/pie"
	"github.com/bodgit/pie/palette"
)

func init() {
	image.RegisterFormat("pie", pie.Magic, Decode, DecodeConfig)
}

// ColorPalette converts p into a color.Palette of color.NRGBA values.
func ColorPalette(p *palette.Palette) color.Palette {
	cp := make(color.Palette, p.Len())
	for i := range cp {
		c, _ := p.Color(i)
		n := color.NRGBA{c[0], c[1], c[2], 0xff}
		if len(c) == 4 {
			n.A = c[3]
		}
		cp[i] = n
	}
	return cp
}

// NRGBA converts decoded pixels into an *image.NRGBA.
func NRGBA(d *pie.DecodedImage) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, int(d.Width), int(d.Height)))
	if d.Format == pie.RGBA {
		copy(m.Pix, d.Pix)
		return m
	}
	for i, j := 0, 0; i < len(d.Pix); i, j = i+3, j+4 {
		copy(m.Pix[j:j+3], d.Pix[i:i+3])
		m.Pix[j+3] = 0xff
	}
	return m
}
