package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/bodgit/pie"
	"github.com/bodgit/pie/palette"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/nfnt/resize"
)

var errExternalPalette = errors.New("image: external palette requires a palette")

// Options controls how an image is encoded.
type Options struct {
	// Palette is used instead of building one from the image colors
	Palette *palette.Palette
	// External leaves the palette out of the file, Palette must be set
	External bool
	// Quantize, if non-zero, is the number of colors to reduce an image to
	// when it has too many colors for a palette
	Quantize int
}

// Flatten returns the pixels of m as bytes in row-major order. The format is
// RGB unless at least one pixel is not fully opaque.
func Flatten(m image.Image) (uint16, uint16, palette.Format, []byte, error) {
	b := m.Bounds()
	if b.Dx() > pie.MaxDimension || b.Dy() > pie.MaxDimension {
		return 0, 0, palette.RGB, nil, fmt.Errorf("%w: %dx%d is too large", pie.ErrWrongPixelCount, b.Dx(), b.Dy())
	}

	nrgba, _ := m.(*image.NRGBA)

	opaque := true
	pix := make([]byte, 0, b.Dx()*b.Dy()*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var c color.NRGBA
			if nrgba != nil {
				c = nrgba.NRGBAAt(x, y)
			} else {
				c = color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			}
			if c.A != 0xff {
				opaque = false
			}
			pix = append(pix, c.R, c.G, c.B, c.A)
		}
	}

	if !opaque {
		return uint16(b.Dx()), uint16(b.Dy()), palette.RGBA, pix, nil
	}

	// Drop the alpha channel in place
	n := 0
	for i := 0; i < len(pix); i += 4 {
		n += copy(pix[n:], pix[i:i+3])
	}

	return uint16(b.Dx()), uint16(b.Dy()), palette.RGB, pix[:n], nil
}

// opaqueRGBA widens RGB pixels to RGBA with full alpha
func opaqueRGBA(pix []byte) []byte {
	out := make([]byte, 0, len(pix)/3*4)
	for i := 0; i < len(pix); i += 3 {
		out = append(out, pix[i], pix[i+1], pix[i+2], 0xff)
	}
	return out
}

// reduce quantizes m down to at most n colors
func reduce(m image.Image, n int) *image.Paletted {
	if n > palette.MaxColors {
		n = palette.MaxColors
	}

	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	return pm
}

func encode(m image.Image, o *Options) (*pie.EncodedImage, error) {
	width, height, f, pix, err := Flatten(m)
	if err != nil {
		return nil, err
	}

	// An opaque image can still be matched against a palette with alpha
	if o.Palette != nil && o.Palette.Format() == palette.RGBA && f == palette.RGB {
		pix = opaqueRGBA(pix)
	}

	return pie.Encode(width, height, pix, !o.External, o.Palette)
}

// EncodeImage converts m into a pie.EncodedImage. A nil o embeds a palette
// built from the image colors.
func EncodeImage(m image.Image, o *Options) (*pie.EncodedImage, error) {
	if o == nil {
		o = &Options{}
	}
	if o.External && o.Palette == nil {
		return nil, errExternalPalette
	}

	e, err := encode(m, o)
	if errors.Is(err, pie.ErrTooManyColors) && o.Quantize > 0 {
		return encode(reduce(m, o.Quantize), o)
	}
	return e, err
}

// Encode writes the Image m to w in PIE format. A nil o embeds a palette built
// from the image colors.
func Encode(w io.Writer, m image.Image, o *Options) error {
	e, err := EncodeImage(m, o)
	if err != nil {
		return err
	}

	b, err := e.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}

// Scale enlarges m by an integer factor using nearest-neighbour sampling so
// no new colors are introduced. A factor of 0 or 1 returns m unchanged.
func Scale(m image.Image, factor uint) image.Image {
	if factor <= 1 {
		return m
	}
	b := m.Bounds()
	return resize.Resize(uint(b.Dx())*factor, uint(b.Dy())*factor, m, resize.NearestNeighbor)
}
