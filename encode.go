package pie

import (
	"errors"
	"fmt"

	"github.com/bodgit/pie/palette"
	"github.com/bodgit/pie/rle"
)

// inferFormat works out the pixel format from the length of pix
func inferFormat(width, height uint16, pix []byte, p *palette.Palette) (PixelFormat, error) {
	n := pixelCount(width, height)
	switch {
	case n == 0 && len(pix) == 0:
		if p != nil {
			return p.Format(), nil
		}
		return RGB, nil
	case len(pix) == n*RGB.Stride():
		return RGB, nil
	case len(pix) == n*RGBA.Stride():
		return RGBA, nil
	}
	return RGB, fmt.Errorf("%w: %d bytes for %dx%d pixels", ErrWrongPixelCount, len(pix), width, height)
}

// Encode converts pix, which must hold exactly width*height RGB or RGBA
// pixels, into an EncodedImage.
//
// If p is nil a palette is built from the colors in pix in the order they are
// first seen, so two images with the same colors laid out differently can end
// up with different indices. Otherwise every color must already be present in
// p. The palette is only attached to the result if embed is true; if it isn't,
// the same palette has to be supplied again when decoding.
func Encode(width, height uint16, pix []byte, embed bool, p *palette.Palette) (*EncodedImage, error) {
	f, err := inferFormat(width, height, pix, p)
	if err != nil {
		return nil, err
	}

	if p == nil {
		if p, err = palette.Build(f, pix); err != nil {
			return nil, err
		}
	} else if p.Format() != f {
		return nil, fmt.Errorf("%w: %s palette for %s pixels", ErrPaletteFormat, p.Format(), f)
	}

	stride := f.Stride()
	indices := make([]byte, 0, len(pix)/stride)
	for i := 0; i < len(pix); i += stride {
		idx, err := p.IndexOf(pix[i : i+stride])
		if err != nil {
			if errors.Is(err, palette.ErrNotFound) {
				return nil, fmt.Errorf("%w: pixel %d % x", ErrColorNotInPalette, i/stride, pix[i:i+stride])
			}
			return nil, err
		}
		indices = append(indices, idx)
	}

	e := &EncodedImage{
		Width:  width,
		Height: height,
		Format: f,
		Runs:   rle.Encode(indices, rle.MaxRun),
	}
	if embed {
		e.Palette = p
	}

	return e, nil
}
