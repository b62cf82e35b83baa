package pie

import (
	"fmt"

	"github.com/bodgit/pie/palette"
	"github.com/bodgit/pie/rle"
)

// resolvePalette picks the embedded palette if there is one, otherwise p
func (e *EncodedImage) resolvePalette(p *palette.Palette) (*palette.Palette, error) {
	if e.Palette != nil {
		p = e.Palette
	}
	if p == nil {
		return nil, ErrMissingPalette
	}
	if p.Format() != e.Format {
		return nil, fmt.Errorf("%w: %s palette for %s image", ErrPaletteFormat, p.Format(), e.Format)
	}
	return p, nil
}

// Decode expands e back into pixels. An embedded palette takes precedence over
// p, which is only required when e has no palette of its own.
func (e *EncodedImage) Decode(p *palette.Palette) (*DecodedImage, error) {
	p, err := e.resolvePalette(p)
	if err != nil {
		return nil, err
	}

	n := pixelCount(e.Width, e.Height)
	if total := rle.Len(e.Runs); total != n {
		return nil, fmt.Errorf("%w: runs cover %d of %d pixels", ErrWrongPixelCount, total, n)
	}

	indices, err := rle.Decode(e.Runs)
	if err != nil {
		return nil, err
	}

	d := &DecodedImage{
		Width:  e.Width,
		Height: e.Height,
		Format: e.Format,
		Pix:    make([]byte, 0, n*e.Format.Stride()),
	}
	for i, idx := range indices {
		c, ok := p.Color(int(idx))
		if !ok {
			return nil, fmt.Errorf("%w: index %d at pixel %d, palette has %d colors", ErrColorNotFound, idx, i, p.Len())
		}
		d.Pix = append(d.Pix, c...)
	}

	return d, nil
}

// Decode parses b as a PIE file and expands it into pixels. p is only used if
// the file does not embed its own palette.
func Decode(b []byte, p *palette.Palette) (*DecodedImage, error) {
	e := new(EncodedImage)
	if err := e.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return e.Decode(p)
}
