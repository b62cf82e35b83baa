/*
Package palette implements the color palettes used by PIE images.

A palette is an ordered list of up to 256 unique colors. Each color is stored
as either three (RGB) or four (RGBA) bytes and is addressed by its position in
the list, so an index always fits in a single byte. Palettes are immutable once
created and may be shared between any number of images.
*/
package palette

import (
	"bytes"
	"errors"
	"fmt"
)

// MaxColors is the maximum number of colors a palette can hold
const MaxColors = 256

var (
	// ErrTooManyColors is returned when a palette would exceed MaxColors
	ErrTooManyColors = errors.New("palette: too many colors")
	// ErrNotFound is returned when a color is not present in a palette
	ErrNotFound = errors.New("palette: color not found")
	// ErrDuplicateColor is returned when a color appears more than once
	ErrDuplicateColor = errors.New("palette: duplicate color")
	// ErrBadLength is returned when a byte slice is not a whole number of colors
	ErrBadLength = errors.New("palette: length is not a multiple of the stride")
	// ErrBadFormat is returned for an unknown pixel format
	ErrBadFormat = errors.New("palette: unknown format")
)

// Format describes the channels of each color.
type Format uint8

const (
	// RGB colors are three bytes, red, green, blue
	RGB Format = iota
	// RGBA colors are four bytes, red, green, blue, alpha
	RGBA
)

// Stride returns the number of bytes per color.
func (f Format) Stride() int {
	if f == RGBA {
		return 4
	}
	return 3
}

func (f Format) String() string {
	switch f {
	case RGB:
		return "RGB"
	case RGBA:
		return "RGBA"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

func (f Format) valid() bool {
	return f == RGB || f == RGBA
}

// Palette is an immutable, ordered set of colors.
type Palette struct {
	format Format
	colors []byte
	index  map[string]byte
}

func newPalette(f Format, n int) *Palette {
	return &Palette{
		format: f,
		colors: make([]byte, 0, n*f.Stride()),
		index:  make(map[string]byte, n),
	}
}

func (p *Palette) add(c []byte) error {
	if len(p.index) == MaxColors {
		return ErrTooManyColors
	}
	p.index[string(c)] = byte(len(p.index))
	p.colors = append(p.colors, c...)
	return nil
}

// New returns a palette holding a copy of colors, which must be a sequence of
// unique colors laid out with the stride of f.
func New(f Format, colors []byte) (*Palette, error) {
	if !f.valid() {
		return nil, ErrBadFormat
	}
	stride := f.Stride()
	if len(colors)%stride != 0 {
		return nil, ErrBadLength
	}

	p := newPalette(f, len(colors)/stride)
	for i := 0; i < len(colors); i += stride {
		c := colors[i : i+stride]
		if _, ok := p.index[string(c)]; ok {
			return nil, fmt.Errorf("%w: entry %d", ErrDuplicateColor, i/stride)
		}
		if err := p.add(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Build scans pixels one color at a time and returns a palette containing
// each distinct color in the order it was first seen. The resulting indices
// therefore depend on the scan order of pixels.
func Build(f Format, pixels []byte) (*Palette, error) {
	if !f.valid() {
		return nil, ErrBadFormat
	}
	stride := f.Stride()
	if len(pixels)%stride != 0 {
		return nil, ErrBadLength
	}

	p := newPalette(f, 0)
	for i := 0; i < len(pixels); i += stride {
		c := pixels[i : i+stride]
		if _, ok := p.index[string(c)]; ok {
			continue
		}
		if err := p.add(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Format returns the pixel format of the palette.
func (p *Palette) Format() Format {
	return p.format
}

// Len returns the number of colors.
func (p *Palette) Len() int {
	return len(p.index)
}

// Color returns the color at index i. The returned slice must not be modified.
func (p *Palette) Color(i int) ([]byte, bool) {
	if i < 0 || i >= p.Len() {
		return nil, false
	}
	s := p.format.Stride()
	return p.colors[i*s : (i+1)*s : (i+1)*s], true
}

// IndexOf returns the index of color c using an exact byte comparison.
func (p *Palette) IndexOf(c []byte) (byte, error) {
	if i, ok := p.index[string(c)]; ok {
		return i, nil
	}
	return 0, ErrNotFound
}

// Bytes returns a copy of the colors.
func (p *Palette) Bytes() []byte {
	return append([]byte(nil), p.colors...)
}

// Equal reports whether p and q hold the same colors in the same order.
func (p *Palette) Equal(q *Palette) bool {
	if p == nil || q == nil {
		return p == q
	}
	return p.format == q.format && bytes.Equal(p.colors, q.colors)
}

// MarshalBinary encodes the palette as a format byte followed by the colors.
func (p *Palette) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 1+len(p.colors))
	b = append(b, byte(p.format))
	return append(b, p.colors...), nil
}

// UnmarshalBinary decodes a palette previously encoded with MarshalBinary.
func (p *Palette) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return errors.New("palette: insufficient data")
	}
	q, err := New(Format(b[0]), b[1:])
	if err != nil {
		return err
	}
	*p = *q
	return nil
}
