/*
Package pie implements the PIE (Pixel Indexed Encoding) lossless image format.

PIE is aimed at pixel art, where palettes are small and horizontal runs of the
same color are common. Each pixel is replaced by an index into a palette of up
to 256 colors and the resulting index stream is run-length encoded. The palette
may be embedded in the file or kept externally and shared between images.

The file is an 11 byte header followed by the run pairs and then, optionally,
the palette:

	magic     3 bytes  "PIE"
	version   uint8
	width     uint16   big-endian
	height    uint16   big-endian
	flags     uint8    bit 0 palette embedded, bit 1 alpha channel
	runs      uint16   big-endian, number of run pairs
	data      runs * (count uint8, index uint8)
	palette   remaining bytes, 3 or 4 bytes per color

The number of palette entries is not stored; it is derived from the number of
bytes left after the run pairs. Runs are not broken at the end of a row.

Palette and pixel bytes always use the same channel order, red, green, blue and
then alpha for RGBA images.
*/
package pie

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/bodgit/pie/palette"
	"github.com/bodgit/pie/rle"
)

const (
	// Magic is the signature at the start of every PIE file
	Magic = "PIE"
	// Version is the format version written by this package
	Version = 1
	// HeaderSize is the size in bytes of the fixed header
	HeaderSize = 11

	// FlagPalette is set when the palette is embedded after the run pairs
	FlagPalette = 1 << 0
	// FlagAlpha is set when colors carry an alpha channel
	FlagAlpha = 1 << 1

	flagReserved = 0xff &^ (FlagPalette | FlagAlpha)

	// MaxRuns is the largest number of run pairs the header can describe
	MaxRuns = math.MaxUint16
	// MaxDimension is the largest width or height of an image
	MaxDimension = math.MaxUint16
)

// PixelFormat describes the channels of each pixel.
type PixelFormat = palette.Format

// Supported pixel formats.
const (
	RGB  = palette.RGB
	RGBA = palette.RGBA
)

var (
	// ErrTooManyColors is returned when an image needs more than 256 colors
	ErrTooManyColors = palette.ErrTooManyColors
	// ErrColorNotInPalette is returned when encoding against a palette that
	// lacks one of the colors in the image
	ErrColorNotInPalette = errors.New("pie: color not in palette")
	// ErrWrongPixelCount is returned when the amount of pixel data does not
	// match the image dimensions
	ErrWrongPixelCount = errors.New("pie: wrong pixel count")
	// ErrInvalidRun is returned when a run has a count of zero
	ErrInvalidRun = rle.ErrInvalidRun
	// ErrMissingPalette is returned when decoding an image without an
	// embedded palette and no palette was supplied
	ErrMissingPalette = errors.New("pie: missing palette")
	// ErrColorNotFound is returned when an index is outside of the palette
	ErrColorNotFound = errors.New("pie: color not found")
	// ErrMalformedHeader is returned for data that is not a valid PIE file
	ErrMalformedHeader = errors.New("pie: malformed header")
	// ErrTooManyRuns is returned when there are more run pairs than the
	// header can describe
	ErrTooManyRuns = errors.New("pie: too many runs")
	// ErrPaletteFormat is returned when a supplied palette does not match
	// the pixel format of the image
	ErrPaletteFormat = errors.New("pie: palette format mismatch")
)

// Header holds the fixed fields at the start of a PIE file.
type Header struct {
	Version uint8
	Width   uint16
	Height  uint16
	Flags   uint8
	Runs    uint16
}

// Format returns the pixel format described by the flags.
func (h Header) Format() PixelFormat {
	if h.Flags&FlagAlpha != 0 {
		return RGBA
	}
	return RGB
}

// Embedded reports whether the palette follows the run pairs.
func (h Header) Embedded() bool {
	return h.Flags&FlagPalette != 0
}

// ParseHeader validates and returns the header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformedHeader, len(b))
	}
	if string(b[:len(Magic)]) != Magic {
		return Header{}, fmt.Errorf("%w: bad magic", ErrMalformedHeader)
	}

	h := Header{
		Version: b[3],
		Width:   binary.BigEndian.Uint16(b[4:]),
		Height:  binary.BigEndian.Uint16(b[6:]),
		Flags:   b[8],
		Runs:    binary.BigEndian.Uint16(b[9:]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedHeader, h.Version)
	}

	return h, nil
}

func (h Header) appendTo(b []byte) []byte {
	b = append(b, Magic...)
	b = append(b, h.Version)
	b = binary.BigEndian.AppendUint16(b, h.Width)
	b = binary.BigEndian.AppendUint16(b, h.Height)
	b = append(b, h.Flags)
	return binary.BigEndian.AppendUint16(b, h.Runs)
}

// EncodedImage is an image in its compressed, palette-indexed form. Palette is
// nil unless the palette is to be embedded.
type EncodedImage struct {
	Width   uint16
	Height  uint16
	Format  PixelFormat
	Runs    []rle.Run
	Palette *palette.Palette

	// Flags holds any reserved flag bits, these are written back unchanged
	Flags uint8
}

// DecodedImage is a flat buffer of pixels in row-major order.
type DecodedImage struct {
	Width  uint16
	Height uint16
	Format PixelFormat
	Pix    []byte
}

func pixelCount(width, height uint16) int {
	return int(width) * int(height)
}
