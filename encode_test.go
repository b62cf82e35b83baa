package pie

import (
	"testing"

	"github.com/bodgit/pie/palette"
	"github.com/bodgit/pie/rle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red     = []byte{0xff, 0x00, 0x00}
	white   = []byte{0xff, 0xff, 0xff}
	pink    = []byte{0xff, 0x00, 0xcc}
	green   = []byte{0xbe, 0xef, 0x00}
	sampleW = uint16(5)
	sampleH = uint16(4)
)

func repeat(n int, colors ...[]byte) []byte {
	var b []byte
	for i := 0; i < n; i++ {
		for _, c := range colors {
			b = append(b, c...)
		}
	}
	return b
}

func concat(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

// samplePixels is a 5x4 RGB image, one color per row apart from the last
// pixel which wraps back to white
func samplePixels() []byte {
	return concat(
		repeat(5, red),
		repeat(5, white),
		repeat(5, pink),
		repeat(4, green),
		white,
	)
}

func samplePalette(t *testing.T) *palette.Palette {
	p, err := palette.New(palette.RGB, concat(white, red, green, pink))
	require.NoError(t, err)
	return p
}

// distinctColors returns n distinct RGB pixels
func distinctColors(n int) []byte {
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		b = append(b, byte(i), byte(i>>8), 0x33)
	}
	return b
}

func TestEncodeSuppliedPalette(t *testing.T) {
	p := samplePalette(t)
	expected := []rle.Run{{Count: 5, Value: 1}, {Count: 5, Value: 0}, {Count: 5, Value: 3}, {Count: 4, Value: 2}, {Count: 1, Value: 0}}

	e, err := Encode(sampleW, sampleH, samplePixels(), true, p)
	require.NoError(t, err)
	assert.Equal(t, expected, e.Runs)
	assert.Equal(t, RGB, e.Format)
	require.NotNil(t, e.Palette)
	assert.Equal(t, p.Bytes(), e.Palette.Bytes())

	e, err = Encode(sampleW, sampleH, samplePixels(), false, p)
	require.NoError(t, err)
	assert.Equal(t, expected, e.Runs)
	assert.Nil(t, e.Palette)
}

func TestEncodeBuiltPalette(t *testing.T) {
	expected := []rle.Run{{Count: 5, Value: 0}, {Count: 5, Value: 1}, {Count: 5, Value: 2}, {Count: 4, Value: 3}, {Count: 1, Value: 1}}

	e, err := Encode(sampleW, sampleH, samplePixels(), true, nil)
	require.NoError(t, err)
	assert.Equal(t, expected, e.Runs)
	require.NotNil(t, e.Palette)
	assert.Equal(t, concat(red, white, pink, green), e.Palette.Bytes())

	e, err = Encode(sampleW, sampleH, samplePixels(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, expected, e.Runs)
	assert.Nil(t, e.Palette)
}

func TestEncodeRunsCrossRows(t *testing.T) {
	// 3x3 of a single color is one run, not three
	e, err := Encode(3, 3, repeat(9, pink), true, nil)
	require.NoError(t, err)
	assert.Equal(t, []rle.Run{{Count: 9, Value: 0}}, e.Runs)
}

func TestEncodeLongRun(t *testing.T) {
	e, err := Encode(300, 1, repeat(300, white), true, nil)
	require.NoError(t, err)
	assert.Equal(t, []rle.Run{{Count: 255, Value: 0}, {Count: 45, Value: 0}}, e.Runs)
}

func TestEncodeRGBA(t *testing.T) {
	pix := concat(
		[]byte{1, 2, 3, 0}, []byte{1, 2, 3, 0},
		[]byte{1, 2, 3, 255}, []byte{9, 9, 9, 128},
	)

	e, err := Encode(2, 2, pix, true, nil)
	require.NoError(t, err)
	assert.Equal(t, RGBA, e.Format)
	assert.Equal(t, []rle.Run{{Count: 2, Value: 0}, {Count: 1, Value: 1}, {Count: 1, Value: 2}}, e.Runs)
	assert.Equal(t, 3, e.Palette.Len())
}

func TestEncodeCapacity(t *testing.T) {
	_, err := Encode(256, 1, distinctColors(256), true, nil)
	assert.NoError(t, err)

	_, err = Encode(257, 1, distinctColors(257), true, nil)
	assert.ErrorIs(t, err, ErrTooManyColors)
}

func TestEncodeErrors(t *testing.T) {
	p := samplePalette(t)
	rgba, err := palette.New(palette.RGBA, []byte{0, 0, 0, 0})
	require.NoError(t, err)

	tests := []struct {
		name          string
		width, height uint16
		pix           []byte
		palette       *palette.Palette
		err           error
	}{
		{"short buffer", 5, 4, samplePixels()[1:], nil, ErrWrongPixelCount},
		{"long buffer", 5, 4, append(samplePixels(), 0), nil, ErrWrongPixelCount},
		{"wrong dimensions", 4, 4, samplePixels(), nil, ErrWrongPixelCount},
		{"unknown color", 5, 4, concat(samplePixels()[3:], []byte{1, 2, 3}), p, ErrColorNotInPalette},
		{"format mismatch", 5, 4, samplePixels(), rgba, ErrPaletteFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Encode(tt.width, tt.height, tt.pix, true, tt.palette)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, e)
		})
	}
}

func TestEncodeEmpty(t *testing.T) {
	e, err := Encode(0, 0, nil, true, nil)
	require.NoError(t, err)
	assert.Empty(t, e.Runs)
	assert.Equal(t, 0, e.Palette.Len())

	rgba, err := palette.New(palette.RGBA, []byte{0, 0, 0, 0})
	require.NoError(t, err)

	e, err = Encode(0, 7, nil, false, rgba)
	require.NoError(t, err)
	assert.Equal(t, RGBA, e.Format)
}
