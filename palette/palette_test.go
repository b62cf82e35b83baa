package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// distinct returns n distinct colors laid out with the stride of f
func distinct(f Format, n int) []byte {
	b := make([]byte, 0, n*f.Stride())
	for i := 0; i < n; i++ {
		c := []byte{byte(i), byte(i >> 8), 0x7f, 0xff}
		b = append(b, c[:f.Stride()]...)
	}
	return b
}

func TestFormat(t *testing.T) {
	assert.Equal(t, 3, RGB.Stride())
	assert.Equal(t, 4, RGBA.Stride())
	assert.Equal(t, "RGB", RGB.String())
	assert.Equal(t, "RGBA", RGBA.String())
	assert.Equal(t, "Format(7)", Format(7).String())
}

func TestBuild(t *testing.T) {
	pixels := []byte{
		0xff, 0x00, 0x00,
		0xff, 0xff, 0xff,
		0xff, 0x00, 0x00,
		0x00, 0x00, 0xff,
		0xff, 0xff, 0xff,
	}

	p, err := Build(RGB, pixels)
	require.NoError(t, err)

	assert.Equal(t, RGB, p.Format())
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, []byte{0xff, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0xff}, p.Bytes())

	i, err := p.IndexOf([]byte{0x00, 0x00, 0xff})
	require.NoError(t, err)
	assert.Equal(t, byte(2), i)

	_, err = p.IndexOf([]byte{0x00, 0xff, 0x00})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuildCapacity(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		colors int
		err    error
	}{
		{"rgb 256", RGB, 256, nil},
		{"rgb 257", RGB, 257, ErrTooManyColors},
		{"rgba 256", RGBA, 256, nil},
		{"rgba 257", RGBA, 257, ErrTooManyColors},
		{"empty", RGB, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Build(tt.format, distinct(tt.format, tt.colors))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.colors, p.Len())
		})
	}
}

func TestBuildBadLength(t *testing.T) {
	_, err := Build(RGBA, make([]byte, 6))
	assert.ErrorIs(t, err, ErrBadLength)

	_, err = Build(Format(3), nil)
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestNew(t *testing.T) {
	colors := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	p, err := New(RGBA, colors)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	// The palette owns its own copy
	colors[0] = 0xff
	c, ok := p.Color(0)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, c)

	_, ok = p.Color(2)
	assert.False(t, ok)
	_, ok = p.Color(-1)
	assert.False(t, ok)

	_, err = New(RGB, []byte{1, 2, 3, 1, 2, 3})
	assert.ErrorIs(t, err, ErrDuplicateColor)

	_, err = New(RGB, []byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrBadLength)

	_, err = New(RGB, distinct(RGB, MaxColors+1))
	assert.ErrorIs(t, err, ErrTooManyColors)
}

func TestColorIsolated(t *testing.T) {
	p, err := New(RGB, []byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	c, _ := p.Color(0)
	c = append(c, 0xff)
	assert.Equal(t, []byte{1, 2, 3, 0xff}, c)

	next, _ := p.Color(1)
	assert.Equal(t, []byte{4, 5, 6}, next)
}

func TestEqual(t *testing.T) {
	p1, _ := New(RGB, []byte{1, 2, 3})
	p2, _ := New(RGB, []byte{1, 2, 3})
	p3, _ := New(RGB, []byte{3, 2, 1})

	assert.True(t, p1.Equal(p2))
	assert.False(t, p1.Equal(p3))
	assert.False(t, p1.Equal(nil))
}

func TestBinary(t *testing.T) {
	p, err := New(RGBA, distinct(RGBA, 16))
	require.NoError(t, err)

	b, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, byte(RGBA), b[0])
	assert.Len(t, b, 1+16*4)

	var q Palette
	require.NoError(t, q.UnmarshalBinary(b))
	assert.True(t, p.Equal(&q))

	idx, err := q.IndexOf(distinct(RGBA, 16)[60:64])
	require.NoError(t, err)
	assert.Equal(t, byte(15), idx)

	assert.Error(t, q.UnmarshalBinary(nil))
	assert.ErrorIs(t, q.UnmarshalBinary([]byte{9, 1, 2, 3}), ErrBadFormat)
}
