package rle

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		limit int
		runs  []Run
	}{
		{
			name:  "empty",
			data:  []byte{},
			limit: MaxRun,
			runs:  nil,
		},
		{
			name:  "single",
			data:  []byte{7},
			limit: MaxRun,
			runs:  []Run{{1, 7}},
		},
		{
			name:  "mixed",
			data:  []byte{1, 1, 1, 0, 0, 3, 1},
			limit: MaxRun,
			runs:  []Run{{3, 1}, {2, 0}, {1, 3}, {1, 1}},
		},
		{
			name:  "limit",
			data:  []byte{4, 4, 4, 4, 4},
			limit: 2,
			runs:  []Run{{2, 4}, {2, 4}, {1, 4}},
		},
		{
			name:  "limit out of range",
			data:  bytes.Repeat([]byte{9}, 300),
			limit: 1000,
			runs:  []Run{{255, 9}, {45, 9}},
		},
		{
			name:  "exactly max",
			data:  bytes.Repeat([]byte{2}, 255),
			limit: MaxRun,
			runs:  []Run{{255, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.runs, Encode(tt.data, tt.limit))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	long := append(bytes.Repeat([]byte{5}, 600), 6, 6, 5)
	inputs := [][]byte{
		{},
		{0},
		{0, 1, 2, 3, 4},
		long,
	}

	for _, in := range inputs {
		runs := Encode(in, MaxRun)
		out, err := Decode(runs)
		require.NoError(t, err)
		assert.Equal(t, len(in), len(out))
		assert.True(t, bytes.Equal(in, out))
		assert.Equal(t, len(in), Len(runs))
	}

	assert.Equal(t, []Run{{255, 5}, {255, 5}, {90, 5}, {2, 6}, {1, 5}}, Encode(long, MaxRun))
}

func TestDecodeInvalidRun(t *testing.T) {
	_, err := Decode([]Run{{1, 1}, {0, 2}})
	assert.ErrorIs(t, err, ErrInvalidRun)
}

func TestPairs(t *testing.T) {
	runs := []Run{{5, 1}, {5, 0}, {255, 3}}

	b := AppendPairs(nil, runs)
	assert.Equal(t, []byte{5, 1, 5, 0, 255, 3}, b)

	parsed, err := ParsePairs(b)
	require.NoError(t, err)
	assert.Equal(t, runs, parsed)

	_, err = ParsePairs([]byte{1, 2, 3})
	assert.Error(t, err)

	parsed, err = ParsePairs(nil)
	require.NoError(t, err)
	assert.Empty(t, parsed)
}
