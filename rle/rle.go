/*
Package rle implements the run-length encoding used for PIE index streams.

A run is a (count, value) pair of bytes. Runs are only ever broken by a change
of value or by reaching the run limit; the encoder has no notion of rows so a
run happily continues across the end of one row into the next.
*/
package rle

import (
	"errors"
	"fmt"
)

// MaxRun is the longest run that fits in a count byte
const MaxRun = 255

var (
	// ErrInvalidRun is returned when a run has a count of zero
	ErrInvalidRun = errors.New("rle: invalid run")
	errOddPairs   = errors.New("rle: odd number of bytes in run pairs")
)

// Run is value repeated count times.
type Run struct {
	Count byte
	Value byte
}

// Encode returns the runs in data. Each run is at most limit long; a limit
// outside 1 to MaxRun is treated as MaxRun.
func Encode(data []byte, limit int) []Run {
	if limit < 1 || limit > MaxRun {
		limit = MaxRun
	}

	var runs []Run
	for i := 0; i < len(data); {
		count := 1
		for i+count < len(data) && data[i+count] == data[i] && count < limit {
			count++
		}
		runs = append(runs, Run{Count: byte(count), Value: data[i]})
		i += count
	}
	return runs
}

// Len returns the number of bytes the runs expand to.
func Len(runs []Run) int {
	n := 0
	for _, r := range runs {
		n += int(r.Count)
	}
	return n
}

// Decode expands runs back into bytes.
func Decode(runs []Run) ([]byte, error) {
	out := make([]byte, 0, Len(runs))
	for i, r := range runs {
		if r.Count == 0 {
			return nil, fmt.Errorf("%w: zero count at run %d", ErrInvalidRun, i)
		}
		for j := 0; j < int(r.Count); j++ {
			out = append(out, r.Value)
		}
	}
	return out, nil
}

// AppendPairs appends the wire form of runs, two bytes per run, to dst.
func AppendPairs(dst []byte, runs []Run) []byte {
	for _, r := range runs {
		dst = append(dst, r.Count, r.Value)
	}
	return dst
}

// ParsePairs is the inverse of AppendPairs. Counts are not validated here,
// that happens in Decode.
func ParsePairs(b []byte) ([]Run, error) {
	if len(b)%2 != 0 {
		return nil, errOddPairs
	}
	runs := make([]Run, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		runs = append(runs, Run{Count: b[i], Value: b[i+1]})
	}
	return runs, nil
}
