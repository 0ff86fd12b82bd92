// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package puzzle

import (
	"math/bits"
	"strconv"
	"strings"
)

/*

Digit sets

*/

// A DigitSet is a set of sudoku digits, bit v standing for digit v.
// The zero value is the empty set.
type DigitSet uint16

// FullDigitSet holds every digit 1 through 9.
const FullDigitSet DigitSet = 0x3fe

// with adds a digit to the set. Empty and out-of-range values are
// ignored, making it safe to feed raw cell contents through.
func (s DigitSet) with(v int) DigitSet {
	if v < 1 || v > Side {
		return s
	}
	return s | 1<<uint(v)
}

// Has reports whether digit v is in the set.
func (s DigitSet) Has(v int) bool {
	return v >= 1 && v <= Side && s&(1<<uint(v)) != 0
}

// Size returns the number of digits in the set.
func (s DigitSet) Size() int {
	return bits.OnesCount16(uint16(s))
}

// IsEmpty reports whether the set has no digits.
func (s DigitSet) IsEmpty() bool {
	return s == 0
}

// min returns the smallest digit in the set, or 0 for the empty set.
func (s DigitSet) min() int {
	if s == 0 {
		return 0
	}
	return bits.TrailingZeros16(uint16(s))
}

// Digits returns the digits in ascending order.
func (s DigitSet) Digits() []int {
	ds := make([]int, 0, s.Size())
	for v := 1; v <= Side; v++ {
		if s.Has(v) {
			ds = append(ds, v)
		}
	}
	return ds
}

// NewDigitSet builds a set from the given digits. Values outside 1
// through 9 are ignored.
func NewDigitSet(digits ...int) DigitSet {
	var s DigitSet
	for _, v := range digits {
		s = s.with(v)
	}
	return s
}

// String renders the set as {2,5,7}.
func (s DigitSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range s.Digits() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte('}')
	return b.String()
}

/*

Candidate computation

*/

// Candidates returns the digits that could legally fill (row, col):
// the set 1 through 9 minus every digit already present in the
// cell's row, column, and box. A filled cell has no candidates, and
// neither does an out-of-range coordinate. This is the one place
// candidate sets are computed; the propagator and both solvers call
// it rather than keeping books of their own.
func (g Grid) Candidates(row, col int) DigitSet {
	if !inBounds(row, col) || g[row][col] != Empty {
		return 0
	}
	var seen DigitSet
	for i := 0; i < Side; i++ {
		seen = seen.with(g[row][i])
		seen = seen.with(g[i][col])
	}
	br, bc := boxOrigin(row, col)
	for r := br; r < br+boxSide; r++ {
		for c := bc; c < bc+boxSide; c++ {
			seen = seen.with(g[r][c])
		}
	}
	return FullDigitSet &^ seen
}
