// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package puzzle

/*

Grids

*/

// Side is the grid side length: the count of rows, of columns, of
// boxes, and of digits.
const Side = 9

// boxSide is the side length of one box.
const boxSide = 3

// Empty marks a cell with no digit placed.
const Empty = 0

// A Grid is a 9x9 sudoku board in row-major order. Cells hold 1
// through 9, or Empty. Grid is a value type: assignment copies the
// whole board, which is exactly what the solvers rely on for their
// working copies.
type Grid [Side][Side]int

// A Cell names one grid position. Row and Col are 0-based; only
// trace steps use the 1-based display convention.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// inBounds reports whether the coordinates name a cell.
func inBounds(row, col int) bool {
	return row >= 0 && row < Side && col >= 0 && col < Side
}

// boxOrigin gives the top-left cell of the box containing (row, col).
func boxOrigin(row, col int) (int, int) {
	return row - row%boxSide, col - col%boxSide
}

// FirstEmpty scans row-major for the first empty cell. ok is false
// when the grid is full.
func (g Grid) FirstEmpty() (row, col int, ok bool) {
	for r := 0; r < Side; r++ {
		for c := 0; c < Side; c++ {
			if g[r][c] == Empty {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// EmptyCount returns the number of open cells.
func (g Grid) EmptyCount() int {
	n := 0
	for r := 0; r < Side; r++ {
		for c := 0; c < Side; c++ {
			if g[r][c] == Empty {
				n++
			}
		}
	}
	return n
}

// Check verifies that every cell holds a value in 0 through 9,
// returning a *ValueError for the first offender found row-major.
// Check is about representation only; it says nothing about whether
// the placed digits respect the sudoku rules.
func (g Grid) Check() error {
	for r := 0; r < Side; r++ {
		for c := 0; c < Side; c++ {
			if v := g[r][c]; v < 0 || v > Side {
				return &ValueError{Row: r, Col: c, Value: v}
			}
		}
	}
	return nil
}
