// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package puzzle

/*

Placement legality

*/

// IsLegalPlacement reports whether value could occupy (row, col)
// without duplicating a digit already in the same row, column, or
// box. The cell's own content is ignored, so the check is stable
// for digits already placed: a legally placed digit stays legal.
// Clearing a cell (value Empty) is always legal. Out-of-range
// coordinates or values never are.
func (g Grid) IsLegalPlacement(row, col, value int) bool {
	if !inBounds(row, col) {
		return false
	}
	if value == Empty {
		return true
	}
	if value < 1 || value > Side {
		return false
	}
	for i := 0; i < Side; i++ {
		if i != col && g[row][i] == value {
			return false
		}
		if i != row && g[i][col] == value {
			return false
		}
	}
	br, bc := boxOrigin(row, col)
	for r := br; r < br+boxSide; r++ {
		for c := bc; c < bc+boxSide; c++ {
			if (r != row || c != col) && g[r][c] == value {
				return false
			}
		}
	}
	return true
}

/*

Completeness

*/

// IsCompleteAndValid reports whether the grid is a finished sudoku:
// every cell filled, and every row, column, and box holding each of
// 1 through 9 exactly once.
func (g Grid) IsCompleteAndValid() bool {
	for i := 0; i < Side; i++ {
		var row, col DigitSet
		for j := 0; j < Side; j++ {
			rv, cv := g[i][j], g[j][i]
			if rv < 1 || rv > Side || row.Has(rv) {
				return false
			}
			if cv < 1 || cv > Side || col.Has(cv) {
				return false
			}
			row = row.with(rv)
			col = col.with(cv)
		}
	}
	for br := 0; br < Side; br += boxSide {
		for bc := 0; bc < Side; bc += boxSide {
			var box DigitSet
			for r := br; r < br+boxSide; r++ {
				for c := bc; c < bc+boxSide; c++ {
					v := g[r][c]
					if v < 1 || v > Side || box.Has(v) {
						return false
					}
					box = box.with(v)
				}
			}
		}
	}
	return true
}

/*

Conflict reporting

*/

// Conflicts lists every filled cell whose digit collides with
// another cell in its row, column, or box. Both members of a
// colliding pair are listed. Shells use this to report bad givens
// before asking for a solve.
func (g Grid) Conflicts() []Cell {
	var cells []Cell
	for r := 0; r < Side; r++ {
		for c := 0; c < Side; c++ {
			if v := g[r][c]; v != Empty && !g.IsLegalPlacement(r, c, v) {
				cells = append(cells, Cell{Row: r, Col: c})
			}
		}
	}
	return cells
}
