// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package puzzle

import (
	"errors"
	"fmt"
)

/*

Errors

*/

// ErrNoSolution reports a grid that no assignment of digits can
// complete. It is the expected way for a solve to come up empty,
// not a fault in the caller or the engine.
var ErrNoSolution = errors.New("no solution exists for this grid")

// A ValueError reports a cell holding something outside 0 through 9.
// Grids like that are broken at the representation level, so the
// entry points refuse them before any search starts.
type ValueError struct {
	Row   int // 0-based
	Col   int // 0-based
	Value int
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("cell r%dc%d holds %d, want 0 through 9", e.Row+1, e.Col+1, e.Value)
}
