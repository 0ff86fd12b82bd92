// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package puzzle

import (
	"context"
	"fmt"
)

/*

Sudoku puzzle solvers

Two strategies, deliberately different in character:

1. Brute force. Find the first empty cell in reading order, try the
digits 1 through 9 ascending, and recurse on each legal placement.
Exhausting every digit fails the cell back to its caller, which
undoes its own placement and moves on. Simple, exhaustive, and the
baseline the smarter strategy is checked against.

2. Propagation with minimum-remaining-values (MRV). First commit
every forced single, then repeatedly pick the open cell with the
fewest candidates and trial those candidates ascending, propagating
again after each placement. Scanning runs in reading order, and a
tie keeps the first cell seen, so runs are exactly reproducible.

Both strategies work on a single mutable copy of the caller's grid,
shared down the whole recursion; only the entry point copies. Undo
is strictly nested: brute force clears the one cell it set, MRV
restores the snapshot taken before the branch so propagated fills
are rolled back with the guess that caused them.

Both record their decisions on a Trace as they go. A failed search
returns ErrNoSolution along with the trace of everything it tried.

*/

// mrvStatus tells the search what a candidate scan concluded.
type mrvStatus int

const (
	mrvFound  mrvStatus = iota // an open cell was picked
	mrvSolved                  // no open cells remain
	mrvDead                    // some open cell has no candidates
)

// selectMRV scans row-major for the open cell with the fewest
// candidates, strictly fewer to displace an earlier cell, so the
// first cell seen wins ties. An open cell with no candidates stops
// the scan immediately: nothing can complete this grid.
func selectMRV(g *Grid) (row, col int, cands DigitSet, status mrvStatus) {
	found := false
	for r := 0; r < Side; r++ {
		for c := 0; c < Side; c++ {
			if g[r][c] != Empty {
				continue
			}
			set := g.Candidates(r, c)
			if set.IsEmpty() {
				return 0, 0, 0, mrvDead
			}
			if !found || set.Size() < cands.Size() {
				found = true
				row, col, cands = r, c, set
			}
		}
	}
	if !found {
		return 0, 0, 0, mrvSolved
	}
	return row, col, cands, mrvFound
}

// SolveBruteForce solves the grid by exhaustive depth-first search:
// digits 1 through 9 ascending at the first empty cell in reading
// order, recursing on every legal placement. The caller's grid is
// never touched. The trace holds a try step per placement and a
// backtrack step per undo, in the order they happened; a grid with
// no empty cells comes back unchanged with an empty trace.
//
// An unsolvable grid yields ErrNoSolution together with the full
// trace of the exhausted search. Cancel or deadline ctx to cut a
// long search short; the context's error comes back wrapped.
func SolveBruteForce(ctx context.Context, g Grid) (Grid, Trace, error) {
	if err := g.Check(); err != nil {
		return Grid{}, nil, err
	}
	var tr Trace
	work := g
	solved, err := bruteForce(ctx, &work, &tr)
	if err != nil {
		return Grid{}, tr, fmt.Errorf("solve interrupted: %w", err)
	}
	if !solved {
		return Grid{}, tr, ErrNoSolution
	}
	return work, tr, nil
}

// bruteForce is the recursive heart of SolveBruteForce. It returns
// whether the grid reachable from here can be completed, mutating g
// in place and leaving it untouched on failure.
func bruteForce(ctx context.Context, g *Grid, tr *Trace) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	row, col, ok := g.FirstEmpty()
	if !ok {
		return true, nil
	}
	for v := 1; v <= Side; v++ {
		if !g.IsLegalPlacement(row, col, v) {
			continue
		}
		tr.record(StepTry, row, col, v)
		g[row][col] = v
		solved, err := bruteForce(ctx, g, tr)
		if err != nil {
			return false, err
		}
		if solved {
			return true, nil
		}
		tr.record(StepBacktrack, row, col, v)
		g[row][col] = Empty
	}
	return false, nil
}

// SolveWithPropagation solves the grid by interleaving forced-single
// propagation with MRV search: propagate once at entry, then pick
// the open cell with the fewest candidates, trial its candidates
// ascending, and propagate again after each placement. Failed
// branches are rolled back whole, propagated fills included. The
// trace holds the propagator's forced-single steps, a choose step
// per candidate trialed, and a backtrack step per branch undone.
//
// Outcomes and cancellation behave exactly as in SolveBruteForce.
func SolveWithPropagation(ctx context.Context, g Grid) (Grid, Trace, error) {
	if err := g.Check(); err != nil {
		return Grid{}, nil, err
	}
	var tr Trace
	work := g
	PropagateForcedSingles(&work, &tr)
	solved, err := propagationSearch(ctx, &work, &tr)
	if err != nil {
		return Grid{}, tr, fmt.Errorf("solve interrupted: %w", err)
	}
	if !solved {
		return Grid{}, tr, ErrNoSolution
	}
	return work, tr, nil
}

// propagationSearch is the recursive heart of SolveWithPropagation.
// Each call owns one branch: it snapshots the grid, places a
// candidate, propagates, and recurses, restoring the snapshot when
// the branch fails.
func propagationSearch(ctx context.Context, g *Grid, tr *Trace) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	row, col, cands, status := selectMRV(g)
	if status == mrvSolved {
		return true, nil
	}
	if status == mrvDead {
		return false, nil
	}
	for v := 1; v <= Side; v++ {
		if !cands.Has(v) {
			continue
		}
		tr.record(StepChoose, row, col, v)
		if !g.IsLegalPlacement(row, col, v) {
			// candidates are legal by construction
			continue
		}
		saved := *g
		g[row][col] = v
		PropagateForcedSingles(g, tr)
		solved, err := propagationSearch(ctx, g, tr)
		if err != nil {
			return false, err
		}
		if solved {
			return true, nil
		}
		tr.record(StepBacktrack, row, col, v)
		*g = saved
	}
	return false, nil
}
