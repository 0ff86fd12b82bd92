// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package puzzle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*

Shared test grids

*/

// the classic newspaper puzzle, thirty givens
var classicGrid = Grid{
	{5, 3, 0, 0, 7, 0, 0, 0, 0},
	{6, 0, 0, 1, 9, 5, 0, 0, 0},
	{0, 9, 8, 0, 0, 0, 0, 6, 0},
	{8, 0, 0, 0, 6, 0, 0, 0, 3},
	{4, 0, 0, 8, 0, 3, 0, 0, 1},
	{7, 0, 0, 0, 2, 0, 0, 0, 6},
	{0, 6, 0, 0, 0, 0, 2, 8, 0},
	{0, 0, 0, 4, 1, 9, 0, 0, 5},
	{0, 0, 0, 0, 8, 0, 0, 7, 9},
}

// its unique completion
var classicSolution = Grid{
	{5, 3, 4, 6, 7, 8, 9, 1, 2},
	{6, 7, 2, 1, 9, 5, 3, 4, 8},
	{1, 9, 8, 3, 4, 2, 5, 6, 7},
	{8, 5, 9, 7, 6, 1, 4, 2, 3},
	{4, 2, 6, 8, 5, 3, 7, 9, 1},
	{7, 1, 3, 9, 2, 4, 8, 5, 6},
	{9, 6, 1, 5, 3, 7, 2, 8, 4},
	{2, 8, 7, 4, 1, 9, 6, 3, 5},
	{3, 4, 5, 2, 8, 6, 1, 7, 9},
}

// legal givens, but row 0 pins cell (0,8) to 9 and the 9 below
// takes that digit away, so no completion exists
var unsolvableGrid = Grid{
	{1, 2, 3, 4, 5, 6, 7, 8, 0},
	{}, {}, {}, {},
	{0, 0, 0, 0, 0, 0, 0, 0, 9},
	{}, {}, {},
}

// both solver entry points, for tests that must hold on each
var strategies = []struct {
	name  string
	solve func(context.Context, Grid) (Grid, Trace, error)
}{
	{"bruteforce", SolveBruteForce},
	{"propagation", SolveWithPropagation},
}

// lastCellOpen returns the classic solution with one cell blanked,
// the smallest grid that still gives a solver work to do.
func lastCellOpen() Grid {
	g := classicSolution
	g[8][8] = Empty
	return g
}

/*

Solver tests

*/

func TestSolveClassic(t *testing.T) {
	for _, s := range strategies {
		got, tr, err := s.solve(context.Background(), classicGrid)
		require.NoError(t, err, "%s: classic puzzle should solve", s.name)
		assert.Equal(t, classicSolution, got, "%s: wrong solution", s.name)
		assert.Equal(t, 5, got[0][0], "%s: corner cell", s.name)
		assert.True(t, got.IsCompleteAndValid(), "%s: solution fails validation", s.name)
		assert.NotEmpty(t, tr, "%s: no trace recorded", s.name)
		for r := 0; r < Side; r++ {
			for c := 0; c < Side; c++ {
				if classicGrid[r][c] != Empty {
					assert.Equal(t, classicGrid[r][c], got[r][c],
						"%s: given at r%dc%d changed", s.name, r+1, c+1)
				}
			}
		}
	}
}

func TestSolvePropagationTracesForcedSingles(t *testing.T) {
	_, tr, err := SolveWithPropagation(context.Background(), classicGrid)
	require.NoError(t, err)
	singles := 0
	for _, step := range tr {
		if step.Kind == StepForcedSingle {
			singles++
		}
	}
	assert.Positive(t, singles, "propagation solved the classic puzzle without one forced fill")
}

func TestSolveEmptyGrid(t *testing.T) {
	for _, s := range strategies {
		got, _, err := s.solve(context.Background(), Grid{})
		require.NoError(t, err, "%s: empty grid should solve", s.name)
		assert.True(t, got.IsCompleteAndValid(), "%s: fill of empty grid invalid", s.name)
	}
}

func TestSolveCompleteGridImmediate(t *testing.T) {
	for _, s := range strategies {
		got, tr, err := s.solve(context.Background(), classicSolution)
		require.NoError(t, err, "%s: complete grid should come straight back", s.name)
		assert.Equal(t, classicSolution, got, "%s: complete grid altered", s.name)
		assert.Empty(t, tr, "%s: trace should be empty for a complete grid", s.name)
	}
}

func TestSolveUnsolvableAgreement(t *testing.T) {
	for _, s := range strategies {
		_, _, err := s.solve(context.Background(), unsolvableGrid)
		require.ErrorIs(t, err, ErrNoSolution, "%s: expected the no-solution outcome", s.name)
	}
}

func TestSolveRejectsMalformedGrid(t *testing.T) {
	bad := classicGrid
	bad[3][4] = 17
	for _, s := range strategies {
		_, _, err := s.solve(context.Background(), bad)
		var verr *ValueError
		require.ErrorAs(t, err, &verr, "%s: want a ValueError", s.name)
		assert.Equal(t, 3, verr.Row, "%s", s.name)
		assert.Equal(t, 4, verr.Col, "%s", s.name)
		assert.Equal(t, 17, verr.Value, "%s", s.name)
	}
}

func TestSolveLeavesCallerGridAlone(t *testing.T) {
	g := classicGrid
	for _, s := range strategies {
		_, _, err := s.solve(context.Background(), g)
		require.NoError(t, err, "%s", s.name)
		assert.Equal(t, classicGrid, g, "%s: caller's grid was mutated", s.name)
	}
}

func TestSolveDeterministic(t *testing.T) {
	for _, s := range strategies {
		first, firstTrace, err := s.solve(context.Background(), classicGrid)
		require.NoError(t, err, "%s", s.name)
		second, secondTrace, err := s.solve(context.Background(), classicGrid)
		require.NoError(t, err, "%s", s.name)
		assert.Equal(t, first, second, "%s: solutions differ between runs", s.name)
		assert.Equal(t, firstTrace, secondTrace, "%s: traces differ between runs", s.name)
	}
}

func TestSolveCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, s := range strategies {
		_, _, err := s.solve(ctx, classicGrid)
		require.Error(t, err, "%s", s.name)
		assert.ErrorIs(t, err, context.Canceled, "%s: want the context error", s.name)
		assert.False(t, errors.Is(err, ErrNoSolution), "%s: cancellation must not look unsolvable", s.name)
	}
}

func TestSolveBruteForceTraceSingleCell(t *testing.T) {
	got, tr, err := SolveBruteForce(context.Background(), lastCellOpen())
	require.NoError(t, err)
	assert.Equal(t, classicSolution, got)
	assert.Equal(t, Trace{{Kind: StepTry, Row: 9, Col: 9, Value: 9}}, tr)
}

func TestSolvePropagationTraceSingleCell(t *testing.T) {
	got, tr, err := SolveWithPropagation(context.Background(), lastCellOpen())
	require.NoError(t, err)
	assert.Equal(t, classicSolution, got)
	assert.Equal(t, Trace{{Kind: StepForcedSingle, Row: 9, Col: 9, Value: 9}}, tr)
}

/*

MRV selection tests

*/

func TestSelectMRVPrefersFewestCandidates(t *testing.T) {
	// row 4 pins (4,4) to the single candidate 5; every other open
	// cell keeps at least six
	g := Grid{
		{}, {}, {}, {},
		{1, 2, 3, 4, 0, 6, 7, 8, 9},
		{}, {}, {}, {},
	}
	row, col, cands, status := selectMRV(&g)
	require.Equal(t, mrvFound, status)
	assert.Equal(t, 4, row)
	assert.Equal(t, 4, col)
	assert.Equal(t, NewDigitSet(5), cands)
}

func TestSelectMRVFirstCellWinsTies(t *testing.T) {
	g := Grid{}
	row, col, cands, status := selectMRV(&g)
	require.Equal(t, mrvFound, status)
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)
	assert.Equal(t, FullDigitSet, cands)
}

func TestSelectMRVSolvedAndDead(t *testing.T) {
	full := classicSolution
	_, _, _, status := selectMRV(&full)
	assert.Equal(t, mrvSolved, status)

	dead := unsolvableGrid
	_, _, _, status = selectMRV(&dead)
	assert.Equal(t, mrvDead, status)
}
