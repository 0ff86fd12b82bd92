// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

// Package gridio converts between puzzle grids and the two text
// forms shells accept: nine lines of nine digits, or any text whose
// digit characters concatenate to exactly eighty-one. The engine
// itself never sees text; every caller parses here and hands the
// engine a Grid.
package gridio

import (
	"fmt"
	"strings"

	"github.com/grayfold/sudori/puzzle"
)

// CellCount is the number of digits a full grid encodes to.
const CellCount = puzzle.Side * puzzle.Side

// Parse reads a grid from text. If the text has exactly nine
// non-blank lines of nine digits each, those are the rows.
// Otherwise every digit rune in the text, whatever surrounds it, is
// collected, and exactly eighty-one of them make a grid row-major.
// Zeros mark open cells in both forms.
func Parse(text string) (puzzle.Grid, error) {
	if g, ok := parseLines(text); ok {
		return g, nil
	}
	var g puzzle.Grid
	n := 0
	for _, r := range text {
		if r < '0' || r > '9' {
			continue
		}
		if n < CellCount {
			g[n/puzzle.Side][n%puzzle.Side] = int(r - '0')
		}
		n++
	}
	if n != CellCount {
		return puzzle.Grid{}, fmt.Errorf("want nine lines of nine digits or %d digits in total, got %d digits", CellCount, n)
	}
	return g, nil
}

// parseLines tries the nine-lines-of-nine form.
func parseLines(text string) (puzzle.Grid, bool) {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			rows = append(rows, line)
		}
	}
	var g puzzle.Grid
	if len(rows) != puzzle.Side {
		return g, false
	}
	for r, row := range rows {
		if len(row) != puzzle.Side {
			return g, false
		}
		for c, ch := range row {
			if ch < '0' || ch > '9' {
				return g, false
			}
			g[r][c] = int(ch - '0')
		}
	}
	return g, true
}

// Encode renders the grid as eighty-one digits, row-major, zeros
// for open cells. This is the storage and wire form.
func Encode(g puzzle.Grid) string {
	var b strings.Builder
	b.Grow(CellCount)
	for r := 0; r < puzzle.Side; r++ {
		for c := 0; c < puzzle.Side; c++ {
			v := g[r][c]
			if v < 0 || v > 9 {
				v = 0
			}
			b.WriteByte(byte('0' + v))
		}
	}
	return b.String()
}

// EncodeLines renders the grid as nine lines of nine digits.
func EncodeLines(g puzzle.Grid) string {
	var b strings.Builder
	b.Grow(CellCount + puzzle.Side)
	for r := 0; r < puzzle.Side; r++ {
		for c := 0; c < puzzle.Side; c++ {
			v := g[r][c]
			if v < 0 || v > 9 {
				v = 0
			}
			b.WriteByte(byte('0' + v))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
