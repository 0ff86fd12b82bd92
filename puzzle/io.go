// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package puzzle

import (
	"strconv"
	"strings"
)

/*

Print forms of grids

*/

// vstr renders one cell for display: underscore for an open cell,
// question mark for anything a Grid should never hold.
func vstr(v int) string {
	switch {
	case v == Empty:
		return "_"
	case v >= 1 && v <= Side:
		return strconv.Itoa(v)
	default:
		return "?"
	}
}

// String gives a pretty-printed view of the grid, boxes separated,
// for debugging and the REPL.
func (g Grid) String() string {
	const rule = "+-------+-------+-------+\n"
	var b strings.Builder
	for r := 0; r < Side; r++ {
		if r%boxSide == 0 {
			b.WriteString(rule)
		}
		for c := 0; c < Side; c++ {
			if c%boxSide == 0 {
				b.WriteString("| ")
			}
			b.WriteString(vstr(g[r][c]))
			b.WriteByte(' ')
		}
		b.WriteString("|\n")
	}
	b.WriteString(rule)
	return b.String()
}

/*

Markdown-formatted tables, for documentation and chat

*/

// MarkdownString returns the grid as a markdown table, columns
// numbered 1 through 9 and rows lettered a through i.
func (g Grid) MarkdownString() string {
	var b strings.Builder
	b.WriteString("|     |")
	for i := 1; i <= Side; i++ {
		b.WriteString("  " + strconv.Itoa(i) + "  |")
	}
	b.WriteByte('\n')
	b.WriteByte('|')
	for i := 0; i <= Side; i++ {
		b.WriteString(":---:|")
	}
	b.WriteByte('\n')
	for r, hdr := 0, 'a'; r < Side; r, hdr = r+1, hdr+1 {
		b.WriteString("|**" + string(hdr) + "**|")
		for c := 0; c < Side; c++ {
			if v := g[r][c]; v == Empty {
				b.WriteString("   |")
			} else {
				b.WriteString(" " + vstr(v) + " |")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
