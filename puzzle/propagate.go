// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package puzzle

/*

Forced-single propagation

*/

// PropagateForcedSingles fills every open cell whose candidate set
// has shrunk to exactly one digit, committing each the moment it is
// found. It rescans the whole grid until a full pass places
// nothing, so a fill in one pass can force more fills in the next.
// Each placement records a forced-single step on tr, which may be
// nil. The return value reports whether the grid changed at all, so
// running it again right away returns false and records nothing.
//
// Cells with no candidates are left alone: spotting those dead ends
// is the search engine's job.
func PropagateForcedSingles(g *Grid, tr *Trace) bool {
	changed := false
	for {
		progress := false
		for r := 0; r < Side; r++ {
			for c := 0; c < Side; c++ {
				if g[r][c] != Empty {
					continue
				}
				set := g.Candidates(r, c)
				if set.Size() != 1 {
					continue
				}
				v := set.min()
				g[r][c] = v
				tr.record(StepForcedSingle, r, c, v)
				progress = true
			}
		}
		if !progress {
			return changed
		}
		changed = true
	}
}
