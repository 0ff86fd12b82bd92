// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package puzzle

import "fmt"

/*

Solver traces

*/

// A StepKind classifies one solver decision.
type StepKind string

// The four kinds of step a solver records.
const (
	StepTry          StepKind = "try"           // brute force placed a digit
	StepBacktrack    StepKind = "backtrack"     // a placement was undone
	StepForcedSingle StepKind = "forced-single" // the propagator committed a lone candidate
	StepChoose       StepKind = "choose"        // MRV search is about to trial a candidate
)

// A Step is one entry in a solver trace. Row and Col are 1-based,
// the display convention traces have always used; nothing in the
// engine ever reads a trace back.
type Step struct {
	Kind  StepKind `json:"kind"`
	Row   int      `json:"row"`
	Col   int      `json:"col"`
	Value int      `json:"value"`
}

// String renders the step the way the REPL and logs show it.
func (s Step) String() string {
	if s.Kind == StepBacktrack {
		return fmt.Sprintf("backtrack r%dc%d (reset from %d)", s.Row, s.Col, s.Value)
	}
	return fmt.Sprintf("%s r%dc%d = %d", s.Kind, s.Row, s.Col, s.Value)
}

// A Trace is the ordered record of the steps a solve took. Traces
// are observational: they exist for shells to display or replay.
type Trace []Step

// record appends a step, converting 0-based engine coordinates to
// the 1-based display form. A nil receiver swallows the step, so
// callers that don't want a trace can pass nil.
func (t *Trace) record(kind StepKind, row, col, value int) {
	if t == nil {
		return
	}
	*t = append(*t, Step{Kind: kind, Row: row + 1, Col: col + 1, Value: value})
}

// Strings renders every step in order, one line per step.
func (t Trace) Strings() []string {
	lines := make([]string, len(t))
	for i, s := range t {
		lines[i] = s.String()
	}
	return lines
}
