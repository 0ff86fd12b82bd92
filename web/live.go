// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/grayfold/sudori/gridio"
	"github.com/grayfold/sudori/puzzle"
)

/*

live trace replay

The solve itself runs synchronously; what streams is the finished
trace, one frame per step, then a result frame. Clients that only
want the answer should use POST /api/solve instead.

*/

const (
	maxLiveSteps  = 5000
	liveWriteWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type liveStep struct {
	Type string      `json:"type"`
	Seq  int         `json:"seq"`
	Step puzzle.Step `json:"step"`
}

type liveResult struct {
	Type       string  `json:"type"`
	Solved     bool    `json:"solved,omitempty"`
	Solution   string  `json:"solution,omitempty"`
	Steps      int     `json:"steps"`
	DurationMS float64 `json:"duration_ms"`
	Truncated  bool    `json:"truncated,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func (s *Server) handleLiveSolve(w http.ResponseWriter, r *http.Request) {
	// everything checkable gets checked before the upgrade, so bad
	// requests come back as plain HTTP statuses
	q := r.URL.Query()
	strategyName := q.Get("strategy")
	switch strategyName {
	case "", strategyBrute, strategyPropagation:
	default:
		s.writeErr(w, http.StatusBadRequest, "unknown strategy "+strategyName)
		return
	}
	if q.Get("grid") == "" && q.Get("puzzle_id") == "" {
		s.writeErr(w, http.StatusBadRequest, "missing grid or puzzle_id parameter")
		return
	}
	g, status, err := s.resolveGrid(r.Context(), q.Get("grid"), q.Get("puzzle_id"))
	if err != nil {
		s.writeErr(w, status, err.Error())
		return
	}
	if cells := g.Conflicts(); len(cells) > 0 {
		s.writeJSON(w, http.StatusUnprocessableEntity, apiError{
			Error: "conflicting givens",
			Cells: displayCells(cells),
		})
		return
	}
	if !s.allowSolve(w) {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		return
	}
	defer conn.Close()

	strategy, solver := solverFor(strategyName)
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SolveTimeout)
	defer cancel()
	start := time.Now()
	solved, trace, err := solver(ctx, g)
	elapsed := time.Since(start)
	s.metrics.observeSolve(strategy, outcomeOf(err), elapsed)

	result := liveResult{
		Type:       "result",
		Steps:      len(trace),
		DurationMS: float64(elapsed) / float64(time.Millisecond),
	}
	switch {
	case err == nil:
		result.Solved = true
		result.Solution = gridio.Encode(solved)
	case errors.Is(err, puzzle.ErrNoSolution):
	default:
		result.Type = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			result.Error = "solve timed out"
		} else {
			result.Error = "solve failed"
			s.log.Error("live solve failed", "strategy", strategy, "err", err)
		}
	}

	steps := trace
	if len(steps) > maxLiveSteps {
		steps = steps[:maxLiveSteps]
		result.Truncated = true
	}
	if result.Type == "result" {
		for i, st := range steps {
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(liveStep{Type: "step", Seq: i + 1, Step: st}); err != nil {
				return
			}
		}
	}
	conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	if err := conn.WriteJSON(result); err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
