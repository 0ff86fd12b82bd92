// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grayfold/sudori/gridio"
	"github.com/grayfold/sudori/puzzle"
	"github.com/grayfold/sudori/storage"
)

// Strategy names accepted on the wire.
const (
	strategyBrute       = "brute"
	strategyPropagation = "propagation"
)

// maxTraceReturn caps the trace entries a single response carries.
// Pathological searches generate millions of steps; nobody reads
// past the first few thousand.
const maxTraceReturn = 5000

// solverFor maps a wire name to an engine strategy, defaulting to
// propagation. Unknown names never get here; request validation
// rejects them.
func solverFor(name string) (string, func(context.Context, puzzle.Grid) (puzzle.Grid, puzzle.Trace, error)) {
	if name == strategyBrute {
		return strategyBrute, puzzle.SolveBruteForce
	}
	return strategyPropagation, puzzle.SolveWithPropagation
}

// outcomeOf classifies a solve result for metrics.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "solved"
	case errors.Is(err, puzzle.ErrNoSolution):
		return "no_solution"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// displayCells converts engine cells to display coordinates.
func displayCells(cells []puzzle.Cell) []cellRef {
	out := make([]cellRef, len(cells))
	for i, c := range cells {
		out[i] = cellRef{Row: c.Row + 1, Col: c.Col + 1}
	}
	return out
}

// resolveGrid picks the grid out of a request, inline text first,
// then a library lookup.
func (s *Server) resolveGrid(ctx context.Context, gridText, puzzleID string) (puzzle.Grid, int, error) {
	if gridText != "" {
		g, err := gridio.Parse(gridText)
		if err != nil {
			return puzzle.Grid{}, http.StatusBadRequest, err
		}
		return g, 0, nil
	}
	p, err := s.store.PuzzleByID(ctx, puzzleID)
	if errors.Is(err, storage.ErrNoPuzzle) {
		return puzzle.Grid{}, http.StatusNotFound, err
	}
	if err != nil {
		s.log.Error("loading puzzle", "id", puzzleID, "err", err)
		return puzzle.Grid{}, http.StatusInternalServerError, errors.New("loading puzzle failed")
	}
	g, err := gridio.Parse(p.Givens)
	if err != nil {
		s.log.Error("stored puzzle unreadable", "id", puzzleID, "err", err)
		return puzzle.Grid{}, http.StatusInternalServerError, errors.New("stored puzzle unreadable")
	}
	return g, 0, nil
}

/*

solving

*/

type solveRequest struct {
	Grid     string `json:"grid,omitempty" validate:"required_without=PuzzleID"`
	PuzzleID string `json:"puzzle_id,omitempty" validate:"omitempty,len=16,hexadecimal"`
	Strategy string `json:"strategy,omitempty" validate:"omitempty,oneof=brute propagation"`
	Trace    bool   `json:"trace,omitempty"`
}

type solveResponse struct {
	Solved         bool          `json:"solved"`
	Strategy       string        `json:"strategy"`
	Solution       string        `json:"solution,omitempty"`
	Steps          int           `json:"steps"`
	DurationMS     float64       `json:"duration_ms"`
	Trace          []puzzle.Step `json:"trace,omitempty"`
	TraceTruncated bool          `json:"trace_truncated,omitempty"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	g, status, err := s.resolveGrid(r.Context(), req.Grid, req.PuzzleID)
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

	strategy, solver := solverFor(req.Strategy)
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SolveTimeout)
	defer cancel()
	start := time.Now()
	solved, trace, err := solver(ctx, g)
	elapsed := time.Since(start)
	s.metrics.observeSolve(strategy, outcomeOf(err), elapsed)

	resp := solveResponse{
		Strategy:   strategy,
		Steps:      len(trace),
		DurationMS: float64(elapsed) / float64(time.Millisecond),
	}
	switch {
	case err == nil:
		resp.Solved = true
		resp.Solution = gridio.Encode(solved)
	case errors.Is(err, puzzle.ErrNoSolution):
		// solved stays false; an unsolvable grid is a result, not
		// a failure
	case errors.Is(err, context.DeadlineExceeded):
		s.writeErr(w, http.StatusServiceUnavailable, "solve timed out")
		return
	case errors.Is(err, context.Canceled):
		return
	default:
		var ve *puzzle.ValueError
		if errors.As(err, &ve) {
			s.writeErr(w, http.StatusBadRequest, ve.Error())
			return
		}
		s.log.Error("solve failed", "strategy", strategy, "err", err)
		s.writeErr(w, http.StatusInternalServerError, "solve failed")
		return
	}
	if req.Trace {
		resp.Trace = trace
		if len(resp.Trace) > maxTraceReturn {
			resp.Trace = resp.Trace[:maxTraceReturn]
			resp.TraceTruncated = true
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

/*

verification

*/

type verifyRequest struct {
	Givens   string `json:"givens,omitempty" validate:"required_without=PuzzleID"`
	PuzzleID string `json:"puzzle_id,omitempty" validate:"omitempty,len=16,hexadecimal"`
	Solution string `json:"solution" validate:"required"`
}

type strategyReport struct {
	Strategy   string  `json:"strategy"`
	Solved     bool    `json:"solved"`
	Matches    bool    `json:"matches"`
	Steps      int     `json:"steps"`
	DurationMS float64 `json:"duration_ms"`
}

type verifyResponse struct {
	Valid           bool             `json:"valid"`
	GivensPreserved bool             `json:"givens_preserved"`
	Strategies      []strategyReport `json:"strategies"`
}

// handleVerify checks a proposed solution against its givens, then
// runs both strategies side by side and reports whether each found
// the proposal.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	g, status, err := s.resolveGrid(r.Context(), req.Givens, req.PuzzleID)
	if err != nil {
		s.writeErr(w, status, err.Error())
		return
	}
	sol, err := gridio.Parse(req.Solution)
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err.Error())
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

	resp := verifyResponse{
		Valid:           sol.IsCompleteAndValid(),
		GivensPreserved: preservesGivens(g, sol),
		Strategies:      make([]strategyReport, 2),
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SolveTimeout)
	defer cancel()
	grp, gctx := errgroup.WithContext(ctx)
	for i, name := range []string{strategyBrute, strategyPropagation} {
		grp.Go(func() error {
			_, solver := solverFor(name)
			start := time.Now()
			solved, trace, err := solver(gctx, g)
			elapsed := time.Since(start)
			s.metrics.observeSolve(name, outcomeOf(err), elapsed)
			rep := strategyReport{
				Strategy:   name,
				Steps:      len(trace),
				DurationMS: float64(elapsed) / float64(time.Millisecond),
			}
			switch {
			case err == nil:
				rep.Solved = true
				rep.Matches = solved == sol
			case errors.Is(err, puzzle.ErrNoSolution):
			default:
				return err
			}
			resp.Strategies[i] = rep
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.writeErr(w, http.StatusServiceUnavailable, "verify timed out")
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		s.log.Error("verify failed", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "verify failed")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// preservesGivens reports whether every filled cell of g carries
// over into sol unchanged.
func preservesGivens(g, sol puzzle.Grid) bool {
	for r := 0; r < puzzle.Side; r++ {
		for c := 0; c < puzzle.Side; c++ {
			if g[r][c] != puzzle.Empty && g[r][c] != sol[r][c] {
				return false
			}
		}
	}
	return true
}

/*

candidate lookup

*/

type candidatesResponse struct {
	Row    int   `json:"row"`
	Col    int   `json:"col"`
	Values []int `json:"values"`
	Count  int   `json:"count"`
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gridText := q.Get("grid")
	if gridText == "" {
		s.writeErr(w, http.StatusBadRequest, "missing grid parameter")
		return
	}
	g, err := gridio.Parse(gridText)
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	row, err1 := strconv.Atoi(q.Get("row"))
	col, err2 := strconv.Atoi(q.Get("col"))
	if err1 != nil || err2 != nil || row < 1 || row > puzzle.Side || col < 1 || col > puzzle.Side {
		s.writeErr(w, http.StatusBadRequest, "row and col must be numbers 1 through 9")
		return
	}
	set := g.Candidates(row-1, col-1)
	values := set.Digits()
	if values == nil {
		values = []int{}
	}
	s.writeJSON(w, http.StatusOK, candidatesResponse{
		Row:    row,
		Col:    col,
		Values: values,
		Count:  set.Size(),
	})
}

/*

the puzzle library

*/

func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	difficulty := r.URL.Query().Get("difficulty")
	switch difficulty {
	case "", "easy", "medium", "hard", "user":
	default:
		s.writeErr(w, http.StatusBadRequest, "unknown difficulty "+strconv.Quote(difficulty))
		return
	}
	list, err := s.store.ListPuzzles(r.Context(), difficulty)
	if err != nil {
		s.log.Error("listing puzzles", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "listing puzzles failed")
		return
	}
	if list == nil {
		list = []*storage.SavedPuzzle{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.PuzzleByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNoPuzzle) {
		s.writeErr(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.log.Error("loading puzzle", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "loading puzzle failed")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

type savePuzzleRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	Givens   string `json:"givens" validate:"required"`
	Solution string `json:"solution" validate:"required"`
}

// handleSavePuzzle adds a user puzzle to the library. The caller
// must supply the full solution; a valid solution that extends the
// givens proves the puzzle is solvable without burning solver time.
func (s *Server) handleSavePuzzle(w http.ResponseWriter, r *http.Request) {
	var req savePuzzleRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	g, err := gridio.Parse(req.Givens)
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	sol, err := gridio.Parse(req.Solution)
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if !sol.IsCompleteAndValid() {
		s.writeErr(w, http.StatusUnprocessableEntity, "solution is not a valid completed grid")
		return
	}
	if !preservesGivens(g, sol) {
		s.writeErr(w, http.StatusUnprocessableEntity, "givens do not match the solution")
		return
	}
	p := &storage.SavedPuzzle{
		Name:       req.Name,
		Difficulty: "user",
		Givens:     gridio.Encode(g),
		Solution:   gridio.Encode(sol),
	}
	if err := s.store.SavePuzzle(r.Context(), p); err != nil {
		s.log.Error("saving puzzle", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "saving puzzle failed")
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}
