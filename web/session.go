// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grayfold/sudori/gridio"
	"github.com/grayfold/sudori/puzzle"
	"github.com/grayfold/sudori/storage"
)

/*

cookie sessions

*/

const (
	cookieName = "sudoriID"
	cookiePath = "/"
)

func emptyEntries() string {
	return strings.Repeat("0", gridio.CellCount)
}

// entryIndex maps display coordinates to an offset in an 81-digit
// string.
func entryIndex(row, col int) int {
	return (row-1)*puzzle.Side + (col - 1)
}

// sessionSelect returns the caller's session, minting a new one
// (and its cookie) when the request carries none we know. New
// sessions start on the first easy library puzzle when the library
// has one.
func (s *Server) sessionSelect(w http.ResponseWriter, r *http.Request) (*storage.Session, error) {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		sess, err := s.store.LoadSession(r.Context(), c.Value)
		if err == nil {
			if len(sess.Entries) != gridio.CellCount {
				sess.Entries = emptyEntries()
			}
			return sess, nil
		}
		if !errors.Is(err, storage.ErrNoSession) {
			return nil, err
		}
	}

	sess := &storage.Session{
		SID:     uuid.NewString(),
		Entries: emptyEntries(),
		Created: time.Now().Unix(),
	}
	if list, err := s.store.ListPuzzles(r.Context(), "easy"); err == nil && len(list) > 0 {
		sess.PuzzleID = list[0].ID
	}
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sess.SID,
		Path:     cookiePath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.log.Info("new session", "sid", sess.SID, "puzzle", sess.PuzzleID)
	return sess, nil
}

type sessionResponse struct {
	SID        string `json:"sid"`
	PuzzleID   string `json:"puzzle_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Givens     string `json:"givens,omitempty"`
	Entries    string `json:"entries"`
	Moves      int    `json:"moves"`
	Hints      int    `json:"hints"`
}

// sessionView joins a session with its puzzle for the client. A
// puzzle that has vanished from the library (a reseed, say) leaves
// the view without givens rather than failing the whole request.
func (s *Server) sessionView(ctx context.Context, sess *storage.Session) sessionResponse {
	resp := sessionResponse{
		SID:      sess.SID,
		PuzzleID: sess.PuzzleID,
		Entries:  sess.Entries,
		Moves:    sess.Moves,
		Hints:    sess.Hints,
	}
	if sess.PuzzleID == "" {
		return resp
	}
	p, err := s.store.PuzzleByID(ctx, sess.PuzzleID)
	if err != nil {
		return resp
	}
	resp.Name = p.Name
	resp.Difficulty = p.Difficulty
	resp.Givens = p.Givens
	return resp
}

/*

session handlers

*/

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionSelect(w, r)
	if err != nil {
		s.log.Error("session load", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionView(r.Context(), sess))
}

type selectRequest struct {
	PuzzleID string `json:"puzzle_id" validate:"required,len=16,hexadecimal"`
}

func (s *Server) handleSessionSelect(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionSelect(w, r)
	if err != nil {
		s.log.Error("session load", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	var req selectRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.store.PuzzleByID(r.Context(), req.PuzzleID); err != nil {
		if errors.Is(err, storage.ErrNoPuzzle) {
			s.writeErr(w, http.StatusNotFound, err.Error())
			return
		}
		s.log.Error("loading puzzle", "id", req.PuzzleID, "err", err)
		s.writeErr(w, http.StatusInternalServerError, "loading puzzle failed")
		return
	}
	sess.PuzzleID = req.PuzzleID
	sess.Entries = emptyEntries()
	sess.Moves = 0
	sess.Hints = 0
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		s.log.Error("session save", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionView(r.Context(), sess))
}

type entryRequest struct {
	Row   int `json:"row" validate:"min=1,max=9"`
	Col   int `json:"col" validate:"min=1,max=9"`
	Value int `json:"value" validate:"min=0,max=9"`
}

// handleSessionEntry records one digit the player entered, or
// clears it with value 0. Entries may contradict the rules; the
// hints endpoint is where they get judged.
func (s *Server) handleSessionEntry(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionSelect(w, r)
	if err != nil {
		s.log.Error("session load", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	if sess.PuzzleID == "" {
		s.writeErr(w, http.StatusConflict, "no puzzle selected")
		return
	}
	var req entryRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.store.PuzzleByID(r.Context(), sess.PuzzleID)
	if err != nil {
		if errors.Is(err, storage.ErrNoPuzzle) {
			s.writeErr(w, http.StatusConflict, "selected puzzle no longer exists")
			return
		}
		s.log.Error("loading puzzle", "id", sess.PuzzleID, "err", err)
		s.writeErr(w, http.StatusInternalServerError, "loading puzzle failed")
		return
	}
	idx := entryIndex(req.Row, req.Col)
	if p.Givens[idx] != '0' {
		s.writeErr(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("cell r%dc%d is a given", req.Row, req.Col))
		return
	}
	sess.Entries = sess.Entries[:idx] + string(rune('0'+req.Value)) + sess.Entries[idx+1:]
	sess.Moves++
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		s.log.Error("session save", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionView(r.Context(), sess))
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionSelect(w, r)
	if err != nil {
		s.log.Error("session load", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	sess.Entries = emptyEntries()
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		s.log.Error("session save", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionView(r.Context(), sess))
}

type hintsResponse struct {
	Correct []cellRef `json:"correct"`
	Wrong   []cellRef `json:"wrong"`
	Open    int       `json:"open"`
}

// handleSessionHints judges the player's entries against a computed
// solution of the puzzle's givens, without revealing any values.
func (s *Server) handleSessionHints(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionSelect(w, r)
	if err != nil {
		s.log.Error("session load", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	if sess.PuzzleID == "" {
		s.writeErr(w, http.StatusConflict, "no puzzle selected")
		return
	}
	p, err := s.store.PuzzleByID(r.Context(), sess.PuzzleID)
	if err != nil {
		if errors.Is(err, storage.ErrNoPuzzle) {
			s.writeErr(w, http.StatusConflict, "selected puzzle no longer exists")
			return
		}
		s.log.Error("loading puzzle", "id", sess.PuzzleID, "err", err)
		s.writeErr(w, http.StatusInternalServerError, "loading puzzle failed")
		return
	}
	g, err := gridio.Parse(p.Givens)
	if err != nil {
		s.log.Error("stored puzzle unreadable", "id", p.ID, "err", err)
		s.writeErr(w, http.StatusInternalServerError, "stored puzzle unreadable")
		return
	}
	if len(g.Conflicts()) > 0 {
		s.writeErr(w, http.StatusUnprocessableEntity, "puzzle givens conflict")
		return
	}
	if !s.allowSolve(w) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SolveTimeout)
	defer cancel()
	start := time.Now()
	solved, _, err := puzzle.SolveWithPropagation(ctx, g)
	s.metrics.observeSolve(strategyPropagation, outcomeOf(err), time.Since(start))
	switch {
	case err == nil:
	case errors.Is(err, puzzle.ErrNoSolution):
		s.writeErr(w, http.StatusUnprocessableEntity, "puzzle has no solution")
		return
	case errors.Is(err, context.DeadlineExceeded):
		s.writeErr(w, http.StatusServiceUnavailable, "solve timed out")
		return
	case errors.Is(err, context.Canceled):
		return
	default:
		s.log.Error("solve failed", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "solve failed")
		return
	}

	resp := hintsResponse{Correct: []cellRef{}, Wrong: []cellRef{}}
	for row := 1; row <= puzzle.Side; row++ {
		for col := 1; col <= puzzle.Side; col++ {
			idx := entryIndex(row, col)
			if p.Givens[idx] != '0' {
				continue
			}
			entered := sess.Entries[idx]
			switch {
			case entered == '0':
				resp.Open++
			case int(entered-'0') == solved[row-1][col-1]:
				resp.Correct = append(resp.Correct, cellRef{Row: row, Col: col})
			default:
				resp.Wrong = append(resp.Wrong, cellRef{Row: row, Col: col})
			}
		}
	}
	sess.Hints++
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		s.log.Error("session save", "err", err)
		s.writeErr(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		if err := s.store.DeleteSession(r.Context(), c.Value); err != nil {
			s.log.Error("session delete", "err", err)
			s.writeErr(w, http.StatusInternalServerError, "session unavailable")
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:    cookieName,
		Value:   "",
		Path:    cookiePath,
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
	w.WriteHeader(http.StatusNoContent)
}
