// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grayfold/sudori/puzzle"
	"github.com/grayfold/sudori/storage"
)

/*

known-good data

*/

const (
	classicGivens   = "530070000600195000098000060800060003400803001700020006060000280000419005000080079"
	classicSolution = "534678912672195348198342567859761423426853791713924856961537284287419635345286179"
	eulerSolution   = "483921657967345821251876493548132976729564138136798245372689514814253769695417382"

	unsolvableGivens = "123456780" +
		"000000000" +
		"000000000" +
		"000000000" +
		"000000000" +
		"000000009" +
		"000000000" +
		"000000000" +
		"000000000"

	conflictGivens = "500005000" +
		"000000000" +
		"000000000" +
		"000000000" +
		"000000000" +
		"000000000" +
		"000000000" +
		"000000000" +
		"000000000"
)

/*

an in-memory store

*/

type fakeStore struct {
	mu       sync.Mutex
	puzzles  map[string]*storage.SavedPuzzle
	sessions map[string]*storage.Session
	pingErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		puzzles:  make(map[string]*storage.SavedPuzzle),
		sessions: make(map[string]*storage.Session),
	}
}

func (f *fakeStore) PuzzleByID(_ context.Context, id string) (*storage.SavedPuzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.puzzles[id]
	if !ok {
		return nil, storage.ErrNoPuzzle
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SavePuzzle(_ context.Context, p *storage.SavedPuzzle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = storage.Signature(p.Givens)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if _, exists := f.puzzles[p.ID]; !exists {
		cp := *p
		f.puzzles[p.ID] = &cp
	}
	return nil
}

func (f *fakeStore) ListPuzzles(_ context.Context, difficulty string) ([]*storage.SavedPuzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*storage.SavedPuzzle
	for _, p := range f.puzzles {
		if difficulty == "" || p.Difficulty == difficulty {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Difficulty != out[j].Difficulty {
			return out[i].Difficulty < out[j].Difficulty
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (f *fakeStore) LoadSession(_ context.Context, sid string) (*storage.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sid]
	if !ok {
		return nil, storage.ErrNoSession
	}
	cp := *sess
	return &cp, nil
}

func (f *fakeStore) SaveSession(_ context.Context, sess *storage.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess.Updated = time.Now().Unix()
	cp := *sess
	f.sessions[sess.SID] = &cp
	return nil
}

func (f *fakeStore) DeleteSession(_ context.Context, sid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sid)
	return nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.pingErr
}

/*

harness

*/

func testConfig() Config {
	return Config{
		Addr:         "localhost:0",
		SolveTimeout: 10 * time.Second,
		SolveRate:    1000,
		SolveBurst:   1000,
	}
}

func newTestServer(store Store) *Server {
	return New(testConfig(), store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// seedPuzzle puts a bank-style entry into the fake store and
// returns its ID.
func seedPuzzle(t *testing.T, f *fakeStore, name, difficulty, givens string) string {
	t.Helper()
	p := &storage.SavedPuzzle{Name: name, Difficulty: difficulty, Givens: givens}
	require.NoError(t, f.SavePuzzle(context.Background(), p))
	return p.ID
}

func request(t *testing.T, h http.Handler, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

/*

solving

*/

func TestSolveClassicBothStrategies(t *testing.T) {
	h := newTestServer(newFakeStore()).Handler()
	for _, strategy := range []string{strategyBrute, strategyPropagation} {
		rec := request(t, h, "POST", "/api/solve",
			map[string]any{"grid": classicGivens, "strategy": strategy, "trace": true})
		require.Equal(t, http.StatusOK, rec.Code, "strategy %s: %s", strategy, rec.Body.String())
		resp := decode[solveResponse](t, rec)
		assert.True(t, resp.Solved, "strategy %s", strategy)
		assert.Equal(t, classicSolution, resp.Solution, "strategy %s", strategy)
		assert.Equal(t, strategy, resp.Strategy)
		assert.NotZero(t, resp.Steps, "strategy %s", strategy)
		assert.NotEmpty(t, resp.Trace, "strategy %s", strategy)
	}
}

func TestSolveDefaultsToPropagation(t *testing.T) {
	h := newTestServer(newFakeStore()).Handler()
	rec := request(t, h, "POST", "/api/solve", map[string]any{"grid": classicGivens})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[solveResponse](t, rec)
	assert.Equal(t, strategyPropagation, resp.Strategy)
	assert.Empty(t, resp.Trace, "trace only comes when asked for")
}

func TestSolveByPuzzleID(t *testing.T) {
	f := newFakeStore()
	id := seedPuzzle(t, f, "classic", "easy", classicGivens)
	h := newTestServer(f).Handler()
	rec := request(t, h, "POST", "/api/solve", map[string]any{"puzzle_id": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[solveResponse](t, rec)
	assert.True(t, resp.Solved)
	assert.Equal(t, classicSolution, resp.Solution)
}

func TestSolveCompleteGridImmediate(t *testing.T) {
	h := newTestServer(newFakeStore()).Handler()
	rec := request(t, h, "POST", "/api/solve",
		map[string]any{"grid": classicSolution, "trace": true})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[solveResponse](t, rec)
	assert.True(t, resp.Solved)
	assert.Equal(t, classicSolution, resp.Solution)
	assert.Zero(t, resp.Steps)
	assert.Empty(t, resp.Trace)
}

func TestSolveUnsolvable(t *testing.T) {
	h := newTestServer(newFakeStore()).Handler()
	rec := request(t, h, "POST", "/api/solve", map[string]any{"grid": unsolvableGivens})
	require.Equal(t, http.StatusOK, rec.Code, "no solution is a result, not an error")
	resp := decode[solveResponse](t, rec)
	assert.False(t, resp.Solved)
	assert.Empty(t, resp.Solution)
}

func TestSolveConflictingGivens(t *testing.T) {
	h := newTestServer(newFakeStore()).Handler()
	rec := request(t, h, "POST", "/api/solve", map[string]any{"grid": conflictGivens})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[apiError](t, rec)
	assert.Contains(t, resp.Cells, cellRef{Row: 1, Col: 1})
	assert.Contains(t, resp.Cells, cellRef{Row: 1, Col: 6})
}

func TestSolveRejectsBadRequests(t *testing.T) {
	f := newFakeStore()
	h := newTestServer(f).Handler()
	testcases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"malformed grid", map[string]any{"grid": "123"}, http.StatusBadRequest},
		{"neither grid nor id", map[string]any{}, http.StatusBadRequest},
		{"unknown strategy", map[string]any{"grid": classicGivens, "strategy": "oracle"}, http.StatusBadRequest},
		{"bad puzzle id shape", map[string]any{"puzzle_id": "nope"}, http.StatusBadRequest},
		{"unknown puzzle id", map[string]any{"puzzle_id": "00000000deadbeef"}, http.StatusNotFound},
	}
	for i, tc := range testcases {
		rec := request(t, h, "POST", "/api/solve", tc.body)
		assert.Equal(t, tc.want, rec.Code, "case %d (%s): %s", i, tc.name, rec.Body.String())
	}
}

func TestSolveRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.SolveRate = 1
	cfg.SolveBurst = 1
	s := New(cfg, newFakeStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := s.Handler()

	rec := request(t, h, "POST", "/api/solve", map[string]any{"grid": classicGivens})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = request(t, h, "POST", "/api/solve", map[string]any{"grid": classicGivens})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

/*

verification

*/

func TestVerifyCorrectSolution(t *testing.T) {
	h := newTestServer(newFakeStore()).Handler()
	rec := request(t, h, "POST", "/api/verify",
		map[string]any{"givens": classicGivens, "solution": classicSolution})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[verifyResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.True(t, resp.GivensPreserved)
	require.Len(t, resp.Strategies, 2)
	for _, rep := range resp.Strategies {
		assert.True(t, rep.Solved, "strategy %s", rep.Strategy)
		assert.True(t, rep.Matches, "strategy %s", rep.Strategy)
	}
}

func TestVerifyForeignSolution(t *testing.T) {
	// a perfectly valid completed grid that has nothing to do with
	// the givens
	h := newTestServer(newFakeStore()).Handler()
	rec := request(t, h, "POST", "/api/verify",
		map[string]any{"givens": classicGivens, "solution": eulerSolution})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[verifyResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.False(t, resp.GivensPreserved)
	for _, rep := range resp.Strategies {
		assert.True(t, rep.Solved, "strategy %s", rep.Strategy)
		assert.False(t, rep.Matches, "strategy %s", rep.Strategy)
	}
}

func TestVerifyIncompleteSolution(t *testing.T) {
	h := newTestServer(newFakeStore()).Handler()
	rec := request(t, h, "POST", "/api/verify",
		map[string]any{"givens": classicGivens, "solution": classicGivens})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[verifyResponse](t, rec)
	assert.False(t, resp.Valid)
	assert.True(t, resp.GivensPreserved)
}

func TestVerifyUnsolvableGivens(t *testing.T) {
	h := newTestServer(newFakeStore()).Handler()
	rec := request(t, h, "POST", "/api/verify",
		map[string]any{"givens": unsolvableGivens, "solution": classicSolution})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[verifyResponse](t, rec)
	for _, rep := range resp.Strategies {
		assert.False(t, rep.Solved, "strategy %s", rep.Strategy)
		assert.False(t, rep.Matches, "strategy %s", rep.Strategy)
	}
}

/*

candidate lookup

*/

func TestCandidates(t *testing.T) {
	h := newTestServer(newFakeStore()).Handler()

	rec := request(t, h, "GET", "/api/candidates?grid="+classicGivens+"&row=1&col=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[candidatesResponse](t, rec)
	assert.Equal(t, []int{1, 2, 4}, resp.Values)
	assert.Equal(t, 3, resp.Count)

	// a filled cell has no candidates
	rec = request(t, h, "GET", "/api/candidates?grid="+classicGivens+"&row=1&col=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[candidatesResponse](t, rec)
	assert.Empty(t, resp.Values)
	assert.Zero(t, resp.Count)

	rec = request(t, h, "GET", "/api/candidates?grid="+classicGivens+"&row=0&col=3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = request(t, h, "GET", "/api/candidates?row=1&col=3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

/*

the puzzle library

*/

func TestPuzzleLibrary(t *testing.T) {
	f := newFakeStore()
	h := newTestServer(f).Handler()

	rec := request(t, h, "POST", "/api/puzzles", map[string]any{
		"name":     "my first puzzle",
		"givens":   classicGivens,
		"solution": classicSolution,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[storage.SavedPuzzle](t, rec)
	assert.Equal(t, storage.Signature(classicGivens), saved.ID)
	assert.Equal(t, "user", saved.Difficulty)

	rec = request(t, h, "GET", "/api/puzzles/"+saved.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[storage.SavedPuzzle](t, rec)
	assert.Equal(t, classicGivens, got.Givens)

	rec = request(t, h, "GET", "/api/puzzles?difficulty=user", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]storage.SavedPuzzle](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "my first puzzle", list[0].Name)

	rec = request(t, h, "GET", "/api/puzzles?difficulty=fiendish", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = request(t, h, "GET", "/api/puzzles/00000000deadbeef", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavePuzzleRejectsBadSubmissions(t *testing.T) {
	h := newTestServer(newFakeStore()).Handler()
	testcases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"incomplete solution",
			map[string]any{"name": "x", "givens": classicGivens, "solution": classicGivens},
			http.StatusUnprocessableEntity},
		{"solution ignores givens",
			map[string]any{"name": "x", "givens": classicGivens, "solution": eulerSolution},
			http.StatusUnprocessableEntity},
		{"missing name",
			map[string]any{"givens": classicGivens, "solution": classicSolution},
			http.StatusBadRequest},
		{"unparseable givens",
			map[string]any{"name": "x", "givens": "12", "solution": classicSolution},
			http.StatusBadRequest},
	}
	for i, tc := range testcases {
		rec := request(t, h, "POST", "/api/puzzles", tc.body)
		assert.Equal(t, tc.want, rec.Code, "case %d (%s): %s", i, tc.name, rec.Body.String())
	}
}

/*

sessions

*/

// sessionCookie digs the session cookie out of a response.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestSessionFlow(t *testing.T) {
	f := newFakeStore()
	classicID := seedPuzzle(t, f, "classic", "easy", classicGivens)
	otherID := seedPuzzle(t, f, "zz-euler", "easy", "003020600900305001001806400008102900700000008006708200002609500800203009005010300")
	h := newTestServer(f).Handler()

	// first contact mints a session on the first easy puzzle
	rec := request(t, h, "GET", "/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	state := decode[sessionResponse](t, rec)
	assert.NotEmpty(t, state.SID)
	assert.Equal(t, classicID, state.PuzzleID)
	assert.Equal(t, classicGivens, state.Givens)
	assert.Equal(t, emptyEntries(), state.Entries)
	assert.Zero(t, state.Moves)

	// the same cookie comes back to the same session
	rec = request(t, h, "GET", "/session", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, state.SID, decode[sessionResponse](t, rec).SID)

	// enter the solution's value for r1c3, then a wrong one at r1c4
	rec = request(t, h, "POST", "/session/entry",
		map[string]any{"row": 1, "col": 3, "value": 4}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state = decode[sessionResponse](t, rec)
	assert.Equal(t, byte('4'), state.Entries[entryIndex(1, 3)])
	assert.Equal(t, 1, state.Moves)

	rec = request(t, h, "POST", "/session/entry",
		map[string]any{"row": 1, "col": 4, "value": 2}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[sessionResponse](t, rec)
	assert.Equal(t, 2, state.Moves)

	// a given cell cannot be overwritten
	rec = request(t, h, "POST", "/session/entry",
		map[string]any{"row": 1, "col": 1, "value": 9}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// hints judge the two entries
	rec = request(t, h, "GET", "/session/hints", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	hints := decode[hintsResponse](t, rec)
	assert.Equal(t, []cellRef{{Row: 1, Col: 3}}, hints.Correct)
	assert.Equal(t, []cellRef{{Row: 1, Col: 4}}, hints.Wrong)
	assert.Equal(t, 49, hints.Open)

	rec = request(t, h, "GET", "/session", nil, cookie)
	assert.Equal(t, 1, decode[sessionResponse](t, rec).Hints)

	// reset clears entries but keeps the puzzle
	rec = request(t, h, "POST", "/session/reset", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[sessionResponse](t, rec)
	assert.Equal(t, emptyEntries(), state.Entries)
	assert.Equal(t, classicID, state.PuzzleID)

	// switching puzzles starts the counters over
	rec = request(t, h, "POST", "/session/select",
		map[string]any{"puzzle_id": otherID}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state = decode[sessionResponse](t, rec)
	assert.Equal(t, otherID, state.PuzzleID)
	assert.Zero(t, state.Moves)
	assert.Zero(t, state.Hints)

	rec = request(t, h, "POST", "/session/select",
		map[string]any{"puzzle_id": "00000000deadbeef"}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// and the session can be dropped outright
	rec = request(t, h, "DELETE", "/session", nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err := f.LoadSession(context.Background(), state.SID)
	assert.ErrorIs(t, err, storage.ErrNoSession)
}

func TestSessionEntryWithoutPuzzle(t *testing.T) {
	// an empty library leaves new sessions without a puzzle
	h := newTestServer(newFakeStore()).Handler()
	rec := request(t, h, "POST", "/session/entry",
		map[string]any{"row": 1, "col": 1, "value": 5})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

/*

health and metrics

*/

func TestHealthz(t *testing.T) {
	f := newFakeStore()
	h := newTestServer(f).Handler()
	rec := request(t, h, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.pingErr = context.DeadlineExceeded
	rec = request(t, h, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsExposeSolves(t *testing.T) {
	h := newTestServer(newFakeStore()).Handler()
	request(t, h, "POST", "/api/solve", map[string]any{"grid": classicGivens})
	rec := request(t, h, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sudori_solver_solves_total")
	assert.Contains(t, rec.Body.String(), "sudori_http_requests_total")
}

/*

configuration

*/

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SOLVE_TIMEOUT", "")
	t.Setenv("SOLVE_RATE", "")
	cfg := ConfigFromEnv()
	assert.Equal(t, "localhost:8080", cfg.Addr)
	assert.Equal(t, 10*time.Second, cfg.SolveTimeout)

	t.Setenv("PORT", "9000")
	t.Setenv("SOLVE_TIMEOUT", "2s")
	t.Setenv("SOLVE_RATE", "4")
	cfg = ConfigFromEnv()
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 2*time.Second, cfg.SolveTimeout)
	assert.EqualValues(t, 4, cfg.SolveRate)
	assert.Equal(t, 4, cfg.SolveBurst)
}

// keep the engine honest about what the trace JSON looks like on
// the wire; clients replay these frames
func TestTraceStepWireShape(t *testing.T) {
	b, err := json.Marshal(puzzle.Step{Kind: puzzle.StepTry, Row: 1, Col: 3, Value: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"try","row":1,"col":3,"value":2}`, string(b))
}
