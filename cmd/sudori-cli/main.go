// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

// Command sudori-cli is an offline read-eval-print loop over the
// solving engine: load a puzzle, poke at cells, ask for candidates,
// run the propagator or a full solve, and verify solutions, all
// without a server or storage backends.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/grayfold/sudori/dbprep"
	"github.com/grayfold/sudori/gridio"
	"github.com/grayfold/sudori/puzzle"
)

func main() {
	if err := listener(os.Stdout, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "sudori-cli: %v\n", err)
		os.Exit(1)
	}
}

/*

the session

*/

// A replSession is the state the commands operate on: the loaded
// givens, the working grid the user edits over them, and the output
// formatting toggle.
type replSession struct {
	givens   puzzle.Grid // immutable once loaded
	grid     puzzle.Grid // givens plus the user's entries
	name     string      // what was loaded, for the show header
	markdown bool
	in       *bufio.Scanner // for commands that read more lines
}

// printGrid renders the working grid in the session's chosen form.
func (s *replSession) printGrid(w io.Writer) {
	if s.markdown {
		fmt.Fprint(w, s.grid.MarkdownString())
	} else {
		fmt.Fprint(w, s.grid.String())
	}
}

/*

the listener

*/

// listener reads lines from in and dispatches them until quit or
// EOF. The prompt appears only when both streams are terminals, so
// piped scripts and tests get clean output.
func listener(out io.Writer, in io.Reader) error {
	prompt := streamIsTerminal(out) && streamIsTerminal(in)
	scanner := bufio.NewScanner(in)
	session := &replSession{name: "(empty)", in: scanner}

	for {
		if prompt {
			fmt.Fprint(out, "sudori> ")
		}
		if !scanner.Scan() {
			if prompt {
				fmt.Fprintln(out, " (EOF)")
			}
			return scanner.Err()
		}
		r := parseRequest(scanner.Text())
		switch r.command {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		dispatchCommand(session, out, r)
	}
}

// streamIsTerminal reports whether a stream is an interactive
// terminal. Anything that is not an *os.File is not.
func streamIsTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

type request struct {
	line    string
	command string
	args    []string
}

func parseRequest(line string) *request {
	r := &request{line: strings.TrimSpace(line)}
	fields := strings.Fields(r.line)
	if len(fields) == 0 {
		return r
	}
	r.command = strings.ToLower(fields[0])
	r.args = fields[1:]
	return r
}

/*

command dispatching

*/

// commandInfo describes one command. The list is kept sorted for
// help output and hashed into a table for dispatch.
type commandInfo struct {
	command     string
	argInfo     string
	description string
	handler     func(*replSession, io.Writer, *request)
}

var (
	dispatchInfo  []commandInfo
	dispatchTable map[string]*commandInfo
)

func init() {
	dispatchInfo = []commandInfo{
		{"candidates", "row col", "show the legal digits for a cell", candidatesHandler},
		{"clear", "row col", "empty a cell you filled", clearHandler},
		{"conflicts", "", "list cells that break the one-per-group rule", conflictsHandler},
		{"help", "", "show this list", helpHandler},
		{"load", "name|file", "load a bank puzzle or a grid file", loadHandler},
		{"markdown", "on|off", "format grids as markdown tables", markdownHandler},
		{"reset", "", "drop your entries, back to the givens", resetHandler},
		{"set", "row col value", "place a digit in a cell", setHandler},
		{"show", "", "show the current grid", showHandler},
		{"singles", "", "fill every forced single", singlesHandler},
		{"solve", "[brute|smart]", "solve the current grid (default smart)", solveHandler},
		{"verify", "", "check a solution you enter against the givens", verifyHandler},
	}
	dispatchTable = make(map[string]*commandInfo, len(dispatchInfo))
	for i := range dispatchInfo {
		dispatchTable[dispatchInfo[i].command] = &dispatchInfo[i]
	}
}

func dispatchCommand(s *replSession, w io.Writer, r *request) {
	ci, ok := dispatchTable[r.command]
	if !ok {
		fmt.Fprintf(w, "unknown command %q; try help\n", r.command)
		return
	}
	ci.handler(s, w, r)
}

/*

command handlers

*/

func helpHandler(s *replSession, w io.Writer, r *request) {
	fmt.Fprintln(w, "commands:")
	for _, ci := range dispatchInfo {
		fmt.Fprintf(w, "  %-12s %-14s %s\n", ci.command, ci.argInfo, ci.description)
	}
	fmt.Fprintln(w, "  quit                        leave")
}

func showHandler(s *replSession, w io.Writer, r *request) {
	fmt.Fprintf(w, "%s (%d open)\n", s.name, s.grid.EmptyCount())
	s.printGrid(w)
}

// loadHandler accepts a bank puzzle name (easy-1 through hard-3) or
// a file path; "-" reads a grid from the following input lines.
func loadHandler(s *replSession, w io.Writer, r *request) {
	if len(r.args) != 1 {
		fmt.Fprintln(w, "usage: load name|file")
		return
	}
	arg := r.args[0]
	text, name, err := loadText(s, arg)
	if err != nil {
		fmt.Fprintf(w, "load failed: %v\n", err)
		return
	}
	g, err := gridio.Parse(text)
	if err != nil {
		fmt.Fprintf(w, "load failed: %v\n", err)
		return
	}
	s.givens, s.grid, s.name = g, g, name
	showHandler(s, w, r)
}

func loadText(s *replSession, arg string) (text, name string, err error) {
	if bank, bankErr := dbprep.Bank(); bankErr == nil {
		for _, bp := range bank {
			if bp.Name == arg {
				return bp.Givens, bp.Name, nil
			}
		}
	}
	if arg == "-" {
		return readGridLines(s.in), "(stdin)", nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", "", err
	}
	return string(data), arg, nil
}

// readGridLines collects input lines until their digits reach a
// full grid or a blank line gives up early.
func readGridLines(in *bufio.Scanner) string {
	var b strings.Builder
	for digits := 0; digits < puzzle.Side*puzzle.Side && in.Scan(); {
		line := in.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		for _, ch := range line {
			if ch >= '0' && ch <= '9' {
				digits++
			}
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// cellArgs parses 1-based row and column arguments.
func cellArgs(args []string) (row, col int, err error) {
	if len(args) < 2 {
		return 0, 0, errors.New("need row and col, numbered 1 through 9")
	}
	row, rerr := strconv.Atoi(args[0])
	col, cerr := strconv.Atoi(args[1])
	if rerr != nil || cerr != nil || row < 1 || row > puzzle.Side || col < 1 || col > puzzle.Side {
		return 0, 0, errors.New("rows and cols are numbered 1 through 9")
	}
	return row - 1, col - 1, nil
}

func setHandler(s *replSession, w io.Writer, r *request) {
	row, col, err := cellArgs(r.args)
	if err != nil {
		fmt.Fprintf(w, "usage: set row col value: %v\n", err)
		return
	}
	if len(r.args) < 3 {
		fmt.Fprintln(w, "usage: set row col value")
		return
	}
	v, err := strconv.Atoi(r.args[2])
	if err != nil || v < 1 || v > puzzle.Side {
		fmt.Fprintln(w, "values are digits 1 through 9")
		return
	}
	if s.givens[row][col] != puzzle.Empty {
		fmt.Fprintf(w, "r%dc%d is a given; it stays %d\n", row+1, col+1, s.givens[row][col])
		return
	}
	if !s.grid.IsLegalPlacement(row, col, v) {
		fmt.Fprintf(w, "%d conflicts with the row, column, or box of r%dc%d\n", v, row+1, col+1)
		return
	}
	s.grid[row][col] = v
	s.printGrid(w)
}

func clearHandler(s *replSession, w io.Writer, r *request) {
	row, col, err := cellArgs(r.args)
	if err != nil {
		fmt.Fprintf(w, "usage: clear row col: %v\n", err)
		return
	}
	if s.givens[row][col] != puzzle.Empty {
		fmt.Fprintf(w, "r%dc%d is a given; it cannot be cleared\n", row+1, col+1)
		return
	}
	s.grid[row][col] = puzzle.Empty
	s.printGrid(w)
}

func candidatesHandler(s *replSession, w io.Writer, r *request) {
	row, col, err := cellArgs(r.args)
	if err != nil {
		fmt.Fprintf(w, "usage: candidates row col: %v\n", err)
		return
	}
	if v := s.grid[row][col]; v != puzzle.Empty {
		fmt.Fprintf(w, "r%dc%d already holds %d\n", row+1, col+1, v)
		return
	}
	fmt.Fprintf(w, "r%dc%d: %s\n", row+1, col+1, s.grid.Candidates(row, col))
}

func conflictsHandler(s *replSession, w io.Writer, r *request) {
	cells := s.grid.Conflicts()
	if len(cells) == 0 {
		fmt.Fprintln(w, "no conflicts")
		return
	}
	for _, cell := range cells {
		fmt.Fprintf(w, "r%dc%d holds %d, duplicated in its row, column, or box\n",
			cell.Row+1, cell.Col+1, s.grid[cell.Row][cell.Col])
	}
}

func singlesHandler(s *replSession, w io.Writer, r *request) {
	var tr puzzle.Trace
	if !puzzle.PropagateForcedSingles(&s.grid, &tr) {
		fmt.Fprintln(w, "no forced singles")
		return
	}
	for _, line := range tr.Strings() {
		fmt.Fprintln(w, line)
	}
	s.printGrid(w)
}

func solveHandler(s *replSession, w io.Writer, r *request) {
	strategy := "smart"
	if len(r.args) > 0 {
		strategy = r.args[0]
	}
	solver := puzzle.SolveWithPropagation
	switch strategy {
	case "smart":
	case "brute":
		solver = puzzle.SolveBruteForce
	default:
		fmt.Fprintln(w, "usage: solve [brute|smart]")
		return
	}
	if cells := s.grid.Conflicts(); len(cells) > 0 {
		fmt.Fprintln(w, "the grid has conflicts; fix them first (see conflicts)")
		return
	}
	start := time.Now()
	solved, tr, err := solver(context.Background(), s.grid)
	elapsed := time.Since(start)
	switch {
	case err == nil:
		s.grid = solved
		s.printGrid(w)
		fmt.Fprintf(w, "solved in %d steps, %v\n", len(tr), elapsed.Round(time.Microsecond))
	case errors.Is(err, puzzle.ErrNoSolution):
		fmt.Fprintf(w, "no solution from here (%d steps tried, %v)\n", len(tr), elapsed.Round(time.Microsecond))
	default:
		fmt.Fprintf(w, "solve failed: %v\n", err)
	}
}

// verifyHandler reads a proposed solution from the following input
// lines and reports validity, given preservation, and whether both
// strategies can reproduce it from the givens.
func verifyHandler(s *replSession, w io.Writer, r *request) {
	fmt.Fprintln(w, "enter the solution (9 lines of 9 digits, or 81 digits):")
	sol, err := gridio.Parse(readGridLines(s.in))
	if err != nil {
		fmt.Fprintf(w, "verify failed: %v\n", err)
		return
	}
	fmt.Fprintf(w, "complete and valid: %v\n", sol.IsCompleteAndValid())
	preserved := true
	for row := 0; row < puzzle.Side; row++ {
		for col := 0; col < puzzle.Side; col++ {
			if v := s.givens[row][col]; v != puzzle.Empty && v != sol[row][col] {
				fmt.Fprintf(w, "given r%dc%d = %d was changed to %d\n", row+1, col+1, v, sol[row][col])
				preserved = false
			}
		}
	}
	fmt.Fprintf(w, "givens preserved: %v\n", preserved)
	for _, strategy := range []string{"brute", "smart"} {
		solver := puzzle.SolveBruteForce
		if strategy == "smart" {
			solver = puzzle.SolveWithPropagation
		}
		solved, tr, err := solver(context.Background(), s.givens)
		switch {
		case err == nil:
			fmt.Fprintf(w, "%s: solved in %d steps, matches proposal: %v\n", strategy, len(tr), solved == sol)
		case errors.Is(err, puzzle.ErrNoSolution):
			fmt.Fprintf(w, "%s: no solution from the givens\n", strategy)
		default:
			fmt.Fprintf(w, "%s: %v\n", strategy, err)
		}
	}
}

func resetHandler(s *replSession, w io.Writer, r *request) {
	s.grid = s.givens
	s.printGrid(w)
}

func markdownHandler(s *replSession, w io.Writer, r *request) {
	if len(r.args) != 1 || (r.args[0] != "on" && r.args[0] != "off") {
		fmt.Fprintln(w, "usage: markdown on|off")
		return
	}
	s.markdown = r.args[0] == "on"
	s.printGrid(w)
}
