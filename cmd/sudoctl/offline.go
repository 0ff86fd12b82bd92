// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/grayfold/sudori/dbprep"
	"github.com/grayfold/sudori/gridio"
	"github.com/grayfold/sudori/puzzle"
)

/*

offline solving and verification

*/

// readGrid parses a grid from a file, or from stdin when the
// argument is "-" or missing.
func readGrid(arg string) (puzzle.Grid, error) {
	var data []byte
	var err error
	if arg == "" || arg == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return puzzle.Grid{}, err
	}
	return gridio.Parse(string(data))
}

// solverFor maps a strategy name to its entry point.
func solverFor(name string) (func(context.Context, puzzle.Grid) (puzzle.Grid, puzzle.Trace, error), error) {
	switch name {
	case "brute":
		return puzzle.SolveBruteForce, nil
	case "smart":
		return puzzle.SolveWithPropagation, nil
	}
	return nil, fmt.Errorf("unknown strategy %q, want brute or smart", name)
}

func init() {
	var (
		strategy  string
		showTrace bool
		timeout   time.Duration
	)
	solveCmd := &cobra.Command{
		Use:   "solve [FILE]",
		Short: "Solve a puzzle from a file or stdin",
		Long: `Read a grid (nine lines of nine digits, or any text holding
exactly eighty-one digits, zeros for open cells), solve it, and
print the solution as nine lines of nine digits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			solver, err := solverFor(strategy)
			if err != nil {
				return err
			}
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			g, err := readGrid(file)
			if err != nil {
				return err
			}
			if cells := g.Conflicts(); len(cells) > 0 {
				return conflictError(cells, g)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			solved, tr, err := solver(ctx, g)
			if err != nil {
				return err
			}
			if showTrace {
				for _, line := range tr.Strings() {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), gridio.EncodeLines(solved))
			return nil
		},
	}
	solveCmd.Flags().StringVarP(&strategy, "strategy", "s", "smart", "solving strategy: brute or smart")
	solveCmd.Flags().BoolVar(&showTrace, "trace", false, "print every solver step before the solution")
	solveCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long")

	verifyCmd := &cobra.Command{
		Use:   "verify PUZZLE SOLUTION",
		Short: "Check a proposed solution against its puzzle",
		Long: `Read the puzzle givens and a proposed solution from two files
("-" for stdin, at most once), then report whether the solution is
complete and valid, whether it preserves the givens, and whether
each solving strategy reproduces it. Exits nonzero on a verdict of
invalid.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGrid(args[0])
			if err != nil {
				return fmt.Errorf("puzzle: %w", err)
			}
			sol, err := readGrid(args[1])
			if err != nil {
				return fmt.Errorf("solution: %w", err)
			}
			if cells := g.Conflicts(); len(cells) > 0 {
				return conflictError(cells, g)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runVerify(ctx, cmd.OutOrStdout(), g, sol)
		},
	}
	verifyCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long")

	bankCmd := &cobra.Command{
		Use:   "bank",
		Short: "List the embedded puzzle bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bank, err := dbprep.Bank()
			if err != nil {
				return err
			}
			for _, bp := range bank {
				g, err := gridio.Parse(bp.Givens)
				if err != nil {
					return fmt.Errorf("bank puzzle %q: %w", bp.Name, err)
				}
				givens := puzzle.Side*puzzle.Side - g.EmptyCount()
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-8s %2d givens  %s\n",
					bp.Name, bp.Difficulty, givens, bp.Givens)
			}
			return nil
		},
	}

	rootCmd.AddCommand(solveCmd, verifyCmd, bankCmd)
}

// conflictError spells out every conflicting given.
func conflictError(cells []puzzle.Cell, g puzzle.Grid) error {
	msg := "conflicting givens:"
	for _, cell := range cells {
		msg += fmt.Sprintf(" r%dc%d=%d", cell.Row+1, cell.Col+1, g[cell.Row][cell.Col])
	}
	return errors.New(msg)
}

// runVerify prints the offline dual-strategy verdict and returns an
// error when the proposal fails it.
func runVerify(ctx context.Context, w io.Writer, g, sol puzzle.Grid) error {
	valid := sol.IsCompleteAndValid()
	fmt.Fprintf(w, "complete and valid: %v\n", valid)
	preserved := true
	for r := 0; r < puzzle.Side; r++ {
		for c := 0; c < puzzle.Side; c++ {
			if v := g[r][c]; v != puzzle.Empty && v != sol[r][c] {
				preserved = false
			}
		}
	}
	fmt.Fprintf(w, "givens preserved: %v\n", preserved)

	type report struct {
		solved  bool
		matches bool
		steps   int
	}
	reports := make([]report, 2)
	names := []string{"brute", "smart"}
	grp, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		grp.Go(func() error {
			solver, _ := solverFor(name)
			solved, tr, err := solver(gctx, g)
			switch {
			case err == nil:
				reports[i] = report{solved: true, matches: solved == sol, steps: len(tr)}
			case errors.Is(err, puzzle.ErrNoSolution):
				reports[i] = report{steps: len(tr)}
			default:
				return err
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}
	for i, name := range names {
		rep := reports[i]
		if rep.solved {
			fmt.Fprintf(w, "%s: solved in %d steps, matches proposal: %v\n", name, rep.steps, rep.matches)
		} else {
			fmt.Fprintf(w, "%s: no solution from the givens\n", name)
		}
	}
	if !valid || !preserved {
		return errors.New("solution rejected")
	}
	return nil
}
