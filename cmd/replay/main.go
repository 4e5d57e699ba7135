package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v3"

	"github.com/TheSirC/vitte/internal/ledger"
	"github.com/TheSirC/vitte/internal/logging"
	"github.com/TheSirC/vitte/internal/replay"
)

// #region main

func main() {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to vitte.db (DB mode)")
	fixturePath := fs.String("fixture", "", "path to fixture JSON (fixture mode)")
	last := fs.Int("last", 100, "number of recent runs to replay in DB mode")
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("VITTE")); err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/vitte.db [--last N]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *last)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

func runDBMode(dbPath string, last int) int {
	store, err := ledger.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	runs, err := store.ListRuns(last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
		return 2
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs recorded")
		return 2
	}

	// Oldest first reads better in the table.
	cases := make([]replay.Case, len(runs))
	for i, run := range runs {
		cases[len(runs)-1-i] = replay.FromRun(run)
	}
	results := replay.Replay(cases)

	for i, res := range results {
		rec := logging.ReplayRecord{
			Verdict:   res.Verdict,
			FirstDiff: res.FirstDiff,
			Got:       len(res.Got),
			Want:      len(cases[i].Expected),
		}
		entry := logging.RunEvent{RunID: cases[i].RunID, Event: logging.EventReplay, Reason: res.Reason}
		if err := logging.LogDetail(store.DB(), entry, rec); err != nil {
			fmt.Fprintf(os.Stderr, "log replay of %s: %v\n", cases[i].RunID, err)
		}
	}

	return printComparison(cases, results)
}

// #endregion db-mode

// #region output

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	if f.Description != "" {
		fmt.Println(f.Description)
		fmt.Println()
	}
	cases := f.ToCases()
	return printComparison(cases, replay.Replay(cases))
}

// printComparison outputs a comparison table and returns the exit code.
func printComparison(cases []replay.Case, results []replay.Result) int {
	fmt.Printf("%-16s| %-22s| %-10s| %-10s| %s\n", "Case", "N / n / alpha", "Expected", "Replayed", "Verdict")
	fmt.Printf("%-16s+%-22s+%-10s+%-10s+%s\n",
		"----------------", "-----------------------", "-----------", "-----------", "--------")

	for i, res := range results {
		c := cases[i]
		params := fmt.Sprintf("%d / %d / %d", c.Config.Population, c.Config.SampleSize, c.Config.Alpha)
		verdict := "OK"
		switch res.Verdict {
		case replay.VerdictDiverge:
			verdict = "DIFF: " + res.Reason
		case replay.VerdictError:
			verdict = "ERROR: " + res.Reason
		}
		fmt.Printf("%-16s| %-22s| %-10d| %-10d| %s\n", res.Name, params, len(c.Expected), len(res.Got), verdict)
	}

	sum := replay.Summarize(results)
	fmt.Printf("\nSummary: %d total, %d match, %d diverge, %d error\n",
		sum.Total, sum.Matches, sum.Divergences, sum.Errors)

	if sum.Divergences > 0 || sum.Errors > 0 {
		return 1
	}
	return 0
}

// #endregion output
