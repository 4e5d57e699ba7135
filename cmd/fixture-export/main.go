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
	fs := flag.NewFlagSet("fixture-export", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to vitte.db")
	last := fs.Int("last", 4, "number of most recent runs to export")
	outPath := fs.String("out", "", "output fixture JSON path")
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("VITTE")); err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/vitte.db --out path/to/fixture.json [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath string, last int, outPath string) error {
	store, err := ledger.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no runs recorded in %s", dbPath)
	}
	fmt.Printf("Found %d runs\n", len(runs))

	fixture := buildFixture(runs)
	size, err := writeFixture(fixture, outPath)
	if err != nil {
		return err
	}

	for _, r := range runs {
		entry := logging.RunEvent{RunID: r.RunID, Event: logging.EventExport, Reason: outPath}
		if err := logging.LogEvent(store.DB(), entry); err != nil {
			return fmt.Errorf("log export of %s: %w", r.RunID, err)
		}
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d cases)\n", outPath, size, len(fixture.Cases))
	return nil
}

// #endregion extract

// #region output

// buildFixture converts runs, newest first, into chronological fixture cases.
func buildFixture(runs []ledger.Run) replay.Fixture {
	cases := make([]replay.FixtureCase, len(runs))
	for i, r := range runs {
		cases[len(runs)-1-i] = replay.FixtureCaseFrom(replay.FromRun(r))
	}
	return replay.Fixture{
		Description: fmt.Sprintf("Ledger export: %d recorded runs", len(runs)),
		Cases:       cases,
	}
}

func writeFixture(fixture replay.Fixture, outPath string) (int64, error) {
	if err := replay.WriteFixture(fixture, outPath); err != nil {
		return 0, err
	}
	info, err := os.Stat(outPath)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", outPath, err)
	}
	return info.Size(), nil
}

// #endregion output
