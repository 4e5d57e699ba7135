package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3"

	"github.com/TheSirC/vitte/internal/ledger"
	"github.com/TheSirC/vitte/internal/logging"
	"github.com/TheSirC/vitte/internal/sampler"
)

// #region main

func main() {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to vitte.db")
	last := fs.Int("last", 20, "show N most recent runs")
	runID := fs.String("run", "", "show single run detail")
	showPositions := fs.Bool("positions", false, "print every position in detail mode")
	jsonOut := fs.Bool("json", false, "output as JSON instead of table")
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("VITTE")); err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/vitte.db [--last N] [--run id [--positions]] [--json]")
		os.Exit(2)
	}

	store, err := ledger.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *showPositions, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID      string  `json:"run_id"`
	Population int64   `json:"population"`
	SampleSize int64   `json:"sample_size"`
	Alpha      int64   `json:"alpha"`
	Seed       string  `json:"seed"`
	Source     string  `json:"source"`
	Path       string  `json:"path"`
	Fraction   float64 `json:"fraction"`
	CreatedAt  string  `json:"created_at"`
}

func runListMode(store *ledger.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// Store returns DESC, reverse for chronological.
	rows := make([]listRow, len(runs))
	for i, run := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:      run.RunID,
			Population: run.Config.Population,
			SampleSize: run.Config.SampleSize,
			Alpha:      run.Config.Alpha,
			Seed:       fmt.Sprint(run.Seed),
			Source:     run.Source,
			Path:       pathSummary(run.Stats),
			Fraction:   fraction(run.Config),
			CreatedAt:  run.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %12s  %10s  %5s  %8s  %-6s  %-14s  %s\n",
		"Run", "N", "n", "alpha", "n/N", "Source", "Path", "Time")
	fmt.Printf("%-10s+-%12s+-%10s+-%5s+-%8s+-%-6s+-%-14s+-%s\n",
		"----------", "------------", "----------", "-----", "--------", "------", "--------------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %12d  %10d  %5d  %8.4f  %-6s  %-14s  %s\n",
			shortID(r.RunID), r.Population, r.SampleSize, r.Alpha, r.Fraction, r.Source, r.Path, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID      string             `json:"run_id"`
	Population int64              `json:"population"`
	SampleSize int64              `json:"sample_size"`
	Alpha      int64              `json:"alpha"`
	Seed       string             `json:"seed"`
	Source     string             `json:"source"`
	CreatedAt  string             `json:"created_at"`
	Stats      sampler.Stats      `json:"stats"`
	First      []int64            `json:"first_positions"`
	Positions  []int64            `json:"positions,omitempty"`
	Events     []eventOutput      `json:"events"`
	Record     *logging.RunRecord `json:"record,omitempty"`
}

type eventOutput struct {
	Event     string          `json:"event"`
	Reason    string          `json:"reason,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt string          `json:"created_at"`
}

const previewLen = 10

func runDetailMode(store *ledger.Store, runID string, showPositions, jsonOut bool) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	events, err := logging.ListEvents(store.DB(), run.RunID)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:      run.RunID,
		Population: run.Config.Population,
		SampleSize: run.Config.SampleSize,
		Alpha:      run.Config.Alpha,
		Seed:       fmt.Sprint(run.Seed),
		Source:     run.Source,
		CreatedAt:  run.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Stats:      run.Stats,
		First:      run.Positions[:min(previewLen, len(run.Positions))],
		Events:     make([]eventOutput, 0, len(events)),
	}
	if showPositions {
		out.Positions = run.Positions
	}
	for _, ev := range events {
		eo := eventOutput{Event: ev.Event, Reason: ev.Reason, CreatedAt: ev.CreatedAt.Format("2006-01-02T15:04:05Z")}
		if ev.DetailJSON != "" {
			eo.Detail = json.RawMessage(ev.DetailJSON)
		}
		if ev.Event == logging.EventRecord && out.Record == nil {
			var rec logging.RunRecord
			if err := json.Unmarshal([]byte(ev.DetailJSON), &rec); err == nil {
				out.Record = &rec
			}
		}
		out.Events = append(out.Events, eo)
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:        %s\n", out.RunID)
	fmt.Printf("Created:    %s\n", out.CreatedAt)
	fmt.Printf("Source:     %s\n", out.Source)
	fmt.Printf("Population: %d\n", out.Population)
	fmt.Printf("Sample:     %d (n/N %.6f)\n", out.SampleSize, fraction(run.Config))
	fmt.Printf("Alpha:      %d\n", out.Alpha)
	fmt.Printf("Seed:       %s\n", out.Seed)

	fmt.Printf("\nPath:\n")
	fmt.Printf("  Method D:     %d\n", run.Stats.MethodD)
	fmt.Printf("  Method A:     %d\n", run.Stats.MethodA)
	fmt.Printf("  Final draws:  %d\n", run.Stats.FinalDraws)
	fmt.Printf("  Fast accepts: %d\n", run.Stats.FastAccepts)
	fmt.Printf("  Slow accepts: %d\n", run.Stats.SlowAccepts)
	fmt.Printf("  Rejections:   %d\n", run.Stats.Rejections)
	fmt.Printf("  Resamples:    %d\n", run.Stats.Resamples)

	if out.Record != nil {
		fmt.Printf("\nRecorded:\n")
		fmt.Printf("  Origin:      %s\n", out.Record.Origin)
		fmt.Printf("  Clock seed:  %v\n", out.Record.SeedFromClock)
		fmt.Printf("  Elapsed:     %dus\n", out.Record.ElapsedMicros)
	}

	if showPositions {
		fmt.Printf("\nPositions:\n")
		for _, p := range run.Positions {
			fmt.Println(p)
		}
	} else if len(out.First) > 0 {
		fmt.Printf("\nFirst positions: %s", joinInts(out.First))
		if len(run.Positions) > len(out.First) {
			fmt.Printf(" ... (%d more)", len(run.Positions)-len(out.First))
		}
		fmt.Println()
	}

	if len(out.Events) > 0 {
		fmt.Printf("\nLog:\n")
		for _, ev := range out.Events {
			fmt.Printf("  %s  %-7s  %s\n", ev.CreatedAt, ev.Event, ev.Reason)
		}
	}
	return nil
}

// #endregion detail-mode

// #region output

// pathSummary condenses the path counters, e.g. "D650 A49 F1".
func pathSummary(st sampler.Stats) string {
	if st.Selections() == 0 {
		return "-"
	}
	var parts []string
	if st.MethodD > 0 {
		parts = append(parts, fmt.Sprintf("D%d", st.MethodD))
	}
	if st.MethodA > 0 {
		parts = append(parts, fmt.Sprintf("A%d", st.MethodA))
	}
	if st.FinalDraws > 0 {
		parts = append(parts, fmt.Sprintf("F%d", st.FinalDraws))
	}
	return strings.Join(parts, " ")
}

func fraction(cfg sampler.Config) float64 {
	if cfg.Population == 0 {
		return 0
	}
	return float64(cfg.SampleSize) / float64(cfg.Population)
}

func joinInts(xs []int64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
