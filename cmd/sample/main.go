package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"

	"github.com/TheSirC/vitte/internal/ledger"
	"github.com/TheSirC/vitte/internal/random"
	"github.com/TheSirC/vitte/internal/sampler"
)

// #region main
func main() {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	n := fs.Int64("n", -1, "number of items to select")
	population := fs.Int64("N", 0, "population size (counted from -in when 0)")
	alpha := fs.Int64("alpha", sampler.DefaultAlpha, "Method A crossover: switch once n' >= N'/alpha")
	seedFlag := fs.Uint64("seed", 0, "random seed (0 takes one from the clock)")
	inPath := fs.String("in", "", "input file, one item per line (stdin when empty)")
	dbPath := fs.String("db", "", "record the run in this ledger database")
	positionsOnly := fs.Bool("positions", false, "print zero-based positions instead of lines")
	gaps := fs.Bool("gaps", false, "print the skip between consecutive selections instead of lines")
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("VITTE")); err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}

	if *n < 0 || (*population == 0 && *inPath == "" && !*positionsOnly && !*gaps) {
		fmt.Fprintln(os.Stderr, "usage: sample -n count [-N size] [-alpha a] [-seed s] [-in file] [-db vitte.db] [-positions | -gaps]")
		fmt.Fprintln(os.Stderr, "       -N is required when reading stdin")
		os.Exit(2)
	}

	origin := "stdin"
	if *inPath != "" {
		origin = *inPath
	}
	if *population == 0 && *inPath != "" {
		count, err := countLines(*inPath)
		if err != nil {
			log.Fatalf("count lines: %v", err)
		}
		*population = count
	}

	cfg := sampler.Config{Population: *population, SampleSize: *n, Alpha: *alpha}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid run: %v", err)
	}
	seed := random.Seed(*seedFlag)
	if *seedFlag == 0 {
		log.Printf("seed %d", seed)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	start := time.Now()
	var positions []int64
	var stats sampler.Stats
	var err error
	if *positionsOnly || *gaps || *dbPath != "" {
		positions, stats, err = draw(cfg, seed)
		if err != nil {
			log.Fatalf("sample: %v", err)
		}
	}

	switch {
	case *gaps:
		for _, g := range sampler.Gaps(positions) {
			fmt.Fprintln(out, g)
		}
	case *positionsOnly:
		for _, p := range positions {
			fmt.Fprintln(out, p)
		}
	default:
		if err := sampleLines(*inPath, cfg, seed, out); err != nil {
			out.Flush()
			log.Fatalf("sample: %v", err)
		}
	}
	elapsed := time.Since(start)

	if *dbPath != "" {
		if err := record(*dbPath, ledger.Run{
			Config:    cfg,
			Seed:      seed,
			Source:    "cli",
			Positions: positions,
			Stats:     stats,
		}, ledger.Meta{Origin: origin, SeedFromClock: *seedFlag == 0, Elapsed: elapsed}); err != nil {
			out.Flush()
			log.Fatalf("record: %v", err)
		}
	}
}

// #endregion main

// #region draw

// draw produces the positions of a run. The same seed drives sampleLines, so
// the recorded positions are the lines that were printed.
func draw(cfg sampler.Config, seed uint64) ([]int64, sampler.Stats, error) {
	auto, err := sampler.NewAutomaton(cfg, random.New(seed))
	if err != nil {
		return nil, sampler.Stats{}, err
	}
	positions, err := auto.AppendPositions(make([]int64, 0, cfg.SampleSize))
	return positions, auto.Stats(), err
}

func sampleLines(path string, cfg sampler.Config, seed uint64, w io.Writer) error {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	return sampler.Lines(r, cfg, random.New(seed), func(line string) error {
		_, err := fmt.Fprintln(w, line)
		return err
	})
}

func countLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var count int64
	for sc.Scan() {
		count++
	}
	return count, sc.Err()
}

// #endregion draw

// #region record
func record(dbPath string, run ledger.Run, meta ledger.Meta) error {
	store, err := ledger.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	stored, err := store.Record(run, meta)
	if err != nil {
		return err
	}
	log.Printf("recorded run %s", stored.RunID)
	return nil
}

// #endregion record
