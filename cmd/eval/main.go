package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v3"

	"github.com/TheSirC/vitte/internal/eval"
	"github.com/TheSirC/vitte/internal/random"
	"github.com/TheSirC/vitte/internal/sampler"
)

// #region main

func main() {
	defaults := eval.DefaultEvalConfig()

	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	population := fs.Int64("N", 0, "population size")
	n := fs.Int64("n", -1, "sample size")
	alpha := fs.Int64("alpha", sampler.DefaultAlpha, "Method A crossover")
	seedFlag := fs.Uint64("seed", 0, "random seed (0 takes one from the clock)")
	runs := fs.Int("runs", defaults.Runs, "independent runs to draw")
	minP := fs.Float64("min-p", defaults.MinPValue, "fail below this chi-square p-value")
	maxDev := fs.Float64("max-dev", defaults.MaxRelDeviation, "flag positions whose inclusion rate strays this far from n/N")
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("VITTE")); err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}

	if *population <= 0 || *n < 0 {
		fmt.Fprintln(os.Stderr, "usage: eval -N size -n count [-alpha a] [-seed s] [-runs r] [-min-p p] [-max-dev d]")
		os.Exit(2)
	}

	cfg := sampler.Config{Population: *population, SampleSize: *n, Alpha: *alpha}
	seed := random.Seed(*seedFlag)

	harness := eval.NewEvalHarness(eval.EvalConfig{
		Runs:            *runs,
		MinPValue:       *minP,
		MaxRelDeviation: *maxDev,
		MaxPopulation:   defaults.MaxPopulation,
	})
	res, err := harness.Run(cfg, seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("N=%d n=%d alpha=%d seed=%d runs=%d\n\n", cfg.Population, cfg.SampleSize, cfg.Alpha, seed, *runs)
	os.Exit(printMetrics(res))
}

// #endregion main

// #region output

func printMetrics(res eval.EvalResult) int {
	fmt.Printf("%-20s| %-14s| %s\n", "Metric", "Value", "Pass")
	fmt.Printf("%-20s+%-14s+%s\n", "--------------------", "---------------", "------")
	for _, m := range res.Metrics {
		pass := "OK"
		if !m.Pass {
			pass = "FAIL"
		}
		fmt.Printf("%-20s| %-14.6g| %s\n", m.Name, m.Value, pass)
	}
	fmt.Printf("\nchi2=%.3f df=%.0f p=%.6f\n", res.Statistic, res.DF, res.PValue)
	fmt.Println(res.Reason)

	if !res.Passed {
		return 1
	}
	return 0
}

// #endregion output
