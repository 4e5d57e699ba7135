// Package eval checks empirically that a sampler configuration includes
// every position with probability n/N.
package eval

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/TheSirC/vitte/internal/random"
	"github.com/TheSirC/vitte/internal/sampler"
)

// #region eval-harness
// EvalHarness runs inclusion-probability checks.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run draws config.Runs samples for cfg from a source seeded with seed and
// tests the per-position inclusion counts against n/N.
//
// Inclusion indicators of one run are negatively correlated (they always sum
// to n), so the plain Pearson sum is scaled by (N-1)/N and compared with a
// chi-square on N-1 degrees of freedom.
func (h *EvalHarness) Run(cfg sampler.Config, seed uint64) (EvalResult, error) {
	if err := cfg.Validate(); err != nil {
		return EvalResult{}, fmt.Errorf("eval: %w", err)
	}
	if cfg.Population > h.config.MaxPopulation {
		return EvalResult{}, fmt.Errorf("eval: population %d above limit %d", cfg.Population, h.config.MaxPopulation)
	}
	if h.config.Runs <= 0 {
		return EvalResult{}, fmt.Errorf("eval: runs must be positive, got %d", h.config.Runs)
	}

	counts := make([]int64, cfg.Population)
	src := random.New(seed)
	var malformed int64
	var pathD, total int64
	for r := 0; r < h.config.Runs; r++ {
		positions, stats, err := sampleOnce(cfg, src)
		if err != nil {
			return EvalResult{}, fmt.Errorf("eval run %d: %w", r, err)
		}
		if !wellFormed(positions, cfg) {
			malformed++
			continue
		}
		for _, p := range positions {
			counts[p]++
		}
		pathD += stats.MethodD
		total += stats.Selections()
	}

	var metrics []EvalMetric
	passed := true
	var failReasons []string

	// 1. Every run returned n ordered positions inside the population.
	shapePass := malformed == 0
	metrics = append(metrics, EvalMetric{Name: "malformed_runs", Value: float64(malformed), Pass: shapePass})
	if !shapePass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("%d of %d runs malformed", malformed, h.config.Runs))
	}

	// 2. Inclusion frequencies.
	stat, df, pValue := inclusionChiSquare(counts, int64(h.config.Runs)-malformed, cfg)
	metrics = append(metrics, EvalMetric{Name: "inclusion_chi2", Value: stat, Pass: true})
	pPass := pValue >= h.config.MinPValue
	metrics = append(metrics, EvalMetric{Name: "inclusion_p_value", Value: pValue, Pass: pPass})
	if !pPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("inclusion p-value %.6f below %.6f", pValue, h.config.MinPValue))
	}

	// 3. Largest relative deviation; informational, it grows as Runs shrinks.
	dev := maxRelDeviation(counts, int64(h.config.Runs)-malformed, cfg)
	metrics = append(metrics, EvalMetric{Name: "max_rel_deviation", Value: dev, Pass: dev <= h.config.MaxRelDeviation})

	// 4. Share of selections made by Method D; informational.
	share := 0.0
	if total > 0 {
		share = float64(pathD) / float64(total)
	}
	metrics = append(metrics, EvalMetric{Name: "method_d_share", Value: share, Pass: true})

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:    passed,
		Metrics:   metrics,
		Reason:    reason,
		Statistic: stat,
		DF:        df,
		PValue:    pValue,
		Counts:    counts,
	}, nil
}

// #endregion eval-harness

// #region helpers
func sampleOnce(cfg sampler.Config, src random.Source) ([]int64, sampler.Stats, error) {
	auto, err := sampler.NewAutomaton(cfg, src)
	if err != nil {
		return nil, sampler.Stats{}, err
	}
	positions, err := auto.AppendPositions(make([]int64, 0, cfg.SampleSize))
	return positions, auto.Stats(), err
}

func wellFormed(positions []int64, cfg sampler.Config) bool {
	if int64(len(positions)) != cfg.SampleSize {
		return false
	}
	prev := int64(-1)
	for _, p := range positions {
		if p <= prev || p >= cfg.Population {
			return false
		}
		prev = p
	}
	return true
}

// inclusionChiSquare returns the statistic, its degrees of freedom and the
// upper-tail p-value. Degenerate cases (n=0, n=N, N=1) admit a single
// outcome and report p=1 when the counts match it.
func inclusionChiSquare(counts []int64, runs int64, cfg sampler.Config) (stat, df, pValue float64) {
	n, N := float64(cfg.SampleSize), float64(cfg.Population)
	if runs <= 0 {
		return 0, 0, 0
	}
	if cfg.SampleSize == 0 || cfg.SampleSize == cfg.Population {
		want := int64(0)
		if cfg.SampleSize > 0 {
			want = runs
		}
		for _, c := range counts {
			if c != want {
				return math.Inf(1), 0, 0
			}
		}
		return 0, 0, 1
	}

	p := n / N
	expected := float64(runs) * p
	for _, c := range counts {
		d := float64(c) - expected
		stat += d * d / (expected * (1 - p))
	}
	stat *= (N - 1) / N
	df = N - 1
	return stat, df, distuv.ChiSquared{K: df}.Survival(stat)
}

func maxRelDeviation(counts []int64, runs int64, cfg sampler.Config) float64 {
	if runs <= 0 || cfg.SampleSize == 0 {
		return 0
	}
	expected := float64(runs) * float64(cfg.SampleSize) / float64(cfg.Population)
	var worst float64
	for _, c := range counts {
		worst = math.Max(worst, math.Abs(float64(c)-expected)/expected)
	}
	return worst
}

// #endregion helpers
