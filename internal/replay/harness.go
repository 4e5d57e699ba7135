// Package replay reruns recorded or hand-written sampling runs and checks
// that they reproduce the expected positions exactly.
package replay

import (
	"fmt"

	"github.com/TheSirC/vitte/internal/ledger"
	"github.com/TheSirC/vitte/internal/random"
	"github.com/TheSirC/vitte/internal/random/randomtest"
	"github.com/TheSirC/vitte/internal/sampler"
)

// Verdicts.
const (
	VerdictMatch   = "match"
	VerdictDiverge = "diverge"
	VerdictError   = "error"
)

// #region types
// Draws is an exact draw script for a run.
type Draws struct {
	Uniforms []float64
	Betas    []float64
}

// Case is one run to reproduce. Draws, when set, takes precedence over Seed.
type Case struct {
	Name     string
	RunID    string
	Config   sampler.Config
	Seed     uint64
	Draws    *Draws
	Expected []int64
}

// Result captures the outcome of replaying one case.
type Result struct {
	Name      string
	Verdict   string // "match" | "diverge" | "error"
	Reason    string
	Got       []int64
	FirstDiff int // index of the first differing position, -1 when none
	Stats     sampler.Stats
}

// Summary provides aggregate counts from a replay.
type Summary struct {
	Total       int
	Matches     int
	Divergences int
	Errors      int
}

// #endregion types

// #region replay
// Replay reruns every case in order. It never stops early: a failing case
// is reported and the next one runs.
func Replay(cases []Case) []Result {
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		results = append(results, Run(c))
	}
	return results
}

// Run reruns a single case.
func Run(c Case) (res Result) {
	res = Result{Name: c.Name, FirstDiff: -1}

	var src random.Source = random.New(c.Seed)
	if c.Draws != nil {
		src = &randomtest.Scripted{Uniforms: c.Draws.Uniforms, Betas: c.Draws.Betas}
		// A script that runs dry panics; report it as a failed case.
		defer func() {
			if r := recover(); r != nil {
				res.Verdict = VerdictError
				res.Reason = fmt.Sprint(r)
			}
		}()
	}

	auto, err := sampler.NewAutomaton(c.Config, src)
	if err != nil {
		res.Verdict = VerdictError
		res.Reason = err.Error()
		return res
	}
	got, err := auto.AppendPositions(make([]int64, 0, c.Config.SampleSize))
	res.Got = got
	res.Stats = auto.Stats()
	if err != nil {
		res.Verdict = VerdictError
		res.Reason = err.Error()
		return res
	}

	res.FirstDiff = firstDiff(c.Expected, got)
	if res.FirstDiff < 0 {
		res.Verdict = VerdictMatch
		return res
	}
	res.Verdict = VerdictDiverge
	res.Reason = divergeReason(c.Expected, got, res.FirstDiff)
	return res
}

// Summarize computes aggregate counts from replay results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Verdict {
		case VerdictMatch:
			s.Matches++
		case VerdictDiverge:
			s.Divergences++
		case VerdictError:
			s.Errors++
		}
	}
	return s
}

// #endregion replay

// #region ledger
// FromRun turns a recorded run into a case reproduced from its seed.
func FromRun(run ledger.Run) Case {
	name := run.RunID
	if len(name) > 8 {
		name = name[:8]
	}
	return Case{
		Name:     name,
		RunID:    run.RunID,
		Config:   run.Config,
		Seed:     run.Seed,
		Expected: run.Positions,
	}
}

// #endregion ledger

// #region compare
func firstDiff(want, got []int64) int {
	n := min(len(want), len(got))
	for i := 0; i < n; i++ {
		if want[i] != got[i] {
			return i
		}
	}
	if len(want) != len(got) {
		return n
	}
	return -1
}

func divergeReason(want, got []int64, i int) string {
	switch {
	case i >= len(want):
		return fmt.Sprintf("extra position %d at index %d", got[i], i)
	case i >= len(got):
		return fmt.Sprintf("missing position %d at index %d", want[i], i)
	default:
		return fmt.Sprintf("position %d: want %d, got %d", i, want[i], got[i])
	}
}

// #endregion compare
