package sampler

import (
	"fmt"
	"math"
)

// DefaultAlpha is the Method D / Method A crossover used when callers have no
// better value: Method A takes over once n' >= N'/13.
const DefaultAlpha = 13

// #region config
// Config describes one sampling run: draw SampleSize of Population items.
// Alpha controls the crossover to Method A (switch once n' >= N'/Alpha).
type Config struct {
	Population int64 `json:"population"`
	SampleSize int64 `json:"sample_size"`
	Alpha      int64 `json:"alpha"`
}

// Validate reports ErrInvalidSampleSize or ErrInvalidAlpha for unusable
// configurations.
func (c Config) Validate() error {
	if c.SampleSize < 0 || c.Population < 0 {
		return fmt.Errorf("%w: n=%d, N=%d must be non-negative", ErrInvalidSampleSize, c.SampleSize, c.Population)
	}
	if c.SampleSize > c.Population {
		return fmt.Errorf("%w: n=%d exceeds N=%d", ErrInvalidSampleSize, c.SampleSize, c.Population)
	}
	if c.Alpha <= 0 {
		return fmt.Errorf("%w: alpha=%d must be at least 1", ErrInvalidAlpha, c.Alpha)
	}
	return nil
}

// #endregion config

// #region population
// population is the mutable bookkeeping of a run: N' items remain, n' of them
// are still to be selected, and qu1 = N' - n' + 1 bounds valid proposals.
type population struct {
	remaining int64
	target    int64
	qu1       int64
}

func newPopulation(c Config) population {
	return population{
		remaining: c.Population,
		target:    c.SampleSize,
		qu1:       c.Population - c.SampleSize + 1,
	}
}

// commit records the selection that follows a skip of s items. All three
// fields move together.
func (p *population) commit(s int64) {
	p.target--
	p.remaining -= s + 1
	p.qu1 -= s
}

// drain records a skip over everything left once the sample is complete.
func (p *population) drain() int64 {
	s := p.remaining
	p.remaining = 0
	p.qu1 -= s
	return s
}

// useMethodA reports whether n' >= N'/alpha, without overflowing n'*alpha.
func (p population) useMethodA(alpha int64) bool {
	if p.target > math.MaxInt64/alpha {
		return true
	}
	return p.target*alpha >= p.remaining
}

// #endregion population

// #region decision
// DecisionKind tags a Decision.
type DecisionKind uint8

const (
	// Skip discards Count upstream items.
	Skip DecisionKind = iota
	// Select takes the next upstream item into the sample.
	Select
)

func (k DecisionKind) String() string {
	switch k {
	case Skip:
		return "skip"
	case Select:
		return "select"
	default:
		return fmt.Sprintf("DecisionKind(%d)", uint8(k))
	}
}

// Decision is one step of a run. Count is only meaningful for Skip.
type Decision struct {
	Kind  DecisionKind
	Count int64
}

func (d Decision) String() string {
	if d.Kind == Skip {
		return fmt.Sprintf("skip(%d)", d.Count)
	}
	return d.Kind.String()
}

// Consumed returns how many upstream items the decision accounts for.
func (d Decision) Consumed() int64 {
	if d.Kind == Skip {
		return d.Count
	}
	return 1
}

// #endregion decision

// #region method
// Method names the path that produced, or will produce, the next skip.
type Method uint8

const (
	MethodD Method = iota
	MethodA
	// MethodFinal is the single draw made when one selection remains.
	MethodFinal
	MethodDone
)

func (m Method) String() string {
	switch m {
	case MethodD:
		return "D"
	case MethodA:
		return "A"
	case MethodFinal:
		return "final"
	case MethodDone:
		return "done"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

// #endregion method

// #region stats
// Stats counts what an Automaton did during a run.
type Stats struct {
	MethodD     int64 `json:"method_d"`     // selections made by Method D
	MethodA     int64 `json:"method_a"`     // selections made by Method A, excluding the final draw
	FinalDraws  int64 `json:"final_draws"`  // always 1 for a completed run with n >= 1
	FastAccepts int64 `json:"fast_accepts"` // Method D candidates accepted by the squeeze test
	SlowAccepts int64 `json:"slow_accepts"` // Method D candidates accepted by the exact test
	Rejections  int64 `json:"rejections"`   // Method D candidates rejected
	Resamples   int64 `json:"resamples"`    // proposals redrawn because X >= qu1
}

// Selections returns the number of items selected so far.
func (s Stats) Selections() int64 {
	return s.MethodD + s.MethodA + s.FinalDraws
}

// #endregion stats
