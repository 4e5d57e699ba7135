// Package sampler draws order-preserving random samples of n items out of N
// in a single forward pass, using Vitter's Method D with a Method A fallback.
//
// An Automaton turns a Config and a random.Source into a stream of
// Decisions (skip this many, select the next one). Views apply that stream
// to an upstream sequence without buffering it.
package sampler

import (
	"errors"

	"github.com/TheSirC/vitte/internal/random"
)

// #region automaton
// Automaton produces the Decisions of one sampling run on demand.
// It is single-use and not safe for concurrent use.
type Automaton struct {
	cfg     Config
	src     random.Source
	pop     population
	planner planner
	method  Method
	pending bool // a Skip has been emitted and its Select is still owed
	err     error
	stats   Stats
}

// NewAutomaton validates cfg and returns an automaton that draws from src.
// No draw is taken before the first call to Next or NextSkip.
func NewAutomaton(cfg Config, src random.Source) (*Automaton, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New("sampler: nil random source")
	}
	a := &Automaton{
		cfg:    cfg,
		src:    src,
		pop:    newPopulation(cfg),
		method: MethodD,
	}
	a.planner = planner{alpha: cfg.Alpha, src: src, stats: &a.stats}
	if cfg.SampleSize == 0 {
		a.method = MethodDone
	}
	return a, nil
}

// #endregion automaton

// #region next
// Next returns the next Decision. Selections come as a Skip (possibly of
// zero items) followed by a Select. After the last Select a single trailing
// Skip covers the rest of the population, so the decisions of a complete run
// consume exactly N items. ok is false once the run is over or has failed;
// check Err to tell the two apart.
func (a *Automaton) Next() (d Decision, ok bool) {
	if a.err != nil {
		return Decision{}, false
	}
	if a.pending {
		a.pending = false
		return Decision{Kind: Select}, true
	}
	if a.pop.target == 0 {
		if a.pop.remaining > 0 {
			return Decision{Kind: Skip, Count: a.pop.drain()}, true
		}
		return Decision{}, false
	}
	s, err := a.advance()
	if err != nil {
		a.err = err
		return Decision{}, false
	}
	a.pending = true
	return Decision{Kind: Skip, Count: s}, true
}

// NextSkip returns how many items to skip before the next selected item,
// consuming the Skip and Select pair. ok is false when no selection remains.
// The trailing skip is never reported.
func (a *Automaton) NextSkip() (s int64, ok bool) {
	if a.err != nil {
		return 0, false
	}
	if a.pending {
		// The caller already saw the Skip through Next.
		a.pending = false
		return 0, true
	}
	if a.pop.target == 0 {
		return 0, false
	}
	s, err := a.advance()
	if err != nil {
		a.err = err
		return 0, false
	}
	return s, true
}

// AppendPositions drains the automaton and appends the zero-based position
// of every remaining selection to dst.
func (a *Automaton) AppendPositions(dst []int64) ([]int64, error) {
	for {
		if a.pending {
			// The Select owed after a Skip seen through Next.
			a.pending = false
			dst = append(dst, a.cfg.Population-a.pop.remaining-1)
			continue
		}
		cursor := a.cfg.Population - a.pop.remaining
		s, ok := a.NextSkip()
		if !ok {
			break
		}
		dst = append(dst, cursor+s)
	}
	return dst, a.err
}

// advance computes the next skip on the current path and commits it.
func (a *Automaton) advance() (int64, error) {
	if a.method == MethodD {
		s, next, err := a.planner.plan(a.pop)
		if err != nil {
			return 0, err
		}
		if next == MethodD {
			a.stats.MethodD++
			a.commit(s)
			return s, nil
		}
		a.method = next
	}
	if a.method == MethodA && a.pop.target == 1 {
		a.method = MethodFinal
	}

	var s int64
	switch a.method {
	case MethodA:
		s = methodA(a.pop, a.src)
		a.stats.MethodA++
	case MethodFinal:
		s = finalDraw(a.pop, a.src)
		a.stats.FinalDraws++
	default:
		return 0, errors.New("sampler: advance called on a finished run")
	}
	a.commit(s)
	return s, nil
}

func (a *Automaton) commit(s int64) {
	a.pop.commit(s)
	if a.pop.target == 0 {
		a.method = MethodDone
	}
}

// #endregion next

// #region accessors
// Done reports whether every selection has been handed out.
func (a *Automaton) Done() bool {
	return a.err != nil || (!a.pending && a.pop.target == 0)
}

// Err returns the error that stopped the run, if any.
func (a *Automaton) Err() error {
	return a.err
}

// Config returns the run's configuration.
func (a *Automaton) Config() Config {
	return a.cfg
}

// Method reports the path the automaton is on. MethodD means the next
// selection starts in SelectMethod and may still be handed to Method A.
func (a *Automaton) Method() Method {
	return a.method
}

// Remaining returns N' and n'.
func (a *Automaton) Remaining() (population, sample int64) {
	return a.pop.remaining, a.pop.target
}

// Stats returns the counters accumulated so far.
func (a *Automaton) Stats() Stats {
	return a.stats
}

// #endregion accessors
