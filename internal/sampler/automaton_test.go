package sampler

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TheSirC/vitte/internal/random"
	"github.com/TheSirC/vitte/internal/random/randomtest"
)

// #region helpers
func mustAutomaton(t *testing.T, cfg Config, src random.Source) *Automaton {
	t.Helper()
	a, err := NewAutomaton(cfg, src)
	if err != nil {
		t.Fatalf("NewAutomaton(%+v): %v", cfg, err)
	}
	return a
}

func drain(t *testing.T, a *Automaton) []Decision {
	t.Helper()
	var out []Decision
	for {
		d, ok := a.Next()
		if !ok {
			break
		}
		out = append(out, d)
	}
	if err := a.Err(); err != nil {
		t.Fatalf("automaton failed: %v", err)
	}
	return out
}

func mustPositions(t *testing.T, cfg Config, src random.Source) []int64 {
	t.Helper()
	got, err := Positions(cfg, src)
	if err != nil {
		t.Fatalf("Positions(%+v): %v", cfg, err)
	}
	return got
}

// #endregion helpers

// #region validation-tests
func TestNewAutomaton_InvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"n greater than N", Config{Population: 5, SampleSize: 6, Alpha: 1}, ErrInvalidSampleSize},
		{"negative n", Config{Population: 5, SampleSize: -1, Alpha: 1}, ErrInvalidSampleSize},
		{"negative N", Config{Population: -1, SampleSize: 0, Alpha: 1}, ErrInvalidSampleSize},
		{"zero alpha", Config{Population: 5, SampleSize: 2, Alpha: 0}, ErrInvalidAlpha},
		{"negative alpha", Config{Population: 5, SampleSize: 2, Alpha: -3}, ErrInvalidAlpha},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := random.NewCounting(random.New(1))
			_, err := NewAutomaton(tc.cfg, src)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if n := src.Counts().Total(); n != 0 {
				t.Fatalf("expected no draws before validation failure, got %d", n)
			}
		})
	}
}

func TestNewAutomaton_NilSource(t *testing.T) {
	if _, err := NewAutomaton(Config{Population: 3, SampleSize: 1, Alpha: 1}, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestExponent(t *testing.T) {
	for _, n := range []int64{1, 0, -4} {
		if _, err := exponent(n); !errors.Is(err, ErrArithmeticDegenerate) {
			t.Errorf("exponent(%d): expected ErrArithmeticDegenerate, got %v", n, err)
		}
	}
	got, err := exponent(5)
	if err != nil {
		t.Fatalf("exponent(5): %v", err)
	}
	if got != 0.25 {
		t.Errorf("exponent(5) = %v, want 0.25", got)
	}
}

// #endregion validation-tests

// #region scripted-tests

// 1. Method A from the start: alpha=4 puts n*alpha=12 >= N=10.
func TestScripted_MethodA(t *testing.T) {
	src := &randomtest.Scripted{Uniforms: []float64{0.5, 0.9, 0.5}}
	a := mustAutomaton(t, Config{Population: 10, SampleSize: 3, Alpha: 4}, src)

	got := drain(t, a)
	want := []Decision{
		{Kind: Skip, Count: 1}, {Kind: Select},
		{Kind: Skip, Count: 0}, {Kind: Select},
		{Kind: Skip, Count: 3}, {Kind: Select},
		{Kind: Skip, Count: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decisions mismatch (-want +got):\n%s", diff)
	}

	stats := a.Stats()
	if stats.MethodA != 2 || stats.FinalDraws != 1 || stats.MethodD != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if u, b := src.Unused(); u != 0 || b != 0 {
		t.Errorf("expected every scripted draw used, %d uniforms and %d betas left", u, b)
	}
}

// 2. Method D, both candidates accepted by the squeeze test.
func TestScripted_MethodDFastAccept(t *testing.T) {
	src := &randomtest.Scripted{
		Uniforms: []float64{0.25, 0.5, 0.5},
		Betas:    []float64{0.05, 0.1},
	}
	got := mustPositions(t, Config{Population: 100, SampleSize: 3, Alpha: 13}, src)

	if diff := cmp.Diff([]int64{5, 15, 58}, got); diff != "" {
		t.Fatalf("positions mismatch (-want +got):\n%s", diff)
	}
	// Beta proposals use the current n'.
	if diff := cmp.Diff([]float64{3, 2}, src.Shapes); diff != "" {
		t.Errorf("beta shapes mismatch (-want +got):\n%s", diff)
	}
}

// 3. Method D with a resampled proposal and a rejected candidate.
func TestScripted_MethodDResampleAndReject(t *testing.T) {
	src := &randomtest.Scripted{
		Uniforms: []float64{0.99, 0.3, 0.5},
		Betas:    []float64{0.97, 0.5, 0.2},
	}
	a := mustAutomaton(t, Config{Population: 20, SampleSize: 2, Alpha: 1}, src)

	var got []int64
	var cursor int64
	for {
		s, ok := a.NextSkip()
		if !ok {
			break
		}
		cursor += s
		got = append(got, cursor)
		cursor++
	}
	if diff := cmp.Diff([]int64{4, 12}, got); diff != "" {
		t.Fatalf("positions mismatch (-want +got):\n%s", diff)
	}

	want := Stats{MethodD: 1, FinalDraws: 1, FastAccepts: 1, Rejections: 1, Resamples: 1}
	if diff := cmp.Diff(want, a.Stats()); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

// 4. Method D candidate that fails the squeeze but passes the exact test.
func TestScripted_MethodDSlowAccept(t *testing.T) {
	src := &randomtest.Scripted{
		Uniforms: []float64{0.932, 0.1, 0.5},
		Betas:    []float64{0.125, 0.1},
	}
	a := mustAutomaton(t, Config{Population: 20, SampleSize: 3, Alpha: 1}, src)
	view := NewView(FromSlice(seqInts(20)), a)

	var got []int64
	for x := range view.All() {
		got = append(got, x)
	}
	if diff := cmp.Diff([]int64{2, 4, 12}, got); diff != "" {
		t.Fatalf("sample mismatch (-want +got):\n%s", diff)
	}
	stats := a.Stats()
	if stats.SlowAccepts != 1 || stats.FastAccepts != 1 || stats.Rejections != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

// #endregion scripted-tests

// #region property-tests
func TestDecisionsConsumeWholePopulation(t *testing.T) {
	cfgs := []Config{
		{Population: 0, SampleSize: 0, Alpha: 1},
		{Population: 1, SampleSize: 1, Alpha: 1},
		{Population: 7, SampleSize: 0, Alpha: 13},
		{Population: 10, SampleSize: 10, Alpha: 13},
		{Population: 1000, SampleSize: 3, Alpha: 13},
		{Population: 1000, SampleSize: 400, Alpha: 13},
		{Population: 30000, SampleSize: 700, Alpha: 13},
		{Population: 100, SampleSize: 60, Alpha: 1},
	}
	for _, cfg := range cfgs {
		for seed := uint64(1); seed <= 5; seed++ {
			a := mustAutomaton(t, cfg, random.New(seed))
			var consumed, selected int64
			for _, d := range drain(t, a) {
				if d.Kind == Skip && d.Count < 0 {
					t.Fatalf("%+v seed %d: negative skip %d", cfg, seed, d.Count)
				}
				if d.Kind == Select {
					selected++
				}
				consumed += d.Consumed()
			}
			if consumed != cfg.Population {
				t.Errorf("%+v seed %d: decisions consumed %d items, want %d", cfg, seed, consumed, cfg.Population)
			}
			if selected != cfg.SampleSize {
				t.Errorf("%+v seed %d: %d selections, want %d", cfg, seed, selected, cfg.SampleSize)
			}
			if !a.Done() || a.Method() != MethodDone {
				t.Errorf("%+v seed %d: automaton not done after draining (method %v)", cfg, seed, a.Method())
			}
		}
	}
}

func TestPositionsStrictlyIncreasing(t *testing.T) {
	cfgs := []Config{
		{Population: 50, SampleSize: 1, Alpha: 13},
		{Population: 50, SampleSize: 49, Alpha: 13},
		{Population: 10000, SampleSize: 100, Alpha: 13},
		{Population: 10000, SampleSize: 100, Alpha: 1000},
		{Population: 1_000_000_000, SampleSize: 1000, Alpha: 13},
	}
	for _, cfg := range cfgs {
		got := mustPositions(t, cfg, random.New(2024))
		if int64(len(got)) != cfg.SampleSize {
			t.Fatalf("%+v: got %d positions, want %d", cfg, len(got), cfg.SampleSize)
		}
		prev := int64(-1)
		for i, p := range got {
			if p <= prev || p >= cfg.Population {
				t.Fatalf("%+v: position %d = %d breaks order or range (prev %d)", cfg, i, p, prev)
			}
			prev = p
		}
	}
}

func TestDeterministicForSeed(t *testing.T) {
	cfg := Config{Population: 30000, SampleSize: 700, Alpha: 13}
	a := mustPositions(t, cfg, random.New(77))
	b := mustPositions(t, cfg, random.New(77))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different samples (-first +second):\n%s", diff)
	}
	c := mustPositions(t, cfg, random.New(78))
	if cmp.Equal(a, c) {
		t.Fatal("different seeds produced the same sample")
	}
}

func TestFullSampleIsIdentity(t *testing.T) {
	xs := seqInts(64)
	for _, alpha := range []int64{1, 2, 13, 1 << 40} {
		src := random.NewCounting(random.New(5))
		got, err := Slice(xs, int64(len(xs)), alpha, src)
		if err != nil {
			t.Fatalf("alpha %d: %v", alpha, err)
		}
		if diff := cmp.Diff(xs, got); diff != "" {
			t.Fatalf("alpha %d: n=N should return the input (-want +got):\n%s", alpha, diff)
		}
		// Every selection is one Method A or final draw with no proposals.
		if c := src.Counts(); c.Beta != 0 || c.Uniform != int64(len(xs)) {
			t.Errorf("alpha %d: unexpected draws %+v", alpha, c)
		}
	}
}

func TestEmptySampleDrawsNothing(t *testing.T) {
	src := random.NewCounting(random.New(5))
	got, err := Slice(seqInts(1000), 0, 13, src)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty sample, got %v", got)
	}
	if n := src.Counts().Total(); n != 0 {
		t.Fatalf("expected no draws, got %d", n)
	}
}

func TestSingleSelectionUsesFinalDraw(t *testing.T) {
	const (
		population = 10
		runs       = 10000
	)
	counts := make([]int, population)
	for seed := uint64(1); seed <= runs; seed++ {
		src := random.NewCounting(random.New(seed))
		a := mustAutomaton(t, Config{Population: population, SampleSize: 1, Alpha: 13}, src)
		s, ok := a.NextSkip()
		if !ok {
			t.Fatal("expected one selection")
		}
		if _, ok := a.NextSkip(); ok {
			t.Fatal("expected exactly one selection")
		}
		stats := a.Stats()
		if stats.FinalDraws != 1 || stats.MethodD != 0 || stats.MethodA != 0 {
			t.Fatalf("n=1 must go straight to the final draw, stats %+v", stats)
		}
		if c := src.Counts(); c.Uniform != 1 || c.Beta != 0 {
			t.Fatalf("expected a single uniform draw, got %+v", c)
		}
		counts[s]++
	}
	// Each bucket expects 1000 with sd 30.
	for i, c := range counts {
		if c < 850 || c > 1150 {
			t.Errorf("position %d selected %d times out of %d, want about %d", i, c, runs, runs/population)
		}
	}
}

func TestCrossover_MethodAOnly(t *testing.T) {
	src := random.NewCounting(random.New(9))
	a := mustAutomaton(t, Config{Population: 100, SampleSize: 60, Alpha: 2}, src)
	drain(t, a)

	stats := a.Stats()
	if stats.MethodD != 0 {
		t.Errorf("expected no Method D selections, got %d", stats.MethodD)
	}
	if stats.MethodA != 59 || stats.FinalDraws != 1 {
		t.Errorf("expected 59 Method A selections and one final draw, got %+v", stats)
	}
	if c := src.Counts(); c.Beta != 0 {
		t.Errorf("Method A should never draw a Beta proposal, got %d", c.Beta)
	}
}

// 60*1 < 100, so the first selection is Method D's.
func TestCrossover_SixtyOfHundredAlphaOneStartsInMethodD(t *testing.T) {
	a := mustAutomaton(t, Config{Population: 100, SampleSize: 60, Alpha: 1}, random.New(9))
	if _, ok := a.NextSkip(); !ok {
		t.Fatalf("expected a first selection, err=%v", a.Err())
	}
	if stats := a.Stats(); stats.MethodD != 1 || stats.MethodA != 0 {
		t.Fatalf("expected the first selection from Method D, got %+v", stats)
	}
}

func TestCrossover_SparseStartsInMethodD(t *testing.T) {
	a := mustAutomaton(t, Config{Population: 100000, SampleSize: 50, Alpha: 13}, random.New(9))
	drain(t, a)

	stats := a.Stats()
	if stats.MethodD == 0 {
		t.Fatalf("expected Method D selections for a sparse sample, got %+v", stats)
	}
	if stats.Selections() != 50 {
		t.Errorf("expected 50 selections, got %d", stats.Selections())
	}
	if stats.FinalDraws != 1 {
		t.Errorf("expected exactly one final draw, got %d", stats.FinalDraws)
	}
}

// Positions are included with probability n/N each. With 20000 runs the
// per-position count has sd ~31 (N=200, n=10) and ~69 (N=20, n=8).
func TestInclusionProbability(t *testing.T) {
	cases := []struct {
		cfg     Config
		maxDiff float64
	}{
		{Config{Population: 200, SampleSize: 10, Alpha: 13}, 185},
		{Config{Population: 20, SampleSize: 8, Alpha: 13}, 415},
		{Config{Population: 200, SampleSize: 10, Alpha: 1 << 30}, 185},
	}
	const runs = 20000
	for _, tc := range cases {
		counts := make([]int64, tc.cfg.Population)
		src := random.New(31337)
		for r := 0; r < runs; r++ {
			for _, p := range mustPositions(t, tc.cfg, src) {
				counts[p]++
			}
		}
		want := float64(runs) * float64(tc.cfg.SampleSize) / float64(tc.cfg.Population)
		for i, c := range counts {
			if d := float64(c) - want; d > tc.maxDiff || d < -tc.maxDiff {
				t.Errorf("%+v: position %d included %d times, want %.0f±%.0f", tc.cfg, i, c, want, tc.maxDiff)
			}
		}
	}
}

// #endregion property-tests

func seqInts(n int) []int64 {
	xs := make([]int64, n)
	for i := range xs {
		xs[i] = int64(i)
	}
	return xs
}

func TestAppendPositions_AfterNext(t *testing.T) {
	cfg := Config{Population: 5000, SampleSize: 40, Alpha: 13}
	want := mustPositions(t, cfg, random.New(17))

	auto := mustAutomaton(t, cfg, random.New(17))
	// One Skip seen through Next leaves its Select owed.
	d, ok := auto.Next()
	if !ok || d.Kind != Skip {
		t.Fatalf("expected a leading skip, got %v ok=%v", d, ok)
	}
	got, err := auto.AppendPositions(nil)
	if err != nil {
		t.Fatalf("AppendPositions: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("positions mismatch (-want +got):\n%s", diff)
	}
	if !auto.Done() {
		t.Error("expected the automaton to be drained")
	}
}
