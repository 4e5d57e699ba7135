package sampler

import (
	"iter"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TheSirC/vitte/internal/random"
	"github.com/TheSirC/vitte/internal/random/randomtest"
)

// countingIterator hands out 0, 1, 2, ... up to n and records how many items
// were pulled. It deliberately does not implement Skipper.
type countingIterator struct {
	n, pulled int64
}

func (it *countingIterator) Next() (int64, bool) {
	if it.pulled >= it.n {
		return 0, false
	}
	x := it.pulled
	it.pulled++
	return x, true
}

func countTo(n int64, pulled *int64) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for i := int64(0); i < n; i++ {
			*pulled = i + 1
			if !yield(i) {
				return
			}
		}
	}
}

func TestView_MatchesPositions(t *testing.T) {
	cfg := Config{Population: 5000, SampleSize: 120, Alpha: 13}
	want := mustPositions(t, cfg, random.New(42))

	up := &countingIterator{n: cfg.Population}
	view := NewView[int64](up, mustAutomaton(t, cfg, random.New(42)))
	var got []int64
	for {
		x, ok := view.Next()
		if !ok {
			break
		}
		got = append(got, x)
	}
	if err := view.Err(); err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("view disagrees with Positions (-want +got):\n%s", diff)
	}
	// Items after the last selection are never pulled.
	if last := want[len(want)-1]; up.pulled != last+1 {
		t.Errorf("pulled %d items, want %d", up.pulled, last+1)
	}
}

func TestView_UsesSkipper(t *testing.T) {
	xs := seqInts(1000)
	it := FromSlice(xs)
	if _, ok := it.(Skipper); !ok {
		t.Fatal("slice iterator should implement Skipper")
	}

	src := &randomtest.Scripted{Uniforms: []float64{0.5, 0.9, 0.5}}
	view := NewView(FromSlice(seqInts(10)), mustAutomaton(t, Config{Population: 10, SampleSize: 3, Alpha: 4}, src))
	var got []int64
	for x := range view.All() {
		got = append(got, x)
	}
	if diff := cmp.Diff([]int64{1, 2, 6}, got); diff != "" {
		t.Fatalf("sample mismatch (-want +got):\n%s", diff)
	}
}

func TestView_ShortUpstreamEndsEarly(t *testing.T) {
	// The automaton believes N=10 but only 2 items exist.
	src := &randomtest.Scripted{Uniforms: []float64{0.5, 0.9, 0.5}}
	auto := mustAutomaton(t, Config{Population: 10, SampleSize: 3, Alpha: 4}, src)
	view := NewView[int64](&countingIterator{n: 2}, auto)

	var got []int64
	for x := range view.All() {
		got = append(got, x)
	}
	if diff := cmp.Diff([]int64{1}, got); diff != "" {
		t.Fatalf("sample mismatch (-want +got):\n%s", diff)
	}
	if _, ok := view.Next(); ok {
		t.Fatal("view should stay exhausted")
	}
}

func TestView_EarlyStopLeavesUpstreamUnread(t *testing.T) {
	cfg := Config{Population: 1_000_000, SampleSize: 100, Alpha: 13}
	want := mustPositions(t, cfg, random.New(3))

	up := &countingIterator{n: cfg.Population}
	view := NewView[int64](up, mustAutomaton(t, cfg, random.New(3)))
	var got []int64
	for x := range view.All() {
		got = append(got, x)
		if len(got) == 2 {
			break
		}
	}
	if diff := cmp.Diff(want[:2], got); diff != "" {
		t.Fatalf("prefix mismatch (-want +got):\n%s", diff)
	}
	if up.pulled != want[1]+1 {
		t.Errorf("pulled %d items, want %d", up.pulled, want[1]+1)
	}
}

func TestSelectSeq_PushForm(t *testing.T) {
	cfg := Config{Population: 20000, SampleSize: 300, Alpha: 13}
	want := mustPositions(t, cfg, random.New(11))

	var pulled int64
	var got []int64
	for x := range SelectSeq(countTo(cfg.Population, &pulled), mustAutomaton(t, cfg, random.New(11))) {
		got = append(got, x)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Select disagrees with Positions (-want +got):\n%s", diff)
	}
	if last := want[len(want)-1]; pulled != last+1 {
		t.Errorf("upstream produced %d items, want %d", pulled, last+1)
	}
}

func TestSelectSeq_EarlyBreakStopsUpstream(t *testing.T) {
	cfg := Config{Population: 20000, SampleSize: 300, Alpha: 13}
	want := mustPositions(t, cfg, random.New(11))

	var pulled int64
	n := 0
	for range SelectSeq(countTo(cfg.Population, &pulled), mustAutomaton(t, cfg, random.New(11))) {
		n++
		if n == 3 {
			break
		}
	}
	if pulled != want[2]+1 {
		t.Errorf("upstream produced %d items after an early break, want %d", pulled, want[2]+1)
	}
}

func TestSelectSeq_EmptySample(t *testing.T) {
	var pulled int64
	for x := range SelectSeq(countTo(50, &pulled), mustAutomaton(t, Config{Population: 50, Alpha: 13}, random.New(1))) {
		t.Fatalf("unexpected item %d", x)
	}
	if pulled != 0 {
		t.Errorf("empty sample should not pull upstream, pulled %d", pulled)
	}
}

func TestNext_DecisionString(t *testing.T) {
	src := &randomtest.Scripted{Uniforms: []float64{0.5}}
	a := mustAutomaton(t, Config{Population: 4, SampleSize: 1, Alpha: 13}, src)
	var got []string
	for {
		d, ok := a.Next()
		if !ok {
			break
		}
		got = append(got, d.String())
	}
	if diff := cmp.Diff([]string{"skip(2)", "select", "skip(1)"}, got); diff != "" {
		t.Fatalf("decision stream mismatch (-want +got):\n%s", diff)
	}
}
