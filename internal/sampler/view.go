package sampler

import "iter"

// #region iterator
// Iterator is a forward-only, single-pass source of items.
type Iterator[T any] interface {
	Next() (T, bool)
}

// Skipper is implemented by iterators that can discard items faster than
// pulling them one by one. Skip returns how many items were discarded, which
// is less than n only when the iterator ran out.
type Skipper interface {
	Skip(n int64) int64
}

type sliceIterator[T any] struct {
	xs []T
	i  int
}

// FromSlice returns an Iterator over xs.
func FromSlice[T any](xs []T) Iterator[T] {
	return &sliceIterator[T]{xs: xs}
}

func (it *sliceIterator[T]) Next() (T, bool) {
	if it.i >= len(it.xs) {
		var zero T
		return zero, false
	}
	x := it.xs[it.i]
	it.i++
	return x, true
}

func (it *sliceIterator[T]) Skip(n int64) int64 {
	left := int64(len(it.xs) - it.i)
	if n > left {
		n = left
	}
	it.i += int(n)
	return n
}

// #endregion iterator

// #region view
// View applies an Automaton's decisions to an upstream Iterator and yields
// only the selected items, in upstream order. It holds no items beyond the
// one being returned. A View is single-pass; abandoning it early needs no
// cleanup.
//
// The upstream must hold exactly the configured population. If it runs out
// early the view ends early; extra items are never read.
type View[T any] struct {
	up   Iterator[T]
	auto *Automaton
	done bool
}

// NewView returns a view of up driven by auto.
func NewView[T any](up Iterator[T], auto *Automaton) *View[T] {
	return &View[T]{up: up, auto: auto}
}

// Next returns the next selected item.
func (v *View[T]) Next() (T, bool) {
	var zero T
	if v.done {
		return zero, false
	}
	s, ok := v.auto.NextSkip()
	if !ok {
		v.done = true
		return zero, false
	}
	if !v.skip(s) {
		v.done = true
		return zero, false
	}
	x, ok := v.up.Next()
	if !ok {
		v.done = true
	}
	return x, ok
}

func (v *View[T]) skip(s int64) bool {
	if s == 0 {
		return true
	}
	if sk, ok := v.up.(Skipper); ok {
		return sk.Skip(s) == s
	}
	for ; s > 0; s-- {
		if _, ok := v.up.Next(); !ok {
			return false
		}
	}
	return true
}

// All returns the remaining selected items as a sequence.
func (v *View[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			x, ok := v.Next()
			if !ok || !yield(x) {
				return
			}
		}
	}
}

// Err reports a failure of the underlying automaton.
func (v *View[T]) Err() error {
	return v.auto.Err()
}

// #endregion view

// #region select
// SelectSeq is the push form of View: ranging over the result ranges over seq
// and yields the selected items. Stopping the range early stops seq too.
// Like the automaton behind it, the returned sequence can be consumed once.
func SelectSeq[T any](seq iter.Seq[T], auto *Automaton) iter.Seq[T] {
	return func(yield func(T) bool) {
		s, ok := auto.NextSkip()
		if !ok {
			return
		}
		for x := range seq {
			if s > 0 {
				s--
				continue
			}
			if !yield(x) {
				return
			}
			if s, ok = auto.NextSkip(); !ok {
				return
			}
		}
	}
}

// #endregion select
