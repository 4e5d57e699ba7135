package sampler

import (
	"bufio"
	"fmt"
	"io"

	"github.com/TheSirC/vitte/internal/random"
)

// #region slice
// Slice returns an order-preserving sample of n items from xs.
func Slice[T any](xs []T, n, alpha int64, src random.Source) ([]T, error) {
	auto, err := NewAutomaton(Config{Population: int64(len(xs)), SampleSize: n, Alpha: alpha}, src)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	view := NewView(FromSlice(xs), auto)
	for x := range view.All() {
		out = append(out, x)
	}
	if err := view.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion slice

// #region positions
// Positions returns the zero-based positions selected by one run, in
// increasing order. The population is never materialized.
func Positions(cfg Config, src random.Source) ([]int64, error) {
	auto, err := NewAutomaton(cfg, src)
	if err != nil {
		return nil, err
	}
	out, err := auto.AppendPositions(make([]int64, 0, cfg.SampleSize))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Mask returns the run as one flag per population item, true where the item
// is selected. It costs O(N) memory; prefer a View when N is large.
func Mask(cfg Config, src random.Source) ([]bool, error) {
	auto, err := NewAutomaton(cfg, src)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, cfg.Population)
	var cursor int64
	for {
		d, ok := auto.Next()
		if !ok {
			break
		}
		if d.Kind == Select {
			mask[cursor] = true
		}
		cursor += d.Consumed()
	}
	if err := auto.Err(); err != nil {
		return nil, err
	}
	return mask, nil
}

// Gaps returns the differences between consecutive positions.
func Gaps(positions []int64) []int64 {
	if len(positions) < 2 {
		return nil
	}
	gaps := make([]int64, len(positions)-1)
	for i := 1; i < len(positions); i++ {
		gaps[i-1] = positions[i] - positions[i-1]
	}
	return gaps
}

// #endregion positions

// #region lines
// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

type lineIterator struct {
	sc *bufio.Scanner
}

func (it *lineIterator) Next() (string, bool) {
	if !it.sc.Scan() {
		return "", false
	}
	return it.sc.Text(), true
}

// Lines samples cfg.SampleSize of the cfg.Population lines of r and calls fn
// for each selected line in input order. Lines after the last selected one
// are not read.
func Lines(r io.Reader, cfg Config, src random.Source, fn func(line string) error) error {
	auto, err := NewAutomaton(cfg, src)
	if err != nil {
		return err
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	view := NewView[string](&lineIterator{sc: sc}, auto)
	var selected int64
	for line := range view.All() {
		if err := fn(line); err != nil {
			return err
		}
		selected++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if err := view.Err(); err != nil {
		return err
	}
	if selected != cfg.SampleSize {
		return fmt.Errorf("input ended after %d of %d selections; is N=%d right?", selected, cfg.SampleSize, cfg.Population)
	}
	return nil
}

// #endregion lines
