// Package random provides the draws used by the sequential sampler.
//
// The default generator is gonum's 64-bit Mersenne Twister, seeded with the
// full uint64 so a recorded seed names exactly one stream. Uniform draws go
// through distuv.Uniform and Beta(1, shape) draws through distuv.Beta, which
// builds the variate from two Gamma draws and stays well conditioned both for
// shape close to 1 and for shapes in the billions.
package random

import (
	"time"

	"gonum.org/v1/gonum/mathext/prng"
	"gonum.org/v1/gonum/stat/distuv"
)

// #region mt
// MT is a seeded Source backed by prng.MT19937_64.
type MT struct {
	seed uint64
	src  *prng.MT19937_64
}

// New returns a Source seeded with seed. Two sources built from the same seed
// produce the same draws.
func New(seed uint64) *MT {
	src := prng.NewMT19937_64()
	src.Seed(seed)
	return &MT{seed: seed, src: src}
}

// Seed reports the seed the source was built with.
func (m *MT) Seed() uint64 {
	return m.seed
}

// Uniform returns a draw from [0, 1).
func (m *MT) Uniform() float64 {
	return distuv.Uniform{Min: 0, Max: 1, Src: m.src}.Rand()
}

// Beta returns a draw from Beta(1, shape).
func (m *MT) Beta(shape float64) float64 {
	if shape == 1 {
		// Beta(1, 1) is the unit uniform.
		return m.Uniform()
	}
	return distuv.Beta{Alpha: 1, Beta: shape, Src: m.src}.Rand()
}

// #endregion mt

// #region seed-policy
// Seed resolves the seed for a run: a non-zero seed is used verbatim, zero
// asks for a fresh time-derived seed. The resolved value is what callers
// should record so the run can be replayed.
func Seed(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	s := uint64(time.Now().UnixNano())
	if s == 0 {
		s = 1
	}
	return s
}

// #endregion seed-policy

// #region counting
// Counting wraps a Source and counts the draws taken from it.
type Counting struct {
	src    Source
	counts Counts
}

// NewCounting wraps src.
func NewCounting(src Source) *Counting {
	return &Counting{src: src}
}

func (c *Counting) Uniform() float64 {
	c.counts.Uniform++
	return c.src.Uniform()
}

func (c *Counting) Beta(shape float64) float64 {
	c.counts.Beta++
	return c.src.Beta(shape)
}

// Counts returns the draws issued so far.
func (c *Counting) Counts() Counts {
	return c.counts
}

// #endregion counting
