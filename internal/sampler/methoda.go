package sampler

import (
	"math"

	"github.com/TheSirC/vitte/internal/random"
)

// methodA returns the skip before the next selection by direct inversion of
// the skip distribution. It needs n' >= 2; the last selection goes through
// finalDraw.
func methodA(p population, src random.Source) int64 {
	v := src.Uniform()
	top := float64(p.remaining - p.target)
	nr := float64(p.remaining)

	var s int64
	quot := top / nr
	for quot > v {
		s++
		top--
		nr--
		quot *= top / nr
	}
	return s
}

// finalDraw picks the last selection uniformly among the N' remaining items.
func finalDraw(p population, src random.Source) int64 {
	v := src.Uniform()
	s := int64(math.Floor(math.Round(float64(p.remaining)) * v))
	if s > p.remaining-1 {
		s = p.remaining - 1
	}
	return s
}
