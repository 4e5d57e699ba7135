package sampler

import "errors"

var (
	// ErrInvalidSampleSize is returned when n < 0 or n > N.
	ErrInvalidSampleSize = errors.New("invalid sample size")
	// ErrInvalidAlpha is returned when alpha < 1.
	ErrInvalidAlpha = errors.New("invalid alpha")
	// ErrArithmeticDegenerate is returned if the Method D exponent 1/(n'-1)
	// is requested with n' <= 1. The automaton routes n' = 1 to the final
	// draw, so seeing this error means an internal invariant broke.
	ErrArithmeticDegenerate = errors.New("arithmetic degenerate: exponent 1/(n-1) with n <= 1")
)
