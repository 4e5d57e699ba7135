// Package randomtest provides a scripted random.Source for deterministic tests.
package randomtest

import "fmt"

// Scripted replays fixed draw sequences. It panics when a script runs out,
// which in a test means the code under test drew more than expected.
type Scripted struct {
	Uniforms []float64
	Betas    []float64

	// Shapes records the shape argument of every Beta call, in order.
	Shapes []float64

	u, b int
}

// Uniform returns the next scripted uniform draw.
func (s *Scripted) Uniform() float64 {
	if s.u >= len(s.Uniforms) {
		panic(fmt.Sprintf("randomtest: uniform script exhausted after %d draws", s.u))
	}
	v := s.Uniforms[s.u]
	s.u++
	return v
}

// Beta returns the next scripted Beta draw regardless of shape.
func (s *Scripted) Beta(shape float64) float64 {
	if s.b >= len(s.Betas) {
		panic(fmt.Sprintf("randomtest: beta script exhausted after %d draws", s.b))
	}
	s.Shapes = append(s.Shapes, shape)
	v := s.Betas[s.b]
	s.b++
	return v
}

// Unused reports how many scripted draws of each kind were never taken.
func (s *Scripted) Unused() (uniforms, betas int) {
	return len(s.Uniforms) - s.u, len(s.Betas) - s.b
}
