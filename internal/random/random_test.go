package random

import (
	"math"
	"testing"
)

func TestNewDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Uniform(), b.Uniform(); x != y {
			t.Fatalf("draw %d: uniform differs: %v vs %v", i, x, y)
		}
		if x, y := a.Beta(7), b.Beta(7); x != y {
			t.Fatalf("draw %d: beta differs: %v vs %v", i, x, y)
		}
	}
}

func TestSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)
	same := 0
	for i := 0; i < 32; i++ {
		if a.Uniform() == b.Uniform() {
			same++
		}
	}
	if same == 32 {
		t.Fatal("different seeds produced identical streams")
	}
}

func TestSeedHighBitsMatter(t *testing.T) {
	// Seeds equal in their low 32 bits must still give different streams.
	a := New(1)
	b := New(1 + 1<<32)
	same := 0
	for i := 0; i < 32; i++ {
		if a.Uniform() == b.Uniform() {
			same++
		}
	}
	if same == 32 {
		t.Fatal("seeds differing only in the high 32 bits produced identical streams")
	}
}

func TestUniformRange(t *testing.T) {
	src := New(7)
	for i := 0; i < 10000; i++ {
		u := src.Uniform()
		if u < 0 || u >= 1 {
			t.Fatalf("uniform draw %v outside [0, 1)", u)
		}
	}
}

// Beta(1, b) has mean 1/(1+b). Check the sample mean scaled by (1+b) for
// shapes near 1 and very large shapes.
func TestBetaMean(t *testing.T) {
	shapes := []float64{1, 1.5, 2, 10, 1e3, 1e6, 1e9}
	const draws = 20000
	for _, shape := range shapes {
		src := New(uint64(shape) + 11)
		var sum float64
		for i := 0; i < draws; i++ {
			x := src.Beta(shape)
			if x < 0 || x > 1 || math.IsNaN(x) {
				t.Fatalf("shape %g: draw %v outside [0, 1]", shape, x)
			}
			sum += x
		}
		scaled := sum / draws * (1 + shape)
		// The scaled draw is roughly Exp(1) for large shapes, so the
		// standard error of the mean is about 1/sqrt(draws).
		if math.Abs(scaled-1) > 0.05 {
			t.Errorf("shape %g: scaled mean %.4f, want ~1", shape, scaled)
		}
	}
}

func TestSeedPolicy(t *testing.T) {
	if got := Seed(99); got != 99 {
		t.Errorf("Seed(99) = %d, want 99", got)
	}
	if got := Seed(0); got == 0 {
		t.Error("Seed(0) should resolve to a non-zero seed")
	}
}

func TestCounting(t *testing.T) {
	c := NewCounting(New(3))
	for i := 0; i < 5; i++ {
		c.Uniform()
	}
	c.Beta(4)
	c.Beta(1)

	got := c.Counts()
	if got.Uniform != 5 {
		t.Errorf("expected 5 uniform draws, got %d", got.Uniform)
	}
	if got.Beta != 2 {
		t.Errorf("expected 2 beta draws, got %d", got.Beta)
	}
	if got.Total() != 7 {
		t.Errorf("expected 7 total draws, got %d", got.Total())
	}
}
