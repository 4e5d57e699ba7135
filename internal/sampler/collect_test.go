package sampler

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TheSirC/vitte/internal/random"
	"github.com/TheSirC/vitte/internal/random/randomtest"
)

func TestSlice_Strings(t *testing.T) {
	xs := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	src := &randomtest.Scripted{Uniforms: []float64{0.5, 0.9, 0.5}}
	got, err := Slice(xs, 3, 4, src)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c", "g"}, got); diff != "" {
		t.Fatalf("sample mismatch (-want +got):\n%s", diff)
	}
}

func TestSlice_InvalidSize(t *testing.T) {
	_, err := Slice([]int{1, 2, 3}, 4, DefaultAlpha, random.New(1))
	if !errors.Is(err, ErrInvalidSampleSize) {
		t.Fatalf("expected ErrInvalidSampleSize, got %v", err)
	}
}

func TestMask_AgreesWithPositions(t *testing.T) {
	cfg := Config{Population: 3000, SampleSize: 250, Alpha: 13}
	positions := mustPositions(t, cfg, random.New(8))
	mask, err := Mask(cfg, random.New(8))
	if err != nil {
		t.Fatalf("Mask: %v", err)
	}
	if int64(len(mask)) != cfg.Population {
		t.Fatalf("mask has %d entries, want %d", len(mask), cfg.Population)
	}
	var fromMask []int64
	for i, sel := range mask {
		if sel {
			fromMask = append(fromMask, int64(i))
		}
	}
	if diff := cmp.Diff(positions, fromMask); diff != "" {
		t.Fatalf("mask disagrees with Positions (-positions +mask):\n%s", diff)
	}
}

func TestGaps(t *testing.T) {
	cases := []struct {
		in   []int64
		want []int64
	}{
		{nil, nil},
		{[]int64{7}, nil},
		{[]int64{1, 2, 6}, []int64{1, 4}},
		{[]int64{0, 10, 11, 50}, []int64{10, 1, 39}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, Gaps(tc.in)); diff != "" {
			t.Errorf("Gaps(%v) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestLines(t *testing.T) {
	input := "l0\nl1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nl9\n"
	src := &randomtest.Scripted{Uniforms: []float64{0.5, 0.9, 0.5}}

	var got []string
	err := Lines(strings.NewReader(input), Config{Population: 10, SampleSize: 3, Alpha: 4}, src, func(line string) error {
		got = append(got, line)
		return nil
	})
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if diff := cmp.Diff([]string{"l1", "l2", "l6"}, got); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestLines_ShortInput(t *testing.T) {
	src := &randomtest.Scripted{Uniforms: []float64{0.5, 0.9, 0.5}}
	err := Lines(strings.NewReader("l0\nl1\nl2\n"), Config{Population: 10, SampleSize: 3, Alpha: 4}, src, func(string) error {
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "input ended") {
		t.Fatalf("expected a short input error, got %v", err)
	}
}

func TestLines_CallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := Lines(strings.NewReader("a\nb\nc\nd\n"), Config{Population: 4, SampleSize: 4, Alpha: 1}, random.New(1), func(string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times after failing, want 1", calls)
	}
}
