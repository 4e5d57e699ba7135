package replay

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "scripted.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if f.Description == "" {
		t.Error("expected a description")
	}
	if len(f.Cases) != 6 {
		t.Fatalf("expected 6 cases, got %d", len(f.Cases))
	}

	c := f.Cases[1].ToCase()
	if c.Name != "method-d-fast" {
		t.Errorf("expected method-d-fast, got %s", c.Name)
	}
	if c.Config.Population != 100 || c.Config.SampleSize != 3 || c.Config.Alpha != 13 {
		t.Errorf("unexpected config %+v", c.Config)
	}
	if c.Draws == nil || len(c.Draws.Betas) != 2 {
		t.Fatalf("expected two scripted betas, got %+v", c.Draws)
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	if _, err := LoadFixture(filepath.Join("testdata", "nope.json")); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestWriteFixture_RoundTrip(t *testing.T) {
	in := Fixture{
		Description: "round trip",
		Cases: []FixtureCase{
			{Name: "seeded", RunID: "abc", Population: 500, SampleSize: 4, Alpha: 13, Seed: 99, Expected: []int64{3, 70, 71, 402}},
			FixtureCaseFrom(Case{Name: "scripted", Draws: &Draws{Uniforms: []float64{0.5}, Betas: []float64{}}, Expected: []int64{}}),
		},
	}
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteFixture(in, path); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}
	out, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if diff := cmp.Diff(in, *out); diff != "" {
		t.Fatalf("fixture mismatch (-written +read):\n%s", diff)
	}
}
