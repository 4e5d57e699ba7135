package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/TheSirC/vitte/internal/sampler"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Cases       []FixtureCase `json:"cases"`
}

// FixtureCase is one run to reproduce. A case either names a seed for the
// default source or lists the exact draws to feed the sampler.
type FixtureCase struct {
	Name       string        `json:"name"`
	RunID      string        `json:"run_id,omitempty"`
	Population int64         `json:"population"`
	SampleSize int64         `json:"sample_size"`
	Alpha      int64         `json:"alpha"`
	Seed       uint64        `json:"seed,omitempty"`
	Draws      *FixtureDraws `json:"draws,omitempty"`
	Expected   []int64       `json:"expected_positions"`
}

// FixtureDraws lists scripted draws in the order the sampler takes them.
type FixtureDraws struct {
	Uniforms []float64 `json:"uniforms"`
	Betas    []float64 `json:"betas"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(f Fixture, path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToCase converts a FixtureCase to a replay Case.
func (fc *FixtureCase) ToCase() Case {
	c := Case{
		Name:     fc.Name,
		RunID:    fc.RunID,
		Config:   sampler.Config{Population: fc.Population, SampleSize: fc.SampleSize, Alpha: fc.Alpha},
		Seed:     fc.Seed,
		Expected: fc.Expected,
	}
	if fc.Draws != nil {
		c.Draws = &Draws{Uniforms: fc.Draws.Uniforms, Betas: fc.Draws.Betas}
	}
	return c
}

// ToCases converts every case of the fixture.
func (f *Fixture) ToCases() []Case {
	cases := make([]Case, len(f.Cases))
	for i := range f.Cases {
		cases[i] = f.Cases[i].ToCase()
	}
	return cases
}

// FixtureCaseFrom converts a Case back to its JSON form.
func FixtureCaseFrom(c Case) FixtureCase {
	fc := FixtureCase{
		Name:       c.Name,
		RunID:      c.RunID,
		Population: c.Config.Population,
		SampleSize: c.Config.SampleSize,
		Alpha:      c.Config.Alpha,
		Seed:       c.Seed,
		Expected:   c.Expected,
	}
	if c.Draws != nil {
		fc.Draws = &FixtureDraws{Uniforms: c.Draws.Uniforms, Betas: c.Draws.Betas}
	}
	return fc
}

// #endregion fixture-loader
