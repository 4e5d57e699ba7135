// Package gate admits or rejects sampling requests before any draw is made.
package gate

import (
	"errors"
	"fmt"

	"github.com/TheSirC/vitte/internal/sampler"
)

// #region gate
// Gate checks sampling requests against server limits.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Config returns the gate's limits.
func (g *Gate) Config() GateConfig {
	return g.config
}

// Evaluate checks hard vetoes first, then estimates the cost of the run.
func (g *Gate) Evaluate(cfg sampler.Config, mode Mode) GateDecision {
	var vetoes []VetoSignal

	// --- Hard veto pass ---

	// 1-2. The sampler's own validation rules.
	vetoes = append(vetoes, configVetoes(cfg)...)

	// 3. Population cap.
	if cfg.Population > g.config.MaxPopulation {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoPopulation,
			Reason: fmt.Sprintf("population %d exceeds cap %d", cfg.Population, g.config.MaxPopulation),
		})
	}

	// 4. Large samples must be streamed.
	if mode == ModeUnary && cfg.SampleSize > g.config.MaxUnarySample {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoUnarySize,
			Reason: fmt.Sprintf("sample size %d exceeds unary cap %d; use Stream", cfg.SampleSize, g.config.MaxUnarySample),
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "reject",
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
		}
	}

	// --- Cost estimate ---
	path, work := estimate(cfg)

	return GateDecision{
		Action: "accept",
		Reason: fmt.Sprintf("passed gate: path=%s work=%.0f", path, work),
		Path:   path,
		Work:   work,
	}
}

// #endregion gate

// #region helpers
// configVetoes maps sampler.Config.Validate failures to veto signals. Size
// and alpha are checked separately so a request breaking both gets both
// vetoes; Validate itself stops at the first.
func configVetoes(cfg sampler.Config) []VetoSignal {
	var vetoes []VetoSignal
	sizeOnly := sampler.Config{Population: cfg.Population, SampleSize: cfg.SampleSize, Alpha: 1}
	if err := sizeOnly.Validate(); err != nil {
		vetoes = append(vetoes, vetoFor(err))
	}
	alphaOnly := sampler.Config{Alpha: cfg.Alpha}
	if err := alphaOnly.Validate(); err != nil {
		vetoes = append(vetoes, vetoFor(err))
	}
	return vetoes
}

func vetoFor(err error) VetoSignal {
	t := VetoSampleSize
	if errors.Is(err, sampler.ErrInvalidAlpha) {
		t = VetoAlpha
	}
	return VetoSignal{Type: t, Reason: err.Error()}
}

// estimate reports where the run starts and roughly how many loop
// iterations it costs. Method D does a constant amount of work per
// selection; Method A walks every skipped position. The ratio n'/N' stays
// near n/N on average, so the starting path dominates.
func estimate(cfg sampler.Config) (string, float64) {
	switch {
	case cfg.SampleSize == 0:
		return sampler.MethodDone.String(), 0
	case cfg.SampleSize == 1:
		return sampler.MethodFinal.String(), 1
	case startsWithMethodA(cfg):
		return sampler.MethodA.String(), float64(cfg.Population)
	default:
		return sampler.MethodD.String(), float64(cfg.SampleSize)
	}
}

func startsWithMethodA(cfg sampler.Config) bool {
	if cfg.SampleSize > cfg.Population/cfg.Alpha {
		return true
	}
	return cfg.SampleSize*cfg.Alpha >= cfg.Population
}

// #endregion helpers
