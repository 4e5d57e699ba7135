package gate

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoSampleSize VetoType = "invalid_sample_size"
	VetoAlpha      VetoType = "invalid_alpha"
	VetoPopulation VetoType = "population_limit"
	VetoUnarySize  VetoType = "unary_size_limit"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region mode
// Mode is how the caller wants the positions delivered.
type Mode int

const (
	// ModeUnary returns every position in one response.
	ModeUnary Mode = iota
	// ModeStream sends positions one by one as they are drawn.
	ModeStream
)

// #endregion mode

// #region gate-config
// GateConfig holds the limits a request must satisfy.
type GateConfig struct {
	MaxPopulation  int64 // largest N; float64 counts stay exact below 2^53
	MaxUnarySample int64 // largest n returned in a single response
}

// DefaultGateConfig returns the server defaults.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxPopulation:  1 << 53,
		MaxUnarySample: 100_000,
	}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string       // "accept" | "reject"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal // non-empty if vetoed
	Path        string       // sampler.Method name where the run starts: "D" | "A" | "final" | "done"
	Work        float64      // rough count of loop iterations the run needs (for logging)
}

// #endregion gate-decision
