package eval

// #region eval-config
// EvalConfig holds the parameters of an inclusion-probability check.
type EvalConfig struct {
	Runs            int     // independent sampling runs per check
	MinPValue       float64 // fail if the chi-square p-value drops below this
	MaxRelDeviation float64 // warn if any position strays this far from n/N
	MaxPopulation   int64   // refuse populations whose counters would not fit
}

// DefaultEvalConfig returns settings that keep a false alarm below one in a
// thousand checks.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Runs:            10000,
		MinPValue:       0.001,
		MaxRelDeviation: 0.25,
		MaxPopulation:   1 << 20,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of a check.
type EvalResult struct {
	Passed    bool
	Metrics   []EvalMetric
	Reason    string
	Statistic float64 // chi-square statistic of the inclusion counts
	DF        float64
	PValue    float64
	Counts    []int64 // inclusion count per position
}

// #endregion eval-result
