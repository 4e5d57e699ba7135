package random

// #region source-interface
// Source supplies the two kinds of draws a sampling run needs.
// A Source belongs to exactly one run and is not safe for concurrent use.
type Source interface {
	// Uniform returns a draw from [0, 1).
	Uniform() float64
	// Beta returns a draw from Beta(1, shape), shape >= 1.
	Beta(shape float64) float64
}

// #endregion source-interface

// #region counts
// Counts reports how many draws of each kind a Counting source has issued.
type Counts struct {
	Uniform int64 `json:"uniform"`
	Beta    int64 `json:"beta"`
}

// Total returns the number of draws of either kind.
func (c Counts) Total() int64 {
	return c.Uniform + c.Beta
}

// #endregion counts
