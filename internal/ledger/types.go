package ledger

import (
	"time"

	"github.com/TheSirC/vitte/internal/sampler"
)

// #region run
// Run is one completed sampling run. The seed, together with Config, is
// enough to reproduce Positions with the default random source.
type Run struct {
	RunID     string
	Config    sampler.Config
	Seed      uint64
	Source    string // "cli" | "rpc" | "eval"
	Positions []int64
	Stats     sampler.Stats
	CreatedAt time.Time
}
// #endregion run

// #region meta
// Meta describes how a run was produced. It goes to the run log, not the
// runs table.
type Meta struct {
	Origin        string // file path, "stdin" or peer address
	SeedFromClock bool
	Elapsed       time.Duration
}
// #endregion meta
