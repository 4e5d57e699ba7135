package logging

import "time"

// Run log events.
const (
	EventRecord = "record"
	EventReplay = "replay"
	EventExport = "export"
)

// #region run-event
// RunEvent is a single row in the run_log table.
type RunEvent struct {
	RunID      string
	Event      string // EventRecord | EventReplay | EventExport
	DetailJSON string
	Reason     string
	CreatedAt  time.Time
}
// #endregion run-event

// #region run-record
// RunRecord captures how a run was produced. It is serialized as JSON into
// run_log.detail_json when the run is recorded.
type RunRecord struct {
	Population int64  `json:"population"`
	SampleSize int64  `json:"sample_size"`
	Alpha      int64  `json:"alpha"`
	Seed       uint64 `json:"seed"`

	// Set when the caller passed seed 0 and the seed was taken from the clock.
	SeedFromClock bool `json:"seed_from_clock,omitempty"`

	// Where the request came from: a file path, "stdin", or a peer address.
	Origin string `json:"origin,omitempty"`

	// Path counters reported by the automaton.
	MethodD     int64 `json:"method_d"`
	MethodA     int64 `json:"method_a"`
	FastAccepts int64 `json:"fast_accepts"`
	SlowAccepts int64 `json:"slow_accepts"`
	Rejections  int64 `json:"rejections"`
	Resamples   int64 `json:"resamples"`

	ElapsedMicros int64 `json:"elapsed_us"`
}
// #endregion run-record

// #region replay-record
// ReplayRecord is the detail logged when a recorded run is re-run.
type ReplayRecord struct {
	Verdict   string `json:"verdict"` // "match" | "diverge" | "error"
	FirstDiff int    `json:"first_diff"`
	Got       int    `json:"got"`
	Want      int    `json:"want"`
}
// #endregion replay-record
