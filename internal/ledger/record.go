package ledger

import (
	"fmt"

	"github.com/TheSirC/vitte/internal/logging"
)

// Record stores run and appends a record event describing it to the run
// log. The run is kept even if the log write fails.
func (s *Store) Record(run Run, meta Meta) (Run, error) {
	stored, err := s.RecordRun(run)
	if err != nil {
		return Run{}, err
	}
	detail := logging.RunRecord{
		Population:    stored.Config.Population,
		SampleSize:    stored.Config.SampleSize,
		Alpha:         stored.Config.Alpha,
		Seed:          stored.Seed,
		SeedFromClock: meta.SeedFromClock,
		Origin:        meta.Origin,
		MethodD:       stored.Stats.MethodD,
		MethodA:       stored.Stats.MethodA,
		FastAccepts:   stored.Stats.FastAccepts,
		SlowAccepts:   stored.Stats.SlowAccepts,
		Rejections:    stored.Stats.Rejections,
		Resamples:     stored.Stats.Resamples,
		ElapsedMicros: meta.Elapsed.Microseconds(),
	}
	err = logging.LogDetail(s.db, logging.RunEvent{
		RunID:     stored.RunID,
		Event:     logging.EventRecord,
		Reason:    stored.Source,
		CreatedAt: stored.CreatedAt,
	}, detail)
	if err != nil {
		return stored, fmt.Errorf("log run %s: %w", stored.RunID, err)
	}
	return stored, nil
}
