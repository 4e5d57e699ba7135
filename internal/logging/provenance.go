// Package logging appends run provenance to the run_log table.
package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// #region log-event
// LogEvent writes an entry to the run_log table.
func LogEvent(db *sql.DB, entry RunEvent) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO run_log (run_id, event, detail_json, reason, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Event,
		nullIfEmpty(entry.DetailJSON),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// LogDetail marshals detail into the entry and writes it.
func LogDetail(db *sql.DB, entry RunEvent, detail any) error {
	b, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal detail: %w", err)
	}
	entry.DetailJSON = string(b)
	return LogEvent(db, entry)
}
// #endregion log-event

// #region list-events
// ListEvents returns the log entries of a run, oldest first.
func ListEvents(db *sql.DB, runID string) ([]RunEvent, error) {
	rows, err := db.Query(
		`SELECT run_id, event, detail_json, reason, created_at
		 FROM run_log WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []RunEvent
	for rows.Next() {
		var ev RunEvent
		var detail, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&ev.RunID, &ev.Event, &detail, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		ev.DetailJSON = detail.String
		ev.Reason = reason.String
		ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		events = append(events, ev)
	}
	return events, rows.Err()
}
// #endregion list-events

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
