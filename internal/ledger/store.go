// Package ledger records completed sampling runs in SQLite so they can be
// inspected, exported as fixtures and replayed.
package ledger

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	population   INTEGER NOT NULL,
	sample_size  INTEGER NOT NULL,
	alpha        INTEGER NOT NULL,
	seed         TEXT NOT NULL,
	source       TEXT NOT NULL,
	positions    BLOB,
	stats_json   TEXT,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	event        TEXT NOT NULL,
	detail_json  TEXT,
	reason       TEXT,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
`
// #endregion schema

// #region store-struct
// Store holds recorded runs.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// PRAGMA foreign_keys is per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the run log.
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion close

// #region record-run
// RecordRun stores a completed run. An empty RunID is replaced by a fresh
// UUID and a zero CreatedAt by the current time; the stored run is returned.
func (s *Store) RecordRun(run Run) (Run, error) {
	if err := run.Config.Validate(); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	if int64(len(run.Positions)) != run.Config.SampleSize {
		return Run{}, fmt.Errorf("record run: %d positions for sample size %d", len(run.Positions), run.Config.SampleSize)
	}
	if k := len(run.Positions); k > 0 && run.Positions[k-1] >= run.Config.Population {
		return Run{}, fmt.Errorf("record run: position %d outside population %d", run.Positions[k-1], run.Config.Population)
	}
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	blob, err := EncodePositions(run.Positions)
	if err != nil {
		return Run{}, fmt.Errorf("encode positions: %w", err)
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return Run{}, fmt.Errorf("marshal stats: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO runs (run_id, population, sample_size, alpha, seed, source, positions, stats_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Config.Population, run.Config.SampleSize, run.Config.Alpha,
		strconv.FormatUint(run.Seed, 10), run.Source, blob, string(statsJSON),
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}
// #endregion record-run

// #region get-run
// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (Run, error) {
	row := s.db.QueryRow(
		`SELECT run_id, population, sample_size, alpha, seed, source, positions, stats_json, created_at
		 FROM runs WHERE run_id = ?`, id,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}
// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT run_id, population, sample_size, alpha, seed, source, positions, stats_json, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
// #endregion list-runs

// #region delete-run
// DeleteRun removes a run and its log entries.
func (s *Store) DeleteRun(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrNotFound)
	}
	return nil
}
// #endregion delete-run

// #region scan
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var seedStr, createdStr string
	var blob []byte
	var statsJSON sql.NullString

	err := sc.Scan(&run.RunID, &run.Config.Population, &run.Config.SampleSize, &run.Config.Alpha,
		&seedStr, &run.Source, &blob, &statsJSON, &createdStr)
	if err != nil {
		return Run{}, err
	}

	run.Seed, err = strconv.ParseUint(seedStr, 10, 64)
	if err != nil {
		return Run{}, fmt.Errorf("parse seed: %w", err)
	}
	run.Positions, err = DecodePositions(blob)
	if err != nil {
		return Run{}, fmt.Errorf("decode positions: %w", err)
	}
	if statsJSON.Valid {
		if err := json.Unmarshal([]byte(statsJSON.String), &run.Stats); err != nil {
			return Run{}, fmt.Errorf("unmarshal stats: %w", err)
		}
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return run, nil
}
// #endregion scan

// #region position-encoding
// EncodePositions stores strictly increasing positions as the uvarint skip
// before each one, which keeps sparse samples of huge populations small.
func EncodePositions(positions []int64) ([]byte, error) {
	buf := make([]byte, 0, len(positions)*2)
	prev := int64(-1)
	for i, p := range positions {
		if p <= prev {
			return nil, fmt.Errorf("position %d (%d) is not after %d", i, p, prev)
		}
		buf = binary.AppendUvarint(buf, uint64(p-prev-1))
		prev = p
	}
	return buf, nil
}

// DecodePositions reverses EncodePositions.
func DecodePositions(b []byte) ([]int64, error) {
	out := make([]int64, 0, len(b))
	prev := int64(-1)
	for len(b) > 0 {
		skip, n := binary.Uvarint(b)
		if n <= 0 {
			return nil, fmt.Errorf("bad uvarint at entry %d", len(out))
		}
		b = b[n:]
		prev += int64(skip) + 1
		out = append(out, prev)
	}
	return out, nil
}
// #endregion position-encoding
