package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/gridhmm/internal/timeutil"
)

// ErrRunNotFound is returned by RunStore.Get for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted experiment. Result carries the full per-step record
// as produced by the experiment package.
type Run struct {
	RunID              string          `json:"run_id"`
	Name               string          `json:"name"`
	Seed               int64           `json:"seed"`
	PathLength         int             `json:"path_length"`
	Width              int             `json:"width"`
	Height             int             `json:"height"`
	Map                string          `json:"map"`
	FilterAccuracy     float64         `json:"filter_accuracy"`
	SmoothAccuracy     float64         `json:"smooth_accuracy"`
	ViterbiAccuracy    float64         `json:"viterbi_accuracy"`
	ViterbiProbability float64         `json:"viterbi_probability"`
	DurationMS         float64         `json:"duration_ms"`
	Result             json.RawMessage `json:"result,omitempty"`
	CreatedAt          int64           `json:"created_at"`
}

// RunStore provides persistence for experiment runs.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore on a migrated database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used to stamp CreatedAt.
func (s *RunStore) SetClock(c timeutil.Clock) {
	s.clock = c
}

// Insert persists run. If RunID is empty a UUID is generated; if CreatedAt
// is zero the current time is used.
func (s *RunStore) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}

	var result interface{}
	if len(run.Result) > 0 {
		result = string(run.Result)
	}

	_, err := s.db.Exec(`
		INSERT INTO hmm_runs (
			run_id, name, seed, path_length, width, height, map_text,
			filter_accuracy, smooth_accuracy, viterbi_accuracy, viterbi_probability,
			duration_ms, result_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Name, run.Seed, run.PathLength, run.Width, run.Height, run.Map,
		run.FilterAccuracy, run.SmoothAccuracy, run.ViterbiAccuracy, run.ViterbiProbability,
		run.DurationMS, result, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}
	return nil
}

const runColumns = `run_id, name, seed, path_length, width, height, map_text,
	filter_accuracy, smooth_accuracy, viterbi_accuracy, viterbi_probability,
	duration_ms, result_json, created_at`

// Get returns a single run by ID, or ErrRunNotFound.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM hmm_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return r, nil
}

// List returns up to limit runs, newest first. The result payload is left
// out; use Get for the full record. A non-positive limit means no limit.
func (s *RunStore) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM hmm_runs
		ORDER BY created_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Result = nil
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Delete removes a run. Deleting an unknown ID returns ErrRunNotFound.
func (s *RunStore) Delete(runID string) error {
	res, err := s.db.Exec(`DELETE FROM hmm_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var result sql.NullString
	err := sc.Scan(
		&r.RunID, &r.Name, &r.Seed, &r.PathLength, &r.Width, &r.Height, &r.Map,
		&r.FilterAccuracy, &r.SmoothAccuracy, &r.ViterbiAccuracy, &r.ViterbiProbability,
		&r.DurationMS, &result, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if result.Valid && result.String != "" {
		r.Result = json.RawMessage(result.String)
	}
	return &r, nil
}
