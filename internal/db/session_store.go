package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/forest.scan/internal/geom"
	"github.com/banshee-data/forest.scan/internal/planner"
	"github.com/banshee-data/forest.scan/internal/scan"
)

// SessionRecord is the persisted header of a scan session.
type SessionRecord struct {
	SessionID  string       `json:"session_id"`
	Strategy   planner.Kind `json:"strategy"`
	Seed       uint64       `json:"seed"`
	ConfigJSON string       `json:"config_json,omitempty"`
	Bounds     geom.Bounds  `json:"bounds"`
	CreatedAt  time.Time    `json:"created_at"`
}

// CycleRecord is a stored cycle summary.
type CycleRecord struct {
	CycleID string `json:"cycle_id"`
	scan.CycleSummary
}

// SessionStore provides persistence for scan sessions and their results.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// InsertSession stores the session header.
// If rec.SessionID is empty, a new UUID is generated.
func (s *SessionStore) InsertSession(rec *SessionRecord) error {
	if rec.SessionID == "" {
		rec.SessionID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO scan_sessions (
			session_id, strategy, seed, config_json,
			bounds_min_x, bounds_min_y, bounds_max_x, bounds_max_y,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.SessionID,
		rec.Strategy.String(),
		int64(rec.Seed),
		nullString(rec.ConfigJSON),
		rec.Bounds.Min.X, rec.Bounds.Min.Y, rec.Bounds.Max.X, rec.Bounds.Max.Y,
		rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession loads a session header. It returns sql.ErrNoRows when the
// session does not exist.
func (s *SessionStore) GetSession(sessionID string) (*SessionRecord, error) {
	var (
		rec       SessionRecord
		strategy  string
		seed      int64
		cfgJSON   sql.NullString
		createdNs int64
	)
	err := s.db.QueryRow(`
		SELECT session_id, strategy, seed, config_json,
		       bounds_min_x, bounds_min_y, bounds_max_x, bounds_max_y,
		       created_at
		FROM scan_sessions
		WHERE session_id = ?
	`, sessionID).Scan(
		&rec.SessionID, &strategy, &seed, &cfgJSON,
		&rec.Bounds.Min.X, &rec.Bounds.Min.Y, &rec.Bounds.Max.X, &rec.Bounds.Max.Y,
		&createdNs,
	)
	if err != nil {
		return nil, err
	}

	kind, err := planner.ParseStrategy(strategy)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	rec.Strategy = kind
	rec.Seed = uint64(seed)
	if cfgJSON.Valid {
		rec.ConfigJSON = cfgJSON.String
	}
	rec.CreatedAt = time.Unix(0, createdNs)
	return &rec, nil
}

// InsertObstacles stores the obstacle field of a session in one transaction.
func (s *SessionStore) InsertObstacles(sessionID string, field geom.ObstacleField) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert obstacles: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO scan_obstacles (session_id, obstacle_id, x, y, radius)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert obstacles: %w", err)
	}
	defer stmt.Close()

	for id, o := range field {
		if _, err := stmt.Exec(sessionID, id, o.X, o.Y, o.Radius); err != nil {
			return fmt.Errorf("insert obstacle %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit obstacles: %w", err)
	}
	return nil
}

// Obstacles returns the stored obstacle field of a session.
func (s *SessionStore) Obstacles(sessionID string) (geom.ObstacleField, error) {
	rows, err := s.db.Query(`
		SELECT obstacle_id, x, y, radius
		FROM scan_obstacles
		WHERE session_id = ?
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list obstacles: %w", err)
	}
	defer rows.Close()

	field := geom.ObstacleField{}
	for rows.Next() {
		var id string
		var o geom.Obstacle
		if err := rows.Scan(&id, &o.X, &o.Y, &o.Radius); err != nil {
			return nil, fmt.Errorf("scan obstacle: %w", err)
		}
		field[id] = o
	}
	return field, rows.Err()
}

// RecordCycle stores a completed cycle and returns its generated id.
func (s *SessionStore) RecordCycle(sum scan.CycleSummary) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(`
		INSERT INTO scan_cycles (
			cycle_id, session_id, cycle, strategy, ticks, coverage,
			scanned_cells, total_cells, distance, detours, uncorrected,
			risk_points, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, sum.SessionID, sum.Cycle, sum.Strategy.String(), sum.Ticks, sum.Coverage,
		sum.ScannedCells, sum.TotalCells, sum.Distance, sum.Detours, sum.Uncorrected,
		sum.RiskPoints, sum.StartedAt.UnixNano(), sum.FinishedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("insert cycle %d: %w", sum.Cycle, err)
	}
	return id, nil
}

// ListCycles returns the stored cycles of a session in cycle order.
func (s *SessionStore) ListCycles(sessionID string) ([]CycleRecord, error) {
	rows, err := s.db.Query(`
		SELECT cycle_id, session_id, cycle, strategy, ticks, coverage,
		       scanned_cells, total_cells, distance, detours, uncorrected,
		       risk_points, started_at, finished_at
		FROM scan_cycles
		WHERE session_id = ?
		ORDER BY cycle
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleRecord
	for rows.Next() {
		var (
			r                   CycleRecord
			strategy            string
			startedNs, finishNs int64
		)
		err := rows.Scan(
			&r.CycleID, &r.SessionID, &r.Cycle, &strategy, &r.Ticks, &r.Coverage,
			&r.ScannedCells, &r.TotalCells, &r.Distance, &r.Detours, &r.Uncorrected,
			&r.RiskPoints, &startedNs, &finishNs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		if r.Strategy, err = planner.ParseStrategy(strategy); err != nil {
			return nil, fmt.Errorf("cycle %s: %w", r.CycleID, err)
		}
		r.StartedAt = time.Unix(0, startedNs)
		r.FinishedAt = time.Unix(0, finishNs)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordCoverageSample stores one point of a session's coverage series.
// Re-recording the same (cycle, tick) replaces the earlier value.
func (s *SessionStore) RecordCoverageSample(sessionID string, sample scan.CoverageSample) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO scan_coverage_samples (session_id, cycle, tick, coverage, sampled_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, sample.Cycle, sample.Tick, sample.Coverage, sample.At.UnixNano())
	if err != nil {
		return fmt.Errorf("insert coverage sample: %w", err)
	}
	return nil
}

// CoverageSamples returns the coverage series of a session in tick order.
// A cycle of zero returns the samples of every cycle.
func (s *SessionStore) CoverageSamples(sessionID string, cycle int) ([]scan.CoverageSample, error) {
	query := `
		SELECT cycle, tick, coverage, sampled_at
		FROM scan_coverage_samples
		WHERE session_id = ?`
	args := []interface{}{sessionID}
	if cycle > 0 {
		query += " AND cycle = ?"
		args = append(args, cycle)
	}
	query += " ORDER BY cycle, tick"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list coverage samples: %w", err)
	}
	defer rows.Close()

	var out []scan.CoverageSample
	for rows.Next() {
		var cs scan.CoverageSample
		var atNs int64
		if err := rows.Scan(&cs.Cycle, &cs.Tick, &cs.Coverage, &atNs); err != nil {
			return nil, fmt.Errorf("scan coverage sample: %w", err)
		}
		cs.At = time.Unix(0, atNs)
		out = append(out, cs)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and, through cascading keys, everything
// recorded for it.
func (s *SessionStore) DeleteSession(sessionID string) error {
	result, err := s.db.Exec("DELETE FROM scan_sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
