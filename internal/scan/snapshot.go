package scan

import (
	"sync"
	"time"

	"github.com/banshee-data/forest.scan/internal/coverage"
	"github.com/banshee-data/forest.scan/internal/geom"
	"github.com/banshee-data/forest.scan/internal/planner"
)

// Snapshot is a read-only copy of session state taken between ticks.
type Snapshot struct {
	SessionID  string              `json:"session_id"`
	Strategy   planner.Kind        `json:"strategy"`
	Phase      Phase               `json:"phase"`
	Cycle      int                 `json:"cycle"`
	Tick       int                 `json:"tick"`
	TotalTicks int                 `json:"total_ticks"`
	Agent      geom.Point          `json:"agent"`
	Bounds     geom.Bounds         `json:"bounds"`
	Obstacles  []geom.Obstacle     `json:"obstacles"`
	Path       []geom.Point        `json:"path"`    // waypoints still ahead
	Preview    []geom.Point        `json:"preview"` // full intended route
	Trail      []geom.Point        `json:"trail"`
	Detour     []geom.Point        `json:"detour"`      // pending arc points
	AvoidTrace []geom.Point        `json:"avoid_trace"` // arc points emitted this cycle
	RiskPoints []planner.RiskPoint `json:"risk_points"`
	Coverage   float64             `json:"coverage"`
	Grid       coverage.Snapshot   `json:"grid"`
	TakenAt    time.Time           `json:"taken_at"`
}

// Snapshot copies the session state. Slices in the result are not shared
// with the session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:  s.id,
		Strategy:   s.strategy.Kind(),
		Phase:      s.phase,
		Cycle:      s.cycle,
		Tick:       s.tick,
		TotalTicks: s.totalTicks,
		Agent:      s.agent,
		Bounds:     s.cfg.Bounds,
		Obstacles:  cloneObstacles(s.obstacles),
		Path:       clonePoints(s.queue),
		Trail:      clonePoints(s.trail),
		Detour:     clonePoints(s.detour),
		AvoidTrace: clonePoints(s.trace),
		Coverage:   s.grid.Percentage(),
		Grid:       s.grid.Snapshot(),
		TakenAt:    s.clock.Now(),
	}
	if s.plan != nil {
		snap.Preview = clonePoints(s.plan.Preview)
		snap.RiskPoints = append([]planner.RiskPoint(nil), s.plan.RiskPoints...)
	}
	return snap
}

func clonePoints(pts []geom.Point) []geom.Point {
	if len(pts) == 0 {
		return nil
	}
	return append([]geom.Point(nil), pts...)
}

// CoverageSample is one point of the coverage time series.
type CoverageSample struct {
	Cycle    int       `json:"cycle"`
	Tick     int       `json:"tick"`
	Coverage float64   `json:"coverage"`
	At       time.Time `json:"at"`
}

// maxStoredSamples bounds the in-memory coverage series.
const maxStoredSamples = 10000

// SnapshotStore publishes the latest snapshot and the coverage series to
// readers on other goroutines.
type SnapshotStore struct {
	mu      sync.RWMutex
	latest  *Snapshot
	ended   *Snapshot
	samples []CoverageSample
	cycles  []CycleSummary
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Publish replaces the latest snapshot.
func (st *SnapshotStore) Publish(s Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.latest = &s
}

// Latest returns the most recent snapshot, if any.
func (st *SnapshotStore) Latest() (Snapshot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.latest == nil {
		return Snapshot{}, false
	}
	return *st.latest, true
}

// PublishCycleEnd keeps s as the final state of the most recent cycle.
func (st *SnapshotStore) PublishCycleEnd(s Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.ended = &s
}

// LastCycleEnd returns the final state of the most recently completed
// cycle, if any. Latest has already moved on to the next cycle by then.
func (st *SnapshotStore) LastCycleEnd() (Snapshot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.ended == nil {
		return Snapshot{}, false
	}
	return *st.ended, true
}

// AddSample appends to the coverage series, dropping the oldest sample
// once the series is full.
func (st *SnapshotStore) AddSample(s CoverageSample) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.samples) >= maxStoredSamples {
		st.samples = append(st.samples[:0], st.samples[1:]...)
	}
	st.samples = append(st.samples, s)
}

// Samples returns a copy of the coverage series, oldest first.
func (st *SnapshotStore) Samples() []CoverageSample {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return append([]CoverageSample(nil), st.samples...)
}

// OnCycleComplete records s so the store can serve as a CycleObserver.
func (st *SnapshotStore) OnCycleComplete(s CycleSummary) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.cycles = append(st.cycles, s)
}

// Cycles returns the completed cycle summaries, oldest first.
func (st *SnapshotStore) Cycles() []CycleSummary {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return append([]CycleSummary(nil), st.cycles...)
}
