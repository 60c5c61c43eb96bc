package db

import (
	"sync/atomic"

	"github.com/banshee-data/forest.scan/internal/monitoring"
	"github.com/banshee-data/forest.scan/internal/scan"
)

// Recorder writes a running session's results to a SessionStore. It is a
// scan.CycleObserver and its OnSample method fits scan.RunnerConfig.OnSample.
// Write failures are logged and counted but never stop the scan.
type Recorder struct {
	store     *SessionStore
	sessionID string
	failures  atomic.Int64
}

// NewRecorder creates a Recorder bound to one session.
func NewRecorder(store *SessionStore, sessionID string) *Recorder {
	return &Recorder{store: store, sessionID: sessionID}
}

// OnCycleComplete persists the cycle summary.
func (r *Recorder) OnCycleComplete(sum scan.CycleSummary) {
	if _, err := r.store.RecordCycle(sum); err != nil {
		r.failures.Add(1)
		monitoring.Logf("record cycle %d for session %s: %v", sum.Cycle, r.sessionID, err)
	}
}

// OnSample persists one coverage sample.
func (r *Recorder) OnSample(cs scan.CoverageSample) {
	if err := r.store.RecordCoverageSample(r.sessionID, cs); err != nil {
		r.failures.Add(1)
		monitoring.Logf("record coverage sample %d/%d for session %s: %v", cs.Cycle, cs.Tick, r.sessionID, err)
	}
}

// Failures returns the number of writes that failed.
func (r *Recorder) Failures() int64 {
	return r.failures.Load()
}
