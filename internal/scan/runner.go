package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/forest.scan/internal/config"
	"github.com/banshee-data/forest.scan/internal/monitoring"
	"github.com/banshee-data/forest.scan/internal/timeutil"
)

// RunnerConfig controls the tick loop.
type RunnerConfig struct {
	// Interval between ticks. Zero runs ticks back to back.
	Interval time.Duration
	// MaxTicks stops the loop after this many ticks. Zero means no limit.
	MaxTicks int
	// MaxCycles stops the loop once this many cycles have completed. Zero
	// means no limit.
	MaxCycles int
	// SampleEvery publishes a coverage sample every N ticks and on the
	// last tick of each cycle.
	SampleEvery int
	// OnSample, if set, receives every coverage sample.
	OnSample func(CoverageSample)
	Clock    timeutil.Clock
}

// RunnerConfigFromScan builds a RunnerConfig from a scan config.
func RunnerConfigFromScan(cfg *config.ScanConfig) RunnerConfig {
	return RunnerConfig{
		Interval:    cfg.GetTickInterval(),
		SampleEvery: cfg.GetCoverageSampleEvery(),
	}
}

// Runner drives a Session from a single goroutine and publishes snapshots
// after every tick.
type Runner struct {
	session *Session
	store   *SnapshotStore
	cfg     RunnerConfig
	cycles  int
}

// NewRunner returns a Runner for session publishing into store.
func NewRunner(session *Session, store *SnapshotStore, cfg RunnerConfig) *Runner {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.SampleEvery <= 0 {
		cfg.SampleEvery = 1
	}
	r := &Runner{session: session, store: store, cfg: cfg}
	session.AddObserver(CycleObserverFunc(func(s CycleSummary) {
		r.cycles++
		r.sample(s.Cycle, s.Ticks, s.Coverage)
		r.store.PublishCycleEnd(session.Snapshot())
	}))
	session.AddObserver(store)
	return r
}

// CompletedCycles is the number of cycles finished under this runner.
func (r *Runner) CompletedCycles() int { return r.cycles }

// Run ticks the session until ctx is done or a limit is reached. It
// returns nil on cancellation and on reaching a limit.
func (r *Runner) Run(ctx context.Context) error {
	r.store.Publish(r.session.Snapshot())
	monitoring.Logf("[scan] runner started: session %s, interval %v, max ticks %d, max cycles %d",
		r.session.ID(), r.cfg.Interval, r.cfg.MaxTicks, r.cfg.MaxCycles)

	var ticks <-chan time.Time
	if r.cfg.Interval > 0 {
		ticker := r.cfg.Clock.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		ticks = ticker.C()
	}

	for n := 0; r.cfg.MaxTicks == 0 || n < r.cfg.MaxTicks; n++ {
		if ticks != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticks:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if err := r.session.Tick(ctx); err != nil {
			return fmt.Errorf("tick %d: %w", n+1, err)
		}
		snap := r.session.Snapshot()
		if snap.Phase == PhaseExecuting && snap.Tick%r.cfg.SampleEvery == 0 {
			r.sample(snap.Cycle, snap.Tick, snap.Coverage)
		}
		r.store.Publish(snap)

		if r.cfg.MaxCycles > 0 && r.cycles >= r.cfg.MaxCycles {
			monitoring.Logf("[scan] runner stopping after %d cycles", r.cycles)
			return nil
		}
	}
	monitoring.Logf("[scan] runner stopping after %d ticks", r.cfg.MaxTicks)
	return nil
}

func (r *Runner) sample(cycle, tick int, coverage float64) {
	s := CoverageSample{Cycle: cycle, Tick: tick, Coverage: coverage, At: r.cfg.Clock.Now()}
	r.store.AddSample(s)
	if r.cfg.OnSample != nil {
		r.cfg.OnSample(s)
	}
}
