// Package scan runs a coverage scan: a Session owns the obstacle field,
// bounds, plan, agent position and coverage grid for one agent and
// advances them one tick at a time.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/forest.scan/internal/avoidance"
	"github.com/banshee-data/forest.scan/internal/config"
	"github.com/banshee-data/forest.scan/internal/coverage"
	"github.com/banshee-data/forest.scan/internal/geom"
	"github.com/banshee-data/forest.scan/internal/monitoring"
	"github.com/banshee-data/forest.scan/internal/planner"
	"github.com/banshee-data/forest.scan/internal/timeutil"
)

// stallEpsilon is the minimum distance an avoidance arc must cover to be
// treated as a detour. Shorter arcs would pin the agent in place.
const stallEpsilon = 1e-6

// Config holds session parameters.
type Config struct {
	Bounds      geom.Bounds
	CellSize    float64
	ScanWidth   float64
	Speed       float64 // travel per tick toward tour/boustrophedon waypoints
	TrailLength int

	Planner   planner.Config
	Avoidance avoidance.Config

	// Clock stamps cycle summaries. Nil means the wall clock.
	Clock timeutil.Clock
}

// ConfigFromScan builds a session Config from a scan config. The bounds are
// the scan square centred on the canvas.
func ConfigFromScan(cfg *config.ScanConfig) Config {
	return Config{
		Bounds:      geom.CenteredBounds(cfg.GetCanvasWidth(), cfg.GetCanvasHeight(), cfg.GetScanSize()),
		CellSize:    cfg.GetCellSize(),
		ScanWidth:   cfg.GetScanWidth(),
		Speed:       cfg.GetSpeed(),
		TrailLength: cfg.GetTrailLength(),
		Planner:     planner.ConfigFromScan(cfg),
		Avoidance:   avoidance.ConfigFromScan(cfg),
	}
}

// CycleSummary describes one finished cycle.
type CycleSummary struct {
	SessionID    string       `json:"session_id"`
	Cycle        int          `json:"cycle"`
	Strategy     planner.Kind `json:"strategy"`
	Ticks        int          `json:"ticks"`
	Coverage     float64      `json:"coverage"`
	ScannedCells int          `json:"scanned_cells"`
	TotalCells   int          `json:"total_cells"`
	Distance     float64      `json:"distance"`
	Detours      int          `json:"detours"`
	Uncorrected  int          `json:"uncorrected"`
	RiskPoints   int          `json:"risk_points"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
}

// CycleObserver is notified synchronously when a cycle completes, before
// the session resets.
type CycleObserver interface {
	OnCycleComplete(CycleSummary)
}

// CycleObserverFunc adapts a function to CycleObserver.
type CycleObserverFunc func(CycleSummary)

func (f CycleObserverFunc) OnCycleComplete(s CycleSummary) { f(s) }

// Session is the single owner of scan state. It is not safe for concurrent
// use; publish Snapshots to share state with other goroutines.
type Session struct {
	id       string
	cfg      Config
	clock    timeutil.Clock
	planner  *planner.Planner
	avoider  *avoidance.Avoider
	strategy planner.Strategy

	obstacles []geom.Obstacle
	grid      *coverage.Grid

	phase Phase
	plan  *planner.Plan
	queue []geom.Point // waypoints not yet reached
	// detour holds the remaining points of an avoidance arc. It is drained
	// before the path source is consulted again.
	detour []geom.Point
	agent  geom.Point
	trail  []geom.Point
	trace  []geom.Point // every arc point emitted this cycle

	cycle      int
	tick       int
	totalTicks int
	startedAt  time.Time
	distance   float64
	detours    int
	uncorr     int

	observers []CycleObserver
	last      *CycleSummary
}

// NewSession validates the inputs and returns a session in the planning
// phase.
func NewSession(cfg Config, strategy planner.Strategy, obstacles []geom.Obstacle) (*Session, error) {
	if strategy == nil {
		return nil, fmt.Errorf("new session: nil strategy")
	}
	if err := geom.ValidateObstacles(obstacles); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	grid, err := coverage.NewGrid(cfg.Bounds, cfg.CellSize)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if cfg.TrailLength < 0 {
		cfg.TrailLength = 0
	}

	s := &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		clock:     clock,
		planner:   planner.New(cfg.Planner),
		avoider:   avoidance.New(cfg.Avoidance),
		strategy:  strategy,
		obstacles: cloneObstacles(obstacles),
		grid:      grid,
		phase:     PhasePlanning,
		cycle:     1,
	}
	return s, nil
}

// ID is the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Phase is the current stepper phase.
func (s *Session) Phase() Phase { return s.phase }

// Cycle is the 1-based number of the cycle in progress.
func (s *Session) Cycle() int { return s.cycle }

// Agent is the current agent position.
func (s *Session) Agent() geom.Point { return s.agent }

// Grid exposes the coverage grid for read-only inspection.
func (s *Session) Grid() *coverage.Grid { return s.grid }

// Plan is the plan of the cycle in progress, nil while planning.
func (s *Session) Plan() *planner.Plan { return s.plan }

// Obstacles returns a copy of the current obstacle field.
func (s *Session) Obstacles() []geom.Obstacle { return cloneObstacles(s.obstacles) }

// Bounds is the scan area.
func (s *Session) Bounds() geom.Bounds { return s.cfg.Bounds }

// LastCycle is the summary of the most recently completed cycle.
func (s *Session) LastCycle() (CycleSummary, bool) {
	if s.last == nil {
		return CycleSummary{}, false
	}
	return *s.last, true
}

// AddObserver registers o for cycle completions.
func (s *Session) AddObserver(o CycleObserver) {
	s.observers = append(s.observers, o)
}

// Tick advances the session by one step. A session in the planning phase
// first builds its plan, so the first tick of every cycle plans and moves.
// When the step finishes the cycle, observers are notified and the session
// is back in the planning phase when Tick returns.
func (s *Session) Tick(ctx context.Context) error {
	if s.phase == PhasePlanning {
		if err := s.begin(ctx); err != nil {
			return err
		}
	}

	s.tick++
	s.totalTicks++
	s.step()

	if s.finished() {
		s.complete()
	}
	return nil
}

// Reset abandons the current cycle: the coverage grid, trail, path and
// detour buffer are cleared and the next tick plans afresh. It does not
// notify observers.
func (s *Session) Reset() {
	s.resetCycle()
	s.phase = PhasePlanning
}

// SetObstacles installs a new obstacle field and resets the session.
func (s *Session) SetObstacles(obstacles []geom.Obstacle) error {
	if err := geom.ValidateObstacles(obstacles); err != nil {
		return fmt.Errorf("set obstacles: %w", err)
	}
	s.obstacles = cloneObstacles(obstacles)
	s.Reset()
	return nil
}

func (s *Session) begin(ctx context.Context) error {
	plan, err := s.planner.Plan(ctx, s.obstacles, s.cfg.Bounds, s.strategy)
	if err != nil {
		return fmt.Errorf("cycle %d: %w", s.cycle, err)
	}
	phase, err := transition(s.phase, PhaseExecuting)
	if err != nil {
		return err
	}

	s.plan = plan
	s.phase = phase
	s.agent = plan.Start
	s.queue = nil
	if len(plan.Path) > 1 {
		s.queue = append([]geom.Point(nil), plan.Path[1:]...)
	}
	s.startedAt = s.clock.Now()
	monitoring.Debugf("[scan] cycle %d planned: %s, %d waypoints, %d risk points",
		s.cycle, plan.Strategy, len(plan.Path), len(plan.RiskPoints))
	return nil
}

func (s *Session) step() {
	if len(s.detour) > 0 {
		next := s.detour[0]
		s.detour = s.detour[1:]
		s.commit(next)
		return
	}

	intended, reached, ok := s.intended()
	if !ok {
		return
	}

	d := s.avoider.Evaluate(s.agent, intended, s.obstacles)
	arc := d.Arc()
	if arc && geom.Distance(d.Points[len(d.Points)-1], s.agent) < stallEpsilon {
		// A zero-sweep arc would hold the agent still forever.
		arc = false
		d.Points = []geom.Point{intended}
		d.Uncorrected = true
	}
	if d.Uncorrected {
		s.uncorr++
	}
	if arc {
		s.detours++
		s.trace = append(s.trace, d.Points...)
	}
	// The waypoint is consumed even when an arc replaces the final step;
	// the arc ends beside it.
	if reached {
		s.queue = s.queue[1:]
	}

	s.commit(d.Points[0])
	s.detour = append(s.detour[:0], d.Points[1:]...)
}

// intended is the next position the path source asks for. reached is true
// when it is the head waypoint itself.
func (s *Session) intended() (geom.Point, bool, bool) {
	if s.plan.Spiral != nil {
		if s.plan.Spiral.Done() {
			return geom.Point{}, false, false
		}
		return s.plan.Spiral.Advance(), false, true
	}
	if len(s.queue) == 0 {
		return geom.Point{}, false, false
	}
	p, reached := geom.StepToward(s.agent, s.queue[0], s.cfg.Speed)
	return p, reached, true
}

func (s *Session) commit(p geom.Point) {
	s.distance += geom.Distance(s.agent, p)
	s.agent = p
	s.grid.Update(p, s.cfg.ScanWidth)
	if s.cfg.TrailLength == 0 {
		return
	}
	if len(s.trail) >= s.cfg.TrailLength {
		n := copy(s.trail, s.trail[len(s.trail)-s.cfg.TrailLength+1:])
		s.trail = s.trail[:n]
	}
	s.trail = append(s.trail, p)
}

func (s *Session) finished() bool {
	if s.phase != PhaseExecuting || len(s.detour) > 0 {
		return false
	}
	if s.plan.Spiral != nil {
		return s.plan.Spiral.Done()
	}
	return len(s.queue) == 0
}

func (s *Session) complete() {
	phase, err := transition(s.phase, PhaseComplete)
	if err != nil {
		monitoring.Logf("[scan] %v", err)
		return
	}
	s.phase = phase

	summary := CycleSummary{
		SessionID:    s.id,
		Cycle:        s.cycle,
		Strategy:     s.plan.Strategy,
		Ticks:        s.tick,
		Coverage:     s.grid.Percentage(),
		ScannedCells: s.grid.ScannedCount(),
		TotalCells:   s.grid.TotalCells(),
		Distance:     s.distance,
		Detours:      s.detours,
		Uncorrected:  s.uncorr,
		RiskPoints:   len(s.plan.RiskPoints),
		StartedAt:    s.startedAt,
		FinishedAt:   s.clock.Now(),
	}
	s.last = &summary
	monitoring.Logf("[scan] cycle %d complete: %s, %d ticks, coverage %.2f%%, %d detours, %d uncorrected",
		summary.Cycle, summary.Strategy, summary.Ticks, summary.Coverage, summary.Detours, summary.Uncorrected)
	for _, o := range s.observers {
		o.OnCycleComplete(summary)
	}

	s.resetCycle()
	s.cycle++
	s.phase, _ = transition(s.phase, PhasePlanning)
}

func (s *Session) resetCycle() {
	s.grid.Reset()
	s.plan = nil
	s.queue = nil
	s.detour = nil
	s.trail = nil
	s.trace = nil
	s.tick = 0
	s.distance = 0
	s.detours = 0
	s.uncorr = 0
	if sp, ok := s.strategy.(*planner.Spiral); ok {
		sp.Reset()
	}
}

func cloneObstacles(obs []geom.Obstacle) []geom.Obstacle {
	return append([]geom.Obstacle(nil), obs...)
}
