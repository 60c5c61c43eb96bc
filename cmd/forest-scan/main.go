// Command forest-scan generates a forest, scans the centred target area
// with the configured strategy and records the results.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/forest.scan/internal/config"
	"github.com/banshee-data/forest.scan/internal/db"
	"github.com/banshee-data/forest.scan/internal/forest"
	"github.com/banshee-data/forest.scan/internal/geom"
	"github.com/banshee-data/forest.scan/internal/monitor"
	"github.com/banshee-data/forest.scan/internal/monitoring"
	"github.com/banshee-data/forest.scan/internal/planner"
	"github.com/banshee-data/forest.scan/internal/report"
	"github.com/banshee-data/forest.scan/internal/scan"
	"github.com/banshee-data/forest.scan/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to a scan config JSON file (defaults to built-in values)")
	strategy   = flag.String("strategy", "", "Override the path strategy: spiral, boustrophedon or tour")
	cycles     = flag.Int("cycles", 1, "Stop after this many completed cycles (0 = no limit)")
	maxTicks   = flag.Int("max-ticks", 0, "Stop after this many ticks (0 = no limit)")
	seed       = flag.Uint64("seed", 0, "Override the forest seed (0 = use config)")
	dbPath     = flag.String("db", "", "SQLite database to record the session in")
	plotPath   = flag.String("plot", "", "Write a picture of the final state to this file (.png, .svg, .pdf)")
	chartPath  = flag.String("chart", "", "Write an HTML coverage chart to this file")
	listen     = flag.String("listen", "", "Serve the live monitor on this address, e.g. :8082; serving continues after the run until interrupted")
	debug      = flag.Bool("debug", false, "Log per-tick diagnostics")
	showVer    = flag.Bool("version", false, "Print version information and exit")
)

// options is the parsed command line.
type options struct {
	ConfigPath string
	Strategy   string
	Cycles     int
	MaxTicks   int
	Seed       uint64
	DBPath     string
	PlotPath   string
	ChartPath  string
	Listen     string
}

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println(version.String())
		return
	}
	monitoring.SetDebug(*debug)
	log.Printf("%s", version.String())

	opts := options{
		ConfigPath: *configPath,
		Strategy:   *strategy,
		Cycles:     *cycles,
		MaxTicks:   *maxTicks,
		Seed:       *seed,
		DBPath:     *dbPath,
		PlotPath:   *plotPath,
		ChartPath:  *chartPath,
		Listen:     *listen,
	}
	if opts.Cycles == 0 && opts.MaxTicks == 0 && opts.Listen == "" {
		log.Fatal("an unbounded run needs -listen, -cycles or -max-ticks")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatalf("forest-scan: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

// loadConfig reads the config file, applies flag overrides and validates
// the result.
func loadConfig(opts options) (*config.ScanConfig, error) {
	cfg := config.DefaultScanConfig()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadScanConfig(opts.ConfigPath); err != nil {
			return nil, err
		}
	}
	if opts.Strategy != "" {
		cfg.Strategy = &opts.Strategy
	}
	if opts.Seed != 0 {
		cfg.Seed = &opts.Seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	field, err := forest.Generate(forest.ConfigFromScan(cfg), forest.NewSource(cfg.GetSeed()))
	if err != nil {
		return fmt.Errorf("generate forest: %w", err)
	}

	sessionCfg := scan.ConfigFromScan(cfg)
	strat, err := planner.StrategyFromScan(cfg, sessionCfg.Bounds)
	if err != nil {
		return err
	}
	session, err := scan.NewSession(sessionCfg, strat, field.Obstacles())
	if err != nil {
		return err
	}
	log.Printf("session %s: %s scan of %v among %d trees (seed %d)",
		session.ID(), strat.Kind(), sessionCfg.Bounds, len(field), cfg.GetSeed())

	store := scan.NewSnapshotStore()
	runnerCfg := scan.RunnerConfigFromScan(cfg)
	runnerCfg.MaxCycles = opts.Cycles
	runnerCfg.MaxTicks = opts.MaxTicks
	if opts.Listen == "" {
		// Nobody is watching, so run ticks back to back.
		runnerCfg.Interval = 0
	}

	var sessions *db.SessionStore
	if opts.DBPath != "" {
		database, err := db.Open(opts.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		sessions = db.NewSessionStore(database.DB)
		if err := recordSession(sessions, session, strat.Kind(), cfg, field); err != nil {
			return err
		}
		rec := db.NewRecorder(sessions, session.ID())
		session.AddObserver(rec)
		runnerCfg.OnSample = rec.OnSample
		defer func() {
			if n := rec.Failures(); n > 0 {
				log.Printf("%d writes to %s failed", n, opts.DBPath)
			}
		}()
	}

	runner := scan.NewRunner(session, store, runnerCfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := runner.Run(gctx); err != nil {
			return fmt.Errorf("runner: %w", err)
		}
		log.Printf("runner stopped after %d completed cycles", runner.CompletedCycles())
		return nil
	})
	if opts.Listen != "" {
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address:  opts.Listen,
			Store:    store,
			Sessions: sessions,
		})
		g.Go(func() error { return ws.Start(gctx) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	st := report.SummarizeCycles(store.Cycles())
	log.Printf("%d cycles: mean coverage %.2f%%, min %.2f%%, mean ticks %.0f, %d detours, %d uncorrected, %d risk points",
		st.Cycles, st.MeanCoverage, st.MinCoverage, st.MeanTicks, st.Detours, st.Uncorrected, st.RiskPoints)

	return writeOutputs(opts, store)
}

func recordSession(sessions *db.SessionStore, session *scan.Session, kind planner.Kind, cfg *config.ScanConfig, field geom.ObstacleField) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	rec := &db.SessionRecord{
		SessionID:  session.ID(),
		Strategy:   kind,
		Seed:       cfg.GetSeed(),
		ConfigJSON: string(cfgJSON),
		Bounds:     session.Bounds(),
	}
	if err := sessions.InsertSession(rec); err != nil {
		return err
	}
	return sessions.InsertObstacles(session.ID(), field)
}

func writeOutputs(opts options, store *scan.SnapshotStore) error {
	if opts.PlotPath != "" {
		snap, ok := store.LastCycleEnd()
		if !ok {
			snap, ok = store.Latest()
		}
		if !ok {
			return errors.New("no snapshot to plot")
		}
		p, err := report.PlotScan(snap)
		if err != nil {
			return err
		}
		if err := report.SavePlot(p, opts.PlotPath); err != nil {
			return err
		}
		log.Printf("wrote %s", opts.PlotPath)
	}

	if opts.ChartPath != "" {
		f, err := os.Create(opts.ChartPath)
		if err != nil {
			return fmt.Errorf("create chart: %w", err)
		}
		title := "Coverage"
		if snap, ok := store.Latest(); ok {
			title = fmt.Sprintf("Coverage (%s)", snap.Strategy)
		}
		if err := report.CoverageChart(f, title, store.Samples()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close chart: %w", err)
		}
		log.Printf("wrote %s", opts.ChartPath)
	}
	return nil
}
