// Package planner builds the reference coverage path for one scan cycle.
//
// Three strategies are supported. A Spiral is analytic and advanced one
// tick at a time by the stepper. Boustrophedon and Tour materialise a
// waypoint list that is passed through the safety adjuster before it is
// handed out, so every returned waypoint keeps the configured gap from
// every obstacle unless it is reported as a RiskPoint.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/forest.scan/internal/config"
	"github.com/banshee-data/forest.scan/internal/geom"
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognised names.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Kind identifies a strategy.
type Kind int

const (
	KindSpiral Kind = iota
	KindBoustrophedon
	KindTour
)

func (k Kind) String() string {
	switch k {
	case KindSpiral:
		return config.StrategySpiral
	case KindBoustrophedon:
		return config.StrategyBoustrophedon
	case KindTour:
		return config.StrategyTour
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText lets Kind appear by name in JSON snapshots.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseStrategy maps a configuration name to a Kind.
func ParseStrategy(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case config.StrategySpiral:
		return KindSpiral, nil
	case config.StrategyBoustrophedon:
		return KindBoustrophedon, nil
	case config.StrategyTour:
		return KindTour, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Strategy is the closed set of path generators: *Spiral, Boustrophedon
// and Tour. The unexported plan method keeps other packages from adding
// variants.
type Strategy interface {
	Kind() Kind
	plan(ctx context.Context, p *Planner, obstacles []geom.Obstacle, bounds geom.Bounds) (*Plan, error)
}

// StrategyFromScan builds the strategy named in cfg for the given bounds.
func StrategyFromScan(cfg *config.ScanConfig, bounds geom.Bounds) (Strategy, error) {
	kind, err := ParseStrategy(cfg.GetStrategy())
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindSpiral:
		return NewSpiralForBounds(bounds, cfg.GetScanWidth(), cfg.GetExtendPercent(),
			cfg.GetAngularSpeedDeg(), cfg.GetArmGapFraction()), nil
	case KindBoustrophedon:
		return Boustrophedon{
			RowSpacing: cfg.GetRowSpacing(),
			Step:       cfg.GetSweepStep(),
		}, nil
	default:
		return Tour{}, nil
	}
}
