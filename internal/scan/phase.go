package scan

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for a phase change the stepper does not
// allow.
var ErrInvalidTransition = errors.New("invalid phase transition")

// Phase is the stepper state within a cycle.
type Phase int

const (
	PhasePlanning Phase = iota
	PhaseExecuting
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhasePlanning:
		return "planning"
	case PhaseExecuting:
		return "executing"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText lets Phase appear by name in JSON snapshots.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// transition validates a phase change. Planning may also be re-entered
// from any phase by an explicit reset.
func transition(from, to Phase) (Phase, error) {
	switch {
	case from == PhasePlanning && to == PhaseExecuting,
		from == PhaseExecuting && to == PhaseComplete,
		from == PhaseComplete && to == PhasePlanning:
		return to, nil
	}
	return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
