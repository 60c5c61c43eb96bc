// Package geom holds the planar types and stateless geometry helpers shared
// by the coverage, planner, avoidance and scan packages.
//
// Points and bounds are gonum r2 values so callers can use the r2 vector
// functions directly. Nothing in this package holds state.
package geom
