// Package sim provides the hydraulic engine for a cascade of sluice gates.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - config.go: CascadeConfig, the explicit physical description passed into every call
//   - discharge.go: the orifice discharge law and its head floor
//   - snapshot.go: the single-instant model (one pass down the chain, no time stepping)
//   - transient.go: the time-stepped simulator with an implicit per-step mass balance
//
// # Architecture
//
// The sim package owns the model; collaborators live in sub-packages:
//   - sim/solver/: root finding for the per-step N×N nonlinear system
//   - sim/optim/: bounded multivariate minimizers (objective → scalar loss)
//   - sim/control/: steady-state and goal-directed gate-opening optimizers
//   - sim/trace/: opt-in recording of optimizer evaluations
//   - sim/scenario/: YAML scenario files mapped onto library inputs
//
// Every entry point is a pure function of its inputs and returns freshly
// allocated results, so independent calls may run concurrently.
package sim
