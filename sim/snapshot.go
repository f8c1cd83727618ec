package sim

import "math"

// Snapshot is the single-instant evaluation of the cascade.
// Flows[0] is the boundary inflow and Levels[0] the upstream level; entry i+1
// belongs to gate i. Both have length N+1.
type Snapshot struct {
	Flows  []float64 `json:"flows"`
	Levels []float64 `json:"levels"`
}

// SimulateSnapshot applies the discharge law down the chain once.
//
// Each gate sees the fixed tailwater offset rather than the next segment's
// level, and the next level is y - q·dt/(w·L) clamped at zero. There is no
// time stepping here; cfg.SnapshotDt only scales the single level decrement.
// The plain discharge law applies, without the dry-segment taper of the
// transient simulator, so an empty segment still releases the floored flow.
func SimulateSnapshot(cfg CascadeConfig, inflow float64, openings []float64, upstreamLevel float64) (*Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateOpenings(openings); err != nil {
		return nil, err
	}
	if err := validateFiniteNonNegative("inflow", inflow); err != nil {
		return nil, err
	}
	if err := validateFiniteNonNegative("upstream_level", upstreamLevel); err != nil {
		return nil, err
	}
	return snapshot(cfg, inflow, openings, upstreamLevel), nil
}

func snapshot(cfg CascadeConfig, inflow float64, openings []float64, y float64) *Snapshot {
	n := len(openings)
	s := &Snapshot{
		Flows:  make([]float64, 0, n+1),
		Levels: make([]float64, 0, n+1),
	}
	s.Flows = append(s.Flows, inflow)
	s.Levels = append(s.Levels, y)
	drop := cfg.SnapshotDt / (cfg.GateWidth * cfg.ReachLength)
	for i, h := range openings {
		q := cfg.Discharge(h, cfg.Cd[i], y-cfg.TailwaterOffset)
		y = math.Max(y-q*drop, 0)
		s.Flows = append(s.Flows, q)
		s.Levels = append(s.Levels, y)
	}
	return s
}
