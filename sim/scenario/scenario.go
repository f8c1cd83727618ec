// Package scenario loads cascade scenarios from YAML and maps them onto the
// inputs of the sim and sim/control packages.
package scenario

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gatecascade/gatecascade/sim"
	"github.com/gatecascade/gatecascade/sim/control"
	"github.com/gatecascade/gatecascade/sim/optim"
	"github.com/gatecascade/gatecascade/sim/trace"
)

// Scenario is the top-level scenario document.
// Loaded from YAML via Load(path); the same shape is accepted as JSON by the HTTP API.
type Scenario struct {
	Version        string         `yaml:"version" json:"version"`
	Name           string         `yaml:"name,omitempty" json:"name,omitempty"`
	Cascade        CascadeSpec    `yaml:"cascade" json:"cascade"`
	Inflow         float64        `yaml:"inflow" json:"inflow"`
	UpstreamLevel  float64        `yaml:"upstream_level" json:"upstream_level"` // single-step model only
	InitialLevels  []float64      `yaml:"initial_levels" json:"initial_levels"`
	Openings       []float64      `yaml:"openings,omitempty" json:"openings,omitempty"`
	Dt             float64        `yaml:"dt" json:"dt"`
	HorizonSeconds float64        `yaml:"horizon_seconds,omitempty" json:"horizon_seconds,omitempty"`
	Steps          int            `yaml:"steps,omitempty" json:"steps,omitempty"` // overrides horizon_seconds when set
	InflowSeries   []float64      `yaml:"inflow_series,omitempty" json:"inflow_series,omitempty"`
	Goal           *GoalSpec      `yaml:"goal,omitempty" json:"goal,omitempty"`
	Optimizer      *OptimizerSpec `yaml:"optimizer,omitempty" json:"optimizer,omitempty"`
}

// CascadeSpec overrides the default cascade. Zero fields keep the default.
type CascadeSpec struct {
	Gravity               float64   `yaml:"gravity,omitempty" json:"gravity,omitempty"`
	HeadFloor             float64   `yaml:"head_floor,omitempty" json:"head_floor,omitempty"`
	TailwaterOffset       *float64  `yaml:"tailwater_offset,omitempty" json:"tailwater_offset,omitempty"`
	ReachLength           float64   `yaml:"reach_length,omitempty" json:"reach_length,omitempty"`
	ReservoirArea         float64   `yaml:"reservoir_area,omitempty" json:"reservoir_area,omitempty"`
	GateWidth             float64   `yaml:"gate_width,omitempty" json:"gate_width,omitempty"`
	DischargeCoefficients []float64 `yaml:"discharge_coefficients,omitempty" json:"discharge_coefficients,omitempty"`
	OpeningMin            float64   `yaml:"opening_min,omitempty" json:"opening_min,omitempty"`
	OpeningMax            float64   `yaml:"opening_max,omitempty" json:"opening_max,omitempty"`
	SnapshotDt            float64   `yaml:"snapshot_dt,omitempty" json:"snapshot_dt,omitempty"`
}

// GoalSpec configures the goal-directed optimizer. Exactly one of
// target_flow and target_levels is used; target_levels wins when both are set.
type GoalSpec struct {
	TargetFlow    *float64  `yaml:"target_flow,omitempty" json:"target_flow,omitempty"`
	TargetLevels  []float64 `yaml:"target_levels,omitempty" json:"target_levels,omitempty"`
	LevelMin      float64   `yaml:"level_min" json:"level_min"`
	LevelMax      float64   `yaml:"level_max" json:"level_max"`
	PenaltyWeight *float64  `yaml:"penalty_weight,omitempty" json:"penalty_weight,omitempty"` // default 100
}

// OptimizerSpec configures the minimizer and optional search tracing.
type OptimizerSpec struct {
	Method            string  `yaml:"method,omitempty" json:"method,omitempty"`
	MaxEvaluations    int     `yaml:"max_evaluations,omitempty" json:"max_evaluations,omitempty"`
	MaxRuntimeSeconds float64 `yaml:"max_runtime_seconds,omitempty" json:"max_runtime_seconds,omitempty"`
	Trace             string  `yaml:"trace,omitempty" json:"trace,omitempty"`
	TraceMaxRecords   int     `yaml:"trace_max_records,omitempty" json:"trace_max_records,omitempty"`
}

// Load reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML scenario document with strict field checking.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &s, nil
}

// Validate checks that all fields in the scenario are valid.
func (s *Scenario) Validate() error {
	cfg := s.CascadeConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("cascade: %w", err)
	}
	if err := validateFiniteNonNegative("inflow", s.Inflow); err != nil {
		return err
	}
	if err := validateFiniteNonNegative("upstream_level", s.UpstreamLevel); err != nil {
		return err
	}
	if s.Dt <= 0 || math.IsNaN(s.Dt) || math.IsInf(s.Dt, 0) {
		return fmt.Errorf("dt must be a finite positive number, got %f", s.Dt)
	}
	if s.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", s.Steps)
	}
	if s.Steps == 0 && !(s.HorizonSeconds > 0) {
		return fmt.Errorf("either steps or a positive horizon_seconds is required")
	}
	if len(s.InitialLevels) != cfg.Gates() {
		return fmt.Errorf("initial_levels: need %d values (one per gate), got %d", cfg.Gates(), len(s.InitialLevels))
	}
	if len(s.Openings) > 0 {
		if err := cfg.ValidateOpenings(s.Openings); err != nil {
			return fmt.Errorf("openings: %w", err)
		}
	}
	if s.Goal != nil {
		if s.Goal.TargetFlow == nil && len(s.Goal.TargetLevels) == 0 {
			return fmt.Errorf("goal: target_flow or target_levels is required")
		}
		if err := s.GoalInputs().Validate(cfg); err != nil {
			return fmt.Errorf("goal: %w", err)
		}
	}
	if o := s.Optimizer; o != nil {
		if !optim.IsValidMethod(o.Method) {
			return fmt.Errorf("optimizer: unknown method %q; valid: nelder-mead, lbfgs", o.Method)
		}
		if o.MaxEvaluations < 0 {
			return fmt.Errorf("optimizer: max_evaluations must be non-negative, got %d", o.MaxEvaluations)
		}
		if o.MaxRuntimeSeconds < 0 || math.IsNaN(o.MaxRuntimeSeconds) {
			return fmt.Errorf("optimizer: max_runtime_seconds must be non-negative, got %f", o.MaxRuntimeSeconds)
		}
		if !trace.IsValidTraceLevel(o.Trace) {
			return fmt.Errorf("optimizer: unknown trace level %q; valid: none, evaluations", o.Trace)
		}
	}
	return nil
}

// CascadeConfig returns the default cascade with the scenario's overrides applied.
func (s *Scenario) CascadeConfig() sim.CascadeConfig {
	cfg := sim.DefaultCascadeConfig()
	c := s.Cascade
	override := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	override(&cfg.Gravity, c.Gravity)
	override(&cfg.HeadFloor, c.HeadFloor)
	override(&cfg.ReachLength, c.ReachLength)
	override(&cfg.ReservoirArea, c.ReservoirArea)
	override(&cfg.GateWidth, c.GateWidth)
	override(&cfg.OpeningMin, c.OpeningMin)
	override(&cfg.OpeningMax, c.OpeningMax)
	override(&cfg.SnapshotDt, c.SnapshotDt)
	if c.TailwaterOffset != nil {
		cfg.TailwaterOffset = *c.TailwaterOffset
	}
	if len(c.DischargeCoefficients) > 0 {
		cfg.Cd = append([]float64(nil), c.DischargeCoefficients...)
	}
	return cfg
}

// StepCount returns Steps, or horizon_seconds / dt rounded down (at least 1).
func (s *Scenario) StepCount() int {
	if s.Steps > 0 {
		return s.Steps
	}
	if s.Dt <= 0 {
		return 0
	}
	return max(int(math.Floor(s.HorizonSeconds/s.Dt)), 1)
}

// SimOpenings returns the configured openings, or the midpoint guess.
func (s *Scenario) SimOpenings() []float64 {
	if len(s.Openings) > 0 {
		return append([]float64(nil), s.Openings...)
	}
	return s.CascadeConfig().InitialOpenings()
}

// Inputs returns the transient simulator inputs.
func (s *Scenario) Inputs() sim.Inputs {
	return sim.Inputs{
		Inflow:        s.Inflow,
		Openings:      s.SimOpenings(),
		InitialLevels: append([]float64(nil), s.InitialLevels...),
		Dt:            s.Dt,
		Steps:         s.StepCount(),
		InflowSeries:  append([]float64(nil), s.InflowSeries...),
	}
}

// GoalInputs returns the goal-directed optimizer inputs. A scenario without a
// goal block yields a zero goal.
func (s *Scenario) GoalInputs() control.GoalInputs {
	g := control.GoalInputs{Inputs: s.Inputs(), PenaltyWeight: control.DefaultPenaltyWeight}
	if s.Goal == nil {
		return g
	}
	g.LevelMin = s.Goal.LevelMin
	g.LevelMax = s.Goal.LevelMax
	if s.Goal.TargetFlow != nil {
		g.TargetFlow = *s.Goal.TargetFlow
	}
	if len(s.Goal.TargetLevels) > 0 {
		g.TargetLevels = append([]float64(nil), s.Goal.TargetLevels...)
	}
	if s.Goal.PenaltyWeight != nil {
		g.PenaltyWeight = *s.Goal.PenaltyWeight
	}
	return g
}

// Minimizer returns the configured gonum minimizer.
func (s *Scenario) Minimizer() optim.GonumMinimizer {
	m := optim.GonumMinimizer{Method: optim.MethodNelderMead}
	if o := s.Optimizer; o != nil {
		if o.Method != "" {
			m.Method = optim.Method(o.Method)
		}
		m.MaxEvaluations = o.MaxEvaluations
		m.MaxRuntime = time.Duration(o.MaxRuntimeSeconds * float64(time.Second))
	}
	return m
}

// SearchTrace returns a trace for the optimizer search, or nil when tracing is off.
func (s *Scenario) SearchTrace() *trace.SearchTrace {
	if s.Optimizer == nil || trace.TraceLevel(s.Optimizer.Trace) != trace.TraceLevelEvaluations {
		return nil
	}
	return trace.NewSearchTrace(trace.TraceConfig{
		Level:      trace.TraceLevelEvaluations,
		MaxRecords: s.Optimizer.TraceMaxRecords,
	})
}

// ControlOptions bundles the minimizer and trace for sim/control calls.
func (s *Scenario) ControlOptions() control.Options {
	return control.Options{Minimizer: s.Minimizer(), Trace: s.SearchTrace()}
}

func validateFiniteNonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val < 0 {
		return fmt.Errorf("%s must be non-negative, got %f", name, val)
	}
	return nil
}
