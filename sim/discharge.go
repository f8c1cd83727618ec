package sim

import "math"

// Discharge applies the orifice law q = Cd·(h·w)·sqrt(2·g·max(Δy, ε)).
//
// The head floor ε is a numerical-stability policy, not a physical claim: it
// applies unconditionally, so equal or inverted levels still produce the flow
// of a head of ε. The result is finite and non-negative for finite
// non-negative h and cd.
func (c CascadeConfig) Discharge(h, cd, head float64) float64 {
	return cd * h * c.GateWidth * math.Sqrt(2*c.Gravity*math.Max(head, c.HeadFloor))
}

// Outflow is the discharge through gate i between an upstream and a downstream
// level. A segment drier than the head floor can only release a proportional
// share of the floored discharge, which lets an unfed cascade drain to zero
// flow; above the floor this is exactly Discharge.
func (c CascadeConfig) Outflow(i int, h, upstream, downstream float64) float64 {
	return c.Discharge(h, c.Cd[i], upstream-downstream) * c.wetFraction(upstream)
}

func (c CascadeConfig) wetFraction(level float64) float64 {
	if level >= c.HeadFloor {
		return 1
	}
	if level <= 0 {
		return 0
	}
	return level / c.HeadFloor
}
