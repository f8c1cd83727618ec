package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewton_LinearSystem_ExactRoot(t *testing.T) {
	// GIVEN 2x + y = 3 and x + 3y = 5
	f := func(dst, x []float64) {
		dst[0] = 2*x[0] + x[1] - 3
		dst[1] = x[0] + 3*x[1] - 5
	}

	// WHEN solved from the origin
	res := Newton{}.Solve(f, []float64{0, 0})

	// THEN the root is (0.8, 1.4)
	require.True(t, res.Converged)
	assert.InDelta(t, 0.8, res.X[0], 1e-9)
	assert.InDelta(t, 1.4, res.X[1], 1e-9)
	assert.LessOrEqual(t, res.Residual, DefaultTolerance)
}

func TestNewton_CoupledNonlinearSystem(t *testing.T) {
	// x² + y² = 4, x = y  →  x = y = √2
	f := func(dst, x []float64) {
		dst[0] = x[0]*x[0] + x[1]*x[1] - 4
		dst[1] = x[0] - x[1]
	}
	res := Newton{}.Solve(f, []float64{1, 0.5})
	require.True(t, res.Converged)
	assert.InDelta(t, math.Sqrt2, res.X[0], 1e-7)
	assert.InDelta(t, math.Sqrt2, res.X[1], 1e-7)
}

func TestNewton_DoesNotModifySeed(t *testing.T) {
	f := func(dst, x []float64) { dst[0] = x[0]*x[0] - 4 }
	seed := []float64{1}
	res := Newton{}.Solve(f, seed)
	assert.True(t, res.Converged)
	assert.InDelta(t, 2, res.X[0], 1e-9)
	assert.Equal(t, []float64{1}, seed)
}

func TestNewton_NoRoot_ReturnsLastIterateUnconverged(t *testing.T) {
	// x² + 1 has no real root
	f := func(dst, x []float64) { dst[0] = x[0]*x[0] + 1 }
	res := Newton{}.Solve(f, []float64{1})
	assert.False(t, res.Converged)
	assert.False(t, math.IsNaN(res.X[0]) || math.IsInf(res.X[0], 0))
	assert.GreaterOrEqual(t, res.Residual, 1.0)
}

func TestNewton_SingularJacobian_StopsImmediately(t *testing.T) {
	f := func(dst, x []float64) { dst[0] = 1 }
	res := Newton{}.Solve(f, []float64{3})
	assert.False(t, res.Converged)
	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, []float64{3}, res.X)
}

func TestNewton_MaxIterationsRespected(t *testing.T) {
	f := func(dst, x []float64) { dst[0] = x[0]*x[0] - 4 }
	res := Newton{MaxIterations: 1}.Solve(f, []float64{100})
	assert.LessOrEqual(t, res.Iterations, 1)
	assert.False(t, res.Converged)
}

func TestNewton_AlreadyAtRoot_ZeroIterations(t *testing.T) {
	f := func(dst, x []float64) { dst[0] = x[0] - 2 }
	res := Newton{}.Solve(f, []float64{2})
	assert.True(t, res.Converged)
	assert.Equal(t, 0, res.Iterations)
}
