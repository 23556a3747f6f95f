package cost

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/metatronqso/internal/hamiltonian"
	"github.com/cwbudde/metatronqso/internal/quantum"
	"github.com/cwbudde/metatronqso/internal/vqa/ansatz"
)

func sumCos(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += math.Cos(v)
	}
	return s
}

func rampHamiltonian(t *testing.T) *hamiltonian.Hamiltonian {
	t.Helper()
	m := mat.NewSymDense(quantum.Dimension, nil)
	for k := 0; k < quantum.Dimension; k++ {
		m.SetSym(k, k, float64(k))
	}
	h, err := hamiltonian.FromMatrix(m)
	require.NoError(t, err)
	return h
}

func TestParameterShiftOnCosine(t *testing.T) {
	params := []float64{0.3, -1.2, 2.5, 0}
	f := NewFunc(len(params), sumCos, nil)

	grad, err := f.Gradient(context.Background(), params, ParameterShift)
	require.NoError(t, err)

	for i, p := range params {
		if math.Abs(grad[i]+math.Sin(p)) > 1e-6 {
			t.Errorf("Expected gradient %f at %d, got %f", -math.Sin(p), i, grad[i])
		}
	}
	if f.Evaluations() != int64(2*len(params)) {
		t.Errorf("Expected %d evaluations, got %d", 2*len(params), f.Evaluations())
	}
}

func TestFiniteDifferenceAgreesWithParameterShift(t *testing.T) {
	params := []float64{0.7, 1.9, -0.4}
	f := NewFunc(len(params), sumCos, nil)

	ps, err := ParameterShiftGradient(context.Background(), f, params)
	require.NoError(t, err)
	fd, err := FiniteDifferenceGradient(context.Background(), f, params)
	require.NoError(t, err)

	for i := range params {
		assert.InDelta(t, ps[i], fd[i], 1e-5, "component %d", i)
	}
}

func TestNoGradientIsZero(t *testing.T) {
	f := NewFunc(3, sumCos, nil)
	grad, err := f.Gradient(context.Background(), []float64{1, 2, 3}, NoGradient)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, grad)
	assert.Zero(t, f.Evaluations())
}

func TestAnalyticGradientPreferred(t *testing.T) {
	f := NewFunc(1, func(x []float64) float64 { return x[0] * x[0] }, func(x []float64) []float64 {
		return []float64{2 * x[0]}
	})
	grad, err := f.Gradient(context.Background(), []float64{3}, ParameterShift)
	require.NoError(t, err)
	assert.Equal(t, []float64{6}, grad)
	assert.Zero(t, f.Evaluations())
}

func TestGradientHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFunc(4, sumCos, nil)
	_, err := ParameterShiftGradient(ctx, f, make([]float64, 4))
	require.ErrorIs(t, err, context.Canceled)
}

func TestHessian(t *testing.T) {
	f := NewFunc(2, func(x []float64) float64 { return x[0]*x[0] + 3*x[0]*x[1] }, nil)
	h, err := Hessian(f, []float64{0.5, -0.25})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, h.At(0, 0), 1e-3)
	assert.InDelta(t, 3.0, h.At(0, 1), 1e-3)
	assert.InDelta(t, 3.0, h.At(1, 0), 1e-3)
	assert.InDelta(t, 0.0, h.At(1, 1), 1e-3)
}

func TestCacheKey(t *testing.T) {
	if got := Key([]float64{1, 0.5}); got != "1.0000000000,0.5000000000" {
		t.Errorf("Expected fixed precision key, got %q", got)
	}
	assert.Equal(t, Key([]float64{0.1}), Key([]float64{0.1 + 1e-13}))
	assert.NotEqual(t, Key([]float64{0.1}), Key([]float64{0.1 + 1e-9}))
}

func TestVQECachesEvaluations(t *testing.T) {
	h := hamiltonian.Default()
	a := ansatz.NewHardwareEfficient(1)
	c := NewVQE(h, a, quantum.UniformSuperposition())

	params := make([]float64, a.NumParameters())
	params[0] = 0.4
	first, err := c.Evaluate(params)
	require.NoError(t, err)
	second, err := c.Evaluate(params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.Cache().Len())
	assert.Equal(t, int64(1), c.Cache().Hits())
	assert.Equal(t, int64(2), c.Evaluations())
}

func TestVQEIdentityCircuitOnGroundState(t *testing.T) {
	h := hamiltonian.Default()
	a := ansatz.NewHardwareEfficient(2)
	c := NewVQE(h, a, h.GroundState())

	e, err := c.Evaluate(make([]float64, a.NumParameters()))
	require.NoError(t, err)
	assert.InDelta(t, h.GroundStateEnergy(), e, 1e-9)
}

func TestVQEWrongDimension(t *testing.T) {
	c := NewVQE(hamiltonian.Default(), ansatz.NewHardwareEfficient(1), quantum.UniformSuperposition())

	_, err := c.Evaluate([]float64{1, 2})
	require.ErrorIs(t, err, quantum.ErrDimensionMismatch)
	_, err = c.Gradient(context.Background(), []float64{1, 2}, ParameterShift)
	require.ErrorIs(t, err, quantum.ErrDimensionMismatch)
	assert.Zero(t, c.Evaluations())
}

func TestVQEBoundedBySpectrum(t *testing.T) {
	h := rampHamiltonian(t)
	a := ansatz.NewEfficientSU2(2)
	c := NewVQE(h, a, quantum.UniformSuperposition())

	params := make([]float64, a.NumParameters())
	for i := range params {
		params[i] = math.Sin(float64(i))
	}
	e, err := c.Evaluate(params)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, e, -1e-9)
	assert.LessOrEqual(t, e, 12+1e-9)
}

func TestQAOAZeroAnglesGiveUniformExpectation(t *testing.T) {
	costH := rampHamiltonian(t)
	c, err := NewQAOA(costH, hamiltonian.Default(), 3)
	require.NoError(t, err)

	if c.Dimension() != 6 {
		t.Fatalf("Expected 6 parameters, got %d", c.Dimension())
	}
	e, err := c.Evaluate(make([]float64, 6))
	require.NoError(t, err)
	assert.InDelta(t, 6.0, e, 1e-9)
}

func TestQAOAStateIsNormalized(t *testing.T) {
	c, err := NewQAOA(rampHamiltonian(t), hamiltonian.Default(), 2)
	require.NoError(t, err)

	psi, err := c.State([]float64{0.3, 1.1, 0.2, 0.9})
	require.NoError(t, err)
	assert.True(t, psi.IsNormalized(1e-10))

	_, err = c.Evaluate([]float64{0.3})
	require.ErrorIs(t, err, quantum.ErrDimensionMismatch)
}

func TestNewQAOAValidation(t *testing.T) {
	_, err := NewQAOA(nil, hamiltonian.Default(), 1)
	assert.Error(t, err)
	_, err = NewQAOA(hamiltonian.Default(), hamiltonian.Default(), 0)
	assert.Error(t, err)
}

func TestCrossEntropy(t *testing.T) {
	assert.InDelta(t, math.Log(2), CrossEntropy(0.5, 0), 1e-12)
	assert.InDelta(t, math.Log(2), CrossEntropy(0.5, 1), 1e-12)
	assert.Less(t, CrossEntropy(1, 0), 1e-9)

	worst := CrossEntropy(0, 0)
	assert.False(t, math.IsInf(worst, 0), "clamped loss must stay finite")
	assert.InDelta(t, -math.Log(ProbabilityClamp), worst, 1e-9)
}

func TestVQCUniformSamples(t *testing.T) {
	a := ansatz.NewHardwareEfficient(1)
	samples := []quantum.State{quantum.UniformSuperposition(), quantum.UniformSuperposition()}
	c, err := NewVQC(a, samples, []int{0, 0})
	require.NoError(t, err)

	loss, err := c.Evaluate(make([]float64, a.NumParameters()))
	require.NoError(t, err)
	assert.InDelta(t, math.Log(quantum.Dimension), loss, 1e-9)
}

func TestNewVQCValidation(t *testing.T) {
	a := ansatz.NewHardwareEfficient(1)
	_, err := NewVQC(a, nil, nil)
	assert.Error(t, err)

	_, err = NewVQC(a, []quantum.State{quantum.UniformSuperposition()}, []int{0, 1})
	require.ErrorIs(t, err, quantum.ErrDimensionMismatch)

	_, err = NewVQC(a, []quantum.State{quantum.UniformSuperposition()}, []int{2})
	assert.Error(t, err)
}

func TestParseGradientMethod(t *testing.T) {
	m, err := ParseGradientMethod("parameter-shift")
	require.NoError(t, err)
	assert.Equal(t, ParameterShift, m)

	m, err = ParseGradientMethod("fd")
	require.NoError(t, err)
	assert.Equal(t, FiniteDifference, m)

	_, err = ParseGradientMethod("newton")
	assert.Error(t, err)
}
