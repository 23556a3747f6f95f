// Package cost turns an ansatz plus a problem into a scalar objective with
// gradients. All cost functions are safe for concurrent use: gradient
// components are evaluated in parallel against a shared evaluation cache.
package cost

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const (
	// ShiftAngle is the parameter-shift offset.
	ShiftAngle = math.Pi / 2

	// FiniteDifferenceStep is the forward-difference step h.
	FiniteDifferenceStep = 1e-7

	// HessianStep is the central-difference step for second derivatives.
	HessianStep = 1e-5
)

// GradientMethod selects how Gradient computes derivatives.
type GradientMethod string

const (
	ParameterShift   GradientMethod = "parameter_shift"
	FiniteDifference GradientMethod = "finite_difference"
	NoGradient       GradientMethod = "none"
)

// ParseGradientMethod maps a name to a GradientMethod.
func ParseGradientMethod(s string) (GradientMethod, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "parameter_shift", "ps", "shift":
		return ParameterShift, nil
	case "finite_difference", "fd":
		return FiniteDifference, nil
	case "none", "":
		return NoGradient, nil
	default:
		return "", fmt.Errorf("unknown gradient method: %s", s)
	}
}

// Evaluator is anything with a scalar objective.
type Evaluator interface {
	Evaluate(params []float64) (float64, error)
}

// Function is the objective consumed by the optimizers.
type Function interface {
	Evaluator

	// Gradient returns df/dparams using the given method. NoGradient
	// yields a zero vector.
	Gradient(ctx context.Context, params []float64, method GradientMethod) ([]float64, error)

	// Dimension is the required parameter count
	Dimension() int

	// Evaluations is the number of Evaluate calls served so far, cache hits
	// included.
	Evaluations() int64
}

// ComputeGradient dispatches on method.
func ComputeGradient(ctx context.Context, f Evaluator, params []float64, method GradientMethod) ([]float64, error) {
	switch method {
	case ParameterShift:
		return ParameterShiftGradient(ctx, f, params)
	case FiniteDifference:
		return FiniteDifferenceGradient(ctx, f, params)
	case NoGradient:
		return make([]float64, len(params)), nil
	default:
		return nil, fmt.Errorf("unknown gradient method: %q", method)
	}
}

// ParameterShiftGradient computes g_i = (f(θ+π/2·e_i) - f(θ-π/2·e_i)) / 2
// for every i in parallel.
func ParameterShiftGradient(ctx context.Context, f Evaluator, params []float64) ([]float64, error) {
	return fanOut(ctx, len(params), func(i int) (float64, error) {
		plus, err := f.Evaluate(shifted(params, i, ShiftAngle))
		if err != nil {
			return 0, err
		}
		minus, err := f.Evaluate(shifted(params, i, -ShiftAngle))
		if err != nil {
			return 0, err
		}
		return (plus - minus) / 2, nil
	})
}

// FiniteDifferenceGradient computes the forward difference
// (f(θ+h·e_i) - f(θ)) / h for every i in parallel.
func FiniteDifferenceGradient(ctx context.Context, f Evaluator, params []float64) ([]float64, error) {
	f0, err := f.Evaluate(params)
	if err != nil {
		return nil, err
	}
	return fanOut(ctx, len(params), func(i int) (float64, error) {
		plus, err := f.Evaluate(shifted(params, i, FiniteDifferenceStep))
		if err != nil {
			return 0, err
		}
		return (plus - f0) / FiniteDifferenceStep, nil
	})
}

// Hessian approximates second derivatives with central differences, four
// evaluations per (i, j) pair with i <= j.
func Hessian(f Evaluator, params []float64) (*mat.SymDense, error) {
	n := len(params)
	h := mat.NewSymDense(n, nil)
	step := HessianStep

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var corners [4]float64
			for k, sign := range [4][2]float64{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
				p := append([]float64(nil), params...)
				p[i] += sign[0] * step
				p[j] += sign[1] * step
				v, err := f.Evaluate(p)
				if err != nil {
					return nil, fmt.Errorf("hessian (%d,%d): %w", i, j, err)
				}
				corners[k] = v
			}
			h.SetSym(i, j, (corners[0]-corners[1]-corners[2]+corners[3])/(4*step*step))
		}
	}
	return h, nil
}

// fanOut evaluates component(i) for i in [0, n) on a bounded worker pool.
// Each result lands at its own index, so the output does not depend on
// completion order.
func fanOut(ctx context.Context, n int, component func(i int) (float64, error)) ([]float64, error) {
	out := make([]float64, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := component(i)
			if err != nil {
				return fmt.Errorf("gradient component %d: %w", i, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func shifted(params []float64, i int, delta float64) []float64 {
	p := append([]float64(nil), params...)
	p[i] += delta
	return p
}

// counter is embedded by the cost functions to implement Evaluations.
type counter struct {
	n atomic.Int64
}

func (c *counter) Evaluations() int64 { return c.n.Load() }

func (c *counter) inc() { c.n.Add(1) }

// Func adapts a plain objective, with an optional analytic gradient, to
// Function. When Grad is set it is used for every method except NoGradient.
type Func struct {
	counter
	dim  int
	f    func([]float64) float64
	grad func([]float64) []float64
}

// NewFunc wraps f. grad may be nil.
func NewFunc(dim int, f func([]float64) float64, grad func([]float64) []float64) *Func {
	return &Func{dim: dim, f: f, grad: grad}
}

func (fn *Func) Evaluate(params []float64) (float64, error) {
	if len(params) != fn.dim {
		return 0, dimensionError(fn.dim, len(params))
	}
	fn.inc()
	return fn.f(params), nil
}

func (fn *Func) Gradient(ctx context.Context, params []float64, method GradientMethod) ([]float64, error) {
	if len(params) != fn.dim {
		return nil, dimensionError(fn.dim, len(params))
	}
	if fn.grad != nil && method != NoGradient {
		return fn.grad(params), nil
	}
	return ComputeGradient(ctx, fn, params, method)
}

func (fn *Func) Dimension() int { return fn.dim }
