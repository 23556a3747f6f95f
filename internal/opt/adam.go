package opt

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// AdamOptimizer is Adam with bias-corrected moment estimates
type AdamOptimizer struct {
	config Config
}

// NewAdam creates an Adam optimizer
func NewAdam(config Config) *AdamOptimizer {
	return &AdamOptimizer{config: config}
}

func (a *AdamOptimizer) Optimize(ctx context.Context, f cost.Function, initial []float64) (*Result, error) {
	if err := checkInitial(f, initial); err != nil {
		return nil, err
	}
	params := append([]float64(nil), initial...)
	tr := NewTracker(Adam, a.config, GradientNorm, initial, f.Evaluations())

	m := make([]float64, len(params))
	v := make([]float64, len(params))

	for iter := 0; iter < a.config.MaxIterations; iter++ {
		grad, done, err := gradientStep(ctx, f, tr, a.config, iter, params)
		if err != nil {
			return tr.Result(iter, false, f.Evaluations()), err
		}
		if done {
			return tr.Result(iter+1, true, f.Evaluations()), nil
		}

		t := float64(iter + 1)
		c1 := 1 - math.Pow(adamBeta1, t)
		c2 := 1 - math.Pow(adamBeta2, t)
		for i, g := range grad {
			m[i] = adamBeta1*m[i] + (1-adamBeta1)*g
			v[i] = adamBeta2*v[i] + (1-adamBeta2)*g*g
			params[i] -= a.config.LearningRate * (m[i] / c1) / (math.Sqrt(v[i]/c2) + adamEpsilon)
		}
	}

	return tr.Result(a.config.MaxIterations, false, f.Evaluations()), nil
}

// gradientStep evaluates cost and gradient at params, records them and runs
// the stop criteria. It is the shared head of every gradient-based loop.
func gradientStep(ctx context.Context, f cost.Function, tr *Tracker, config Config, iter int, params []float64) ([]float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	c, err := f.Evaluate(params)
	if err != nil {
		return nil, false, err
	}
	grad, err := f.Gradient(ctx, params, config.GradientMethod)
	if err != nil {
		return nil, false, err
	}

	norm := floats.Norm(grad, 2)
	tr.Record(iter, params, c, &norm, f.Evaluations())
	return grad, tr.Check(iter, c, norm), nil
}
