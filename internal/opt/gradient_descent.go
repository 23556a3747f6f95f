package opt

import (
	"context"

	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

const momentum = 0.9

// GradientDescentOptimizer is plain gradient descent with heavy-ball momentum:
// v = momentum·v + lr·g, params -= v
type GradientDescentOptimizer struct {
	config Config
}

func NewGradientDescent(config Config) *GradientDescentOptimizer {
	return &GradientDescentOptimizer{config: config}
}

func (o *GradientDescentOptimizer) Optimize(ctx context.Context, f cost.Function, initial []float64) (*Result, error) {
	if err := checkInitial(f, initial); err != nil {
		return nil, err
	}
	params := append([]float64(nil), initial...)
	velocity := make([]float64, len(params))
	tr := NewTracker(GradientDescent, o.config, GradientNorm, initial, f.Evaluations())

	for iter := 0; iter < o.config.MaxIterations; iter++ {
		grad, done, err := gradientStep(ctx, f, tr, o.config, iter, params)
		if err != nil {
			return tr.Result(iter, false, f.Evaluations()), err
		}
		if done {
			return tr.Result(iter+1, true, f.Evaluations()), nil
		}

		for i, g := range grad {
			velocity[i] = momentum*velocity[i] + o.config.LearningRate*g
			params[i] -= velocity[i]
		}
	}

	return tr.Result(o.config.MaxIterations, false, f.Evaluations()), nil
}
