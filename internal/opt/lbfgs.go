package opt

import (
	"context"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

const (
	lbfgsMemory = 10

	// curvature pairs with s·y at or below this are dropped
	lbfgsMinCurvature = 1e-10
)

// LBFGSOptimizer is limited-memory BFGS with a fixed step length equal to
// the learning rate. There is no line search.
type LBFGSOptimizer struct {
	config Config
}

func NewLBFGS(config Config) *LBFGSOptimizer {
	return &LBFGSOptimizer{config: config}
}

func (o *LBFGSOptimizer) Optimize(ctx context.Context, f cost.Function, initial []float64) (*Result, error) {
	if err := checkInitial(f, initial); err != nil {
		return nil, err
	}
	params := append([]float64(nil), initial...)
	tr := NewTracker(LBFGS, o.config, GradientNorm, initial, f.Evaluations())

	var (
		sList, yList [][]float64
		prevParams   []float64
		prevGrad     []float64
	)

	for iter := 0; iter < o.config.MaxIterations; iter++ {
		grad, done, err := gradientStep(ctx, f, tr, o.config, iter, params)
		if err != nil {
			return tr.Result(iter, false, f.Evaluations()), err
		}
		if done {
			return tr.Result(iter+1, true, f.Evaluations()), nil
		}

		if prevGrad != nil {
			s := make([]float64, len(params))
			floats.SubTo(s, params, prevParams)
			y := make([]float64, len(params))
			floats.SubTo(y, grad, prevGrad)

			if floats.Dot(s, y) > lbfgsMinCurvature {
				sList = append(sList, s)
				yList = append(yList, y)
				if len(sList) > lbfgsMemory {
					sList, yList = sList[1:], yList[1:]
				}
			}
		}

		direction := twoLoop(grad, sList, yList)

		prevParams = append(prevParams[:0], params...)
		prevGrad = grad
		floats.AddScaled(params, -o.config.LearningRate, direction)
	}

	return tr.Result(o.config.MaxIterations, false, f.Evaluations()), nil
}

// twoLoop applies the inverse Hessian approximation to grad. The initial
// approximation is scaled by (s·y)/(y·y) of the newest pair.
func twoLoop(grad []float64, sList, yList [][]float64) []float64 {
	q := append([]float64(nil), grad...)
	k := len(sList)
	alpha := make([]float64, k)
	rho := make([]float64, k)

	for i := k - 1; i >= 0; i-- {
		rho[i] = 1 / floats.Dot(sList[i], yList[i])
		alpha[i] = rho[i] * floats.Dot(sList[i], q)
		floats.AddScaled(q, -alpha[i], yList[i])
	}

	if k > 0 {
		gamma := floats.Dot(sList[k-1], yList[k-1]) / floats.Dot(yList[k-1], yList[k-1])
		floats.Scale(gamma, q)
	}

	for i := 0; i < k; i++ {
		beta := rho[i] * floats.Dot(yList[i], q)
		floats.AddScaled(q, alpha[i]-beta, sList[i])
	}
	return q
}
