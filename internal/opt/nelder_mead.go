package opt

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

const (
	nmReflection  = 1.0
	nmExpansion   = 2.0
	nmContraction = 0.5
	nmShrink      = 0.5

	// nmPerturbation seeds vertex i+1 by moving coordinate i
	nmPerturbation = 0.1
)

// NelderMeadOptimizer is the gradient-free downhill simplex method.
//
// The norm test uses the simplex spread |f_worst - f_best| against
// Tolerance. The energy test compares the mean vertex cost of consecutive
// iterations and only applies once the spread is below EnergyTolerance,
// since the best vertex alone often stays put for several steps.
type NelderMeadOptimizer struct {
	config Config
}

func NewNelderMead(config Config) *NelderMeadOptimizer {
	return &NelderMeadOptimizer{config: config}
}

type vertex struct {
	params []float64
	cost   float64
}

func (o *NelderMeadOptimizer) Optimize(ctx context.Context, f cost.Function, initial []float64) (*Result, error) {
	if err := checkInitial(f, initial); err != nil {
		return nil, err
	}
	n := len(initial)
	tr := NewTracker(NelderMead, o.config, SimplexSpread, initial, f.Evaluations())

	eval := func(p []float64) (vertex, error) {
		c, err := f.Evaluate(p)
		return vertex{params: p, cost: c}, err
	}

	simplex := make([]vertex, 0, n+1)
	for i := -1; i < n; i++ {
		p := append([]float64(nil), initial...)
		if i >= 0 {
			p[i] += nmPerturbation
		}
		v, err := eval(p)
		if err != nil {
			return tr.Result(0, false, f.Evaluations()), err
		}
		simplex = append(simplex, v)
	}

	costs := make([]float64, n+1)
	centroid := make([]float64, n)

	for iter := 0; iter < o.config.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return tr.Result(iter, false, f.Evaluations()), err
		}

		sortSimplex(simplex)
		best, worst := simplex[0], simplex[n]

		for i, v := range simplex {
			costs[i] = v.cost
		}
		spread := math.Abs(worst.cost - best.cost)
		mean := stat.Mean(costs, nil)

		tr.Record(iter, best.params, best.cost, nil, f.Evaluations())
		if tr.check(iter, mean, spread, spread < o.config.EnergyTolerance) {
			return tr.Result(iter+1, true, f.Evaluations()), nil
		}

		// centroid of all vertices but the worst
		for j := range centroid {
			centroid[j] = 0
		}
		for _, v := range simplex[:n] {
			floats.Add(centroid, v.params)
		}
		floats.Scale(1/float64(n), centroid)

		reflected, err := eval(along(centroid, worst.params, -nmReflection))
		if err != nil {
			return tr.Result(iter+1, false, f.Evaluations()), err
		}

		switch {
		case reflected.cost < best.cost:
			expanded, err := eval(along(centroid, reflected.params, nmExpansion))
			if err != nil {
				return tr.Result(iter+1, false, f.Evaluations()), err
			}
			if expanded.cost < reflected.cost {
				simplex[n] = expanded
			} else {
				simplex[n] = reflected
			}

		case reflected.cost < simplex[n-1].cost:
			simplex[n] = reflected

		default:
			contracted, err := eval(along(centroid, worst.params, nmContraction))
			if err != nil {
				return tr.Result(iter+1, false, f.Evaluations()), err
			}
			if contracted.cost < worst.cost {
				simplex[n] = contracted
				continue
			}

			for i := 1; i <= n; i++ {
				p := along(best.params, simplex[i].params, nmShrink)
				if simplex[i], err = eval(p); err != nil {
					return tr.Result(iter+1, false, f.Evaluations()), err
				}
			}
		}
	}

	return tr.Result(o.config.MaxIterations, false, f.Evaluations()), nil
}

// along returns origin + scale·(target - origin).
func along(origin, target []float64, scale float64) []float64 {
	out := make([]float64, len(origin))
	floats.SubTo(out, target, origin)
	floats.Scale(scale, out)
	floats.Add(out, origin)
	return out
}

// sortSimplex orders vertices by cost; NaN sorts last.
func sortSimplex(simplex []vertex) {
	sort.SliceStable(simplex, func(i, j int) bool {
		a, b := simplex[i].cost, simplex[j].cost
		if math.IsNaN(a) {
			return false
		}
		if math.IsNaN(b) {
			return true
		}
		return a < b
	})
}
