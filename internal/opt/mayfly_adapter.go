package opt

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

const (
	// mayflyMinPopulation is the smallest population mayfly v0.1.0 accepts
	mayflyMinPopulation = 20

	// mayflySearchRadius is the half-width of the box searched around the
	// initial parameters. Rotation angles are 2π periodic.
	mayflySearchRadius = math.Pi
)

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface.
// The library reports the global best cost of every generation; each
// generation becomes one history entry.
type MayflyAdapter struct {
	config Config
}

// NewMayfly creates a new Mayfly optimizer adapter
func NewMayfly(config Config) *MayflyAdapter {
	return &MayflyAdapter{config: config}
}

// mayflyPenalty replaces non-finite costs; it matches the library's own
// sanitized value so a generation best can still be looked up.
const mayflyPenalty = 1e100

// evaluated is one objective call, kept to map a generation's best cost
// back to its parameters.
type evaluated struct {
	params      []float64
	cost        float64
	evaluations int64
}

// Optimize searches initial ± π. The library works on scalar bounds, so it
// optimizes an offset vector that is added to initial before evaluation.
func (m *MayflyAdapter) Optimize(ctx context.Context, f cost.Function, initial []float64) (*Result, error) {
	if err := checkInitial(f, initial); err != nil {
		return nil, err
	}
	tr := NewTracker(Mayfly, m.config, GradientNorm, initial, f.Evaluations())

	var (
		mu       sync.Mutex
		firstErr error
		seen     = make(map[uint64]evaluated)
	)
	objective := func(offset []float64) float64 {
		mu.Lock()
		defer mu.Unlock()

		if firstErr != nil {
			return mayflyPenalty
		}
		if err := ctx.Err(); err != nil {
			firstErr = err
			return mayflyPenalty
		}

		params := make([]float64, len(initial))
		for i := range params {
			params[i] = initial[i] + offset[i]
		}
		c, err := f.Evaluate(params)
		if err != nil {
			firstErr = err
			return mayflyPenalty
		}

		returned := c
		if math.IsNaN(c) || math.IsInf(c, 0) {
			returned = mayflyPenalty
		}
		key := math.Float64bits(returned)
		if _, ok := seen[key]; !ok {
			seen[key] = evaluated{params: params, cost: c, evaluations: f.Evaluations()}
		}
		return returned
	}

	// Create config for external Mayfly library
	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = objective
	config.ProblemSize = len(initial)
	config.MaxIterations = m.config.MaxIterations
	config.NPop = max(m.config.PopulationSize, mayflyMinPopulation)
	config.LowerBound = -mayflySearchRadius
	config.UpperBound = mayflySearchRadius

	// Set random seed for reproducibility
	config.Rand = rand.New(rand.NewSource(m.config.Seed))

	res, err := mayfly.Optimize(config)
	if err != nil {
		return tr.Result(0, false, f.Evaluations()), fmt.Errorf("mayfly: %w", err)
	}

	generations := recordGenerations(tr, res.BestSolution, seen, f.Evaluations())
	if firstErr != nil {
		return tr.Result(generations, false, f.Evaluations()), firstErr
	}

	// the library always runs every generation; report whether the best
	// cost had settled by the last one
	converged := false
	if n := len(tr.History()); n >= 2 {
		h := tr.History()
		tr.check(n-2, h[n-2].Cost, math.NaN(), false)
		converged = tr.check(n-1, h[n-1].Cost, math.NaN(), true)
	}
	return tr.Result(generations, converged, f.Evaluations()), nil
}

// recordGenerations adds one history entry per generation holding the best
// point found so far. It returns the number of generations recorded.
func recordGenerations(tr *Tracker, bestPerGeneration []float64, seen map[uint64]evaluated, evaluations int64) int {
	var last int64
	for it, best := range bestPerGeneration {
		point, ok := seen[math.Float64bits(best)]
		if !ok {
			continue
		}
		// evaluation counts are only known at the point the best was found
		evals := max(point.evaluations, last)
		if it == len(bestPerGeneration)-1 {
			evals = evaluations
		}
		last = evals
		tr.Record(it, point.params, point.cost, nil, evals)
	}
	return len(tr.History())
}
