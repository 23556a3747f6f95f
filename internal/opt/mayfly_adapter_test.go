package opt

import (
	"context"
	"math"
	"testing"

	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

func mayflyConfig(iters int, seed int64) Config {
	config := DefaultConfig()
	config.MaxIterations = iters
	config.PopulationSize = 20 // mayfly v0.1.0 needs >= 20
	config.Seed = seed
	config.Verbose = false
	return config
}

func TestMayflyAdapterOnSphere(t *testing.T) {
	optimizer := NewMayfly(mayflyConfig(100, 42))
	f := cost.NewFunc(3, sphere, nil)

	result, err := optimizer.Optimize(context.Background(), f, []float64{1, -1, 0.5})
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if len(result.BestParams) != 3 {
		t.Fatalf("Expected 3 parameters, got %d", len(result.BestParams))
	}

	// Should converge close to zero
	if result.BestCost > 0.1 {
		t.Errorf("Expected cost near 0, got %f", result.BestCost)
	}

	// Check that best params are near origin
	for i, v := range result.BestParams {
		if math.Abs(v) > 1.0 {
			t.Errorf("Parameter %d = %f, expected near 0", i, v)
		}
	}

	if result.Iterations != 100 {
		t.Errorf("Expected 100 generations, got %d", result.Iterations)
	}
	if len(result.History) != result.Iterations {
		t.Fatalf("Expected one history entry per generation, got %d entries for %d generations",
			len(result.History), result.Iterations)
	}

	var evals int64
	for i, e := range result.History {
		if e.Iteration != i {
			t.Errorf("Expected entry %d to have iteration %d, got %d", i, i, e.Iteration)
		}
		if i > 0 && e.Cost > result.History[i-1].Cost {
			t.Errorf("Best-so-far cost increased at generation %d: %f -> %f", i, result.History[i-1].Cost, e.Cost)
		}
		evals += e.Evaluations
	}
	if evals != result.TotalEvaluations {
		t.Errorf("Expected history evaluations to sum to %d, got %d", result.TotalEvaluations, evals)
	}
	if result.TotalEvaluations <= int64(result.Iterations) {
		t.Errorf("Expected several evaluations per generation, got %d for %d generations",
			result.TotalEvaluations, result.Iterations)
	}
}

func TestMayflyAdapterConvergedOnFlatCost(t *testing.T) {
	flat := func([]float64) float64 { return 1 }

	config := mayflyConfig(5, 7)
	config.EnergyTolerance = 1e-9
	result, err := NewMayfly(config).Optimize(context.Background(), cost.NewFunc(2, flat, nil), []float64{0, 0})
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if !result.Converged || result.Criterion != EnergyChange {
		t.Errorf("Expected convergence by %s, got converged=%t criterion=%q", EnergyChange, result.Converged, result.Criterion)
	}
	if len(result.History) != 5 {
		t.Errorf("Expected 5 history entries, got %d", len(result.History))
	}

	config.EnergyTolerance = 0
	result, err = NewMayfly(config).Optimize(context.Background(), cost.NewFunc(2, flat, nil), []float64{0, 0})
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if result.Converged {
		t.Error("Expected no convergence with a zero energy tolerance")
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	initial := []float64{2, -2}

	result1, err := NewMayfly(mayflyConfig(50, 123)).Optimize(context.Background(), cost.NewFunc(2, sphere, nil), initial)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	result2, err := NewMayfly(mayflyConfig(50, 123)).Optimize(context.Background(), cost.NewFunc(2, sphere, nil), initial)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if result1.BestCost != result2.BestCost {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", result1.BestCost, result2.BestCost)
	}
}
