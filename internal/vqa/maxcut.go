package vqa

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/cwbudde/metatronqso/internal/graph"
	"github.com/cwbudde/metatronqso/internal/opt"
	"github.com/cwbudde/metatronqso/internal/quantum"
	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

// MaxCutSamples is the number of measurements drawn to pick an assignment.
const MaxCutSamples = 100

// MaxCutSolution is a partition found by QAOA
type MaxCutSolution struct {
	// CutValue is -optimal_cost
	CutValue float64 `json:"cut_value"`

	// Assignment[i] is true when node i lies in partition 1
	Assignment         []bool          `json:"assignment"`
	ApproximationRatio float64         `json:"approximation_ratio"`
	Meta               MaxCutMetadata  `json:"meta"`
	QAOA               *QAOAResult     `json:"-"`
	Samples            *SampleAnalysis `json:"samples,omitempty"`
}

// MaxCutMetadata describes the run behind a solution
type MaxCutMetadata struct {
	Iterations     int     `json:"iterations"`
	FinalCost      float64 `json:"final_cost"`
	Depth          int     `json:"depth"`
	Converged      bool    `json:"converged"`
	PartitionSizes [2]int  `json:"partition_sizes"`
}

// MaxCutSolver runs QAOA on the MaxCut Hamiltonian of a graph.
type MaxCutSolver struct {
	graph         *graph.Graph
	depth         int
	maxIterations int
	seed          uint64
	tolerance     float64
	learningRate  float64
	optimizer     opt.Type
	gradient      cost.GradientMethod
	initial       []float64
}

// NewMaxCutSolver creates a solver with depth 3 and 100 Nelder-Mead iterations.
func NewMaxCutSolver(g *graph.Graph) *MaxCutSolver {
	return &MaxCutSolver{
		graph:         g,
		depth:         3,
		maxIterations: 100,
		seed:          42,
		tolerance:     1e-6,
		learningRate:  0.05,
		optimizer:     opt.NelderMead,
	}
}

func (s *MaxCutSolver) WithDepth(p int) *MaxCutSolver {
	s.depth = p
	return s
}

func (s *MaxCutSolver) WithMaxIterations(n int) *MaxCutSolver {
	s.maxIterations = n
	return s
}

func (s *MaxCutSolver) WithSeed(seed uint64) *MaxCutSolver {
	s.seed = seed
	return s
}

func (s *MaxCutSolver) WithTolerance(tol float64) *MaxCutSolver {
	s.tolerance = tol
	return s
}

func (s *MaxCutSolver) WithOptimizer(t opt.Type) *MaxCutSolver {
	s.optimizer = t
	return s
}

func (s *MaxCutSolver) WithLearningRate(lr float64) *MaxCutSolver {
	s.learningRate = lr
	return s
}

// WithInitialParams warm-starts the angles, gammas first.
func (s *MaxCutSolver) WithInitialParams(params []float64) *MaxCutSolver {
	s.initial = append([]float64(nil), params...)
	return s
}

// WithGradientMethod overrides the optimizer's gradient method; empty keeps
// the QAOA default.
func (s *MaxCutSolver) WithGradientMethod(m cost.GradientMethod) *MaxCutSolver {
	s.gradient = m
	return s
}

// Builder returns the QAOA configuration the solver runs with.
func (s *MaxCutSolver) Builder() (*QAOABuilder, error) {
	h, err := MaxCutHamiltonian(s.graph)
	if err != nil {
		return nil, err
	}
	b := NewQAOABuilder().
		CostHamiltonian(h).
		Depth(s.depth).
		Optimizer(s.optimizer).
		MaxIterations(s.maxIterations).
		Tolerance(s.tolerance).
		LearningRate(s.learningRate).
		Seed(s.seed).
		Verbose(false)
	if s.gradient != "" {
		b.GradientMethod(s.gradient)
	}
	if s.initial != nil {
		b.InitialParams(s.initial)
	}
	return b, nil
}

// Solve optimizes the QAOA angles, samples the optimized state and takes
// the assignment from the bits of the lowest-cost sampled basis index.
func (s *MaxCutSolver) Solve(ctx context.Context) (*MaxCutSolution, error) {
	b, err := s.Builder()
	if err != nil {
		return nil, err
	}
	q, err := b.Build()
	if err != nil {
		return nil, err
	}
	result, err := q.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("maxcut: %w", err)
	}

	analysis, err := q.AnalyzeSamples(result.State, MaxCutSamples, s.seed)
	if err != nil {
		return nil, fmt.Errorf("maxcut sampling: %w", err)
	}
	best := analysis.Samples[0]
	bestCost := analysis.Costs[0]
	for i, c := range analysis.Costs {
		if c < bestCost {
			best, bestCost = analysis.Samples[i], c
		}
	}

	assignment := Assignment(best)
	ones := bits.OnesCount(uint(best))
	return &MaxCutSolution{
		CutValue:           -result.OptimalCost,
		Assignment:         assignment,
		ApproximationRatio: result.ApproximationRatio,
		QAOA:               result,
		Samples:            analysis,
		Meta: MaxCutMetadata{
			Iterations:     result.Optimization.Iterations,
			FinalCost:      result.OptimalCost,
			Depth:          s.depth,
			Converged:      result.Optimization.Converged,
			PartitionSizes: [2]int{quantum.Dimension - ones, ones},
		},
	}, nil
}

// Assignment decodes a basis index into one partition bit per node.
func Assignment(index int) []bool {
	out := make([]bool, quantum.Dimension)
	for i := range out {
		out[i] = (index>>i)&1 == 1
	}
	return out
}

// CutWeight is the total weight of edges whose endpoints differ in assignment.
func CutWeight(g *graph.Graph, assignment []bool) float64 {
	var w float64
	for _, e := range g.Edges() {
		if assignment[e.U] != assignment[e.V] {
			w += e.Weight
		}
	}
	return w
}
