package vqa

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/metatronqso/internal/graph"
	"github.com/cwbudde/metatronqso/internal/hamiltonian"
	"github.com/cwbudde/metatronqso/internal/opt"
	"github.com/cwbudde/metatronqso/internal/quantum"
	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

// ClassicalEstimateFactor scales <uniform|H_C|uniform> into a stand-in for
// the classical optimum when none is supplied.
const ClassicalEstimateFactor = 1.5

// QAOAConfig holds everything needed to run QAOA
type QAOAConfig struct {
	Depth     int        `json:"depth"`
	Optimizer opt.Type   `json:"optimizer"`
	OptConfig opt.Config `json:"optimizer_config"`

	// ClassicalOptimum is the known best cost; nil means estimate it
	ClassicalOptimum *float64 `json:"classical_optimum,omitempty"`

	Seed          uint64    `json:"seed"`
	InitialParams []float64 `json:"initial_params,omitempty"`
}

// DefaultQAOAConfig returns depth 3 with Nelder-Mead and finite differences
func DefaultQAOAConfig() QAOAConfig {
	config := opt.DefaultConfig()
	config.MaxIterations = 500
	config.LearningRate = 0.05
	config.GradientMethod = cost.FiniteDifference

	return QAOAConfig{
		Depth:     3,
		Optimizer: opt.NelderMead,
		OptConfig: config,
		Seed:      42,
	}
}

// QAOAResult is the outcome of a QAOA run
type QAOAResult struct {
	OptimalCost        float64       `json:"optimal_cost"`
	Parameters         []float64     `json:"parameters"`
	State              quantum.State `json:"-"`
	ApproximationRatio float64       `json:"approximation_ratio"`
	ClassicalOptimum   float64       `json:"classical_optimum"`
	Optimization       *opt.Result   `json:"optimization"`
}

// Gammas returns the cost-evolution angles
func (r *QAOAResult) Gammas() []float64 { return r.Parameters[:len(r.Parameters)/2] }

// Betas returns the mixer-evolution angles
func (r *QAOAResult) Betas() []float64 { return r.Parameters[len(r.Parameters)/2:] }

// QAOA is a configured optimizer run; create it with QAOABuilder
type QAOA struct {
	costH  *hamiltonian.Hamiltonian
	mixer  *hamiltonian.Hamiltonian
	config QAOAConfig
}

// QAOABuilder configures a QAOA fluently. Errors surface in Build.
type QAOABuilder struct {
	costH  *hamiltonian.Hamiltonian
	mixer  *hamiltonian.Hamiltonian
	config QAOAConfig
}

func NewQAOABuilder() *QAOABuilder {
	return &QAOABuilder{config: DefaultQAOAConfig()}
}

func (b *QAOABuilder) CostHamiltonian(h *hamiltonian.Hamiltonian) *QAOABuilder {
	b.costH = h
	return b
}

// Mixer replaces the default reversal mixer.
func (b *QAOABuilder) Mixer(h *hamiltonian.Hamiltonian) *QAOABuilder {
	b.mixer = h
	return b
}

func (b *QAOABuilder) Config(config QAOAConfig) *QAOABuilder {
	b.config = config
	return b
}

func (b *QAOABuilder) Depth(p int) *QAOABuilder {
	b.config.Depth = p
	return b
}

func (b *QAOABuilder) Optimizer(t opt.Type) *QAOABuilder {
	b.config.Optimizer = t
	return b
}

func (b *QAOABuilder) MaxIterations(n int) *QAOABuilder {
	b.config.OptConfig.MaxIterations = n
	return b
}

func (b *QAOABuilder) LearningRate(lr float64) *QAOABuilder {
	b.config.OptConfig.LearningRate = lr
	return b
}

func (b *QAOABuilder) Tolerance(tol float64) *QAOABuilder {
	b.config.OptConfig.Tolerance = tol
	return b
}

func (b *QAOABuilder) EnergyTolerance(tol float64) *QAOABuilder {
	b.config.OptConfig.EnergyTolerance = tol
	return b
}

func (b *QAOABuilder) GradientMethod(m cost.GradientMethod) *QAOABuilder {
	b.config.OptConfig.GradientMethod = m
	return b
}

func (b *QAOABuilder) ClassicalOptimum(v float64) *QAOABuilder {
	b.config.ClassicalOptimum = &v
	return b
}

func (b *QAOABuilder) Seed(seed uint64) *QAOABuilder {
	b.config.Seed = seed
	b.config.OptConfig.Seed = int64(seed)
	return b
}

func (b *QAOABuilder) Verbose(verbose bool) *QAOABuilder {
	b.config.OptConfig.Verbose = verbose
	return b
}

func (b *QAOABuilder) InitialParams(params []float64) *QAOABuilder {
	b.config.InitialParams = append([]float64(nil), params...)
	return b
}

// Build validates the configuration and returns a runnable QAOA
func (b *QAOABuilder) Build() (*QAOA, error) {
	invalid := func(field, reason string) error {
		return &ConfigError{Algorithm: "qaoa", Field: field, Reason: reason}
	}

	if b.costH == nil {
		return nil, invalid("cost_hamiltonian", "is required")
	}
	if b.config.Depth <= 0 {
		return nil, invalid("depth", "must be positive")
	}
	if _, err := opt.New(b.config.Optimizer, b.config.OptConfig); err != nil {
		return nil, invalid("optimizer", err.Error())
	}
	if p := b.config.InitialParams; p != nil && len(p) != 2*b.config.Depth {
		return nil, invalid("initial_params", fmt.Sprintf("has %d values, depth %d needs %d", len(p), b.config.Depth, 2*b.config.Depth))
	}

	mixer := b.mixer
	if mixer == nil {
		mixer = ReversalMixer()
	}
	return &QAOA{costH: b.costH, mixer: mixer, config: b.config}, nil
}

// Config returns the validated configuration
func (q *QAOA) Config() QAOAConfig { return q.config }

// CostHamiltonian returns H_C
func (q *QAOA) CostHamiltonian() *hamiltonian.Hamiltonian { return q.costH }

// Run optimizes the 2p angles and reports the approximation ratio.
func (q *QAOA) Run(ctx context.Context) (*QAOAResult, error) {
	f, err := cost.NewQAOA(q.costH, q.mixer, q.config.Depth)
	if err != nil {
		return nil, err
	}
	optimizer, err := opt.New(q.config.Optimizer, q.config.OptConfig)
	if err != nil {
		return nil, err
	}

	classical := q.ClassicalOptimum()
	slog.Info("Starting QAOA",
		"depth", q.config.Depth,
		"parameters", f.Dimension(),
		"optimizer", q.config.Optimizer,
		"classical_optimum", classical,
	)

	r, err := optimizer.Optimize(ctx, f, q.initialParameters())
	if err != nil {
		return nil, fmt.Errorf("qaoa optimize: %w", err)
	}

	state, err := f.State(r.BestParams)
	if err != nil {
		return nil, err
	}

	result := &QAOAResult{
		OptimalCost:        r.BestCost,
		Parameters:         r.BestParams,
		State:              state,
		ApproximationRatio: approximationRatio(r.BestCost, classical),
		ClassicalOptimum:   classical,
		Optimization:       r,
	}

	slog.Info("QAOA finished",
		"optimal_cost", result.OptimalCost,
		"approximation_ratio", result.ApproximationRatio,
		"iterations", r.Iterations,
		"converged", r.Converged,
		"evaluations", r.TotalEvaluations,
	)
	return result, nil
}

// ClassicalOptimum returns the configured optimum, or 1.5·<uniform|H_C|uniform>.
func (q *QAOA) ClassicalOptimum() float64 {
	if q.config.ClassicalOptimum != nil {
		return *q.config.ClassicalOptimum
	}
	return ClassicalEstimateFactor * q.costH.ExpectationValue(quantum.UniformSuperposition())
}

// approximationRatio is optimal/classical, defined as 1 when classical is 0.
func approximationRatio(optimal, classical float64) float64 {
	if classical == 0 {
		return 1
	}
	return optimal / classical
}

// initialParameters draws gammas from [0, π) and betas from [0, π/2).
func (q *QAOA) initialParameters() []float64 {
	if q.config.InitialParams != nil {
		return append([]float64(nil), q.config.InitialParams...)
	}

	p := q.config.Depth
	src := rand.NewPCG(q.config.Seed, 0)
	gamma := distuv.Uniform{Min: 0, Max: math.Pi, Src: src}
	beta := distuv.Uniform{Min: 0, Max: math.Pi / 2, Src: src}

	params := make([]float64, 2*p)
	for k := 0; k < p; k++ {
		params[k] = gamma.Rand()
	}
	for k := p; k < 2*p; k++ {
		params[k] = beta.Rand()
	}
	return params
}

// SampleSolutions draws n Born-rule measurements of state.
func SampleSolutions(state quantum.State, n int, seed uint64) ([]int, error) {
	src := rand.NewPCG(seed, 1)
	samples := make([]int, n)
	for i := range samples {
		idx, _, err := state.Measure(src)
		if err != nil {
			return nil, err
		}
		samples[i] = idx
	}
	return samples, nil
}

// SampleAnalysis summarizes the costs of sampled basis states
type SampleAnalysis struct {
	Samples []int     `json:"samples"`
	Costs   []float64 `json:"costs"`
	Mean    float64   `json:"mean"`
	StdDev  float64   `json:"std_dev"`
}

// AnalyzeSamples samples state n times and evaluates H_C on each outcome.
// StdDev is the population standard deviation.
func (q *QAOA) AnalyzeSamples(state quantum.State, n int, seed uint64) (*SampleAnalysis, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", n)
	}
	samples, err := SampleSolutions(state, n, seed)
	if err != nil {
		return nil, err
	}

	h := q.costH.Dense()
	costs := make([]float64, n)
	for i, idx := range samples {
		costs[i] = h.At(idx, idx)
	}
	mean, std := stat.PopMeanStdDev(costs, nil)
	return &SampleAnalysis{Samples: samples, Costs: costs, Mean: mean, StdDev: std}, nil
}

// MaxCutHamiltonian encodes -1/2·Σ w(I - Z_i Z_j) over the weighted edges
// of g: each edge adds -w/2 to both diagonal entries and +w/2 to both
// off-diagonal entries.
func MaxCutHamiltonian(g *graph.Graph) (*hamiltonian.Hamiltonian, error) {
	if g.NodeCount() != quantum.Dimension {
		return nil, &quantum.DimensionMismatchError{What: "maxcut graph node count", Expected: quantum.Dimension, Actual: g.NodeCount()}
	}
	m := mat.NewSymDense(quantum.Dimension, nil)
	for _, e := range g.Edges() {
		half := e.Weight / 2
		m.SetSym(e.U, e.U, m.At(e.U, e.U)-half)
		m.SetSym(e.V, e.V, m.At(e.V, e.V)-half)
		m.SetSym(e.U, e.V, m.At(e.U, e.V)+half)
	}
	return hamiltonian.FromMatrix(m)
}

// MaxCutHamiltonianFromEdges is MaxCutHamiltonian on unit-weight edges.
func MaxCutHamiltonianFromEdges(edges [][2]int) (*hamiltonian.Hamiltonian, error) {
	g, err := graph.FromEdges(quantum.Dimension, edges)
	if err != nil {
		return nil, fmt.Errorf("maxcut edges: %w", err)
	}
	return MaxCutHamiltonian(g)
}

// ReversalMixer is the anti-diagonal permutation k <-> N-1-k, the default
// transverse-field stand-in on a single 13-level system.
func ReversalMixer() *hamiltonian.Hamiltonian {
	m := mat.NewSymDense(quantum.Dimension, nil)
	for i := 0; i < quantum.Dimension; i++ {
		m.SetSym(i, quantum.Dimension-1-i, 1)
	}
	h, err := hamiltonian.FromMatrix(m)
	if err != nil {
		panic(err)
	}
	return h
}
