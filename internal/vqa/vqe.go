package vqa

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/metatronqso/internal/hamiltonian"
	"github.com/cwbudde/metatronqso/internal/opt"
	"github.com/cwbudde/metatronqso/internal/quantum"
	"github.com/cwbudde/metatronqso/internal/vqa/ansatz"
	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

// VerifyTolerance bounds VerifyResult's energy and norm checks.
const VerifyTolerance = 1e-6

// InitialStateType selects the reference state the ansatz acts on
type InitialStateType string

const (
	// Uniform is the equal superposition of all basis states
	Uniform InitialStateType = "uniform"
	// ClassicalGround is the exact ground state; only useful as a benchmark
	ClassicalGround InitialStateType = "classical_ground"
	// HartreeFock is approximated by basis state 0
	HartreeFock InitialStateType = "hartree_fock"
	// RandomInitial is a Gaussian random state drawn from the seed
	RandomInitial InitialStateType = "random"
)

// VQEConfig holds everything needed to run the eigensolver
type VQEConfig struct {
	AnsatzType   ansatz.Type                 `json:"ansatz_type"`
	AnsatzDepth  int                         `json:"ansatz_depth"`
	Entanglement ansatz.EntanglementStrategy `json:"entanglement,omitempty"`
	Optimizer    opt.Type                    `json:"optimizer"`
	OptConfig    opt.Config                  `json:"optimizer_config"`
	InitialState InitialStateType            `json:"initial_state"`

	// NumRandomStarts > 1 runs independent trials and keeps the best
	NumRandomStarts int    `json:"num_random_starts"`
	Seed            uint64 `json:"seed"`

	// InitialParams, when set, replaces the random start of the first trial
	InitialParams []float64 `json:"initial_params,omitempty"`
}

// DefaultVQEConfig returns hardware-efficient depth 3 with Adam
func DefaultVQEConfig() VQEConfig {
	return VQEConfig{
		AnsatzType:      ansatz.HardwareEfficient,
		AnsatzDepth:     3,
		Entanglement:    ansatz.Ring,
		Optimizer:       opt.Adam,
		OptConfig:       opt.DefaultConfig(),
		InitialState:    Uniform,
		NumRandomStarts: 1,
		Seed:            42,
	}
}

// VQEResult is the outcome of a VQE run
type VQEResult struct {
	Energy       float64       `json:"energy"`
	Parameters   []float64     `json:"parameters"`
	Wavefunction quantum.State `json:"-"`
	Optimization *opt.Result   `json:"optimization"`

	ClassicalGroundEnergy float64 `json:"classical_ground_energy"`
	ApproximationError    float64 `json:"approximation_error"`
}

// RelativeError is ApproximationError relative to |ground energy|
func (r *VQEResult) RelativeError() float64 {
	if r.ClassicalGroundEnergy == 0 {
		return r.ApproximationError
	}
	return r.ApproximationError / math.Abs(r.ClassicalGroundEnergy)
}

// VQE is a configured eigensolver; create it with VQEBuilder
type VQE struct {
	h      *hamiltonian.Hamiltonian
	config VQEConfig
	ansatz ansatz.Ansatz
}

// VQEBuilder configures a VQE fluently. Errors surface in Build.
type VQEBuilder struct {
	h      *hamiltonian.Hamiltonian
	config VQEConfig
}

func NewVQEBuilder() *VQEBuilder {
	return &VQEBuilder{config: DefaultVQEConfig()}
}

func (b *VQEBuilder) Hamiltonian(h *hamiltonian.Hamiltonian) *VQEBuilder {
	b.h = h
	return b
}

func (b *VQEBuilder) Config(config VQEConfig) *VQEBuilder {
	b.config = config
	return b
}

func (b *VQEBuilder) AnsatzType(t ansatz.Type) *VQEBuilder {
	b.config.AnsatzType = t
	return b
}

func (b *VQEBuilder) AnsatzDepth(depth int) *VQEBuilder {
	b.config.AnsatzDepth = depth
	return b
}

func (b *VQEBuilder) Entanglement(s ansatz.EntanglementStrategy) *VQEBuilder {
	b.config.Entanglement = s
	return b
}

func (b *VQEBuilder) Optimizer(t opt.Type) *VQEBuilder {
	b.config.Optimizer = t
	return b
}

func (b *VQEBuilder) MaxIterations(n int) *VQEBuilder {
	b.config.OptConfig.MaxIterations = n
	return b
}

func (b *VQEBuilder) LearningRate(lr float64) *VQEBuilder {
	b.config.OptConfig.LearningRate = lr
	return b
}

func (b *VQEBuilder) Tolerance(tol float64) *VQEBuilder {
	b.config.OptConfig.Tolerance = tol
	return b
}

func (b *VQEBuilder) EnergyTolerance(tol float64) *VQEBuilder {
	b.config.OptConfig.EnergyTolerance = tol
	return b
}

func (b *VQEBuilder) GradientMethod(m cost.GradientMethod) *VQEBuilder {
	b.config.OptConfig.GradientMethod = m
	return b
}

func (b *VQEBuilder) InitialState(t InitialStateType) *VQEBuilder {
	b.config.InitialState = t
	return b
}

func (b *VQEBuilder) NumRandomStarts(n int) *VQEBuilder {
	b.config.NumRandomStarts = n
	return b
}

func (b *VQEBuilder) Seed(seed uint64) *VQEBuilder {
	b.config.Seed = seed
	b.config.OptConfig.Seed = int64(seed)
	return b
}

func (b *VQEBuilder) Verbose(verbose bool) *VQEBuilder {
	b.config.OptConfig.Verbose = verbose
	return b
}

// InitialParams warm-starts the first trial.
func (b *VQEBuilder) InitialParams(params []float64) *VQEBuilder {
	b.config.InitialParams = append([]float64(nil), params...)
	return b
}

// Build validates the configuration and returns a runnable VQE
func (b *VQEBuilder) Build() (*VQE, error) {
	invalid := func(field, reason string) error {
		return &ConfigError{Algorithm: "vqe", Field: field, Reason: reason}
	}

	if b.h == nil {
		return nil, invalid("hamiltonian", "is required")
	}
	if b.config.NumRandomStarts < 1 {
		return nil, invalid("num_random_starts", "must be at least 1")
	}

	strategy, err := ansatz.ParseEntanglement(string(b.config.Entanglement))
	if err != nil {
		return nil, invalid("entanglement", err.Error())
	}

	var a ansatz.Ansatz
	if b.config.AnsatzType == ansatz.Metatron {
		if b.config.AnsatzDepth <= 0 {
			return nil, invalid("ansatz_depth", "must be positive")
		}
		a = ansatz.NewMetatron(b.config.AnsatzDepth, strategy)
	} else {
		if a, err = ansatz.New(b.config.AnsatzType, b.config.AnsatzDepth); err != nil {
			return nil, invalid("ansatz", err.Error())
		}
	}

	switch b.config.InitialState {
	case Uniform, ClassicalGround, HartreeFock, RandomInitial:
	default:
		return nil, invalid("initial_state", fmt.Sprintf("unknown type %q", b.config.InitialState))
	}

	if _, err := opt.New(b.config.Optimizer, b.config.OptConfig); err != nil {
		return nil, invalid("optimizer", err.Error())
	}
	if p := b.config.InitialParams; p != nil && len(p) != a.NumParameters() {
		return nil, invalid("initial_params", fmt.Sprintf("has %d values, ansatz needs %d", len(p), a.NumParameters()))
	}

	return &VQE{h: b.h, config: b.config, ansatz: a}, nil
}

// Config returns the validated configuration
func (v *VQE) Config() VQEConfig { return v.config }

// Ansatz returns the circuit being trained
func (v *VQE) Ansatz() ansatz.Ansatz { return v.ansatz }

// Run optimizes the ansatz parameters. With more than one start the trials
// run in parallel; the best one is chosen in start order by strict
// comparison, so ties keep the earliest trial.
func (v *VQE) Run(ctx context.Context) (*VQEResult, error) {
	initial := v.initialState()
	ground := v.h.GroundStateEnergy()
	starts := v.config.NumRandomStarts

	slog.Info("Starting VQE",
		"ansatz", v.config.AnsatzType,
		"depth", v.config.AnsatzDepth,
		"parameters", v.ansatz.NumParameters(),
		"optimizer", v.config.Optimizer,
		"initial_state", v.config.InitialState,
		"starts", starts,
		"classical_ground", ground,
	)

	results := make([]*opt.Result, starts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for trial := 0; trial < starts; trial++ {
		g.Go(func() error {
			optimizer, err := opt.New(v.config.Optimizer, v.config.OptConfig)
			if err != nil {
				return err
			}
			f := cost.NewVQE(v.h, v.ansatz, initial)
			r, err := optimizer.Optimize(gctx, f, v.initialParameters(trial))
			if err != nil {
				return fmt.Errorf("vqe trial %d: %w", trial, err)
			}
			results[trial] = r

			if starts > 1 {
				slog.Debug("VQE trial finished", "trial", trial, "energy", r.BestCost, "iterations", r.Iterations)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := selectBest(results)
	merged := *best
	merged.TotalEvaluations = 0
	for _, r := range results {
		merged.TotalEvaluations += r.TotalEvaluations
	}

	wavefunction, err := v.ansatz.Apply(initial, merged.BestParams)
	if err != nil {
		return nil, fmt.Errorf("reconstruct wavefunction: %w", err)
	}

	result := &VQEResult{
		Energy:                merged.BestCost,
		Parameters:            merged.BestParams,
		Wavefunction:          wavefunction,
		Optimization:          &merged,
		ClassicalGroundEnergy: ground,
		ApproximationError:    math.Abs(merged.BestCost - ground),
	}

	slog.Info("VQE finished",
		"energy", result.Energy,
		"classical_ground", ground,
		"approximation_error", result.ApproximationError,
		"relative_error", result.RelativeError(),
		"iterations", merged.Iterations,
		"converged", merged.Converged,
		"evaluations", merged.TotalEvaluations,
	)
	return result, nil
}

// selectBest returns the lowest finite cost, earliest trial first on ties.
func selectBest(results []*opt.Result) *opt.Result {
	best := results[0]
	for _, r := range results[1:] {
		if r.BestCost < best.BestCost || (math.IsNaN(best.BestCost) && !math.IsNaN(r.BestCost)) {
			best = r
		}
	}
	return best
}

// VerifyResult checks that the energy lies between the ground energy and
// the first distinct excited level, that it is finite, and that the
// wavefunction is normalized.
func (v *VQE) VerifyResult(r *VQEResult) error {
	if math.IsNaN(r.Energy) || math.IsInf(r.Energy, 0) {
		return fmt.Errorf("vqe energy is not finite: %v", r.Energy)
	}
	ground := v.h.GroundStateEnergy()
	if r.Energy < ground-VerifyTolerance {
		return fmt.Errorf("vqe energy %.10f below classical ground state %.10f", r.Energy, ground)
	}
	if excited := v.h.FirstExcitedEnergy(); r.Energy > excited+VerifyTolerance {
		return fmt.Errorf("vqe energy %.10f above first excited level %.10f", r.Energy, excited)
	}
	if !r.Wavefunction.IsNormalized(VerifyTolerance) {
		return fmt.Errorf("vqe wavefunction not normalized: norm %.10f", r.Wavefunction.Norm())
	}
	return nil
}

func (v *VQE) initialState() quantum.State {
	switch v.config.InitialState {
	case ClassicalGround:
		return v.h.GroundState()
	case HartreeFock:
		return quantum.MustBasisState(0)
	case RandomInitial:
		return quantum.RandomState(v.config.Seed)
	default:
		return quantum.UniformSuperposition()
	}
}

// initialParameters draws the start of one trial. Hardware-efficient and
// SU2 circuits start from small uniform noise; the Metatron circuit starts
// from a small cosine pattern over the parameter index, shifted per trial.
func (v *VQE) initialParameters(trial int) []float64 {
	if trial == 0 && v.config.InitialParams != nil {
		return append([]float64(nil), v.config.InitialParams...)
	}

	n := v.ansatz.NumParameters()
	params := make([]float64, n)
	src := rand.NewPCG(v.config.Seed, uint64(trial))

	if v.config.AnsatzType == ansatz.Metatron {
		offset := 0.0
		if trial > 0 {
			offset = distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: src}.Rand()
		}
		for i := range params {
			params[i] = 0.01 * math.Cos(2*math.Pi*float64(i)/float64(n)+offset)
		}
		return params
	}

	noise := distuv.Uniform{Min: -0.1, Max: 0.1, Src: src}
	for i := range params {
		params[i] = noise.Rand()
	}
	return params
}
