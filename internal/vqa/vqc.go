package vqa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/metatronqso/internal/opt"
	"github.com/cwbudde/metatronqso/internal/quantum"
	"github.com/cwbudde/metatronqso/internal/vqa/ansatz"
	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

// ErrNotTrained is returned by Predict and Evaluate before Train succeeds.
var ErrNotTrained = errors.New("classifier has not been trained")

// VQCConfig holds everything needed to train a classifier
type VQCConfig struct {
	Encoding    Encoding    `json:"encoding"`
	AnsatzType  ansatz.Type `json:"ansatz_type"`
	AnsatzDepth int         `json:"ansatz_depth"`
	Optimizer   opt.Type    `json:"optimizer"`
	OptConfig   opt.Config  `json:"optimizer_config"`
	Seed        uint64      `json:"seed"`
}

// DefaultVQCConfig returns angle encoding, a depth-2 hardware-efficient
// circuit and Adam.
func DefaultVQCConfig() VQCConfig {
	config := opt.DefaultConfig()
	config.MaxIterations = 500
	config.LearningRate = 0.01
	config.Tolerance = 1e-4
	config.EnergyTolerance = 1e-3

	return VQCConfig{
		Encoding:    AngleEncoding,
		AnsatzType:  ansatz.HardwareEfficient,
		AnsatzDepth: 2,
		Optimizer:   opt.Adam,
		OptConfig:   config,
		Seed:        42,
	}
}

// Prediction is the classifier output for one sample
type Prediction struct {
	// Probabilities holds P(class 0) and P(class 1)
	Probabilities [2]float64 `json:"probabilities"`
	Class         int        `json:"class"`
	Confidence    float64    `json:"confidence"`
}

// TrainingResult summarizes a finished Train call
type TrainingResult struct {
	Loss         float64     `json:"loss"`
	Accuracy     float64     `json:"accuracy"`
	Parameters   []float64   `json:"parameters"`
	Optimization *opt.Result `json:"optimization"`
}

// VQC is a binary classifier reading P(class 0) = |a_0|^2 from the ansatz
// output. Create it with VQCBuilder.
type VQC struct {
	config VQCConfig
	ansatz ansatz.Ansatz
	params []float64
	scale  *FeatureRange
}

// VQCBuilder configures a VQC fluently. Errors surface in Build.
type VQCBuilder struct {
	config VQCConfig
}

func NewVQCBuilder() *VQCBuilder {
	return &VQCBuilder{config: DefaultVQCConfig()}
}

func (b *VQCBuilder) Config(config VQCConfig) *VQCBuilder {
	b.config = config
	return b
}

func (b *VQCBuilder) Encoding(e Encoding) *VQCBuilder {
	b.config.Encoding = e
	return b
}

func (b *VQCBuilder) AnsatzType(t ansatz.Type) *VQCBuilder {
	b.config.AnsatzType = t
	return b
}

func (b *VQCBuilder) AnsatzDepth(depth int) *VQCBuilder {
	b.config.AnsatzDepth = depth
	return b
}

func (b *VQCBuilder) Optimizer(t opt.Type) *VQCBuilder {
	b.config.Optimizer = t
	return b
}

func (b *VQCBuilder) MaxIterations(n int) *VQCBuilder {
	b.config.OptConfig.MaxIterations = n
	return b
}

func (b *VQCBuilder) LearningRate(lr float64) *VQCBuilder {
	b.config.OptConfig.LearningRate = lr
	return b
}

func (b *VQCBuilder) Tolerance(tol float64) *VQCBuilder {
	b.config.OptConfig.Tolerance = tol
	return b
}

func (b *VQCBuilder) EnergyTolerance(tol float64) *VQCBuilder {
	b.config.OptConfig.EnergyTolerance = tol
	return b
}

func (b *VQCBuilder) GradientMethod(m cost.GradientMethod) *VQCBuilder {
	b.config.OptConfig.GradientMethod = m
	return b
}

func (b *VQCBuilder) Seed(seed uint64) *VQCBuilder {
	b.config.Seed = seed
	b.config.OptConfig.Seed = int64(seed)
	return b
}

func (b *VQCBuilder) Verbose(verbose bool) *VQCBuilder {
	b.config.OptConfig.Verbose = verbose
	return b
}

// Build validates the configuration and returns an untrained classifier
func (b *VQCBuilder) Build() (*VQC, error) {
	invalid := func(field, reason string) error {
		return &ConfigError{Algorithm: "vqc", Field: field, Reason: reason}
	}

	switch b.config.Encoding {
	case AmplitudeEncoding, AngleEncoding, BasisEncoding:
	default:
		return nil, invalid("encoding", fmt.Sprintf("unknown type %q", b.config.Encoding))
	}
	a, err := ansatz.New(b.config.AnsatzType, b.config.AnsatzDepth)
	if err != nil {
		return nil, invalid("ansatz", err.Error())
	}
	if _, err := opt.New(b.config.Optimizer, b.config.OptConfig); err != nil {
		return nil, invalid("optimizer", err.Error())
	}
	return &VQC{config: b.config, ansatz: a}, nil
}

// Config returns the validated configuration
func (c *VQC) Config() VQCConfig { return c.config }

// Parameters returns the trained circuit parameters, nil before training
func (c *VQC) Parameters() []float64 { return c.params }

// Train fits the feature scaling on X and optimizes the circuit on the
// cross-entropy of the labels y, which must be 0 or 1.
func (c *VQC) Train(ctx context.Context, X [][]float64, y []int) (*TrainingResult, error) {
	if len(X) != len(y) {
		return nil, &quantum.DimensionMismatchError{What: "label count", Expected: len(X), Actual: len(y)}
	}
	scale, err := FitRange(X)
	if err != nil {
		return nil, err
	}

	states, err := c.encodeAll(scale, X)
	if err != nil {
		return nil, err
	}
	f, err := cost.NewVQC(c.ansatz, states, y)
	if err != nil {
		return nil, err
	}
	optimizer, err := opt.New(c.config.Optimizer, c.config.OptConfig)
	if err != nil {
		return nil, err
	}

	slog.Info("Training VQC",
		"samples", len(X),
		"features", len(scale.Min),
		"encoding", c.config.Encoding,
		"ansatz", c.config.AnsatzType,
		"parameters", c.ansatz.NumParameters(),
	)

	r, err := optimizer.Optimize(ctx, f, c.initialParameters())
	if err != nil {
		return nil, fmt.Errorf("vqc optimize: %w", err)
	}
	c.params = r.BestParams
	c.scale = scale

	accuracy, err := c.Evaluate(X, y)
	if err != nil {
		return nil, err
	}

	slog.Info("VQC trained",
		"loss", r.BestCost,
		"accuracy", accuracy,
		"iterations", r.Iterations,
		"converged", r.Converged,
	)
	return &TrainingResult{
		Loss:         r.BestCost,
		Accuracy:     accuracy,
		Parameters:   r.BestParams,
		Optimization: r,
	}, nil
}

func (c *VQC) encodeAll(scale *FeatureRange, X [][]float64) ([]quantum.State, error) {
	states := make([]quantum.State, len(X))
	for i, x := range X {
		s, err := c.encode(scale, x)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		states[i] = s
	}
	return states, nil
}

func (c *VQC) encode(scale *FeatureRange, x []float64) (quantum.State, error) {
	norm, err := scale.Normalize(x)
	if err != nil {
		return quantum.State{}, err
	}
	return Encode(c.config.Encoding, norm)
}

// Predict classifies one sample using the scaling fitted in Train.
func (c *VQC) Predict(x []float64) (Prediction, error) {
	if c.params == nil {
		return Prediction{}, ErrNotTrained
	}
	s, err := c.encode(c.scale, x)
	if err != nil {
		return Prediction{}, err
	}
	out, err := c.ansatz.Apply(s, c.params)
	if err != nil {
		return Prediction{}, err
	}

	p0 := out.ProbabilityAt(0)
	p := Prediction{Probabilities: [2]float64{p0, 1 - p0}}
	if p0 > 0.5 {
		p.Class, p.Confidence = 0, p0
	} else {
		p.Class, p.Confidence = 1, 1-p0
	}
	return p, nil
}

// Evaluate returns the fraction of samples in X whose prediction matches y.
func (c *VQC) Evaluate(X [][]float64, y []int) (float64, error) {
	if len(X) != len(y) {
		return 0, &quantum.DimensionMismatchError{What: "label count", Expected: len(X), Actual: len(y)}
	}
	if len(X) == 0 {
		return 0, fmt.Errorf("cannot evaluate on empty data")
	}
	correct := 0
	for i, x := range X {
		p, err := c.Predict(x)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		if p.Class == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X)), nil
}

func (c *VQC) initialParameters() []float64 {
	noise := distuv.Uniform{Min: -0.1, Max: 0.1, Src: rand.NewPCG(c.config.Seed, 0)}
	params := make([]float64, c.ansatz.NumParameters())
	for i := range params {
		params[i] = noise.Rand()
	}
	return params
}

// Loss is the mean cross-entropy of the trained classifier on X and y.
func (c *VQC) Loss(X [][]float64, y []int) (float64, error) {
	if c.params == nil {
		return math.NaN(), ErrNotTrained
	}
	states, err := c.encodeAll(c.scale, X)
	if err != nil {
		return math.NaN(), err
	}
	f, err := cost.NewVQC(c.ansatz, states, y)
	if err != nil {
		return math.NaN(), err
	}
	return f.Evaluate(c.params)
}
