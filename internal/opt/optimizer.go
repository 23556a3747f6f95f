package opt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwbudde/metatronqso/internal/quantum"
	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

// Optimizer defines a classical minimization routine over a cost function
type Optimizer interface {
	// Optimize minimizes f starting from initial.
	// Returns the best point ever evaluated, not merely the last iterate.
	// Running out of iterations is not an error: Converged is false.
	// If ctx is cancelled the best result so far is returned together with ctx.Err().
	Optimize(ctx context.Context, f cost.Function, initial []float64) (*Result, error)
}

// Type selects an optimizer implementation
type Type string

const (
	Adam            Type = "adam"
	NelderMead      Type = "nelder_mead"
	LBFGS           Type = "lbfgs"
	GradientDescent Type = "gradient_descent"
	Mayfly          Type = "mayfly"
)

// ParseType maps a name to an optimizer Type
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "adam":
		return Adam, nil
	case "nelder_mead", "neldermead", "nm":
		return NelderMead, nil
	case "lbfgs", "l_bfgs":
		return LBFGS, nil
	case "gradient_descent", "gd", "sgd":
		return GradientDescent, nil
	case "mayfly":
		return Mayfly, nil
	default:
		return "", fmt.Errorf("unknown optimizer type: %s", s)
	}
}

// usesGradient reports whether the optimizer consumes f.Gradient
func (t Type) usesGradient() bool {
	return t == Adam || t == LBFGS || t == GradientDescent
}

// Config holds the settings shared by every optimizer
type Config struct {
	MaxIterations int `json:"max_iterations"`

	// Tolerance is the gradient-norm threshold (simplex spread for Nelder-Mead)
	Tolerance float64 `json:"tolerance"`

	// EnergyTolerance is the threshold on |cost_k - cost_{k-1}|
	EnergyTolerance float64 `json:"energy_tolerance"`

	LearningRate   float64             `json:"learning_rate"`
	GradientMethod cost.GradientMethod `json:"gradient_method"`

	// Verbose promotes progress logs from debug to info level
	Verbose bool `json:"verbose"`

	// Mayfly only
	PopulationSize int   `json:"population_size,omitempty"`
	Seed           int64 `json:"seed,omitempty"`
}

// DefaultConfig returns the standard optimizer settings
func DefaultConfig() Config {
	return Config{
		MaxIterations:   1000,
		Tolerance:       1e-6,
		EnergyTolerance: 1e-3,
		LearningRate:    0.01,
		GradientMethod:  cost.ParameterShift,
		Verbose:         true,
		PopulationSize:  20,
		Seed:            42,
	}
}

// ConfigError reports an invalid optimizer setting
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid optimizer config: %s %s", e.Field, e.Reason)
}

// Validate checks the config independently of the optimizer type
func (c Config) Validate() error {
	if c.MaxIterations <= 0 {
		return &ConfigError{Field: "max_iterations", Reason: "must be positive"}
	}
	if c.Tolerance < 0 {
		return &ConfigError{Field: "tolerance", Reason: "must not be negative"}
	}
	if c.EnergyTolerance < 0 {
		return &ConfigError{Field: "energy_tolerance", Reason: "must not be negative"}
	}
	if c.LearningRate <= 0 {
		return &ConfigError{Field: "learning_rate", Reason: "must be positive"}
	}
	if _, err := cost.ParseGradientMethod(string(c.GradientMethod)); err != nil {
		return &ConfigError{Field: "gradient_method", Reason: err.Error()}
	}
	return nil
}

// New creates an optimizer of the given type
func New(t Type, config Config) (Optimizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if t.usesGradient() && config.GradientMethod == cost.NoGradient {
		return nil, &ConfigError{Field: "gradient_method", Reason: fmt.Sprintf("%s requires gradients", t)}
	}

	switch t {
	case Adam:
		return NewAdam(config), nil
	case NelderMead:
		return NewNelderMead(config), nil
	case LBFGS:
		return NewLBFGS(config), nil
	case GradientDescent:
		return NewGradientDescent(config), nil
	case Mayfly:
		return NewMayfly(config), nil
	default:
		return nil, &ConfigError{Field: "type", Reason: fmt.Sprintf("unknown optimizer %q", t)}
	}
}

// HistoryEntry is one row of the optimization log
type HistoryEntry struct {
	Iteration    int           `json:"iteration"`
	Params       []float64     `json:"params"`
	Cost         float64       `json:"cost"`
	GradientNorm *float64      `json:"gradient_norm,omitempty"`
	Evaluations  int64         `json:"evaluations"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Result is the outcome of an optimization run
type Result struct {
	Optimizer  Type      `json:"optimizer"`
	BestParams []float64 `json:"best_params"`
	BestCost   float64   `json:"best_cost"`

	// Iterations executed before termination
	Iterations int       `json:"iterations"`
	Converged  bool      `json:"converged"`
	Criterion  Criterion `json:"criterion,omitempty"`

	// TotalEvaluations counts every cost evaluation made during the run,
	// including those behind gradients
	TotalEvaluations int64 `json:"total_evaluations"`

	// NonFiniteEvaluations counts iterations whose cost was NaN or Inf
	NonFiniteEvaluations int `json:"non_finite_evaluations"`

	History []HistoryEntry `json:"history"`
	Elapsed time.Duration  `json:"elapsed"`
}

// Costs returns the cost column of the history
func (r *Result) Costs() []float64 {
	costs := make([]float64, len(r.History))
	for i, e := range r.History {
		costs[i] = e.Cost
	}
	return costs
}

// checkInitial rejects an empty start or one that does not fit f.
func checkInitial(f cost.Function, initial []float64) error {
	if len(initial) == 0 {
		return errors.New("initial parameter vector is empty")
	}
	if len(initial) != f.Dimension() {
		return &quantum.DimensionMismatchError{What: "initial parameter count", Expected: f.Dimension(), Actual: len(initial)}
	}
	return nil
}
