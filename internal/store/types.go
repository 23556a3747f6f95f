package store

import (
	"fmt"
	"math"
	"time"
)

// Algorithm names accepted in RunConfig.
const (
	AlgorithmVQE    = "vqe"
	AlgorithmQAOA   = "qaoa"
	AlgorithmMaxCut = "maxcut"
)

// RunConfig is the persisted copy of a run's settings. It lives here rather
// than in the runner so the store does not depend on the algorithms.
type RunConfig struct {
	Algorithm string `json:"algorithm"` // vqe, qaoa, maxcut

	// Ansatz and Starts only apply to VQE
	Ansatz       string `json:"ansatz,omitempty"`
	Entanglement string `json:"entanglement,omitempty"`
	Starts       int    `json:"starts,omitempty"`

	Depth          int     `json:"depth"`
	Optimizer      string  `json:"optimizer"`
	GradientMethod string  `json:"gradientMethod,omitempty"`
	Iters          int     `json:"iters"`
	LearningRate   float64 `json:"learningRate"`
	Seed           uint64  `json:"seed"`

	// ParamsPath is the Hamiltonian parameter YAML; empty means defaults
	ParamsPath string `json:"paramsPath,omitempty"`

	// Graph names the MaxCut instance: "metatron" or "triangle"
	Graph string `json:"graph,omitempty"`

	// NumParams is the length of the variational parameter vector
	NumParams int `json:"numParams"`

	// InitialParams warm-starts the run; set by resume
	InitialParams []float64 `json:"initialParams,omitempty"`
}

// Checkpoint is the outcome of a finished (or interrupted) variational run.
//
// Only the best parameters are saved, not optimizer internals such as Adam
// moments, L-BFGS pairs or the simplex. Resuming restarts the optimizer
// from BestParams, so the best cost never gets worse but the trajectory is
// not a bit-exact continuation.
type Checkpoint struct {
	JobID string `json:"jobId"`

	// BestParams are the variational parameters with the lowest cost seen
	BestParams []float64 `json:"bestParams"`
	BestCost   float64   `json:"bestCost"`

	// InitialCost is the cost of the first recorded iterate
	InitialCost float64 `json:"initialCost"`

	Iteration   int   `json:"iteration"`
	Converged   bool  `json:"converged"`
	Evaluations int64 `json:"evaluations"`

	// Resumes counts how often this job has been continued
	Resumes int `json:"resumes,omitempty"`

	Timestamp time.Time `json:"timestamp"`
	Config    RunConfig `json:"config"`
}

// CheckpointInfo is the metadata of a checkpoint without its parameters.
type CheckpointInfo struct {
	JobID     string    `json:"jobId"`
	Algorithm string    `json:"algorithm"`
	BestCost  float64   `json:"bestCost"`
	Iteration int       `json:"iteration"`
	Converged bool      `json:"converged"`
	Timestamp time.Time `json:"timestamp"`
	Depth     int       `json:"depth"`
	Optimizer string    `json:"optimizer"`
}

// NewCheckpoint stamps a checkpoint with the current time.
func NewCheckpoint(jobID string, bestParams []float64, bestCost, initialCost float64, iteration int, config RunConfig) *Checkpoint {
	return &Checkpoint{
		JobID:       jobID,
		BestParams:  bestParams,
		BestCost:    bestCost,
		InitialCost: initialCost,
		Iteration:   iteration,
		Timestamp:   time.Now(),
		Config:      config,
	}
}

// ToInfo converts a full Checkpoint to CheckpointInfo (metadata only).
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:     c.JobID,
		Algorithm: c.Config.Algorithm,
		BestCost:  c.BestCost,
		Iteration: c.Iteration,
		Converged: c.Converged,
		Timestamp: c.Timestamp,
		Depth:     c.Config.Depth,
		Optimizer: c.Config.Optimizer,
	}
}

// Validate checks that the checkpoint can be resumed.
// Costs may be negative; energies usually are.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(c.BestParams) == 0 {
		return &ValidationError{Field: "BestParams", Reason: "cannot be empty"}
	}
	for i, p := range c.BestParams {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return &ValidationError{Field: "BestParams", Reason: fmt.Sprintf("entry %d is not finite", i)}
		}
	}
	if math.IsNaN(c.BestCost) || math.IsInf(c.BestCost, 0) {
		return &ValidationError{Field: "BestCost", Reason: "must be finite"}
	}
	if c.Iteration < 0 {
		return &ValidationError{Field: "Iteration", Reason: "cannot be negative"}
	}
	if c.Evaluations < 0 {
		return &ValidationError{Field: "Evaluations", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}

	switch c.Config.Algorithm {
	case AlgorithmVQE, AlgorithmQAOA, AlgorithmMaxCut:
	case "":
		return &ValidationError{Field: "Config.Algorithm", Reason: "cannot be empty"}
	default:
		return &ValidationError{Field: "Config.Algorithm", Reason: fmt.Sprintf("unknown algorithm %q", c.Config.Algorithm)}
	}
	if c.Config.Depth <= 0 {
		return &ValidationError{Field: "Config.Depth", Reason: "must be positive"}
	}
	if c.Config.Iters <= 0 {
		return &ValidationError{Field: "Config.Iters", Reason: "must be positive"}
	}
	if c.Config.Optimizer == "" {
		return &ValidationError{Field: "Config.Optimizer", Reason: "cannot be empty"}
	}
	if len(c.BestParams) != c.Config.NumParams {
		return &ValidationError{
			Field:  "BestParams",
			Reason: fmt.Sprintf("length mismatch: expected %d params, got %d", c.Config.NumParams, len(c.BestParams)),
		}
	}
	return nil
}

// ErrInvalidCheckpoint matches any ValidationError.
var ErrInvalidCheckpoint = &ValidationError{}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// IsCompatible checks that config describes the same parameter space as
// the checkpoint, so BestParams can warm-start it. The optimizer, the
// iteration budget and the seed may differ.
func (c *Checkpoint) IsCompatible(config RunConfig) error {
	mismatch := func(field, expected, actual string) error {
		return &CompatibilityError{Field: field, Expected: expected, Actual: actual}
	}

	if c.Config.Algorithm != config.Algorithm {
		return mismatch("Algorithm", c.Config.Algorithm, config.Algorithm)
	}
	if c.Config.Ansatz != config.Ansatz {
		return mismatch("Ansatz", c.Config.Ansatz, config.Ansatz)
	}
	if c.Config.Entanglement != config.Entanglement {
		return mismatch("Entanglement", c.Config.Entanglement, config.Entanglement)
	}
	if c.Config.Depth != config.Depth {
		return mismatch("Depth", fmt.Sprint(c.Config.Depth), fmt.Sprint(config.Depth))
	}
	if c.Config.ParamsPath != config.ParamsPath {
		return mismatch("ParamsPath", c.Config.ParamsPath, config.ParamsPath)
	}
	if c.Config.Graph != config.Graph {
		return mismatch("Graph", c.Config.Graph, config.Graph)
	}
	if c.Config.NumParams != config.NumParams {
		return mismatch("NumParams", fmt.Sprint(c.Config.NumParams), fmt.Sprint(config.NumParams))
	}
	return nil
}

// ErrIncompatible matches any CompatibilityError.
var ErrIncompatible = &CompatibilityError{}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}

func (e *CompatibilityError) Is(target error) bool {
	_, ok := target.(*CompatibilityError)
	return ok
}
