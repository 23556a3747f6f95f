package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/metatronqso/internal/graph"
	"github.com/cwbudde/metatronqso/internal/hamiltonian"
	"github.com/cwbudde/metatronqso/internal/opt"
	"github.com/cwbudde/metatronqso/internal/quantum"
	"github.com/cwbudde/metatronqso/internal/store"
	"github.com/cwbudde/metatronqso/internal/vqa"
	"github.com/cwbudde/metatronqso/internal/vqa/ansatz"
	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

// Graph names accepted in RunConfig.Graph.
const (
	GraphMetatron = "metatron"
	GraphTriangle = "triangle"
)

// ErrNoFiniteCost marks a run in which every evaluated cost was NaN or
// infinite. Such a run fails instead of writing a checkpoint.
var ErrNoFiniteCost = errors.New("optimization produced no finite cost")

// Runner builds algorithms from a store.RunConfig, runs them as jobs and
// persists the outcome.
type Runner struct {
	jobs  *Manager
	store store.Store

	// traceDir is the base directory for trace.jsonl; empty disables traces
	traceDir string
}

// New creates a runner. With a nil store nothing is persisted.
func New(st store.Store, traceDir string) *Runner {
	return &Runner{jobs: NewManager(), store: st, traceDir: traceDir}
}

// Jobs exposes the job table
func (r *Runner) Jobs() *Manager { return r.jobs }

// outcome is what every algorithm reports back to the job
type outcome struct {
	result  *opt.Result
	summary map[string]float64
}

// plan is a built but not yet started algorithm
type plan struct {
	numParams int
	run       func(ctx context.Context) (*outcome, error)
}

// Execute runs cfg as a new job and returns its final snapshot. Optimizer
// failures mark the job failed; the returned error is the cause.
func (r *Runner) Execute(ctx context.Context, cfg store.RunConfig) (Job, error) {
	p, err := build(cfg)
	if err != nil {
		return Job{}, err
	}
	cfg.NumParams = p.numParams

	job := r.jobs.CreateJob(cfg)
	return r.run(ctx, job.ID, p, nil)
}

// Resume continues a checkpointed job from its best parameters. The
// optimizer restarts fresh; iters > 0 replaces the iteration budget.
func (r *Runner) Resume(ctx context.Context, jobID string, iters int) (Job, error) {
	if r.store == nil {
		return Job{}, fmt.Errorf("resume needs a checkpoint store")
	}
	checkpoint, err := r.store.LoadCheckpoint(jobID)
	if err != nil {
		return Job{}, err
	}
	if err := checkpoint.Validate(); err != nil {
		return Job{}, fmt.Errorf("checkpoint %s: %w", jobID, err)
	}

	cfg := checkpoint.Config
	cfg.InitialParams = nil
	if iters > 0 {
		cfg.Iters = iters
	}

	// size the rebuilt problem before warm-starting it
	sizing, err := build(cfg)
	if err != nil {
		return Job{}, err
	}
	cfg.NumParams = sizing.numParams
	if err := checkpoint.IsCompatible(cfg); err != nil {
		return Job{}, fmt.Errorf("cannot resume %s: %w", jobID, err)
	}

	cfg.InitialParams = checkpoint.BestParams
	p, err := build(cfg)
	if err != nil {
		return Job{}, err
	}

	slog.Info("Resuming job",
		"job_id", jobID,
		"algorithm", cfg.Algorithm,
		"previous_iterations", checkpoint.Iteration,
		"best_cost", checkpoint.BestCost,
	)

	r.jobs.adopt(jobID, cfg)
	return r.run(ctx, jobID, p, checkpoint)
}

func (r *Runner) run(ctx context.Context, jobID string, p *plan, previous *store.Checkpoint) (Job, error) {
	r.jobs.UpdateJob(jobID, func(j *Job) { j.State = StateRunning })
	job, _ := r.jobs.GetJob(jobID)

	slog.Info("Starting job",
		"job_id", jobID,
		"algorithm", job.Config.Algorithm,
		"optimizer", job.Config.Optimizer,
		"depth", job.Config.Depth,
		"parameters", p.numParams,
	)

	start := time.Now()
	out, err := p.run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			r.markCancelled(jobID)
		} else {
			r.markFailed(jobID, err)
		}
		job, _ := r.jobs.GetJob(jobID)
		return job, err
	}

	res := out.result
	bestParams, bestCost := res.BestParams, res.BestCost
	initialCost := firstCost(res)
	iterations, evaluations := res.Iterations, res.TotalEvaluations
	resumes := 0
	if previous != nil {
		// a restarted optimizer must not lose the checkpointed best
		if !(bestCost <= previous.BestCost) {
			bestParams, bestCost = previous.BestParams, previous.BestCost
		}
		initialCost = previous.InitialCost
		iterations += previous.Iteration
		evaluations += previous.Evaluations
		resumes = previous.Resumes + 1
	}
	if !finite(bestCost) {
		err := fmt.Errorf("%w after %d iterations", ErrNoFiniteCost, res.Iterations)
		r.markFailed(jobID, err)
		job, _ := r.jobs.GetJob(jobID)
		return job, err
	}
	if !finite(initialCost) {
		initialCost = bestCost
	}

	endTime := time.Now()
	r.jobs.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestParams = bestParams
		j.BestCost = bestCost
		j.InitialCost = initialCost
		j.Iterations = iterations
		j.Evaluations = evaluations
		j.Converged = res.Converged
		j.Summary = out.summary
		j.EndTime = &endTime
	})
	job, _ = r.jobs.GetJob(jobID)

	if r.store != nil {
		persisted := job.Config
		persisted.InitialParams = nil
		checkpoint := store.NewCheckpoint(jobID, bestParams, bestCost, initialCost, iterations, persisted)
		checkpoint.Converged = res.Converged
		checkpoint.Evaluations = evaluations
		checkpoint.Resumes = resumes
		if err := r.store.SaveCheckpoint(jobID, checkpoint); err != nil {
			return job, fmt.Errorf("failed to save checkpoint: %w", err)
		}
	}
	if r.traceDir != "" {
		offset := 0
		if previous != nil {
			offset = previous.Iteration
		}
		if err := writeTrace(r.traceDir, jobID, res.History, offset, previous != nil); err != nil {
			slog.Warn("Failed to write trace", "job_id", jobID, "error", err)
		}
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", time.Since(start),
		"initial_cost", initialCost,
		"best_cost", bestCost,
		"iterations", iterations,
		"evaluations", evaluations,
		"converged", res.Converged,
	)
	return job, nil
}

// firstCost is the first finite cost in the history, or the best cost when
// there is none.
func firstCost(r *opt.Result) float64 {
	for _, h := range r.History {
		if finite(h.Cost) {
			return h.Cost
		}
	}
	return r.BestCost
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func writeTrace(dir, jobID string, history []opt.HistoryEntry, offset int, appendMode bool) error {
	tw, err := store.NewTraceWriter(dir, jobID, appendMode)
	if err != nil {
		return err
	}
	for _, h := range history {
		// JSON has no NaN; non-finite iterates are counted in the result instead
		if !finite(h.Cost) {
			continue
		}
		entry := store.TraceEntry{
			Iteration:    offset + h.Iteration,
			Cost:         h.Cost,
			GradientNorm: h.GradientNorm,
			Evaluations:  h.Evaluations,
			Timestamp:    time.Now(),
		}
		if h.GradientNorm != nil && !finite(*h.GradientNorm) {
			entry.GradientNorm = nil
		}
		if err := tw.Write(entry); err != nil {
			tw.Close()
			return err
		}
	}
	return tw.Close()
}

func (r *Runner) markFailed(jobID string, err error) {
	endTime := time.Now()
	r.jobs.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

func (r *Runner) markCancelled(jobID string) {
	endTime := time.Now()
	r.jobs.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}

// build turns a persisted configuration into a runnable plan.
func build(cfg store.RunConfig) (*plan, error) {
	optimizer, err := opt.ParseType(cfg.Optimizer)
	if err != nil {
		return nil, err
	}
	// an empty method keeps the algorithm default
	var method cost.GradientMethod
	if cfg.GradientMethod != "" {
		if method, err = cost.ParseGradientMethod(cfg.GradientMethod); err != nil {
			return nil, err
		}
	}

	switch cfg.Algorithm {
	case store.AlgorithmVQE:
		return buildVQE(cfg, optimizer, method)
	case store.AlgorithmQAOA:
		return buildQAOA(cfg, optimizer, method)
	case store.AlgorithmMaxCut:
		return buildMaxCut(cfg, optimizer, method)
	default:
		return nil, fmt.Errorf("unknown algorithm: %q", cfg.Algorithm)
	}
}

// LoadHamiltonian returns the Metatron Hamiltonian for a parameter file,
// or the default one when path is empty.
func LoadHamiltonian(path string) (*hamiltonian.Hamiltonian, error) {
	if path == "" {
		return hamiltonian.Default(), nil
	}
	params, err := hamiltonian.LoadParameters(path)
	if err != nil {
		return nil, err
	}
	return hamiltonian.NewMetatron(params)
}

// LoadGraph resolves a graph name to a 13-node graph.
func LoadGraph(name string) (*graph.Graph, error) {
	switch name {
	case "", GraphMetatron:
		return graph.NewMetatron().Graph, nil
	case GraphTriangle:
		return graph.FromEdges(quantum.Dimension, [][2]int{{0, 1}, {1, 2}, {0, 2}})
	default:
		return nil, fmt.Errorf("unknown graph: %q", name)
	}
}

func buildVQE(cfg store.RunConfig, optimizer opt.Type, method cost.GradientMethod) (*plan, error) {
	h, err := LoadHamiltonian(cfg.ParamsPath)
	if err != nil {
		return nil, err
	}
	at, err := ansatz.ParseType(cfg.Ansatz)
	if err != nil {
		return nil, err
	}

	b := vqa.NewVQEBuilder().
		Hamiltonian(h).
		AnsatzType(at).
		AnsatzDepth(cfg.Depth).
		Optimizer(optimizer).
		MaxIterations(cfg.Iters).
		Seed(cfg.Seed)
	if cfg.LearningRate > 0 {
		b.LearningRate(cfg.LearningRate)
	}
	if method != "" {
		b.GradientMethod(method)
	}
	if cfg.Entanglement != "" {
		b.Entanglement(ansatz.EntanglementStrategy(cfg.Entanglement))
	}
	if cfg.Starts > 0 {
		b.NumRandomStarts(cfg.Starts)
	}
	if cfg.InitialParams != nil {
		b.InitialParams(cfg.InitialParams)
	}
	v, err := b.Build()
	if err != nil {
		return nil, err
	}

	return &plan{
		numParams: v.Ansatz().NumParameters(),
		run: func(ctx context.Context) (*outcome, error) {
			res, err := v.Run(ctx)
			if err != nil {
				return nil, err
			}
			if err := v.VerifyResult(res); err != nil {
				slog.Warn("VQE result failed verification", "error", err)
			}
			return &outcome{
				result: res.Optimization,
				summary: map[string]float64{
					"classical_ground_energy": res.ClassicalGroundEnergy,
					"approximation_error":     res.ApproximationError,
					"relative_error":          res.RelativeError(),
				},
			}, nil
		},
	}, nil
}

func buildQAOA(cfg store.RunConfig, optimizer opt.Type, method cost.GradientMethod) (*plan, error) {
	g, err := LoadGraph(cfg.Graph)
	if err != nil {
		return nil, err
	}
	h, err := vqa.MaxCutHamiltonian(g)
	if err != nil {
		return nil, err
	}

	b := vqa.NewQAOABuilder().
		CostHamiltonian(h).
		Depth(cfg.Depth).
		Optimizer(optimizer).
		MaxIterations(cfg.Iters).
		Seed(cfg.Seed)
	if cfg.LearningRate > 0 {
		b.LearningRate(cfg.LearningRate)
	}
	if method != "" {
		b.GradientMethod(method)
	}
	if cfg.InitialParams != nil {
		b.InitialParams(cfg.InitialParams)
	}
	q, err := b.Build()
	if err != nil {
		return nil, err
	}

	return &plan{
		numParams: 2 * cfg.Depth,
		run: func(ctx context.Context) (*outcome, error) {
			res, err := q.Run(ctx)
			if err != nil {
				return nil, err
			}
			return &outcome{
				result: res.Optimization,
				summary: map[string]float64{
					"approximation_ratio": res.ApproximationRatio,
					"classical_optimum":   res.ClassicalOptimum,
				},
			}, nil
		},
	}, nil
}

func buildMaxCut(cfg store.RunConfig, optimizer opt.Type, method cost.GradientMethod) (*plan, error) {
	g, err := LoadGraph(cfg.Graph)
	if err != nil {
		return nil, err
	}

	s := vqa.NewMaxCutSolver(g).
		WithDepth(cfg.Depth).
		WithMaxIterations(cfg.Iters).
		WithOptimizer(optimizer).
		WithGradientMethod(method).
		WithSeed(cfg.Seed)
	if cfg.LearningRate > 0 {
		s.WithLearningRate(cfg.LearningRate)
	}
	if cfg.InitialParams != nil {
		s.WithInitialParams(cfg.InitialParams)
	}
	// surface configuration errors before the job starts
	b, err := s.Builder()
	if err != nil {
		return nil, err
	}
	if _, err := b.Build(); err != nil {
		return nil, err
	}

	return &plan{
		numParams: 2 * cfg.Depth,
		run: func(ctx context.Context) (*outcome, error) {
			sol, err := s.Solve(ctx)
			if err != nil {
				return nil, err
			}
			return &outcome{
				result: sol.QAOA.Optimization,
				summary: map[string]float64{
					"cut_value":           sol.CutValue,
					"assignment_cut":      vqa.CutWeight(g, sol.Assignment),
					"approximation_ratio": sol.ApproximationRatio,
					"partition_zero":      float64(sol.Meta.PartitionSizes[0]),
					"partition_one":       float64(sol.Meta.PartitionSizes[1]),
				},
			}, nil
		},
	}, nil
}
