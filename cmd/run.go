package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cwbudde/metatronqso/internal/runner"
	"github.com/cwbudde/metatronqso/internal/store"
)

// runFlags are the flags every run command carries. Each command owns its
// own copy so defaults do not leak between commands.
type runFlags struct {
	optimizer    string
	depth        int
	iters        int
	learningRate float64
	gradient     string
	seed         uint64
	noCheckpoint bool
}

func (f *runFlags) register(cmd *cobra.Command, defaultOptimizer string, defaultDepth int) {
	f.registerTraining(cmd, defaultOptimizer, defaultDepth)
	cmd.Flags().BoolVar(&f.noCheckpoint, "no-checkpoint", false, "Do not persist a checkpoint or trace")
}

// registerTraining adds the optimizer flags without checkpointing.
func (f *runFlags) registerTraining(cmd *cobra.Command, defaultOptimizer string, defaultDepth int) {
	cmd.Flags().StringVar(&f.optimizer, "optimizer", defaultOptimizer, "Optimizer: adam, nelder_mead, lbfgs, gradient_descent, mayfly")
	cmd.Flags().IntVar(&f.depth, "depth", defaultDepth, "Ansatz layers or QAOA depth p")
	cmd.Flags().IntVar(&f.iters, "iters", 100, "Max iterations")
	cmd.Flags().Float64Var(&f.learningRate, "lr", 0, "Learning rate (0 = algorithm default)")
	cmd.Flags().StringVar(&f.gradient, "gradient", "", "Gradient method: parameter_shift, finite_difference (empty = algorithm default)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 42, "Random seed")
}

// config fills the fields common to all algorithms
func (f *runFlags) config(algorithm string) store.RunConfig {
	return store.RunConfig{
		Algorithm:      algorithm,
		Depth:          f.depth,
		Optimizer:      f.optimizer,
		GradientMethod: f.gradient,
		Iters:          f.iters,
		LearningRate:   f.learningRate,
		Seed:           f.seed,
	}
}

// newRunner opens the data directory unless persistence is disabled.
func newRunner(persist bool) (*runner.Runner, error) {
	if !persist {
		return runner.New(nil, ""), nil
	}
	st, err := store.NewFSStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint store: %w", err)
	}
	return runner.New(st, dataDir), nil
}

// interruptible cancels the run on Ctrl-C so the job ends as cancelled.
func interruptible(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

func executeJob(cmd *cobra.Command, cfg store.RunConfig, persist bool) error {
	r, err := newRunner(persist)
	if err != nil {
		return err
	}
	ctx, stop := interruptible(cmd)
	defer stop()

	job, err := r.Execute(ctx, cfg)
	if err != nil {
		return err
	}
	printJob(cmd.OutOrStdout(), job, persist)
	return nil
}

func printJob(w io.Writer, job runner.Job, persisted bool) {
	fmt.Fprintf(w, "Job:          %s\n", job.ID)
	fmt.Fprintf(w, "Algorithm:    %s (%s, depth %d)\n", job.Config.Algorithm, job.Config.Optimizer, job.Config.Depth)
	fmt.Fprintf(w, "Cost:         %.6f -> %.6f\n", job.InitialCost, job.BestCost)
	fmt.Fprintf(w, "Iterations:   %d (converged: %t)\n", job.Iterations, job.Converged)
	fmt.Fprintf(w, "Evaluations:  %d\n", job.Evaluations)

	keys := make([]string, 0, len(job.Summary))
	for k := range job.Summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-24s %.6f\n", k+":", job.Summary[k])
	}

	if persisted {
		fmt.Fprintf(w, "Checkpoint saved; resume with: metatronqso resume %s\n", job.ID)
	}
}
