package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cwbudde/metatronqso/internal/store"
)

var traceTail int

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show a checkpointed run",
	Long: `Shows the checkpoint of a run together with the tail of its optimization
trace, read from the data directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&traceTail, "tail", 5, "Number of trace entries to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	jobID := args[0]
	checkpointStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	checkpoint, err := checkpointStore.LoadCheckpoint(jobID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printCheckpoint(out, checkpoint)

	entries, err := readTrace(jobID)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(out, "\nNo trace recorded.")
		return nil
	}
	if err != nil {
		return err
	}
	printTrace(out, entries, traceTail)
	return nil
}

func printCheckpoint(w io.Writer, c *store.Checkpoint) {
	cfg := c.Config
	fmt.Fprintf(w, "Job: %s\n", c.JobID)
	fmt.Fprintf(w, "Saved: %s\n", c.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Algorithm: %s\n", cfg.Algorithm)
	if cfg.Ansatz != "" {
		fmt.Fprintf(w, "  Ansatz: %s\n", cfg.Ansatz)
	}
	if cfg.Graph != "" {
		fmt.Fprintf(w, "  Graph: %s\n", cfg.Graph)
	}
	if cfg.ParamsPath != "" {
		fmt.Fprintf(w, "  Hamiltonian: %s\n", cfg.ParamsPath)
	}
	fmt.Fprintf(w, "  Depth: %d\n", cfg.Depth)
	fmt.Fprintf(w, "  Optimizer: %s\n", cfg.Optimizer)
	fmt.Fprintf(w, "  Parameters: %d\n", cfg.NumParams)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Progress:")
	fmt.Fprintf(w, "  Initial Cost: %.6f\n", c.InitialCost)
	fmt.Fprintf(w, "  Best Cost: %.6f\n", c.BestCost)
	fmt.Fprintf(w, "  Improvement: %.6f\n", c.InitialCost-c.BestCost)
	fmt.Fprintf(w, "  Iterations: %d (converged: %t)\n", c.Iteration, c.Converged)
	fmt.Fprintf(w, "  Evaluations: %d\n", c.Evaluations)
	if c.Resumes > 0 {
		fmt.Fprintf(w, "  Resumes: %d\n", c.Resumes)
	}
}

func readTrace(jobID string) ([]store.TraceEntry, error) {
	reader, err := store.NewTraceReader(dataDir, jobID)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return reader.ReadAll()
}

func printTrace(w io.Writer, entries []store.TraceEntry, tail int) {
	fmt.Fprintf(w, "\nTrace (%d entries):\n", len(entries))
	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}
	for _, e := range entries {
		line := fmt.Sprintf("  %5d  %14.8f  evals %d", e.Iteration, e.Cost, e.Evaluations)
		if e.GradientNorm != nil {
			line += fmt.Sprintf("  |grad| %.3e", *e.GradientNorm)
		}
		fmt.Fprintln(w, line)
	}
}
