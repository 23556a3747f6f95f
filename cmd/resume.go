package main

import (
	"github.com/spf13/cobra"
)

var resumeIters int

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume a run from its checkpoint",
	Long: `Continues a checkpointed run from its best parameters. The optimizer state
starts fresh, iterations and evaluations accumulate in the checkpoint and the
trace is appended.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner(true)
		if err != nil {
			return err
		}
		ctx, stop := interruptible(cmd)
		defer stop()

		job, err := r.Resume(ctx, args[0], resumeIters)
		if err != nil {
			return err
		}
		printJob(cmd.OutOrStdout(), job, true)
		return nil
	},
}

func init() {
	resumeCmd.Flags().IntVar(&resumeIters, "iters", 0, "Max iterations for this leg (0 = as before)")
	rootCmd.AddCommand(resumeCmd)
}
