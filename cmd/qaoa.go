package main

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/metatronqso/internal/runner"
	"github.com/cwbudde/metatronqso/internal/store"
)

var (
	qaoaFlags runFlags
	triangle  bool
	solve     bool
)

var qaoaCmd = &cobra.Command{
	Use:   "qaoa",
	Short: "Run QAOA on MaxCut",
	Long: `Optimizes QAOA angles for the MaxCut Hamiltonian of the Metatron graph,
or of a single triangle with --triangle. With --solve the optimized state is
sampled and the best partition reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := qaoaFlags.config(store.AlgorithmQAOA)
		if solve {
			cfg.Algorithm = store.AlgorithmMaxCut
		}
		cfg.Graph = runner.GraphMetatron
		if triangle {
			cfg.Graph = runner.GraphTriangle
		}
		return executeJob(cmd, cfg, !qaoaFlags.noCheckpoint)
	},
}

func init() {
	qaoaFlags.register(qaoaCmd, "nelder_mead", 3)
	qaoaCmd.Flags().BoolVar(&triangle, "triangle", false, "Use the 3-node triangle instead of the Metatron graph")
	qaoaCmd.Flags().BoolVar(&solve, "solve", false, "Sample the optimized state and report a partition")
	rootCmd.AddCommand(qaoaCmd)
}
