package main

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/metatronqso/internal/store"
)

var (
	vqeFlags     runFlags
	ansatzName   string
	entanglement string
	starts       int
	paramsPath   string
)

var vqeCmd = &cobra.Command{
	Use:   "vqe",
	Short: "Find the ground state energy with VQE",
	Long: `Runs the variational quantum eigensolver against the Metatron Hamiltonian.
The default Hamiltonian uses J=1 and zero on-site energies; --params loads
J and epsilon from a YAML file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := vqeFlags.config(store.AlgorithmVQE)
		cfg.Ansatz = ansatzName
		cfg.Entanglement = entanglement
		cfg.Starts = starts
		cfg.ParamsPath = paramsPath
		return executeJob(cmd, cfg, !vqeFlags.noCheckpoint)
	},
}

func init() {
	vqeFlags.register(vqeCmd, "adam", 2)
	vqeCmd.Flags().StringVar(&ansatzName, "ansatz", "hardware_efficient", "Ansatz: hardware_efficient, efficient_su2, metatron")
	vqeCmd.Flags().StringVar(&entanglement, "entanglement", "ring", "Metatron ansatz entanglement: ring, full")
	vqeCmd.Flags().IntVar(&starts, "starts", 1, "Number of random starts")
	vqeCmd.Flags().StringVar(&paramsPath, "params", "", "Hamiltonian parameter file (YAML)")
	rootCmd.AddCommand(vqeCmd)
}
