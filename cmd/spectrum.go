package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/metatronqso/internal/runner"
)

var (
	spectrumParams string
	spectrumJSON   bool
)

var spectrumCmd = &cobra.Command{
	Use:   "spectrum",
	Short: "Print the Hamiltonian spectrum",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := runner.LoadHamiltonian(spectrumParams)
		if err != nil {
			return err
		}
		info := h.SpectrumInfo()
		w := cmd.OutOrStdout()

		if spectrumJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Fprintln(w, "Eigenvalues:")
		for i, e := range info.Eigenvalues {
			fmt.Fprintf(w, "  %2d  %12.6f\n", i, e)
		}
		fmt.Fprintf(w, "Ground energy:  %.6f\n", info.GroundStateEnergy)
		fmt.Fprintf(w, "Energy gap:     %.6f\n", info.EnergyGap)
		fmt.Fprintf(w, "Max energy:     %.6f\n", info.MaxEnergy)
		fmt.Fprintf(w, "Energy spread:  %.6f\n", info.EnergySpread)
		return nil
	},
}

func init() {
	spectrumCmd.Flags().StringVar(&spectrumParams, "params", "", "Hamiltonian parameter file (YAML)")
	spectrumCmd.Flags().BoolVar(&spectrumJSON, "json", false, "Print as JSON")
	rootCmd.AddCommand(spectrumCmd)
}
