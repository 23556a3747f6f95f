package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/metatronqso/internal/graph"
	"github.com/cwbudde/metatronqso/internal/hamiltonian"
	"github.com/cwbudde/metatronqso/internal/quantum"
	"github.com/cwbudde/metatronqso/internal/walk"
)

var (
	walkParams       string
	walkStart        int
	walkDephasing    float64
	walkMixingDt     float64
	walkSamples      int
	walkEpsilon      float64
	walkHittingDt    float64
	walkHittingSteps int
	walkJSON         bool
)

var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "Analyse the continuous-time quantum walk on the Metatron Cube",
	Long: `Evolves a walker from --start under the Metatron Hamiltonian and reports
the mixing time towards the long-time average distribution together with
quantum and classical hitting times over all node pairs. The dephasing rate
comes from the --params file unless --dephasing is given.`,
	RunE: runWalk,
}

// walkReport is the JSON form of the walk analysis.
type walkReport struct {
	Start         int                    `json:"start"`
	DephasingRate float64                `json:"dephasingRate"`
	Mixing        *walk.MixingResult     `json:"mixing"`
	Hitting       *walk.HittingBenchmark `json:"hitting"`
}

func runWalk(cmd *cobra.Command, args []string) error {
	params := hamiltonian.DefaultParameters()
	if walkParams != "" {
		var err error
		if params, err = hamiltonian.LoadParameters(walkParams); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("dephasing") {
		params.DephasingRate = walkDephasing
	}
	h, err := hamiltonian.NewMetatron(params)
	if err != nil {
		return err
	}
	w, err := walk.NewWithDephasing(h, params.DephasingRate)
	if err != nil {
		return err
	}
	initial, err := quantum.BasisState(walkStart)
	if err != nil {
		return err
	}

	times := make([]float64, walkSamples)
	for i := range times {
		times[i] = float64(i) * walkMixingDt
	}
	mixing, err := w.MixingTime(initial, times, walkEpsilon)
	if err != nil {
		return err
	}

	ctx, stop := interruptible(cmd)
	defer stop()
	hitting, err := w.HittingTimeBenchmark(ctx, graph.NewMetatron().Graph, walkHittingDt, walkHittingSteps)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if walkJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(walkReport{
			Start:         walkStart,
			DephasingRate: params.DephasingRate,
			Mixing:        mixing,
			Hitting:       hitting,
		})
	}

	fmt.Fprintf(out, "Start node:       %d (dephasing %.4f)\n", walkStart, params.DephasingRate)
	fmt.Fprintln(out, "Time average:")
	for i, p := range mixing.Stationary {
		fmt.Fprintf(out, "  %2d  %.6f\n", i, p)
	}
	if mixing.Mixed {
		fmt.Fprintf(out, "Mixing time:      %.4f (epsilon %.4f)\n", mixing.MixingTime, mixing.Epsilon)
	} else {
		fmt.Fprintf(out, "Mixing time:      not reached within t=%.4f (epsilon %.4f)\n", times[len(times)-1], mixing.Epsilon)
	}
	fmt.Fprintf(out, "Quantum hitting:  %.4f steps (%.4f time), success %.4f\n",
		hitting.QuantumAverageSteps, hitting.QuantumAverageTime, hitting.MeanSuccessProbability)
	fmt.Fprintf(out, "Classical hitting: %.4f steps\n", hitting.ClassicalAverageSteps)
	fmt.Fprintf(out, "Speedup:          %.4f\n", hitting.SpeedupFactor)
	return nil
}

func init() {
	walkCmd.Flags().StringVar(&walkParams, "params", "", "Hamiltonian parameter file (YAML)")
	walkCmd.Flags().IntVar(&walkStart, "start", 0, "Start node of the walker")
	walkCmd.Flags().Float64Var(&walkDephasing, "dephasing", 0, "Dephasing rate (overrides --params)")
	walkCmd.Flags().Float64Var(&walkMixingDt, "mixing-dt", 0.5, "Time step of the mixing grid")
	walkCmd.Flags().IntVar(&walkSamples, "samples", 20, "Number of mixing samples")
	walkCmd.Flags().Float64Var(&walkEpsilon, "epsilon", 0.05, "Total variation threshold for mixing")
	walkCmd.Flags().Float64Var(&walkHittingDt, "hitting-dt", 0.25, "Observation interval for hitting times")
	walkCmd.Flags().IntVar(&walkHittingSteps, "hitting-steps", 12, "Number of hitting observations")
	walkCmd.Flags().BoolVar(&walkJSON, "json", false, "Print as JSON")
	rootCmd.AddCommand(walkCmd)
}
