package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/metatronqso/internal/opt"
	"github.com/cwbudde/metatronqso/internal/vqa"
	"github.com/cwbudde/metatronqso/internal/vqa/ansatz"
	"github.com/cwbudde/metatronqso/internal/vqa/cost"
)

var (
	vqcFlags    runFlags
	vqcData     string
	vqcTest     string
	vqcEncoding string
	vqcAnsatz   string
)

var vqcCmd = &cobra.Command{
	Use:   "vqc",
	Short: "Train a binary classifier with VQC",
	Long: `Trains the variational quantum classifier on a YAML dataset of the form

  samples:
    - features: [0.1, 0.2]
      label: 0

and reports training loss and accuracy. --test evaluates a held-out set with
the feature scaling fitted on the training data. Classifier runs are not
checkpointed.`,
	RunE: runVQC,
}

func runVQC(cmd *cobra.Command, args []string) error {
	train, err := vqa.LoadDataset(vqcData)
	if err != nil {
		return err
	}
	var test *vqa.Dataset
	if vqcTest != "" {
		if test, err = vqa.LoadDataset(vqcTest); err != nil {
			return err
		}
	}

	encoding, err := vqa.ParseEncoding(vqcEncoding)
	if err != nil {
		return err
	}
	at, err := ansatz.ParseType(vqcAnsatz)
	if err != nil {
		return err
	}
	optimizer, err := opt.ParseType(vqcFlags.optimizer)
	if err != nil {
		return err
	}

	b := vqa.NewVQCBuilder().
		Encoding(encoding).
		AnsatzType(at).
		AnsatzDepth(vqcFlags.depth).
		Optimizer(optimizer).
		MaxIterations(vqcFlags.iters).
		Seed(vqcFlags.seed)
	if vqcFlags.learningRate > 0 {
		b.LearningRate(vqcFlags.learningRate)
	}
	if vqcFlags.gradient != "" {
		method, err := cost.ParseGradientMethod(vqcFlags.gradient)
		if err != nil {
			return err
		}
		b.GradientMethod(method)
	}
	classifier, err := b.Build()
	if err != nil {
		return err
	}

	ctx, stop := interruptible(cmd)
	defer stop()

	X, y := train.Split()
	result, err := classifier.Train(ctx, X, y)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Samples:        %d\n", len(X))
	fmt.Fprintf(w, "Parameters:     %d\n", len(result.Parameters))
	fmt.Fprintf(w, "Loss:           %.6f\n", result.Loss)
	fmt.Fprintf(w, "Train accuracy: %.4f\n", result.Accuracy)
	fmt.Fprintf(w, "Iterations:     %d (converged: %t)\n", result.Optimization.Iterations, result.Optimization.Converged)

	if test != nil {
		tX, ty := test.Split()
		accuracy, err := classifier.Evaluate(tX, ty)
		if err != nil {
			return fmt.Errorf("test set: %w", err)
		}
		fmt.Fprintf(w, "Test accuracy:  %.4f\n", accuracy)
	}
	return nil
}

func init() {
	vqcFlags.registerTraining(vqcCmd, "adam", 2)
	vqcCmd.Flags().StringVar(&vqcData, "data", "", "Training dataset (YAML)")
	vqcCmd.Flags().StringVar(&vqcTest, "test", "", "Optional test dataset (YAML)")
	vqcCmd.Flags().StringVar(&vqcEncoding, "encoding", "angle", "Feature encoding: angle, amplitude, basis")
	vqcCmd.Flags().StringVar(&vqcAnsatz, "ansatz", "hardware_efficient", "Ansatz: hardware_efficient, efficient_su2, metatron")
	vqcCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(vqcCmd)
}
