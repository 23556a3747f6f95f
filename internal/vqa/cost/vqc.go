package cost

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/metatronqso/internal/quantum"
	"github.com/cwbudde/metatronqso/internal/vqa/ansatz"
)

// ProbabilityClamp keeps the cross-entropy finite.
const ProbabilityClamp = 1e-10

// VQC is the mean binary cross-entropy of a classifier that reads
// P(class 0) = |a_0|^2 from the ansatz output on each encoded sample.
type VQC struct {
	counter
	ansatz  ansatz.Ansatz
	samples []quantum.State
	labels  []int
	cache   *Cache
}

// NewVQC binds pre-encoded training samples and their 0/1 labels.
func NewVQC(a ansatz.Ansatz, samples []quantum.State, labels []int) (*VQC, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("vqc cost: empty training set")
	}
	if len(samples) != len(labels) {
		return nil, &quantum.DimensionMismatchError{What: "vqc label count", Expected: len(samples), Actual: len(labels)}
	}
	for i, l := range labels {
		if l != 0 && l != 1 {
			return nil, fmt.Errorf("vqc cost: label %d at index %d is not 0 or 1", l, i)
		}
	}
	return &VQC{
		ansatz:  a,
		samples: samples,
		labels:  labels,
		cache:   NewCache(),
	}, nil
}

// ClassZeroProbability is |a_0|^2 clamped to [1e-10, 1-1e-10].
func ClassZeroProbability(s quantum.State) float64 {
	return clamp(s.ProbabilityAt(0))
}

// CrossEntropy is the binary cross-entropy of predicting class 0 with
// probability p0 for a sample labelled label.
func CrossEntropy(p0 float64, label int) float64 {
	p0 = clamp(p0)
	target := 0.0
	if label == 0 {
		target = 1
	}
	return -(target*math.Log(p0) + (1-target)*math.Log(1-p0))
}

func clamp(p float64) float64 {
	return math.Min(math.Max(p, ProbabilityClamp), 1-ProbabilityClamp)
}

func (c *VQC) Evaluate(params []float64) (float64, error) {
	if len(params) != c.Dimension() {
		return 0, dimensionError(c.Dimension(), len(params))
	}
	c.inc()
	return c.cache.lookup(params, func() (float64, error) {
		losses := make([]float64, len(c.samples))
		for i, s := range c.samples {
			out, err := c.ansatz.Apply(s, params)
			if err != nil {
				return 0, err
			}
			losses[i] = CrossEntropy(out.ProbabilityAt(0), c.labels[i])
		}
		return stat.Mean(losses, nil), nil
	})
}

func (c *VQC) Gradient(ctx context.Context, params []float64, method GradientMethod) ([]float64, error) {
	if len(params) != c.Dimension() {
		return nil, dimensionError(c.Dimension(), len(params))
	}
	return ComputeGradient(ctx, c, params, method)
}

func (c *VQC) Dimension() int { return c.ansatz.NumParameters() }
