package walk

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/metatronqso/internal/graph"
	"github.com/cwbudde/metatronqso/internal/quantum"
)

// MixingResult tracks the total variation distance between the walk and
// its long-time average over a time grid.
type MixingResult struct {
	Epsilon        float64   `json:"epsilon"`
	Stationary     []float64 `json:"stationary"`
	Times          []float64 `json:"times"`
	TotalVariation []float64 `json:"totalVariation"`

	// MixingTime is the first time at which the distance is <= Epsilon;
	// only meaningful when Mixed is set
	MixingTime float64 `json:"mixingTime"`
	Mixed      bool    `json:"mixed"`
}

// TotalVariation returns ½·Σ|a_i - b_i|.
func TotalVariation(a, b []float64) float64 {
	return 0.5 * floats.Distance(a, b, 1)
}

// MixingTime samples the walk from initial at every time in times.
func (w *Walk) MixingTime(initial quantum.State, times []float64, epsilon float64) (*MixingResult, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("mixing time needs at least one sample time")
	}
	if math.IsNaN(epsilon) || epsilon <= 0 {
		return nil, fmt.Errorf("epsilon must be positive, got %v", epsilon)
	}

	p := w.Propagator(initial)
	stationary := p.TimeAverage()
	r := &MixingResult{
		Epsilon:        epsilon,
		Stationary:     stationary,
		Times:          append([]float64(nil), times...),
		TotalVariation: make([]float64, len(times)),
	}
	for i, t := range times {
		d := TotalVariation(p.ProbabilitiesAt(t), stationary)
		r.TotalVariation[i] = d
		if !r.Mixed && d <= epsilon {
			r.MixingTime, r.Mixed = t, true
		}
	}
	return r, nil
}

// HittingResult is the first-passage analysis of one start/target pair.
// The walk is observed at t = dt, 2dt, ... and each observation finds the
// target with probability P_target(t).
type HittingResult struct {
	Start              int       `json:"start"`
	Target             int       `json:"target"`
	ExpectedTime       float64   `json:"expectedTime"`
	ExpectedSteps      float64   `json:"expectedSteps"`
	SuccessProbability float64   `json:"successProbability"`
	FirstPassage       []float64 `json:"firstPassage"`
}

func (p *Propagator) hitting(start, target int, dt float64, steps int) HittingResult {
	r := HittingResult{Start: start, Target: target, FirstPassage: make([]float64, steps)}
	survival := 1.0
	for step := 0; step < steps; step++ {
		t := float64(step+1) * dt
		hit := math.Min(math.Max(p.ProbabilitiesAt(t)[target], 0), 1)
		first := survival * hit
		r.ExpectedTime += first * t
		r.ExpectedSteps += first * float64(step+1)
		r.FirstPassage[step] = first
		survival *= 1 - hit
	}
	r.SuccessProbability = 1 - survival
	return r
}

func checkHitting(dt float64, steps int) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return fmt.Errorf("dt must be positive and finite, got %v", dt)
	}
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	return nil
}

// HittingTime measures first passage from basis state start to node target.
func (w *Walk) HittingTime(start, target int, dt float64, steps int) (*HittingResult, error) {
	if err := checkHitting(dt, steps); err != nil {
		return nil, err
	}
	initial, err := quantum.BasisState(start)
	if err != nil {
		return nil, err
	}
	if target < 0 || target >= quantum.Dimension {
		return nil, &quantum.DimensionMismatchError{What: "target node", Expected: quantum.Dimension, Actual: target}
	}
	r := w.Propagator(initial).hitting(start, target, dt, steps)
	return &r, nil
}

// HittingBenchmark compares quantum first-passage statistics over all
// ordered node pairs with the classical random walk on the same graph.
type HittingBenchmark struct {
	Dt                     float64 `json:"dt"`
	Steps                  int     `json:"steps"`
	QuantumAverageTime     float64 `json:"quantumAverageTime"`
	QuantumAverageSteps    float64 `json:"quantumAverageSteps"`
	ClassicalAverageSteps  float64 `json:"classicalAverageSteps"`
	MeanSuccessProbability float64 `json:"meanSuccessProbability"`

	// SpeedupFactor is classical over quantum average steps
	SpeedupFactor float64 `json:"speedupFactor"`

	Classical *mat.Dense      `json:"-"`
	Quantum   []HittingResult `json:"quantum"`
}

// HittingTimeBenchmark runs HittingTime for every ordered pair of distinct
// nodes, one worker per start node.
func (w *Walk) HittingTimeBenchmark(ctx context.Context, g *graph.Graph, dt float64, steps int) (*HittingBenchmark, error) {
	if err := checkHitting(dt, steps); err != nil {
		return nil, err
	}
	if g.NodeCount() != quantum.Dimension {
		return nil, &quantum.DimensionMismatchError{What: "graph node count", Expected: quantum.Dimension, Actual: g.NodeCount()}
	}
	classical, err := ClassicalHittingTimes(g)
	if err != nil {
		return nil, err
	}

	const n = quantum.Dimension
	perStart := make([][]HittingResult, n)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < n; start++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := w.Propagator(quantum.MustBasisState(start))
			results := make([]HittingResult, 0, n-1)
			for target := 0; target < n; target++ {
				if target != start {
					results = append(results, p.hitting(start, target, dt, steps))
				}
			}
			perStart[start] = results
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	b := &HittingBenchmark{Dt: dt, Steps: steps, Classical: classical}
	for _, results := range perStart {
		for _, r := range results {
			b.QuantumAverageTime += r.ExpectedTime
			b.QuantumAverageSteps += r.ExpectedSteps
			b.MeanSuccessProbability += r.SuccessProbability
			b.ClassicalAverageSteps += classical.At(r.Start, r.Target)
			b.Quantum = append(b.Quantum, r)
		}
	}
	count := float64(len(b.Quantum))
	b.QuantumAverageTime /= count
	b.QuantumAverageSteps /= count
	b.MeanSuccessProbability /= count
	b.ClassicalAverageSteps /= count

	b.SpeedupFactor = math.Inf(1)
	if b.QuantumAverageSteps > 0 {
		b.SpeedupFactor = b.ClassicalAverageSteps / b.QuantumAverageSteps
	}
	return b, nil
}

// ClassicalHittingTimes returns H with H[i][j] the expected number of steps
// a simple random walk started at i needs to reach j. The diagonal is zero
// and pairs in different components are +Inf.
func ClassicalHittingTimes(g *graph.Graph) (*mat.Dense, error) {
	n := g.NodeCount()
	hitting := mat.NewDense(n, n, nil)

	for target := 0; target < n; target++ {
		// nodes that can reach target, excluding target itself
		component := reachable(g, target)
		transient := make([]int, 0, len(component))
		for _, i := range component {
			if i != target {
				transient = append(transient, i)
			}
		}
		for i := 0; i < n; i++ {
			if i != target {
				hitting.Set(i, target, math.Inf(1))
			}
		}
		if len(transient) == 0 {
			continue
		}

		// (I - P_TT) h = 1 over the transient nodes
		m := len(transient)
		system := mat.NewDense(m, m, nil)
		ones := mat.NewVecDense(m, nil)
		for r, i := range transient {
			ones.SetVec(r, 1)
			deg := g.Degree(i)
			for c, j := range transient {
				v := 0.0
				if r == c {
					v = 1
				}
				system.Set(r, c, v-g.Weight(i, j)/deg)
			}
		}
		var h mat.VecDense
		if err := h.SolveVec(system, ones); err != nil {
			return nil, fmt.Errorf("hitting times to node %d: %w", target, err)
		}
		for r, i := range transient {
			hitting.Set(i, target, h.AtVec(r))
		}
	}
	return hitting, nil
}

// reachable lists the nodes connected to start, start included.
func reachable(g *graph.Graph, start int) []int {
	seen := make([]bool, g.NodeCount())
	seen[start] = true
	queue := []int{start}
	for head := 0; head < len(queue); head++ {
		for _, j := range g.Neighbours(queue[head]) {
			if !seen[j] {
				seen[j] = true
				queue = append(queue, j)
			}
		}
	}
	return queue
}
