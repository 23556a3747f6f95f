package opt

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Criterion names the convergence test that stopped a run
type Criterion string

const (
	GradientNorm  Criterion = "gradient_norm"
	EnergyChange  Criterion = "energy_change"
	SimplexSpread Criterion = "simplex_spread"
)

// logEvery is the iteration interval of progress logs
const logEvery = 10

// Tracker keeps the optimization history, the best point ever recorded and
// the stop criteria. Only recorded points can become best, so the returned
// cost is always the minimum finite cost in the history.
type Tracker struct {
	optimizer Type
	config    Config
	normName  Criterion
	level     slog.Level

	start     time.Time
	initial   []float64
	baseEvals int64
	lastEvals int64

	history    []HistoryEntry
	bestParams []float64
	bestCost   float64
	lastCost   float64
	hasLast    bool
	nonFinite  int
	criterion  Criterion
}

// NewTracker creates a tracker. normName is the criterion reported when the
// norm test fires; evaluations is the cost function's counter at the start.
func NewTracker(optimizer Type, config Config, normName Criterion, initial []float64, evaluations int64) *Tracker {
	level := slog.LevelDebug
	if config.Verbose {
		level = slog.LevelInfo
	}
	return &Tracker{
		optimizer: optimizer,
		config:    config,
		normName:  normName,
		level:     level,
		start:     time.Now(),
		initial:   append([]float64(nil), initial...),
		baseEvals: evaluations,
		lastEvals: evaluations,
		bestCost:  math.Inf(1),
	}
}

// Record appends one history entry. evaluations is the cost function's
// running counter; the entry stores the delta since the previous record.
// gradNorm may be nil for gradient-free steps.
func (t *Tracker) Record(iteration int, params []float64, cost float64, gradNorm *float64, evaluations int64) {
	entry := HistoryEntry{
		Iteration:    iteration,
		Params:       append([]float64(nil), params...),
		Cost:         cost,
		GradientNorm: gradNorm,
		Evaluations:  evaluations - t.lastEvals,
		Elapsed:      time.Since(t.start),
	}
	t.lastEvals = evaluations
	t.history = append(t.history, entry)

	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		t.nonFinite++
		slog.Warn("Non-finite cost", "optimizer", t.optimizer, "iteration", iteration, "cost", cost)
		return
	}
	if cost < t.bestCost {
		t.bestCost = cost
		t.bestParams = entry.Params
	}

	if iteration%logEvery == 0 {
		args := []any{
			"optimizer", t.optimizer,
			"iteration", iteration,
			"cost", cost,
			"best_cost", t.bestCost,
		}
		if gradNorm != nil {
			args = append(args, string(t.normName), *gradNorm)
		}
		slog.Log(context.Background(), t.level, "Optimization progress", args...)
	}
}

// Check applies the stop criteria: norm below Tolerance, or, from the second
// call on, |cost - previous cost| below EnergyTolerance. Pass a NaN norm to
// skip the norm test.
func (t *Tracker) Check(iteration int, cost, norm float64) bool {
	return t.check(iteration, cost, norm, true)
}

// check is Check with the energy test gated by energyAllowed.
func (t *Tracker) check(iteration int, cost, norm float64, energyAllowed bool) bool {
	criterion := Criterion("")
	switch {
	case !math.IsNaN(norm) && norm < t.config.Tolerance:
		criterion = t.normName
	case energyAllowed && t.hasLast && math.Abs(cost-t.lastCost) < t.config.EnergyTolerance:
		criterion = EnergyChange
	}
	t.lastCost = cost
	t.hasLast = true

	if criterion == "" {
		return false
	}
	t.criterion = criterion
	slog.Log(context.Background(), t.level, "Converged",
		"optimizer", t.optimizer,
		"criterion", criterion,
		"iterations", iteration+1,
		"best_cost", t.bestCost,
	)
	return true
}

// BestCost returns the best finite cost recorded so far
func (t *Tracker) BestCost() float64 {
	return t.bestCost
}

// History returns the recorded entries
func (t *Tracker) History() []HistoryEntry {
	return t.history
}

// Result assembles the run outcome. evaluations is the cost function's
// counter at termination. If no finite cost was ever recorded, the initial
// parameters are returned with the first recorded cost.
func (t *Tracker) Result(iterations int, converged bool, evaluations int64) *Result {
	params, best := t.bestParams, t.bestCost
	if params == nil {
		params = t.initial
		best = math.NaN()
		if len(t.history) > 0 {
			best = t.history[0].Cost
		}
	}
	return &Result{
		Optimizer:            t.optimizer,
		BestParams:           append([]float64(nil), params...),
		BestCost:             best,
		Iterations:           iterations,
		Converged:            converged,
		Criterion:            t.criterion,
		TotalEvaluations:     evaluations - t.baseEvals,
		NonFiniteEvaluations: t.nonFinite,
		History:              t.history,
		Elapsed:              time.Since(t.start),
	}
}
