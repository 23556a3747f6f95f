package store

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(createTestCheckpoint("json"))
	require.NoError(t, err)

	for _, key := range []string{`"jobId"`, `"bestParams"`, `"bestCost"`, `"evaluations"`, `"algorithm"`, `"numParams"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("Expected JSON to contain %s", key)
		}
	}
	assert.NotContains(t, string(data), `"initialParams"`)
	assert.NotContains(t, string(data), `"resumes"`)
}

func TestCheckpointValidate(t *testing.T) {
	assert.NoError(t, createTestCheckpoint("valid").Validate())

	tests := []struct {
		name   string
		mutate func(c *Checkpoint)
		field  string
	}{
		{"empty job id", func(c *Checkpoint) { c.JobID = "" }, "JobID"},
		{"nil params", func(c *Checkpoint) { c.BestParams = nil }, "BestParams"},
		{"nan param", func(c *Checkpoint) { c.BestParams[1] = math.NaN() }, "BestParams"},
		{"length mismatch", func(c *Checkpoint) { c.Config.NumParams = 7 }, "BestParams"},
		{"infinite cost", func(c *Checkpoint) { c.BestCost = math.Inf(-1) }, "BestCost"},
		{"negative iteration", func(c *Checkpoint) { c.Iteration = -1 }, "Iteration"},
		{"negative evaluations", func(c *Checkpoint) { c.Evaluations = -3 }, "Evaluations"},
		{"zero timestamp", func(c *Checkpoint) { c.Timestamp = time.Time{} }, "Timestamp"},
		{"no algorithm", func(c *Checkpoint) { c.Config.Algorithm = "" }, "Config.Algorithm"},
		{"unknown algorithm", func(c *Checkpoint) { c.Config.Algorithm = "grover" }, "Config.Algorithm"},
		{"zero depth", func(c *Checkpoint) { c.Config.Depth = 0 }, "Config.Depth"},
		{"zero iters", func(c *Checkpoint) { c.Config.Iters = 0 }, "Config.Iters"},
		{"no optimizer", func(c *Checkpoint) { c.Config.Optimizer = "" }, "Config.Optimizer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createTestCheckpoint("invalid")
			tt.mutate(c)

			err := c.Validate()
			if !errors.Is(err, ErrInvalidCheckpoint) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestCheckpointNegativeCostIsValid(t *testing.T) {
	c := createTestCheckpoint("energy")
	c.BestCost = -13
	c.InitialCost = -0.5
	assert.NoError(t, c.Validate())
}

func TestCheckpointIsCompatible(t *testing.T) {
	c := createTestCheckpoint("compat")

	same := c.Config
	same.Optimizer = "lbfgs"
	same.Iters = 10
	same.Seed = 7
	assert.NoError(t, c.IsCompatible(same), "optimizer, budget and seed may change")

	tests := []struct {
		field  string
		mutate func(r *RunConfig)
	}{
		{"Algorithm", func(r *RunConfig) { r.Algorithm = AlgorithmQAOA }},
		{"Ansatz", func(r *RunConfig) { r.Ansatz = "metatron" }},
		{"Entanglement", func(r *RunConfig) { r.Entanglement = "full" }},
		{"Depth", func(r *RunConfig) { r.Depth = 3 }},
		{"ParamsPath", func(r *RunConfig) { r.ParamsPath = "other.yaml" }},
		{"Graph", func(r *RunConfig) { r.Graph = "triangle" }},
		{"NumParams", func(r *RunConfig) { r.NumParams = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			other := c.Config
			tt.mutate(&other)

			err := c.IsCompatible(other)
			require.ErrorIs(t, err, ErrIncompatible)
			var cErr *CompatibilityError
			require.ErrorAs(t, err, &cErr)
			assert.Equal(t, tt.field, cErr.Field)
		})
	}
}

func TestCheckpointToInfo(t *testing.T) {
	c := createTestCheckpoint("info")
	info := c.ToInfo()

	if info.JobID != c.JobID {
		t.Errorf("Expected JobID %s, got %s", c.JobID, info.JobID)
	}
	assert.Equal(t, AlgorithmVQE, info.Algorithm)
	assert.Equal(t, c.BestCost, info.BestCost)
	assert.Equal(t, c.Iteration, info.Iteration)
	assert.Equal(t, c.Converged, info.Converged)
	assert.Equal(t, c.Config.Depth, info.Depth)
	assert.Equal(t, c.Config.Optimizer, info.Optimizer)
}

func TestNewCheckpoint(t *testing.T) {
	before := time.Now()
	cfg := createTestCheckpoint("x").Config
	c := NewCheckpoint("new", []float64{1, 2, 3, 4}, -3, -1, 12, cfg)

	assert.Equal(t, "new", c.JobID)
	assert.Equal(t, -3.0, c.BestCost)
	assert.Equal(t, -1.0, c.InitialCost)
	assert.Equal(t, 12, c.Iteration)
	assert.False(t, c.Timestamp.Before(before))
	assert.NoError(t, c.Validate())
}
