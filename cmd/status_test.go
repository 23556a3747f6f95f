package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/metatronqso/internal/runner"
	"github.com/cwbudde/metatronqso/internal/store"
)

func TestStatusShowsCheckpointAndTrace(t *testing.T) {
	tmpDir := t.TempDir()
	withDataDir(t, tmpDir)

	r, err := newRunner(true)
	require.NoError(t, err)
	job, err := r.Execute(context.Background(), store.RunConfig{
		Algorithm: store.AlgorithmQAOA,
		Depth:     1,
		Optimizer: "nelder_mead",
		Iters:     10,
		Graph:     runner.GraphTriangle,
	})
	require.NoError(t, err)

	cmd, out := testCommand("")
	require.NoError(t, runStatus(cmd, []string{job.ID}))

	text := out.String()
	assert.Contains(t, text, "Job: "+job.ID)
	assert.Contains(t, text, "Algorithm: qaoa")
	assert.Contains(t, text, "Graph: triangle")
	assert.Contains(t, text, "Trace (")
}

func TestStatusUnknownJob(t *testing.T) {
	withDataDir(t, t.TempDir())
	cmd, _ := testCommand("")

	err := runStatus(cmd, []string{"missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSpectrumCommand(t *testing.T) {
	cmd, out := testCommand("")
	require.NoError(t, spectrumCmd.RunE(cmd, nil))

	assert.Contains(t, out.String(), "Ground energy:  -13.000000")
	assert.Contains(t, out.String(), "Energy gap:     13.000000")
}

func TestPrintJob(t *testing.T) {
	_, out := testCommand("")
	printJob(out, runner.Job{
		ID:          "abc",
		Config:      store.RunConfig{Algorithm: store.AlgorithmVQE, Optimizer: "adam", Depth: 2},
		InitialCost: -1,
		BestCost:    -12.9,
		Summary:     map[string]float64{"relative_error": 0.01},
	}, true)

	assert.Contains(t, out.String(), "Cost:         -1.000000 -> -12.900000")
	assert.Contains(t, out.String(), "relative_error:")
	assert.Contains(t, out.String(), "metatronqso resume abc")
}
