package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clusterDataset = `
samples:
  - {features: [0.08, 0.12], label: 0}
  - {features: [0.91, 0.87], label: 1}
  - {features: [0.13, 0.06], label: 0}
  - {features: [0.88, 0.93], label: 1}
  - {features: [0.07, 0.09], label: 0}
  - {features: [0.94, 0.90], label: 1}
`

func withVQCFlags(t *testing.T, data, test string) {
	t.Helper()
	saved, savedData, savedTest := vqcFlags, vqcData, vqcTest
	t.Cleanup(func() { vqcFlags, vqcData, vqcTest = saved, savedData, savedTest })

	vqcData, vqcTest = data, test
	vqcFlags.iters = 20
	vqcFlags.learningRate = 0.05
}

func TestVQCCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte(clusterDataset), 0644))
	withVQCFlags(t, path, path)

	cmd, out := testCommand("")
	require.NoError(t, runVQC(cmd, nil))

	text := out.String()
	assert.Contains(t, text, "Samples:        6")
	assert.Contains(t, text, "Train accuracy:")
	assert.Contains(t, text, "Test accuracy:")
}

func TestVQCCommandRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte(clusterDataset), 0644))

	withVQCFlags(t, filepath.Join(t.TempDir(), "missing.yaml"), "")
	cmd, _ := testCommand("")
	assert.Error(t, runVQC(cmd, nil))

	withVQCFlags(t, path, "")
	vqcFlags.gradient = "none"
	assert.Error(t, runVQC(cmd, nil), "adam cannot train without gradients")
}
