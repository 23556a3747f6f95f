package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/metatronqso/internal/store"
)

// withDataDir points the commands at dir for the duration of the test.
func withDataDir(t *testing.T, dir string) {
	t.Helper()
	original := dataDir
	dataDir = dir
	t.Cleanup(func() { dataDir = original })
}

// testCommand returns a command whose output is captured in the buffer.
func testCommand(input string) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetIn(strings.NewReader(input))
	return cmd, out
}

func saveTestCheckpoint(t *testing.T, st *store.FSStore, jobID string, age time.Duration) {
	t.Helper()
	config := store.RunConfig{
		Algorithm: store.AlgorithmVQE,
		Ansatz:    "hardware_efficient",
		Depth:     1,
		Optimizer: "adam",
		Iters:     100,
		NumParams: 3,
	}
	checkpoint := store.NewCheckpoint(jobID, []float64{1, 2, 3}, -12.5, -0.4, 10, config)
	checkpoint.Timestamp = time.Now().Add(-age)
	require.NoError(t, st.SaveCheckpoint(jobID, checkpoint))
}

func TestSelectCheckpointsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
	}

	toDelete := selectCheckpointsForDeletion(infos, 0, 7, now)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 checkpoints to delete, got %d", len(toDelete))
	}
	ids := []string{toDelete[0].JobID, toDelete[1].JobID}
	assert.ElementsMatch(t, []string{"job1", "job4"}, ids)
}

func TestSelectCheckpointsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
	}

	toDelete := selectCheckpointsForDeletion(infos, 2, 0, now)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 checkpoints to delete, got %d", len(toDelete))
	}
	// oldest first
	assert.Equal(t, "job4", toDelete[0].JobID)
	assert.Equal(t, "job1", toDelete[1].JobID)
}

func TestSelectCheckpointsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
		{JobID: "job5", Timestamp: now.AddDate(0, 0, -2)},
	}

	// age selects job1 and job4; keeping 2 adds job2
	toDelete := selectCheckpointsForDeletion(infos, 2, 7, now)

	ids := make([]string, len(toDelete))
	for i, info := range toDelete {
		ids[i] = info.JobID
	}
	assert.ElementsMatch(t, []string{"job1", "job2", "job4"}, ids, "each job is selected once")
}

func TestSelectCheckpointsForDeletion_NothingToDo(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{{JobID: "job1", Timestamp: now}}

	assert.Empty(t, selectCheckpointsForDeletion(infos, 5, 0, now))
	assert.Empty(t, selectCheckpointsForDeletion(infos, 0, 1, now))
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		result := formatBytes(tt.bytes)
		if result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "short", shortID("short"))
	assert.Equal(t, "0123456789ab...", shortID("0123456789abcdef"))
}

func TestCheckpointsListCommand_NoCheckpoints(t *testing.T) {
	withDataDir(t, t.TempDir())
	cmd, out := testCommand("")

	if err := runListCheckpoints(cmd, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	assert.Contains(t, out.String(), "No checkpoints found.")
}

func TestCheckpointsListCommand_WithCheckpoints(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := store.NewFSStore(tmpDir)
	require.NoError(t, err)
	saveTestCheckpoint(t, st, "test-job-id", 0)

	withDataDir(t, tmpDir)
	cmd, out := testCommand("")

	if err := runListCheckpoints(cmd, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	assert.Contains(t, out.String(), "test-job-id")
	assert.Contains(t, out.String(), "vqe")
	assert.Contains(t, out.String(), "-12.500000")
	assert.Contains(t, out.String(), "Total checkpoints: 1")
}

func TestCheckpointsCleanCommand_NoFlags(t *testing.T) {
	withDataDir(t, t.TempDir())
	keepLast, olderThanDays = 0, 0
	cmd, _ := testCommand("")

	if err := runCleanCheckpoints(cmd, nil); err == nil {
		t.Error("Expected error when no flags specified")
	}
}

func TestCheckpointsCleanCommand_WithForce(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := store.NewFSStore(tmpDir)
	require.NoError(t, err)
	saveTestCheckpoint(t, st, "old-job", 30*24*time.Hour)
	saveTestCheckpoint(t, st, "new-job", time.Hour)

	withDataDir(t, tmpDir)
	keepLast, olderThanDays, forceClean = 0, 7, true
	t.Cleanup(func() { keepLast, olderThanDays, forceClean = 0, 0, false })
	cmd, out := testCommand("")

	if err := runCleanCheckpoints(cmd, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	assert.Contains(t, out.String(), "Deleted 1 checkpoint(s), 0 failed.")

	_, err = st.LoadCheckpoint("old-job")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.LoadCheckpoint("new-job")
	assert.NoError(t, err)
}

func TestCheckpointsCleanCommand_Aborted(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := store.NewFSStore(tmpDir)
	require.NoError(t, err)
	saveTestCheckpoint(t, st, "old-job", 30*24*time.Hour)

	withDataDir(t, tmpDir)
	keepLast, olderThanDays, forceClean = 0, 7, false
	t.Cleanup(func() { keepLast, olderThanDays = 0, 0 })
	cmd, out := testCommand("n\n")

	require.NoError(t, runCleanCheckpoints(cmd, nil))
	assert.Contains(t, out.String(), "Aborted.")

	_, err = st.LoadCheckpoint("old-job")
	assert.NoError(t, err, "checkpoint must survive a declined prompt")
}
