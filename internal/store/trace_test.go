package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func writeTrace(t *testing.T, dir, jobID string, appendMode bool, entries []TraceEntry) {
	t.Helper()
	writer, err := NewTraceWriter(dir, jobID, appendMode)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	for _, e := range entries {
		if err := writer.Write(e); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
}

func readTrace(t *testing.T, dir, jobID string) []TraceEntry {
	t.Helper()
	reader, err := NewTraceReader(dir, jobID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	return entries
}

func TestTraceWriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	jobID := "test-job-123"

	entries := []TraceEntry{
		{Iteration: 0, Cost: -0.2, GradientNorm: ptr(3.1), Evaluations: 53, Timestamp: time.Now()},
		{Iteration: 1, Cost: -4.5, GradientNorm: ptr(2.4), Evaluations: 53, Timestamp: time.Now()},
		{Iteration: 2, Cost: -9.8, Evaluations: 4, Timestamp: time.Now(), Params: []float64{1, 2, 3}},
	}
	writeTrace(t, tmpDir, jobID, false, entries)

	if _, err := os.Stat(filepath.Join(tmpDir, "jobs", jobID, "trace.jsonl")); err != nil {
		t.Fatalf("Trace file not created: %v", err)
	}

	got := readTrace(t, tmpDir, jobID)
	if len(got) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(got))
	}
	for i := range entries {
		assert.Equal(t, entries[i].Iteration, got[i].Iteration)
		assert.Equal(t, entries[i].Cost, got[i].Cost)
		assert.Equal(t, entries[i].Evaluations, got[i].Evaluations)
		assert.Equal(t, entries[i].Params, got[i].Params)
	}
	require.NotNil(t, got[0].GradientNorm)
	assert.Equal(t, 3.1, *got[0].GradientNorm)
	assert.Nil(t, got[2].GradientNorm)
}

func TestTraceAppendAndTruncate(t *testing.T) {
	tmpDir := t.TempDir()
	jobID := "resumed"

	writeTrace(t, tmpDir, jobID, false, []TraceEntry{{Iteration: 0}, {Iteration: 1}})
	writeTrace(t, tmpDir, jobID, true, []TraceEntry{{Iteration: 2}})

	got := readTrace(t, tmpDir, jobID)
	if len(got) != 3 {
		t.Fatalf("Expected 3 entries after append, got %d", len(got))
	}
	assert.Equal(t, 2, got[2].Iteration)

	writeTrace(t, tmpDir, jobID, false, []TraceEntry{{Iteration: 7}})
	got = readTrace(t, tmpDir, jobID)
	if len(got) != 1 {
		t.Fatalf("Expected truncated trace with 1 entry, got %d", len(got))
	}
}

func TestTraceFlushMakesEntriesVisible(t *testing.T) {
	tmpDir := t.TempDir()
	writer, err := NewTraceWriter(tmpDir, "flush", false)
	require.NoError(t, err)
	defer writer.Close()

	require.NoError(t, writer.Write(TraceEntry{Iteration: 0, Cost: 1}))
	require.NoError(t, writer.Flush())

	data, err := os.ReadFile(writer.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"iteration":0`)
}

func TestTraceReadIteratively(t *testing.T) {
	tmpDir := t.TempDir()
	writeTrace(t, tmpDir, "iter", false, []TraceEntry{{Iteration: 0}, {Iteration: 1}})

	reader, err := NewTraceReader(tmpDir, "iter")
	require.NoError(t, err)
	defer reader.Close()

	for want := 0; want < 2; want++ {
		e, err := reader.Read()
		require.NoError(t, err)
		assert.Equal(t, want, e.Iteration)
	}
	_, err = reader.Read()
	if !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestTraceReaderNotFound(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestTraceReaderRejectsGarbage(t *testing.T) {
	tmpDir := t.TempDir()
	path := TracePath(tmpDir, "garbage")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{\"iteration\":0}\nnot json\n"), 0644))

	reader, err := NewTraceReader(tmpDir, "garbage")
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.ReadAll()
	assert.Error(t, err)
}

func TestDeleteTrace(t *testing.T) {
	tmpDir := t.TempDir()
	writeTrace(t, tmpDir, "gone", false, []TraceEntry{{Iteration: 0}})

	require.NoError(t, DeleteTrace(tmpDir, "gone"))
	_, err := NewTraceReader(tmpDir, "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, DeleteTrace(tmpDir, "gone"))
}

func TestTraceConcurrentWrites(t *testing.T) {
	tmpDir := t.TempDir()
	writer, err := NewTraceWriter(tmpDir, "concurrent", false)
	require.NoError(t, err)

	const goroutines, perGoroutine = 8, 25
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if err := writer.Write(TraceEntry{Iteration: g*perGoroutine + i}); err != nil {
					t.Errorf("Write failed: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()
	require.NoError(t, writer.Close())

	got := readTrace(t, tmpDir, "concurrent")
	if len(got) != goroutines*perGoroutine {
		t.Errorf("Expected %d entries, got %d", goroutines*perGoroutine, len(got))
	}
}
