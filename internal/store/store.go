// Package store persists the outcome of variational runs: one JSON
// checkpoint per job plus an optional JSONL optimization trace.
package store

// Store is checkpoint persistence. Implementations must be safe for
// concurrent use.
//
// Error conventions:
//   - Load and Delete return ErrNotFound for unknown job IDs
//   - other failures wrap the underlying error with fmt.Errorf("...: %w", err)
type Store interface {
	// SaveCheckpoint atomically writes the checkpoint for jobID,
	// replacing any previous one.
	SaveCheckpoint(jobID string, checkpoint *Checkpoint) error

	// LoadCheckpoint returns ErrNotFound if jobID has no checkpoint.
	LoadCheckpoint(jobID string) (*Checkpoint, error)

	// ListCheckpoints returns metadata for every readable checkpoint,
	// newest first. Unreadable checkpoints are skipped.
	ListCheckpoints() ([]CheckpointInfo, error)

	// DeleteCheckpoint removes the checkpoint and every artifact of the
	// job, including trace.jsonl.
	DeleteCheckpoint(jobID string) error
}

// ErrNotFound is returned when a requested checkpoint does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing checkpoint error.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "checkpoint not found: " + e.JobID
	}
	return "checkpoint not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
