// Package runner executes variational runs as tracked jobs and persists
// their outcome as checkpoints and traces.
package runner

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/metatronqso/internal/store"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Job is one variational run
type Job struct {
	ID          string          `json:"id"`
	State       JobState        `json:"state"`
	Config      store.RunConfig `json:"config"`
	BestParams  []float64       `json:"bestParams,omitempty"`
	BestCost    float64         `json:"bestCost"`
	InitialCost float64         `json:"initialCost"`
	Iterations  int             `json:"iterations"`
	Evaluations int64           `json:"evaluations"`
	Converged   bool            `json:"converged"`

	// Summary holds algorithm-specific figures such as the approximation
	// ratio or the cut value
	Summary map[string]float64 `json:"summary,omitempty"`

	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Manager tracks jobs in memory
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewManager() *Manager {
	return &Manager{jobs: make(map[string]*Job)}
}

// CreateJob registers a pending job under a fresh uuid
func (m *Manager) CreateJob(config store.RunConfig) Job {
	return m.add(uuid.New().String(), config)
}

// adopt registers a job under an existing ID, used when resuming
func (m *Manager) adopt(id string, config store.RunConfig) Job {
	return m.add(id, config)
}

func (m *Manager) add(id string, config store.RunConfig) Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		ID:        id,
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
	}
	m.jobs[id] = job
	return *job
}

// GetJob returns a snapshot of the job
func (m *Manager) GetJob(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// ListJobs returns snapshots of all jobs, oldest first
func (m *Manager) ListJobs() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (m *Manager) UpdateJob(id string, updateFn func(*Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}
	updateFn(job)
	return nil
}

// Running returns the jobs currently in the running state
func (m *Manager) Running() []Job {
	var running []Job
	for _, job := range m.ListJobs() {
		if job.State == StateRunning {
			running = append(running, job)
		}
	}
	return running
}
