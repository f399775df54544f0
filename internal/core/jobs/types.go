package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job is one single-shot background run
type Job struct {
	ID      uuid.UUID `json:"id"`
	Type    string    `json:"type"`
	Trigger string    `json:"trigger"` // api, schedule, cli
	Status  JobStatus `json:"status"`

	Result string `json:"result,omitempty"` // payload delivered downstream
	Error  string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Done reports whether the job reached a terminal status
func (j Job) Done() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// JobHandler is the interface that job handlers must implement.
// Handle returns the job result; a non-nil error marks the job failed
// while still recording the result.
type JobHandler interface {
	Handle(ctx context.Context, job *Job) (string, error)
	GetType() string
}

// RunnerConfig contains configuration for the job runner
type RunnerConfig struct {
	Timeout    time.Duration // Maximum time for job execution, 0 for none
	MaxHistory int           // Finished jobs kept for lookup
}

// DefaultRunnerConfig returns default runner configuration
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Timeout:    2 * time.Minute,
		MaxHistory: 100,
	}
}

var (
	// ErrJobNotFound is returned for unknown or evicted job IDs
	ErrJobNotFound = errors.New("job not found")
	// ErrNoHandler is returned when no handler is registered for a job type
	ErrNoHandler = errors.New("no handler registered for job type")
	// ErrStopped is returned when submitting to a stopped runner
	ErrStopped = errors.New("runner is stopped")
)
