package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type entry struct {
	job  Job
	done chan struct{}
}

// Runner executes single-shot jobs in the background.
// Jobs are not queued, coordinated or deduplicated: each Submit starts one goroutine.
type Runner struct {
	config   RunnerConfig
	handlers map[string]JobHandler

	mu      sync.RWMutex
	jobs    map[uuid.UUID]*entry
	order   []uuid.UUID
	stopped bool
	wg      sync.WaitGroup
}

// NewRunner creates a new job runner
func NewRunner(config RunnerConfig) *Runner {
	if config.MaxHistory <= 0 {
		config.MaxHistory = DefaultRunnerConfig().MaxHistory
	}
	return &Runner{
		config:   config,
		handlers: make(map[string]JobHandler),
		jobs:     make(map[uuid.UUID]*entry),
	}
}

// RegisterHandler registers a job handler for a specific job type
func (r *Runner) RegisterHandler(handler JobHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[handler.GetType()] = handler
	log.Info().Str("type", handler.GetType()).Msg("✅ Registered job handler")
}

// Submit starts a job of jobType and returns immediately.
// The job runs on a context detached from the caller.
func (r *Runner) Submit(jobType, trigger string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return Job{}, ErrStopped
	}
	handler, ok := r.handlers[jobType]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNoHandler, jobType)
	}

	e := &entry{
		job: Job{
			ID:        uuid.New(),
			Type:      jobType,
			Trigger:   trigger,
			Status:    StatusPending,
			CreatedAt: time.Now(),
		},
		done: make(chan struct{}),
	}
	r.jobs[e.job.ID] = e
	r.order = append(r.order, e.job.ID)
	r.evictLocked()

	r.wg.Add(1)
	go r.run(e, handler)

	return e.job, nil
}

// Run submits a job and waits for it to finish
func (r *Runner) Run(ctx context.Context, jobType, trigger string) (Job, error) {
	job, err := r.Submit(jobType, trigger)
	if err != nil {
		return Job{}, err
	}
	return r.Wait(ctx, job.ID)
}

// Get returns a snapshot of the job
func (r *Runner) Get(id uuid.UUID) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return e.job, nil
}

// List returns snapshots of the retained jobs, newest first
func (r *Runner) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.jobs[r.order[i]].job)
	}
	return out
}

// Wait blocks until the job finishes or ctx is done
func (r *Runner) Wait(ctx context.Context, id uuid.UUID) (Job, error) {
	r.mu.RLock()
	e, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return Job{}, ErrJobNotFound
	}

	select {
	case <-e.done:
		return r.Get(id)
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Stop rejects new jobs and waits for running ones
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	log.Info().Msg("🛑 Stopping job runner...")
	r.wg.Wait()
	log.Info().Msg("✅ Job runner stopped")
}

func (r *Runner) run(e *entry, handler JobHandler) {
	defer r.wg.Done()
	defer close(e.done)

	ctx := context.Background()
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	now := time.Now()
	r.mu.Lock()
	e.job.Status = StatusProcessing
	e.job.StartedAt = &now
	job := e.job
	r.mu.Unlock()

	log.Info().Str("job_id", job.ID.String()).Str("type", job.Type).Str("trigger", job.Trigger).Msg("🔨 Processing job")

	result, err := safeHandle(ctx, handler, &job)
	duration := time.Since(now)

	finished := time.Now()
	r.mu.Lock()
	e.job.Result = result
	e.job.CompletedAt = &finished
	if err != nil {
		e.job.Status = StatusFailed
		e.job.Error = err.Error()
	} else {
		e.job.Status = StatusCompleted
	}
	r.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Dur("duration", duration).Msg("❌ Job failed")
		return
	}
	log.Info().Str("job_id", job.ID.String()).Dur("duration", duration).Msg("✅ Job completed")
}

// safeHandle turns a handler panic into a failed job
func safeHandle(ctx context.Context, handler JobHandler, job *Job) (result string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job handler panicked: %v", rec)
		}
	}()
	return handler.Handle(ctx, job)
}

// evictLocked drops the oldest finished jobs beyond MaxHistory
func (r *Runner) evictLocked() {
	for len(r.order) > r.config.MaxHistory {
		evicted := false
		for i, id := range r.order {
			e := r.jobs[id]
			if e.job.Done() {
				delete(r.jobs, id)
				r.order = append(r.order[:i], r.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}
