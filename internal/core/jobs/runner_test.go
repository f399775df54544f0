package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcHandler struct {
	jobType string
	fn      func(ctx context.Context, job *Job) (string, error)
}

func (h funcHandler) GetType() string { return h.jobType }

func (h funcHandler) Handle(ctx context.Context, job *Job) (string, error) {
	return h.fn(ctx, job)
}

func TestRunner_Run(t *testing.T) {
	r := NewRunner(DefaultRunnerConfig())
	r.RegisterHandler(funcHandler{"echo", func(_ context.Context, job *Job) (string, error) {
		return "ran by " + job.Trigger, nil
	}})

	job, err := r.Run(context.Background(), "echo", "cli")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, "ran by cli", job.Result)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.Error)
}

func TestRunner_FailedJobKeepsResult(t *testing.T) {
	r := NewRunner(DefaultRunnerConfig())
	r.RegisterHandler(funcHandler{"fail", func(context.Context, *Job) (string, error) {
		return "error", errors.New("boom")
	}})

	job, err := r.Run(context.Background(), "fail", "api")
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "error", job.Result)
	assert.Equal(t, "boom", job.Error)
}

func TestRunner_PanicBecomesFailure(t *testing.T) {
	r := NewRunner(DefaultRunnerConfig())
	r.RegisterHandler(funcHandler{"panic", func(context.Context, *Job) (string, error) {
		panic("bad")
	}})

	job, err := r.Run(context.Background(), "panic", "api")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Contains(t, job.Error, "panicked")
}

func TestRunner_JobOutlivesCaller(t *testing.T) {
	release := make(chan struct{})
	r := NewRunner(RunnerConfig{})
	r.RegisterHandler(funcHandler{"slow", func(ctx context.Context, _ *Job) (string, error) {
		<-release
		return "done", ctx.Err()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	job, err := r.Submit("slow", "api")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)

	cancel()
	_, err = r.Wait(ctx, job.ID)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	finished, err := r.Wait(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, finished.Status)
	assert.Equal(t, "done", finished.Result)
}

func TestRunner_Timeout(t *testing.T) {
	r := NewRunner(RunnerConfig{Timeout: 20 * time.Millisecond})
	r.RegisterHandler(funcHandler{"block", func(ctx context.Context, _ *Job) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}})

	job, err := r.Run(context.Background(), "block", "api")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), job.Error)
}

func TestRunner_Errors(t *testing.T) {
	r := NewRunner(DefaultRunnerConfig())

	_, err := r.Submit("missing", "api")
	assert.ErrorIs(t, err, ErrNoHandler)

	_, err = r.Get(uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = r.Wait(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)

	r.RegisterHandler(funcHandler{"echo", func(context.Context, *Job) (string, error) { return "", nil }})
	r.Stop()
	_, err = r.Submit("echo", "api")
	assert.ErrorIs(t, err, ErrStopped)
}

func TestRunner_History(t *testing.T) {
	r := NewRunner(RunnerConfig{MaxHistory: 2})
	r.RegisterHandler(funcHandler{"echo", func(context.Context, *Job) (string, error) { return "ok", nil }})

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		job, err := r.Run(context.Background(), "echo", "api")
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}

	_, err := r.Get(ids[0])
	assert.ErrorIs(t, err, ErrJobNotFound)

	listed := r.List()
	require.Len(t, listed, 2)
	assert.Equal(t, ids[2], listed[0].ID)
	assert.Equal(t, ids[1], listed[1].ID)
	for _, id := range ids[1:] {
		_, err := r.Get(id)
		assert.NoError(t, err)
	}
}

func TestScheduler(t *testing.T) {
	r := NewRunner(DefaultRunnerConfig())
	s := NewScheduler(r)

	assert.Error(t, s.Schedule("echo", "not a cron expression"))
	assert.Empty(t, s.Scheduled())

	require.NoError(t, s.Schedule("echo", "0 */5 * * * *"))
	require.NoError(t, s.Schedule("echo", "0 */10 * * * *"))
	assert.Equal(t, []string{"echo"}, s.Scheduled())

	s.Unschedule("echo")
	assert.Empty(t, s.Scheduled())
}

func TestScheduler_SubmitsJobs(t *testing.T) {
	ran := make(chan string, 4)
	r := NewRunner(DefaultRunnerConfig())
	r.RegisterHandler(funcHandler{"tick", func(_ context.Context, job *Job) (string, error) {
		ran <- job.Trigger
		return "", nil
	}})

	s := NewScheduler(r)
	require.NoError(t, s.Schedule("tick", "* * * * * *"))
	s.Start()
	defer s.Stop()

	select {
	case trigger := <-ran:
		assert.Equal(t, "schedule", trigger)
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not run")
	}
}
