package jobs

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler submits jobs to a Runner on cron schedules
type Scheduler struct {
	cron    *cron.Cron
	runner  *Runner
	entries map[string]cron.EntryID // job type -> entry id
	mu      sync.RWMutex
}

// NewScheduler creates a new scheduler. Expressions carry a seconds field,
// e.g. "0 */5 * * * *" for every five minutes.
func NewScheduler(runner *Runner) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		runner:  runner,
		entries: make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	log.Info().Msg("⏰ Starting job scheduler...")
	s.cron.Start()
}

// Stop stops the scheduler; running jobs are left to the Runner
func (s *Scheduler) Stop() {
	log.Info().Msg("⏰ Stopping job scheduler...")
	<-s.cron.Stop().Done()
}

// Schedule submits a job of jobType on every tick of expr,
// replacing any previous schedule for the type
func (s *Scheduler) Schedule(jobType, expr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.entries[jobType]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, jobType)
	}

	entryID, err := s.cron.AddFunc(expr, func() {
		if _, err := s.runner.Submit(jobType, "schedule"); err != nil {
			log.Error().Err(err).Str("type", jobType).Msg("❌ Scheduled job not submitted")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entries[jobType] = entryID
	log.Info().Str("type", jobType).Str("schedule", expr).Msg("✅ Scheduled job")
	return nil
}

// Unschedule removes the schedule for jobType
func (s *Scheduler) Unschedule(jobType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.entries[jobType]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, jobType)
	}
}

// Scheduled returns the job types that currently have a schedule
func (s *Scheduler) Scheduled() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.entries))
	for t := range s.entries {
		types = append(types, t)
	}
	return types
}
