package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Level represents a notification severity
type Level string

const (
	LevelError Level = "error"
	LevelInfo  Level = "info"
)

// Notification IDs, stable per kind so a newer one replaces the previous one
const (
	IDResult = 1001
	IDError  = 1002
)

// Notification represents an operator-facing notification
type Notification struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   Level  `json:"level"`
}

// Sink delivers notifications to one channel
type Sink interface {
	Send(ctx context.Context, n Notification) error
	Name() string
}

// Configurer is implemented by sinks that need one-time setup
type Configurer interface {
	Configure(ctx context.Context) error
}

// Service fans notifications out to every configured sink
type Service struct {
	sinks []Sink

	once         sync.Once
	configureErr error
}

// NewService creates a new notification service
func NewService(sinks ...Sink) *Service {
	return &Service{sinks: sinks}
}

// Configure runs one-time sink setup. Calling it again is a no-op
// that returns the first result.
func (s *Service) Configure(ctx context.Context) error {
	s.once.Do(func() {
		var errs []error
		for _, sink := range s.sinks {
			c, ok := sink.(Configurer)
			if !ok {
				continue
			}
			if err := c.Configure(ctx); err != nil {
				log.Error().Err(err).Str("sink", sink.Name()).Msg("❌ Failed to configure notification sink")
				errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
				continue
			}
			log.Info().Str("sink", sink.Name()).Msg("✅ Notification sink configured")
		}
		s.configureErr = errors.Join(errs...)
	})
	return s.configureErr
}

// NotifyError posts an "OCR Error" notification
func (s *Service) NotifyError(ctx context.Context, message string) error {
	return s.send(ctx, Notification{ID: IDError, Title: "OCR Error", Message: message, Level: LevelError})
}

// NotifyInfo posts an informational "OCR Result" notification
func (s *Service) NotifyInfo(ctx context.Context, message string) error {
	return s.send(ctx, Notification{ID: IDResult, Title: "OCR Result", Message: message, Level: LevelInfo})
}

func (s *Service) send(ctx context.Context, n Notification) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Send(ctx, n); err != nil {
			log.Error().Err(err).Str("sink", sink.Name()).Msg("❌ Failed to send notification")
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to send notifications: %w", errors.Join(errs...))
	}
	return nil
}
