package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/dispatch"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/ocr"
)

// JobTypeOCR is the job type handled by OCRService
const JobTypeOCR = "ocr_relay"

// OCRService runs the OCR pipeline and dispatches its outcome.
// It is registered with the job runner as the "ocr_relay" handler.
type OCRService struct {
	pipeline   *ocr.Pipeline
	dispatcher *dispatch.Dispatcher
}

func NewOCRService(pipeline *ocr.Pipeline, dispatcher *dispatch.Dispatcher) *OCRService {
	return &OCRService{
		pipeline:   pipeline,
		dispatcher: dispatcher,
	}
}

// GetType returns the job type
func (s *OCRService) GetType() string {
	return JobTypeOCR
}

// ProviderName returns the name of the OCR engine in use
func (s *OCRService) ProviderName() string {
	return s.pipeline.GetProviderName()
}

// Execute performs one complete run: pipeline, then notification and delivery
func (s *OCRService) Execute(ctx context.Context) dispatch.Result {
	log.Info().
		Str("image", s.pipeline.ImagePath()).
		Str("provider", s.pipeline.GetProviderName()).
		Msg("🔍 Starting OCR run")

	outcome := s.pipeline.Run(ctx)
	return s.dispatcher.Dispatch(ctx, outcome)
}

// Handle implements jobs.JobHandler. The delivered payload becomes the job
// result; runs that do not complete successfully also return an error.
func (s *OCRService) Handle(ctx context.Context, _ *jobs.Job) (string, error) {
	res := s.Execute(ctx)
	if !res.Success {
		return res.Payload, fmt.Errorf("ocr run failed: %s", res.Outcome)
	}
	return res.Payload, nil
}
