package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/export"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/jobs"
)

// JobRunner starts and tracks OCR runs
type JobRunner interface {
	Submit(jobType, trigger string) (jobs.Job, error)
	Get(id uuid.UUID) (jobs.Job, error)
	Wait(ctx context.Context, id uuid.UUID) (jobs.Job, error)
	List() []jobs.Job
}

// OCRHandler handles OCR run requests
type OCRHandler struct {
	runner      JobRunner
	exporter    *export.Service
	jobType     string
	waitTimeout time.Duration
}

// NewOCRHandler creates a new OCR handler. waitTimeout bounds ?wait=true requests.
func NewOCRHandler(runner JobRunner, jobType string, waitTimeout time.Duration) *OCRHandler {
	return &OCRHandler{
		runner:      runner,
		exporter:    export.NewService(),
		jobType:     jobType,
		waitTimeout: waitTimeout,
	}
}

// RunOCR godoc
// @Summary Start an OCR run
// @Description Start one OCR run in the background. With wait=true the response carries the finished job.
// @Tags OCR
// @Produce json
// @Param wait query bool false "Wait for the run to finish"
// @Success 200 {object} jobs.Job
// @Success 202 {object} map[string]interface{}
// @Failure 503 {object} map[string]string
// @Router /ocr/run [post]
func (h *OCRHandler) RunOCR(c *fiber.Ctx) error {
	job, err := h.runner.Submit(h.jobType, "api")
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if !c.QueryBool("wait") {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"job_id": job.ID,
			"status": job.Status,
		})
	}

	// The run itself is detached; only the wait is bounded
	ctx, cancel := context.WithTimeout(c.UserContext(), h.waitTimeout)
	defer cancel()

	finished, err := h.runner.Wait(ctx, job.ID)
	if err != nil {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"job_id": job.ID,
			"status": jobs.StatusProcessing,
		})
	}
	return c.JSON(finished)
}

// GetJob godoc
// @Summary Get an OCR run
// @Tags OCR
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} jobs.Job
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /ocr/jobs/{id} [get]
func (h *OCRHandler) GetJob(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id format",
		})
	}

	job, err := h.runner.Get(id)
	if errors.Is(err, jobs.ErrJobNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "job not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(job)
}

// ListJobs godoc
// @Summary List retained OCR runs
// @Tags OCR
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /ocr/jobs [get]
func (h *OCRHandler) ListJobs(c *fiber.Ctx) error {
	history := h.runner.List()
	return c.JSON(fiber.Map{
		"jobs":  history,
		"count": len(history),
	})
}

// ExportJobs godoc
// @Summary Download the run history
// @Tags OCR
// @Produce octet-stream
// @Param format query string false "csv, excel or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} map[string]string
// @Router /ocr/jobs/export [get]
func (h *OCRHandler) ExportJobs(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	exporter, err := h.exporter.Exporter(format)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var buf bytes.Buffer
	if err := h.exporter.ExportJobs(h.runner.List(), format, &buf); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	filename := fmt.Sprintf("ocr-runs-%s%s", time.Now().Format("20060102-150405"), exporter.FileExtension())
	c.Set(fiber.HeaderContentType, exporter.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}
