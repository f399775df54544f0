package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	provider string
	schedule string
}

func NewHealthHandler(provider, schedule string) *HealthHandler {
	return &HealthHandler{provider: provider, schedule: schedule}
}

// GetHealth godoc
// @Summary Service health check
// @Description Check if API is alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"service":  "ocr-relay",
		"provider": h.provider,
		"schedule": h.schedule,
	})
}
