package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/auth"
)

// Handlers groups everything NewApp mounts
type Handlers struct {
	OCR      *OCRHandler
	Settings *SettingsHandler
	Health   *HealthHandler
	Auth     *auth.JWTService // nil leaves the API unauthenticated
}

// NewApp builds the fiber app and registers all routes
func NewApp(h Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "OCR Relay API",
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New())

	// Health check
	app.Get("/health", h.Health.GetHealth)

	jwtService := h.Auth
	if jwtService == nil {
		jwtService = auth.NewJWTService("")
	}
	protected := app.Group("", auth.Middleware(jwtService))

	// OCR routes
	protected.Post("/ocr/run", h.OCR.RunOCR)
	protected.Get("/ocr/jobs", h.OCR.ListJobs)
	protected.Get("/ocr/jobs/export", h.OCR.ExportJobs)
	protected.Get("/ocr/jobs/:id", h.OCR.GetJob)

	// Settings routes
	protected.Get("/settings/api-key", h.Settings.GetAPIKeyStatus)
	protected.Put("/settings/api-key", h.Settings.SetAPIKey)

	return app
}
