package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/settings"
)

// APIKeyStore manages the stored Vision API key
type APIKeyStore interface {
	SetAPIKey(ctx context.Context, key string) error
	HasAPIKey(ctx context.Context) (bool, error)
}

// SettingsHandler handles API key management. The key itself is never returned.
type SettingsHandler struct {
	keys APIKeyStore
}

func NewSettingsHandler(keys APIKeyStore) *SettingsHandler {
	return &SettingsHandler{keys: keys}
}

// SetAPIKeyRequest represents the request body for storing the API key
type SetAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// GetAPIKeyStatus godoc
// @Summary Check whether an API key is stored
// @Tags Settings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /settings/api-key [get]
func (h *SettingsHandler) GetAPIKeyStatus(c *fiber.Ctx) error {
	ok, err := h.keys.HasAPIKey(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to read API key")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read settings",
		})
	}
	return c.JSON(fiber.Map{"configured": ok})
}

// SetAPIKey godoc
// @Summary Store the Vision API key
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body SetAPIKeyRequest true "API key"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /settings/api-key [put]
func (h *SettingsHandler) SetAPIKey(c *fiber.Ctx) error {
	var req SetAPIKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.keys.SetAPIKey(c.UserContext(), req.APIKey); err != nil {
		if errors.Is(err, settings.ErrEmptyValue) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "api_key is required",
			})
		}
		log.Error().Err(err).Msg("❌ Failed to store API key")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to store settings",
		})
	}

	log.Info().Msg("🔑 API key updated")
	return c.JSON(fiber.Map{"configured": true})
}
