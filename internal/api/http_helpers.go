package api

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/dailyvalue/internal/services"
)

func apiError(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}

// serviceError maps service failures onto status codes and error codes.
func (handler *Handler) serviceError(c *fiber.Ctx, err error) error {
	var persistErr *services.PersistError
	if errors.As(err, &persistErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":      "upstream_failed",
			"pending_id": persistErr.PendingID,
			"message":    handler.translate(c, "error.upstream_failed"),
		})
	}

	switch {
	case errors.Is(err, services.ErrInvalidDate):
		return apiError(c, fiber.StatusBadRequest, "invalid_date")
	case errors.Is(err, services.ErrInvalidMonth):
		return apiError(c, fiber.StatusBadRequest, "invalid_month")
	case errors.Is(err, services.ErrInvalidPageQuery),
		errors.Is(err, services.ErrInvalidTrendSelection),
		errors.Is(err, services.ErrEmptyQuestion),
		errors.Is(err, services.ErrQuestionTooLong),
		errors.Is(err, services.ErrEmptyLabelImage),
		errors.Is(err, services.ErrNoNutrients),
		errors.Is(err, services.ErrInvalidTheme),
		errors.Is(err, services.ErrInvalidLanguage),
		errors.Is(err, services.ErrEmptyProfileUpdate):
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	case errors.Is(err, services.ErrPhotoIndexOutOfRange), errors.Is(err, services.ErrPendingNotFound):
		return apiError(c, fiber.StatusNotFound, "not_found")
	case errors.Is(err, services.ErrInvalidMemoTransition):
		return apiError(c, fiber.StatusConflict, "invalid_state")
	case errors.Is(err, services.ErrPendingObsolete):
		return apiError(c, fiber.StatusGone, "pending_obsolete")
	case errors.Is(err, services.ErrAnalyzeFailed), errors.Is(err, services.ErrCommitFailed), errors.Is(err, services.ErrProfileUpdateFailed):
		return apiError(c, fiber.StatusBadGateway, "upstream_failed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apiError(c, fiber.StatusServiceUnavailable, "request_cancelled")
	case errors.Is(err, services.ErrQueueMutation), errors.Is(err, services.ErrSavePreference):
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		return apiError(c, fiber.StatusInternalServerError, "internal_error")
	default:
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		return apiError(c, fiber.StatusBadGateway, "upstream_failed")
	}
}

func (handler *Handler) translate(c *fiber.Ctx, key string) string {
	return handler.i18n.Translate(currentLanguage(c), key)
}

// bindJSON parses the body into payload and runs its validate tags.
func (handler *Handler) bindJSON(c *fiber.Ctx, payload any) bool {
	if err := c.BodyParser(payload); err != nil {
		return false
	}
	return handler.validator.Struct(payload) == nil
}

func parseBoolQuery(c *fiber.Ctx, key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && value
}

// parseIntQuery returns fallback for a missing parameter and ok=false for a
// malformed one.
func parseIntQuery(c *fiber.Ctx, key string, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
