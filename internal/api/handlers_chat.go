package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/dailyvalue/internal/services"
)

func (handler *Handler) GetChatHistory(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(fiber.Map{"messages": handler.chat.History(userID)})
}

// AskChat answers with the coach's reply. When the coach is unavailable the
// localized apology is returned as the reply and degraded is set.
func (handler *Handler) AskChat(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := chatPayload{}
	if !handler.bindJSON(c, &payload) {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}

	apology := handler.translate(c, "chat.apology")
	reply, err := handler.chat.Ask(c.UserContext(), userID, payload.Question, apology)
	degraded := errors.Is(err, services.ErrChatUnavailable)
	if err != nil && !degraded {
		return handler.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"reply":    reply,
		"degraded": degraded,
		"messages": handler.chat.History(userID),
	})
}
