package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// GetMe loads the profile and today's intake from the backend and returns
// them with the session preferences and the message catalog.
func (handler *Handler) GetMe(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	status := handler.nutrition.Status(c.UserContext(), userID)
	language := currentLanguage(c)
	session := handler.state.Session(userID)
	session.Language = language

	return c.JSON(fiber.Map{
		"session":   session,
		"today":     status,
		"features":  handler.features,
		"languages": handler.i18n.SupportedLanguages(),
		"messages":  handler.i18n.Messages(language),
	})
}

func (handler *Handler) UpdatePreferences(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := preferencesPayload{}
	if !handler.bindJSON(c, &payload) || (payload.Theme == nil && payload.Language == nil) {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}
	if payload.Language != nil && !handler.i18n.Supports(*payload.Language) {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}

	session := handler.state.Session(userID)
	var err error
	if payload.Theme != nil {
		session, err = handler.state.SetTheme(userID, *payload.Theme)
		if err != nil {
			return handler.serviceError(c, err)
		}
	}
	if payload.Language != nil {
		session, err = handler.state.SetLanguage(userID, handler.i18n.NormalizeLanguage(*payload.Language))
		if err != nil {
			return handler.serviceError(c, err)
		}
	}
	return c.JSON(fiber.Map{"session": session})
}

// UpdateProfile forwards the changed profile fields to the backend and
// returns the session with the accepted profile.
func (handler *Handler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := profilePayload{}
	if !handler.bindJSON(c, &payload) {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}

	session, err := handler.profile.Update(c.UserContext(), userID, payload.update())
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (handler *Handler) UpdateProfileImage(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := profileImagePayload{}
	if !handler.bindJSON(c, &payload) {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}

	session, err := handler.profile.UpdateImage(c.UserContext(), userID, payload.ProfileImage)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

// ForgetSession drops the user's in-memory state and clears the auth cookie.
func (handler *Handler) ForgetSession(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handler.state.Forget(userID)
	handler.chat.Reset(userID)
	handler.clearAuthCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (handler *Handler) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  time.Unix(0, 0),
	})
}
