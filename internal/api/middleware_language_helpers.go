package api

import "github.com/gofiber/fiber/v2"

// LanguageMiddleware resolves the response language: an explicit ?lang=
// wins, then the user's saved preference, then Accept-Language, then the
// catalog default.
func (handler *Handler) LanguageMiddleware(c *fiber.Ctx) error {
	c.Locals(contextLanguageKey, handler.resolveLanguage(c))
	return c.Next()
}

func (handler *Handler) resolveLanguage(c *fiber.Ctx) string {
	if requested := c.Query("lang"); requested != "" && handler.i18n.Supports(requested) {
		return handler.i18n.NormalizeLanguage(requested)
	}
	if userID, ok := currentUserID(c); ok {
		if session := handler.state.Session(userID); session.LanguageSet {
			return handler.i18n.NormalizeLanguage(session.Language)
		}
	}
	return handler.i18n.DetectFromAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
}
