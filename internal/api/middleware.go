package api

import "github.com/gofiber/fiber/v2"

const (
	authCookieName     = "dailyvalue_auth"
	contextUserKey     = "current_user_id"
	contextLanguageKey = "current_language"
)

func currentUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals(contextUserKey).(string)
	return userID, ok && userID != ""
}

func currentLanguage(c *fiber.Ctx) string {
	language, _ := c.Locals(contextLanguageKey).(string)
	return language
}
