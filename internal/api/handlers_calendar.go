package api

import "github.com/gofiber/fiber/v2"

func (handler *Handler) GetCalendar(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	month := c.Query("month")
	days, err := handler.diary.Calendar(c.UserContext(), userID, month)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(fiber.Map{"month": month, "days": days})
}
