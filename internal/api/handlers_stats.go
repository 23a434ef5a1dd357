package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/dailyvalue/internal/services"
)

func (handler *Handler) GetStatsOverview(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	date := ""
	if raw := c.Query("date"); raw != "" {
		normalized, err := services.NormalizeDateKey(raw)
		if err != nil {
			return handler.serviceError(c, err)
		}
		date = normalized
	}

	overview := handler.stats.Overview(c.UserContext(), userID, date, parseBoolQuery(c, "refresh"))
	return c.JSON(fiber.Map{
		"overview": overview,
		"labels":   handler.nutrientLabels(c),
	})
}

func (handler *Handler) GetStatsTrend(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	days, valid := parseIntQuery(c, "days", services.WeekWindowDays)
	if !valid {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}
	nutrient := c.Query("nutrient", "energy")

	trend, err := handler.stats.Trend(c.UserContext(), userID, services.TrendSelection{Nutrient: nutrient, WindowDays: days}, parseBoolQuery(c, "refresh"))
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(trend)
}
