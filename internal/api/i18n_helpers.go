package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/dailyvalue/internal/models"
)

// nutrientLabels maps each tracked nutrient code to its localized label.
func (handler *Handler) nutrientLabels(c *fiber.Ctx) map[string]string {
	labels := make(map[string]string)
	for _, nutrient := range models.TrackedNutrients() {
		labels[nutrient.Code] = handler.translate(c, "nutrient."+nutrient.Code)
	}
	return labels
}
