package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) AnalyzeLabel(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	header, err := c.FormFile("image")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}
	image, err := readLabelImage(header)
	if err != nil {
		log.Printf("read label image for user %s: %v", userID, err)
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}

	candidates, err := handler.nutrition.Analyze(c.UserContext(), userID, image)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(fiber.Map{"nutrients": candidates})
}

func (handler *Handler) ConfirmNutrients(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := confirmNutrientsPayload{}
	if !handler.bindJSON(c, &payload) {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}

	view, err := handler.nutrition.Confirm(c.UserContext(), userID, payload.Nutrients)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"result": view.Result,
		"bars":   view.Bars,
		"labels": handler.nutrientLabels(c),
	})
}
