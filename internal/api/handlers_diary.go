package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/dailyvalue/internal/services"
)

func (handler *Handler) GetDiaryFeed(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	page, validPage := parseIntQuery(c, "page", 1)
	size, validSize := parseIntQuery(c, "size", services.DefaultDiaryPageSize)
	if !validPage || !validSize {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}

	feed, err := handler.diary.Feed(c.UserContext(), userID, services.FeedQuery{
		Month:    c.Query("month"),
		Page:     page,
		PageSize: size,
		Refresh:  parseBoolQuery(c, "refresh"),
	})
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(feed)
}

func (handler *Handler) GetDiaryEntry(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	date, err := dateParam(c)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(handler.diary.Entry(c.UserContext(), userID, date))
}

func (handler *Handler) AppendDiaryPhoto(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	date, err := dateParam(c)
	if err != nil {
		return handler.serviceError(c, err)
	}

	payload := photoPayload{}
	if !handler.bindJSON(c, &payload) {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}

	entry, err := handler.diary.AppendPhoto(c.UserContext(), userID, date, payload.Image)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (handler *Handler) DeleteDiaryPhoto(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	date, err := dateParam(c)
	if err != nil {
		return handler.serviceError(c, err)
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}

	entry, err := handler.diary.DeletePhoto(c.UserContext(), userID, date, index)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(entry)
}
