package api

import "github.com/gofiber/fiber/v2"

func (handler *Handler) BeginMemoEdit(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	date, err := dateParam(c)
	if err != nil {
		return handler.serviceError(c, err)
	}

	entry, err := handler.diary.BeginMemoEdit(c.UserContext(), userID, date)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(entry)
}

func (handler *Handler) CancelMemoEdit(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	date, err := dateParam(c)
	if err != nil {
		return handler.serviceError(c, err)
	}

	entry, err := handler.diary.CancelMemoEdit(c.UserContext(), userID, date)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(entry)
}

func (handler *Handler) SaveDiaryMemo(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	date, err := dateParam(c)
	if err != nil {
		return handler.serviceError(c, err)
	}

	payload := memoPayload{}
	if !handler.bindJSON(c, &payload) {
		return apiError(c, fiber.StatusBadRequest, "invalid_input")
	}

	entry, err := handler.diary.SaveMemo(c.UserContext(), userID, date, payload.Memo)
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(entry)
}
