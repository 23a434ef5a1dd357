package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type pendingMutationView struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Date          string     `json:"date"`
	Attempts      int        `json:"attempts"`
	LastError     string     `json:"last_error"`
	NextAttemptAt *time.Time `json:"next_attempt_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (handler *Handler) GetPendingMutations(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	entries, err := handler.diary.PendingForUser(userID)
	if err != nil {
		return handler.serviceError(c, err)
	}

	views := make([]pendingMutationView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, pendingMutationView{
			ID:            entry.ID,
			Kind:          entry.Kind,
			Date:          entry.Date,
			Attempts:      entry.Attempts,
			LastError:     entry.LastError,
			NextAttemptAt: entry.NextAttemptAt,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"pending": views})
}

func (handler *Handler) RetryPendingMutation(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := handler.retry.Retry(c.UserContext(), userID, c.Params("id")); err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
