package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/favicon.ico", sendNoContent)
	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api", handler.RequestContext, handler.AuthRequired, handler.LanguageMiddleware)

	api.Get("/me", handler.GetMe)
	api.Delete("/me", handler.ForgetSession)
	api.Put("/me/preferences", handler.UpdatePreferences)
	api.Put("/me/profile", handler.UpdateProfile)
	api.Post("/me/profile-image", handler.UpdateProfileImage)

	if handler.features.ShowStats {
		stats := api.Group("/stats")
		stats.Get("/overview", handler.GetStatsOverview)
		stats.Get("/trend", handler.GetStatsTrend)
	}

	api.Get("/calendar", handler.GetCalendar)

	diary := api.Group("/diary")
	diary.Get("", handler.GetDiaryFeed)
	diary.Get("/pending", handler.GetPendingMutations)
	diary.Post("/pending/:id/retry", handler.RetryPendingMutation)
	diary.Get("/:date", handler.GetDiaryEntry)
	diary.Post("/:date/photos", handler.AppendDiaryPhoto)
	diary.Delete("/:date/photos/:index", handler.DeleteDiaryPhoto)
	diary.Post("/:date/memo/edit", handler.BeginMemoEdit)
	diary.Post("/:date/memo/cancel", handler.CancelMemoEdit)
	diary.Put("/:date/memo", handler.SaveDiaryMemo)

	nutrition := api.Group("/nutrition")
	nutrition.Post("/analyze", handler.AnalyzeLabel)
	nutrition.Post("/confirm", handler.ConfirmNutrients)

	if handler.features.ShowChat {
		api.Get("/chat", handler.GetChatHistory)
		api.Post("/chat", handler.AskChat)
	}
}

func sendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
