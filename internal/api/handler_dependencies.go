package api

import (
	"github.com/terraincognita07/dailyvalue/internal/db"
	"github.com/terraincognita07/dailyvalue/internal/services"
)

func (handler *Handler) withDependencies() *Handler {
	handler.repositories = db.NewRepositories(handler.db)
	handler.state = services.NewAppStateStore(handler.repositories.Preferences, handler.i18n.DefaultLanguage())
	handler.stats = services.NewStatsService(handler.upstream, handler.repositories.Snapshots, handler.location)
	handler.diary = services.NewDiaryService(
		handler.upstream,
		handler.stats,
		handler.state,
		handler.repositories.Pending,
		handler.location,
		handler.lookbackDays,
	)
	handler.retry = services.NewRetryService(handler.upstream, handler.state, handler.repositories.Pending)
	handler.chat = services.NewChatService(handler.upstream)
	handler.nutrition = services.NewNutritionService(handler.upstream, handler.chat, handler.stats, handler.state)
	handler.profile = services.NewProfileService(handler.upstream, handler.state)
	return handler
}
