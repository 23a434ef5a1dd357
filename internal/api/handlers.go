package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/terraincognita07/dailyvalue/internal/db"
	"github.com/terraincognita07/dailyvalue/internal/i18n"
	"github.com/terraincognita07/dailyvalue/internal/services"
	"gorm.io/gorm"
)

// Upstream is the OCR/AI backend the handlers talk to.
type Upstream interface {
	services.StatisticsGateway
	services.DiaryGateway
	services.NutritionGateway
	services.ChatGateway
	services.ProfileGateway
}

// Features switches optional surfaces on or off for one deployment.
type Features struct {
	ShowChat  bool `json:"show_chat"`
	ShowStats bool `json:"show_stats"`
}

func DefaultFeatures() Features {
	return Features{ShowChat: true, ShowStats: true}
}

type Handler struct {
	db           *gorm.DB
	secretKey    []byte
	location     *time.Location
	cookieSecure bool
	lookbackDays int
	i18n         *i18n.Manager
	validator    *validator.Validate
	upstream     Upstream
	features     Features

	baseContext    context.Context
	requestTimeout time.Duration

	repositories *db.Repositories
	state        *services.AppStateStore
	stats        *services.StatsService
	diary        *services.DiaryService
	retry        *services.RetryService
	nutrition    *services.NutritionService
	chat         *services.ChatService
	profile      *services.ProfileService
}

func NewHandler(database *gorm.DB, secret string, upstream Upstream, location *time.Location, i18nManager *i18n.Manager, cookieSecure bool, lookbackDays int) (*Handler, error) {
	if database == nil {
		return nil, errors.New("database is required")
	}
	if upstream == nil {
		return nil, errors.New("upstream client is required")
	}
	if i18nManager == nil {
		return nil, errors.New("i18n manager is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("secret key is required")
	}
	if location == nil {
		location = time.Local
	}

	handler := &Handler{
		db:           database,
		secretKey:    []byte(secret),
		location:     location,
		cookieSecure: cookieSecure,
		lookbackDays: lookbackDays,
		i18n:         i18nManager,
		validator:    validator.New(),
		upstream:     upstream,
		features:     DefaultFeatures(),

		baseContext:    context.Background(),
		requestTimeout: defaultRequestTimeout,
	}
	return handler.withDependencies(), nil
}

// RetryService exposes the pending-mutation replayer for the scheduler.
func (handler *Handler) RetryService() *services.RetryService {
	return handler.retry
}

// SetFeatures must be called before RegisterRoutes.
func (handler *Handler) SetFeatures(features Features) {
	handler.features = features
}

// SetRequestContext derives every request context from ctx, each limited to
// timeout. A non-positive timeout keeps the current one.
func (handler *Handler) SetRequestContext(ctx context.Context, timeout time.Duration) {
	handler.baseContext = ctx
	if timeout > 0 {
		handler.requestTimeout = timeout
	}
}
