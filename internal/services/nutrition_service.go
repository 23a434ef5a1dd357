package services

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

var (
	ErrEmptyLabelImage = errors.New("empty label image")
	ErrNoNutrients     = errors.New("no nutrients to commit")
	ErrAnalyzeFailed   = errors.New("analyze label failed")
	ErrCommitFailed    = errors.New("commit nutrients failed")
)

type NutritionGateway interface {
	AnalyzeLabel(ctx context.Context, userID string, image models.LabelImage) ([]models.NutrientReading, error)
	AddNutrients(ctx context.Context, userID string, nutrients []models.NutrientReading) (models.IntakeResult, error)
	FetchUserStatus(ctx context.Context, userID string) (models.IntakeResult, error)
}

type FeedbackSink interface {
	AppendAssistant(userID string, content string)
	SeedAssistant(userID string, content string)
}

type SnapshotInvalidator interface {
	Invalidate(userID string) error
}

type ProfileWriter interface {
	UpdateProfile(userID string, update func(profile *models.Profile)) Session
}

type NutrientBar struct {
	Name    string  `json:"name"`
	Code    string  `json:"code"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Percent float64 `json:"percent"`
	Band    string  `json:"band"`
}

type IntakeView struct {
	Result models.IntakeResult `json:"result"`
	Bars   []NutrientBar       `json:"bars"`
}

type NutritionService struct {
	gateway  NutritionGateway
	feedback FeedbackSink
	stats    SnapshotInvalidator
	profiles ProfileWriter
}

func NewNutritionService(gateway NutritionGateway, feedback FeedbackSink, stats SnapshotInvalidator, profiles ProfileWriter) *NutritionService {
	return &NutritionService{
		gateway:  gateway,
		feedback: feedback,
		stats:    stats,
		profiles: profiles,
	}
}

// Analyze sends a label photo to OCR and returns candidates for review.
func (service *NutritionService) Analyze(ctx context.Context, userID string, image models.LabelImage) ([]models.NutrientReading, error) {
	if len(image.Data) == 0 {
		return nil, ErrEmptyLabelImage
	}
	candidates, err := service.gateway.AnalyzeLabel(ctx, userID, image)
	if err != nil {
		log.Printf("analyze label for user %s: %v", userID, err)
		return nil, errors.Join(ErrAnalyzeFailed, err)
	}
	return SanitizeNutrients(candidates), nil
}

// Confirm commits the reviewed nutrients and returns the new cumulative
// intake. AI feedback is appended to the chat and cached statistics are
// dropped so the next read refetches them.
func (service *NutritionService) Confirm(ctx context.Context, userID string, nutrients []models.NutrientReading) (IntakeView, error) {
	sanitized := SanitizeNutrients(nutrients)
	if len(sanitized) == 0 {
		return IntakeView{}, ErrNoNutrients
	}

	result, err := service.gateway.AddNutrients(ctx, userID, sanitized)
	if err != nil {
		log.Printf("commit nutrients for user %s: %v", userID, err)
		return IntakeView{}, errors.Join(ErrCommitFailed, err)
	}

	if feedback := strings.TrimSpace(result.AIFeedback); feedback != "" && service.feedback != nil {
		service.feedback.AppendAssistant(userID, feedback)
	}
	if service.stats != nil {
		if err := service.stats.Invalidate(userID); err != nil {
			log.Printf("invalidate statistics snapshot for user %s: %v", userID, err)
		}
	}
	service.rememberProfile(userID, result.Profile)

	return IntakeView{Result: result, Bars: BuildNutrientBars(result.Nutrients)}, nil
}

// Status loads the user's profile and today's intake. A failed fetch
// degrades to an empty view.
func (service *NutritionService) Status(ctx context.Context, userID string) IntakeView {
	result, err := service.gateway.FetchUserStatus(ctx, userID)
	if err != nil {
		log.Printf("fetch status for user %s: %v", userID, err)
		return IntakeView{Bars: BuildNutrientBars(nil)}
	}

	if feedback := strings.TrimSpace(result.AIFeedback); feedback != "" && service.feedback != nil {
		service.feedback.SeedAssistant(userID, feedback)
	}
	service.rememberProfile(userID, result.Profile)
	return IntakeView{Result: result, Bars: BuildNutrientBars(result.Nutrients)}
}

func (service *NutritionService) rememberProfile(userID string, profile models.Profile) {
	if service.profiles == nil || profile.Username == "" {
		return
	}
	service.profiles.UpdateProfile(userID, func(current *models.Profile) {
		*current = profile
	})
}

// SanitizeNutrients clamps edited values to non-negative finite numbers and
// drops nameless rows.
func SanitizeNutrients(nutrients []models.NutrientReading) []models.NutrientReading {
	result := make([]models.NutrientReading, 0, len(nutrients))
	for _, nutrient := range nutrients {
		nutrient.Name = strings.TrimSpace(nutrient.Name)
		if nutrient.Name == "" {
			continue
		}
		if math.IsNaN(nutrient.Value) || math.IsInf(nutrient.Value, 0) || nutrient.Value < 0 {
			nutrient.Value = 0
		}
		if nutrient.Unit == "" {
			nutrient.Unit = models.DefaultUnit(nutrient.Name)
		}
		result = append(result, nutrient)
	}
	return result
}

// BuildNutrientBars returns today's bars in tracked order. A nutrient the
// backend did not report shows as zero.
func BuildNutrientBars(nutrients []models.NutrientReading) []NutrientBar {
	bars := make([]NutrientBar, 0)
	for _, tracked := range models.TrackedNutrients() {
		bar := NutrientBar{Name: tracked.Name, Code: tracked.Code, Unit: tracked.Unit}
		for _, nutrient := range nutrients {
			if nutrient.Name != tracked.Name {
				continue
			}
			bar.Value = readingValue([]models.NutrientReading{nutrient}, tracked.Name)
			if nutrient.Unit != "" {
				bar.Unit = nutrient.Unit
			}
			if nutrient.Percentage != nil {
				bar.Percent = *nutrient.Percentage
			} else {
				bar.Percent = PercentOfGoal(SomeMetric(bar.Value), tracked.Goal).Value
			}
			break
		}
		bar.Percent = DisplayPercent(bar.Percent)
		bar.Band = GoalBand(bar.Percent)
		bars = append(bars, bar)
	}
	return bars
}
