package api

import "github.com/terraincognita07/dailyvalue/internal/models"

type photoPayload struct {
	Image string `json:"image" validate:"required,datauri|base64"`
}

type memoPayload struct {
	Memo string `json:"memo" validate:"max=2000"`
}

type confirmNutrientsPayload struct {
	Nutrients []models.NutrientReading `json:"nutrients" validate:"required,min=1,max=32,dive"`
}

type chatPayload struct {
	Question string `json:"question" validate:"required"`
}

type profilePayload struct {
	Username      *string `json:"username" validate:"omitempty,max=50"`
	Gender        *string `json:"gender" validate:"omitempty,oneof=male female"`
	AgeGroup      *string `json:"age_group" validate:"omitempty,numeric,max=3"`
	ActivityLevel *string `json:"activity_level" validate:"omitempty,max=64"`
	HealthGoal    *string `json:"health_goal" validate:"omitempty,max=64"`
}

func (payload profilePayload) update() models.ProfileUpdate {
	return models.ProfileUpdate{
		Username:      payload.Username,
		Gender:        payload.Gender,
		AgeGroup:      payload.AgeGroup,
		ActivityLevel: payload.ActivityLevel,
		HealthGoal:    payload.HealthGoal,
	}
}

type profileImagePayload struct {
	ProfileImage string `json:"profile_image" validate:"required,datauri|base64"`
}

type preferencesPayload struct {
	Theme    *string `json:"theme" validate:"omitempty,oneof=light dark"`
	Language *string `json:"language" validate:"omitempty,min=2,max=16"`
}
