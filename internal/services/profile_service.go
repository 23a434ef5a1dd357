package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

var (
	ErrEmptyProfileUpdate  = errors.New("empty profile update")
	ErrProfileUpdateFailed = errors.New("update profile failed")
)

type ProfileGateway interface {
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) error
	UpdateProfileImage(ctx context.Context, userID string, image string) error
}

type ProfileService struct {
	gateway  ProfileGateway
	profiles ProfileWriter
}

func NewProfileService(gateway ProfileGateway, profiles ProfileWriter) *ProfileService {
	return &ProfileService{gateway: gateway, profiles: profiles}
}

// Update writes the changed fields to the backend first. The session profile
// only changes once the backend accepted them.
func (service *ProfileService) Update(ctx context.Context, userID string, update models.ProfileUpdate) (Session, error) {
	update = trimProfileUpdate(update)
	if update.Empty() {
		return Session{}, ErrEmptyProfileUpdate
	}

	if err := service.gateway.UpdateProfile(ctx, userID, update); err != nil {
		return Session{}, profileWriteError(ctx, userID, err)
	}
	return service.profiles.UpdateProfile(userID, update.ApplyTo), nil
}

func (service *ProfileService) UpdateImage(ctx context.Context, userID string, image string) (Session, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return Session{}, ErrEmptyProfileUpdate
	}

	if err := service.gateway.UpdateProfileImage(ctx, userID, image); err != nil {
		return Session{}, profileWriteError(ctx, userID, err)
	}
	return service.profiles.UpdateProfile(userID, func(profile *models.Profile) {
		profile.ProfileImage = image
	}), nil
}

func profileWriteError(ctx context.Context, userID string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	log.Printf("update profile for user %s: %v", userID, err)
	return fmt.Errorf("%w: %v", ErrProfileUpdateFailed, err)
}

// trimProfileUpdate trims every set field and drops the ones left blank.
func trimProfileUpdate(update models.ProfileUpdate) models.ProfileUpdate {
	for _, field := range []**string{&update.Username, &update.Gender, &update.AgeGroup, &update.ActivityLevel, &update.HealthGoal} {
		if *field == nil {
			continue
		}
		trimmed := strings.TrimSpace(**field)
		if trimmed == "" {
			*field = nil
			continue
		}
		*field = &trimmed
	}
	return update
}
