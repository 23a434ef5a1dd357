package db

import (
	"errors"
	"time"

	"github.com/terraincognita07/dailyvalue/internal/models"
	"gorm.io/gorm"
)

type PendingMutationRepository struct {
	database *gorm.DB
}

func NewPendingMutationRepository(database *gorm.DB) *PendingMutationRepository {
	return &PendingMutationRepository{database: database}
}

// Save stores entry. NextAttemptAt is kept in UTC so ListDue can compare the
// stored text directly.
func (repo *PendingMutationRepository) Save(entry *models.PendingMutation) error {
	if entry.NextAttemptAt != nil {
		next := entry.NextAttemptAt.UTC()
		entry.NextAttemptAt = &next
	}
	return repo.database.Save(entry).Error
}

func (repo *PendingMutationRepository) FindByID(id string) (models.PendingMutation, bool, error) {
	entry := models.PendingMutation{}
	err := repo.database.Where("id = ?", id).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PendingMutation{}, false, nil
	}
	if err != nil {
		return models.PendingMutation{}, false, err
	}
	return entry, true, nil
}

func (repo *PendingMutationRepository) ListByUser(userID string) ([]models.PendingMutation, error) {
	entries := make([]models.PendingMutation, 0)
	if err := repo.database.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListDue returns mutations whose backoff has elapsed at now, oldest first.
func (repo *PendingMutationRepository) ListDue(now time.Time, limit int) ([]models.PendingMutation, error) {
	query := repo.database.
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now.UTC()).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	entries := make([]models.PendingMutation, 0)
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (repo *PendingMutationRepository) Delete(id string) error {
	return repo.database.Where("id = ?", id).Delete(&models.PendingMutation{}).Error
}

func (repo *PendingMutationRepository) DeleteSuperseded(userID string, kind string, date string, keepID string) error {
	return repo.database.
		Where("user_id = ? AND kind = ? AND date = ? AND id <> ?", userID, kind, date, keepID).
		Delete(&models.PendingMutation{}).Error
}
