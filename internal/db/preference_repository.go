package db

import (
	"github.com/terraincognita07/dailyvalue/internal/models"
	"gorm.io/gorm"
)

type PreferenceRepository struct {
	database *gorm.DB
}

func NewPreferenceRepository(database *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{database: database}
}

func (repo *PreferenceRepository) Find(userID string) (models.UserPreference, bool, error) {
	preference := models.UserPreference{}
	result := repo.database.Where("user_id = ?", userID).Limit(1).Find(&preference)
	if result.Error != nil {
		return models.UserPreference{}, false, result.Error
	}
	return preference, result.RowsAffected > 0, nil
}

func (repo *PreferenceRepository) Save(preference *models.UserPreference) error {
	return repo.database.Save(preference).Error
}
