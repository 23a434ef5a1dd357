package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/terraincognita07/dailyvalue/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SnapshotRepository struct {
	database *gorm.DB
}

func NewSnapshotRepository(database *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{database: database}
}

// Find returns the cached statistics for userID and when they were fetched.
func (repo *SnapshotRepository) Find(userID string) (models.DailyRecords, time.Time, bool, error) {
	snapshot := models.StatsSnapshot{}
	result := repo.database.Where("user_id = ?", userID).Limit(1).Find(&snapshot)
	if result.Error != nil {
		return nil, time.Time{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, time.Time{}, false, nil
	}

	records := models.DailyRecords{}
	if err := json.Unmarshal(snapshot.Records, &records); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("decode snapshot for %s: %w", userID, err)
	}
	return records, snapshot.FetchedAt, true, nil
}

// Replace stores records as the whole snapshot for userID.
func (repo *SnapshotRepository) Replace(userID string, records models.DailyRecords, fetchedAt time.Time) error {
	if records == nil {
		records = models.DailyRecords{}
	}
	encoded, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot for %s: %w", userID, err)
	}

	snapshot := models.StatsSnapshot{
		UserID:    userID,
		Records:   datatypes.JSON(encoded),
		FetchedAt: fetchedAt,
	}
	return repo.database.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"records", "fetched_at"}),
	}).Create(&snapshot).Error
}

func (repo *SnapshotRepository) Delete(userID string) error {
	return repo.database.Where("user_id = ?", userID).Delete(&models.StatsSnapshot{}).Error
}
