package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MutationPhotoAppend = "photo_append"
	MutationPhotoDelete = "photo_delete"
	MutationMemoSave    = "memo_save"
)

type StatsSnapshot struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    string         `gorm:"not null;uniqueIndex"`
	Records   datatypes.JSON `gorm:"not null"`
	FetchedAt time.Time      `gorm:"not null"`
}

type PendingMutation struct {
	ID            string         `gorm:"primaryKey"`
	UserID        string         `gorm:"not null;index"`
	Kind          string         `gorm:"not null"`
	Date          string         `gorm:"not null"`
	Payload       datatypes.JSON `gorm:"not null"`
	Attempts      int            `gorm:"not null;default:0"`
	LastError     string
	NextAttemptAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type UserPreference struct {
	UserID    string `gorm:"primaryKey"`
	Theme     string `gorm:"not null;default:light"`
	Language  string `gorm:"not null"`
	UpdatedAt time.Time
}
