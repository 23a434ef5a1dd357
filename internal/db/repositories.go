package db

import "gorm.io/gorm"

type Repositories struct {
	Snapshots   *SnapshotRepository
	Pending     *PendingMutationRepository
	Preferences *PreferenceRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Snapshots:   NewSnapshotRepository(database),
		Pending:     NewPendingMutationRepository(database),
		Preferences: NewPreferenceRepository(database),
	}
}
