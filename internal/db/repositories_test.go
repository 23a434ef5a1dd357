package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/terraincognita07/dailyvalue/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "dailyvalue-test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() unexpected error: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return database
}

func TestSnapshotRepositoryReplaceFindDelete(t *testing.T) {
	repo := NewRepositories(openTestDatabase(t)).Snapshots
	fetchedAt := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

	if _, _, found, err := repo.Find("u1"); err != nil || found {
		t.Fatalf("expected no snapshot, found=%v err=%v", found, err)
	}

	first := models.DailyRecords{"2024-01-09": {{Name: models.NutrientEnergy, Value: 1800, Unit: "kcal"}}}
	if err := repo.Replace("u1", first, fetchedAt); err != nil {
		t.Fatalf("replace snapshot: %v", err)
	}
	second := models.DailyRecords{"2024-01-10": {{Name: models.NutrientSodium, Value: 900, Unit: "mg"}}}
	if err := repo.Replace("u1", second, fetchedAt.Add(time.Hour)); err != nil {
		t.Fatalf("replace snapshot again: %v", err)
	}

	records, storedAt, found, err := repo.Find("u1")
	if err != nil || !found {
		t.Fatalf("expected snapshot, found=%v err=%v", found, err)
	}
	if _, ok := records["2024-01-09"]; ok || len(records["2024-01-10"]) != 1 {
		t.Fatalf("expected second snapshot to replace the first, got %#v", records)
	}
	if !storedAt.Equal(fetchedAt.Add(time.Hour)) {
		t.Fatalf("expected fetched_at %s, got %s", fetchedAt.Add(time.Hour), storedAt)
	}

	if err := repo.Delete("u1"); err != nil {
		t.Fatalf("delete snapshot: %v", err)
	}
	if _, _, found, _ := repo.Find("u1"); found {
		t.Fatal("expected snapshot to be deleted")
	}
}

func TestSnapshotRepositoryStoresNilAsEmpty(t *testing.T) {
	repo := NewSnapshotRepository(openTestDatabase(t))
	if err := repo.Replace("u1", nil, time.Now().UTC()); err != nil {
		t.Fatalf("replace nil snapshot: %v", err)
	}
	records, _, found, err := repo.Find("u1")
	if err != nil || !found || records == nil || len(records) != 0 {
		t.Fatalf("expected empty records, got %#v found=%v err=%v", records, found, err)
	}
}

func TestPendingMutationRepositoryListing(t *testing.T) {
	repo := NewPendingMutationRepository(openTestDatabase(t))
	base := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	later := base.Add(time.Hour)

	entries := []models.PendingMutation{
		{ID: "b", UserID: "u1", Kind: models.MutationMemoSave, Date: "2024-01-10", Payload: datatypes.JSON(`{"memo":"x"}`), CreatedAt: base.Add(2 * time.Minute)},
		{ID: "a", UserID: "u1", Kind: models.MutationPhotoAppend, Date: "2024-01-09", Payload: datatypes.JSON(`{}`), CreatedAt: base.Add(time.Minute)},
		{ID: "c", UserID: "u2", Kind: models.MutationPhotoDelete, Date: "2024-01-08", Payload: datatypes.JSON(`{}`), CreatedAt: base, NextAttemptAt: &later},
	}
	for index := range entries {
		if err := repo.Save(&entries[index]); err != nil {
			t.Fatalf("save %s: %v", entries[index].ID, err)
		}
	}

	byUser, err := repo.ListByUser("u1")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 2 || byUser[0].ID != "a" || byUser[1].ID != "b" {
		t.Fatalf("expected u1 mutations oldest first, got %#v", byUser)
	}

	due, err := repo.ListDue(base.Add(30*time.Minute), 0)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected backoff to hide c, got %#v", due)
	}
	due, err = repo.ListDue(base.Add(2*time.Hour), 1)
	if err != nil {
		t.Fatalf("list due with limit: %v", err)
	}
	if len(due) != 1 || due[0].ID != "c" {
		t.Fatalf("expected oldest due mutation c, got %#v", due)
	}

	stored, found, err := repo.FindByID("b")
	if err != nil || !found || string(stored.Payload) != `{"memo":"x"}` {
		t.Fatalf("unexpected FindByID result %#v found=%v err=%v", stored, found, err)
	}

	stored.Attempts = 3
	stored.LastError = "upstream down"
	if err := repo.Save(&stored); err != nil {
		t.Fatalf("update mutation: %v", err)
	}
	updated, _, _ := repo.FindByID("b")
	if updated.Attempts != 3 || updated.LastError != "upstream down" {
		t.Fatalf("expected updated attempts, got %#v", updated)
	}

	if err := repo.Delete("b"); err != nil {
		t.Fatalf("delete mutation: %v", err)
	}
	if _, found, err := repo.FindByID("b"); err != nil || found {
		t.Fatalf("expected b to be gone, found=%v err=%v", found, err)
	}
}

func TestPendingMutationRepositoryDeleteSuperseded(t *testing.T) {
	repo := NewPendingMutationRepository(openTestDatabase(t))
	base := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

	entries := []models.PendingMutation{
		{ID: "old", UserID: "u1", Kind: models.MutationMemoSave, Date: "2024-01-10", Payload: datatypes.JSON(`{"memo":"a"}`), CreatedAt: base},
		{ID: "new", UserID: "u1", Kind: models.MutationMemoSave, Date: "2024-01-10", Payload: datatypes.JSON(`{"memo":"b"}`), CreatedAt: base.Add(time.Minute)},
		{ID: "other-date", UserID: "u1", Kind: models.MutationMemoSave, Date: "2024-01-09", Payload: datatypes.JSON(`{"memo":"c"}`), CreatedAt: base},
		{ID: "photo", UserID: "u1", Kind: models.MutationPhotoAppend, Date: "2024-01-10", Payload: datatypes.JSON(`{"image":"x"}`), CreatedAt: base},
		{ID: "other-user", UserID: "u2", Kind: models.MutationMemoSave, Date: "2024-01-10", Payload: datatypes.JSON(`{"memo":"d"}`), CreatedAt: base},
	}
	for index := range entries {
		if err := repo.Save(&entries[index]); err != nil {
			t.Fatalf("save %s: %v", entries[index].ID, err)
		}
	}

	if err := repo.DeleteSuperseded("u1", models.MutationMemoSave, "2024-01-10", "new"); err != nil {
		t.Fatalf("delete superseded: %v", err)
	}
	if _, found, _ := repo.FindByID("old"); found {
		t.Fatal("expected older memo save to be removed")
	}
	for _, id := range []string{"new", "other-date", "photo", "other-user"} {
		if _, found, err := repo.FindByID(id); err != nil || !found {
			t.Fatalf("expected %s to survive, found=%v err=%v", id, found, err)
		}
	}

	if err := repo.DeleteSuperseded("u1", models.MutationMemoSave, "2024-01-10", ""); err != nil {
		t.Fatalf("delete all superseded: %v", err)
	}
	if _, found, _ := repo.FindByID("new"); found {
		t.Fatal("expected an empty keep id to remove every memo save for the date")
	}
}

func TestPreferenceRepositoryFindSave(t *testing.T) {
	repo := NewPreferenceRepository(openTestDatabase(t))

	if _, found, err := repo.Find("u1"); err != nil || found {
		t.Fatalf("expected no preference, found=%v err=%v", found, err)
	}

	preference := models.UserPreference{UserID: "u1", Theme: models.ThemeDark, Language: "en"}
	if err := repo.Save(&preference); err != nil {
		t.Fatalf("save preference: %v", err)
	}
	preference.Language = "ko"
	if err := repo.Save(&preference); err != nil {
		t.Fatalf("update preference: %v", err)
	}

	stored, found, err := repo.Find("u1")
	if err != nil || !found {
		t.Fatalf("expected preference, found=%v err=%v", found, err)
	}
	if stored.Theme != models.ThemeDark || stored.Language != "ko" {
		t.Fatalf("unexpected stored preference %#v", stored)
	}

	themeOnly := models.UserPreference{UserID: "u2", Theme: models.ThemeDark}
	if err := repo.Save(&themeOnly); err != nil {
		t.Fatalf("save theme-only preference: %v", err)
	}
	stored, _, _ = repo.Find("u2")
	if stored.Language != "" {
		t.Fatalf("expected no language for a theme-only preference, got %q", stored.Language)
	}
}
