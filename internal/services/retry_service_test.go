package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

func queueFailedAppend(t *testing.T, fixture diaryFixture) string {
	t.Helper()
	fixture.gateway.saveErr = errors.New("backend down")
	_, err := fixture.service.AppendPhoto(context.Background(), "u1", "2024-01-10", "img")
	var persistErr *PersistError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected *PersistError, got %v", err)
	}
	fixture.gateway.saveErr = nil
	return persistErr.PendingID
}

func newRetryFixture(fixture diaryFixture, now time.Time) *RetryService {
	retry := NewRetryService(fixture.gateway, fixture.state, fixture.pending)
	retry.now = func() time.Time { return now }
	return retry
}

func TestRetryReplaysAndAppliesToLoadedDate(t *testing.T) {
	fixture := newDiaryFixture(models.DailyRecords{})
	fixture.state.Diary("u1").MergeFetchedPhotos("2024-01-10", nil)
	id := queueFailedAppend(t, fixture)

	retry := newRetryFixture(fixture, time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC))
	if err := retry.Retry(context.Background(), "u1", id); err != nil {
		t.Fatalf("Retry() unexpected error: %v", err)
	}

	if got := fixture.state.Diary("u1").Snapshot().Photos["2024-01-10"]; len(got) != 1 || got[0] != "img" {
		t.Fatalf("expected replayed photo in local state, got %v", got)
	}
	if got := fixture.gateway.photos["2024-01-10"]; len(got) != 1 {
		t.Fatalf("expected replayed photo on the backend, got %v", got)
	}
	if _, found, _ := fixture.pending.FindByID(id); found {
		t.Fatal("expected replayed mutation to leave the queue")
	}
}

func TestRetrySkipsLocalApplyForUnloadedDate(t *testing.T) {
	fixture := newDiaryFixture(models.DailyRecords{})
	id := "queued-append"
	payload, _ := NewAppendPhotoCommand("2024-01-10", "img").Payload()
	_ = fixture.pending.Save(&models.PendingMutation{ID: id, UserID: "u1", Kind: models.MutationPhotoAppend, Date: "2024-01-10", Payload: payload, Attempts: 1})

	retry := newRetryFixture(fixture, time.Now())
	if err := retry.Retry(context.Background(), "u1", id); err != nil {
		t.Fatalf("Retry() unexpected error: %v", err)
	}
	if got := fixture.state.Diary("u1").Snapshot().Photos["2024-01-10"]; len(got) != 0 {
		t.Fatalf("expected no local change for an unloaded date, got %v", got)
	}
	if got := fixture.gateway.photos["2024-01-10"]; len(got) != 1 {
		t.Fatalf("expected backend to receive the photo, got %v", got)
	}
}

func queueFailedDelete(t *testing.T, fixture diaryFixture, date string, index int) string {
	t.Helper()
	fixture.gateway.deleteErr = errors.New("backend down")
	_, err := fixture.service.DeletePhoto(context.Background(), "u1", date, index)
	var persistErr *PersistError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected *PersistError, got %v", err)
	}
	fixture.gateway.deleteErr = nil
	return persistErr.PendingID
}

func TestRetryDeleteFollowsShiftedPhoto(t *testing.T) {
	fixture := newDiaryFixture(models.DailyRecords{})
	fixture.gateway.photos["2024-01-10"] = []string{"a", "b", "c"}
	id := queueFailedDelete(t, fixture, "2024-01-10", 1)

	if _, err := fixture.service.DeletePhoto(context.Background(), "u1", "2024-01-10", 0); err != nil {
		t.Fatalf("DeletePhoto() unexpected error: %v", err)
	}

	retry := newRetryFixture(fixture, time.Now())
	if err := retry.Retry(context.Background(), "u1", id); err != nil {
		t.Fatalf("Retry() unexpected error: %v", err)
	}
	if got := fixture.gateway.photos["2024-01-10"]; !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("expected the queued photo b to be removed, got %v", got)
	}
	if got := fixture.state.Diary("u1").Snapshot().Photos["2024-01-10"]; !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("unexpected local photos %v", got)
	}
}

func TestRetryDeleteOnUnloadedDateResolvesBackendIndex(t *testing.T) {
	fixture := newDiaryFixture(models.DailyRecords{})
	fixture.gateway.photos["2023-06-01"] = []string{"x", "b", "y"}
	payload, _ := (&deletePhotoCommand{date: "2023-06-01", index: 0, image: "b"}).Payload()
	_ = fixture.pending.Save(&models.PendingMutation{ID: "queued-delete", UserID: "u1", Kind: models.MutationPhotoDelete, Date: "2023-06-01", Payload: payload, Attempts: 1})

	retry := newRetryFixture(fixture, time.Now())
	if err := retry.Retry(context.Background(), "u1", "queued-delete"); err != nil {
		t.Fatalf("Retry() unexpected error: %v", err)
	}
	if got := fixture.gateway.photos["2023-06-01"]; !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("expected b removed at its current index, got %v", got)
	}
}

func TestRunDueDropsDeleteOfVanishedPhoto(t *testing.T) {
	fixture := newDiaryFixture(models.DailyRecords{})
	fixture.gateway.photos["2024-01-10"] = []string{"a", "b"}
	id := queueFailedDelete(t, fixture, "2024-01-10", 1)
	fixture.gateway.photos["2024-01-10"] = []string{"a"}

	retry := newRetryFixture(fixture, time.Now().Add(time.Hour))
	report, err := retry.RunDue(context.Background())
	if err != nil {
		t.Fatalf("RunDue() unexpected error: %v", err)
	}
	if report.Dropped != 1 || report.Succeeded != 0 {
		t.Fatalf("expected the obsolete delete to be dropped, got %#v", report)
	}
	if _, found, _ := fixture.pending.FindByID(id); found {
		t.Fatal("expected dropped mutation to leave the queue")
	}
	if got := fixture.gateway.photos["2024-01-10"]; !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("expected the remaining photo untouched, got %v", got)
	}
}

func TestRetryRejectsOtherUsersMutation(t *testing.T) {
	fixture := newDiaryFixture(models.DailyRecords{})
	id := queueFailedAppend(t, fixture)

	retry := newRetryFixture(fixture, time.Now())
	if err := retry.Retry(context.Background(), "u2", id); !errors.Is(err, ErrPendingNotFound) {
		t.Fatalf("expected ErrPendingNotFound, got %v", err)
	}
	if err := retry.Retry(context.Background(), "u1", "missing"); !errors.Is(err, ErrPendingNotFound) {
		t.Fatalf("expected ErrPendingNotFound, got %v", err)
	}
}

func TestRetryFailureBacksOffAndEventuallyDrops(t *testing.T) {
	fixture := newDiaryFixture(models.DailyRecords{})
	fixture.state.Diary("u1").MergeFetchedPhotos("2024-01-10", nil)
	id := queueFailedAppend(t, fixture)
	fixture.gateway.saveErr = errors.New("still down")

	now := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	retry := newRetryFixture(fixture, now)

	if err := retry.Retry(context.Background(), "u1", id); err == nil {
		t.Fatal("expected retry failure")
	}
	entry, found, _ := fixture.pending.FindByID(id)
	if !found || entry.Attempts != 2 {
		t.Fatalf("expected attempt count 2, got %#v", entry)
	}
	if want := now.Add(2 * time.Minute); entry.NextAttemptAt == nil || !entry.NextAttemptAt.Equal(want) {
		t.Fatalf("expected next attempt at %s, got %v", want, entry.NextAttemptAt)
	}
	if got := fixture.state.Diary("u1").Snapshot().Photos["2024-01-10"]; len(got) != 0 {
		t.Fatalf("expected failed replay to be rolled back, got %v", got)
	}

	for attempt := 0; attempt < maxPendingAttempts; attempt++ {
		_ = retry.Retry(context.Background(), "u1", id)
	}
	if _, found, _ := fixture.pending.FindByID(id); found {
		t.Fatal("expected mutation to be dropped after the attempt limit")
	}
}

func TestRunDueOnlyReplaysElapsedEntries(t *testing.T) {
	fixture := newDiaryFixture(models.DailyRecords{})
	id := queueFailedAppend(t, fixture)
	queued := fixture.pending.only(t)

	early := newRetryFixture(fixture, queued.NextAttemptAt.Add(-time.Second))
	report, err := early.RunDue(context.Background())
	if err != nil || report != (RetryReport{}) {
		t.Fatalf("expected nothing due, got %#v, %v", report, err)
	}

	due := newRetryFixture(fixture, queued.NextAttemptAt.Add(time.Second))
	report, err = due.RunDue(context.Background())
	if err != nil {
		t.Fatalf("RunDue() unexpected error: %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 0 || report.Dropped != 0 {
		t.Fatalf("unexpected report %#v", report)
	}
	if _, found, _ := fixture.pending.FindByID(id); found {
		t.Fatal("expected due mutation to leave the queue")
	}
}

func TestRunDueDropsUndecodableEntries(t *testing.T) {
	fixture := newDiaryFixture(models.DailyRecords{})
	_ = fixture.pending.Save(&models.PendingMutation{ID: "bad", UserID: "u1", Kind: "photo_rotate", Date: "2024-01-10"})

	retry := newRetryFixture(fixture, time.Now())
	report, err := retry.RunDue(context.Background())
	if err != nil {
		t.Fatalf("RunDue() unexpected error: %v", err)
	}
	if report.Dropped != 1 {
		t.Fatalf("expected one dropped entry, got %#v", report)
	}
}

func TestRetryBackoffCaps(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{attempts: 1, want: time.Minute},
		{attempts: 2, want: 2 * time.Minute},
		{attempts: 4, want: 8 * time.Minute},
		{attempts: 20, want: 6 * time.Hour},
	}
	for _, testCase := range tests {
		if got := retryBackoff(testCase.attempts); got != testCase.want {
			t.Fatalf("retryBackoff(%d) = %s, want %s", testCase.attempts, got, testCase.want)
		}
	}
}
