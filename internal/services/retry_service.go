package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

const retryBatchSize = 50

type RetryService struct {
	gateway DiaryGateway
	books   DiaryBooks
	pending PendingQueue
	now     func() time.Time
}

type RetryReport struct {
	Succeeded int
	Failed    int
	Dropped   int
}

func NewRetryService(gateway DiaryGateway, books DiaryBooks, pending PendingQueue) *RetryService {
	return &RetryService{
		gateway: gateway,
		books:   books,
		pending: pending,
		now:     time.Now,
	}
}

// Retry replays one queued mutation on behalf of userID.
func (service *RetryService) Retry(ctx context.Context, userID string, id string) error {
	entry, found, err := service.pending.FindByID(id)
	if err != nil {
		return fmt.Errorf("load pending mutation %s: %w", id, err)
	}
	if !found || entry.UserID != userID {
		return ErrPendingNotFound
	}
	return service.replay(ctx, entry)
}

// RunDue replays every queued mutation whose backoff has elapsed.
func (service *RetryService) RunDue(ctx context.Context) (RetryReport, error) {
	report := RetryReport{}
	entries, err := service.pending.ListDue(service.now(), retryBatchSize)
	if err != nil {
		return report, fmt.Errorf("list due mutations: %w", err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		err := service.replay(ctx, entry)
		switch {
		case err == nil:
			report.Succeeded++
		case errors.Is(err, ErrPendingObsolete):
			report.Dropped++
		default:
			report.Failed++
		}
	}
	return report, nil
}

func (service *RetryService) replay(ctx context.Context, entry models.PendingMutation) error {
	command, err := DecodeDiaryCommand(entry.Kind, entry.Date, entry.Payload)
	if err != nil {
		service.drop(entry, err)
		return fmt.Errorf("%w: %v", ErrPendingObsolete, err)
	}

	// Only dates the user has loaded have local state to update; otherwise
	// the next fetch picks up the persisted result.
	book := service.books.Diary(entry.UserID)
	applied := false
	if book.IsLoaded(entry.Date) {
		if err := command.Apply(book); err != nil {
			service.drop(entry, err)
			return fmt.Errorf("%w: %v", ErrPendingObsolete, err)
		}
		applied = true
	}

	persistErr := service.rebase(ctx, command, entry.UserID)
	if errors.Is(persistErr, ErrPhotoIndexOutOfRange) {
		// The backend already lacks the photo, so the local removal stands.
		service.drop(entry, persistErr)
		return fmt.Errorf("%w: %v", ErrPendingObsolete, persistErr)
	}
	if persistErr == nil {
		persistErr = command.Persist(ctx, service.gateway, entry.UserID)
	}
	if persistErr == nil {
		if err := service.pending.Delete(entry.ID); err != nil {
			log.Printf("delete replayed mutation %s: %v", entry.ID, err)
		}
		return nil
	}

	if applied {
		command.Rollback(book)
	}

	entry.Attempts++
	if entry.Attempts >= maxPendingAttempts {
		service.drop(entry, persistErr)
		return fmt.Errorf("%w: %v", ErrPendingObsolete, persistErr)
	}

	now := service.now()
	next := now.Add(retryBackoff(entry.Attempts))
	entry.LastError = persistErr.Error()
	entry.NextAttemptAt = &next
	entry.UpdatedAt = now
	if err := service.pending.Save(&entry); err != nil {
		log.Printf("update pending mutation %s: %v", entry.ID, err)
	}
	return persistErr
}

func (service *RetryService) rebase(ctx context.Context, command DiaryCommand, userID string) error {
	target, ok := command.(rebaser)
	if !ok {
		return nil
	}
	return target.Rebase(ctx, service.gateway, userID)
}

func (service *RetryService) drop(entry models.PendingMutation, cause error) {
	log.Printf("dropping %s for user %s on %s after %d attempts: %v", entry.Kind, entry.UserID, entry.Date, entry.Attempts, cause)
	if err := service.pending.Delete(entry.ID); err != nil {
		log.Printf("delete pending mutation %s: %v", entry.ID, err)
	}
}

func retryBackoff(attempts int) time.Duration {
	delay := pendingRetryBaseDelay
	for step := 1; step < attempts; step++ {
		delay *= 2
		if delay >= pendingRetryMaxBackoff {
			return pendingRetryMaxBackoff
		}
	}
	return delay
}
