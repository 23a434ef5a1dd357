package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/dailyvalue/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDiaryPageSize   = 20
	maxDiaryPageSize       = 100
	diaryFetchConcurrency  = 8
	defaultDiaryLookback   = 30
	maxPendingAttempts     = 5
	pendingRetryBaseDelay  = time.Minute
	pendingRetryMaxBackoff = 6 * time.Hour
)

var (
	ErrPendingNotFound  = errors.New("pending mutation not found")
	ErrPendingObsolete  = errors.New("pending mutation no longer applies")
	ErrQueueMutation    = errors.New("queue pending mutation failed")
	ErrInvalidPageQuery = errors.New("invalid page query")
	ErrDateUnavailable  = errors.New("diary date could not be loaded")
)

// PersistError reports a diary mutation the backend rejected. The local
// change was rolled back and the command waits in the pending queue.
type PersistError struct {
	PendingID string
	Err       error
}

func (err *PersistError) Error() string {
	return fmt.Sprintf("persist diary mutation %s: %v", err.PendingID, err.Err)
}

func (err *PersistError) Unwrap() error {
	return err.Err
}

type PendingQueue interface {
	Save(entry *models.PendingMutation) error
	FindByID(id string) (models.PendingMutation, bool, error)
	ListByUser(userID string) ([]models.PendingMutation, error)
	ListDue(now time.Time, limit int) ([]models.PendingMutation, error)
	Delete(id string) error
	// DeleteSuperseded removes entries of kind for the user and date except keepID.
	DeleteSuperseded(userID string, kind string, date string, keepID string) error
}

type RecordsLoader interface {
	Records(ctx context.Context, userID string, refresh bool) models.DailyRecords
}

type DiaryBooks interface {
	Diary(userID string) *DiaryBook
}

type DiaryService struct {
	gateway      DiaryGateway
	records      RecordsLoader
	books        DiaryBooks
	pending      PendingQueue
	location     *time.Location
	lookbackDays int
	now          func() time.Time
}

type FeedQuery struct {
	Month    string
	Page     int
	PageSize int
	Refresh  bool
}

type DiaryFeed struct {
	Entries []models.DiaryEntry `json:"entries"`
	Months  []string            `json:"months"`
	Month   string              `json:"month"`
	Page    int                 `json:"page"`
	Total   int                 `json:"total"`
	HasMore bool                `json:"has_more"`
}

func NewDiaryService(gateway DiaryGateway, records RecordsLoader, books DiaryBooks, pending PendingQueue, location *time.Location, lookbackDays int) *DiaryService {
	if location == nil {
		location = time.UTC
	}
	if lookbackDays <= 0 {
		lookbackDays = defaultDiaryLookback
	}
	return &DiaryService{
		gateway:      gateway,
		records:      records,
		books:        books,
		pending:      pending,
		location:     location,
		lookbackDays: lookbackDays,
		now:          time.Now,
	}
}

// LoadAll fetches photos and memos for every candidate date in parallel.
// Completions merge into the book in any order; once ctx is done, results
// that arrive late are discarded.
func (service *DiaryService) LoadAll(ctx context.Context, userID string, records models.DailyRecords) {
	book := service.books.Diary(userID)
	dates := service.candidateDates(records, book)

	group := new(errgroup.Group)
	group.SetLimit(diaryFetchConcurrency)
	for _, date := range dates {
		date := date
		group.Go(func() error {
			service.loadDate(ctx, userID, date, book)
			return nil
		})
	}
	_ = group.Wait()

	if ctx.Err() == nil {
		book.MarkBulkLoaded()
	}
}

func (service *DiaryService) loadDate(ctx context.Context, userID string, date string, book *DiaryBook) {
	if ctx.Err() != nil {
		return
	}

	photos, err := service.gateway.FetchPhotos(ctx, userID, date)
	switch {
	case err != nil:
		log.Printf("fetch photos for user %s on %s: %v", userID, date, err)
	case ctx.Err() == nil:
		book.MergeFetchedPhotos(date, photos)
	}

	memo, err := service.gateway.FetchMemo(ctx, userID, date)
	switch {
	case err != nil:
		log.Printf("fetch memo for user %s on %s: %v", userID, date, err)
	case ctx.Err() == nil:
		book.MergeFetchedMemo(date, memo)
	}
}

// ensureLoaded fetches date once so local photo indices match the backend's
// before a mutation addresses them.
func (service *DiaryService) ensureLoaded(ctx context.Context, userID string, date string, book *DiaryBook) bool {
	if !book.IsLoaded(date) {
		service.loadDate(ctx, userID, date, book)
	}
	return book.IsLoaded(date)
}

func (service *DiaryService) candidateDates(records models.DailyRecords, book *DiaryBook) []string {
	seen := make(map[string]struct{})
	dates := make([]string, 0, len(records)+service.lookbackDays)
	add := func(date string) {
		if _, ok := seen[date]; ok {
			return
		}
		seen[date] = struct{}{}
		dates = append(dates, date)
	}

	for date := range records {
		add(date)
	}
	today := DateAtLocation(service.now(), service.location)
	for offset := 0; offset < service.lookbackDays; offset++ {
		add(today.AddDate(0, 0, -offset).Format(dateKeyLayout))
	}
	snapshot := book.Snapshot()
	for date := range snapshot.Photos {
		add(date)
	}
	for date := range snapshot.Memos {
		add(date)
	}
	return dates
}

func (service *DiaryService) Feed(ctx context.Context, userID string, query FeedQuery) (DiaryFeed, error) {
	month := query.Month
	if month == "" {
		month = AllMonths
	}
	if month != AllMonths {
		if _, err := ParseMonthKey(month, service.location); err != nil {
			return DiaryFeed{}, err
		}
	}
	page := query.Page
	if page == 0 {
		page = 1
	}
	size := query.PageSize
	if size == 0 {
		size = DefaultDiaryPageSize
	}
	if page < 0 || size < 0 || size > maxDiaryPageSize {
		return DiaryFeed{}, ErrInvalidPageQuery
	}

	records := service.records.Records(ctx, userID, query.Refresh)
	book := service.books.Diary(userID)
	if query.Refresh || !book.BulkLoaded() {
		service.LoadAll(ctx, userID, records)
	}
	if err := ctx.Err(); err != nil {
		return DiaryFeed{}, err
	}

	state := book.Snapshot()
	all := AllDiaryDates(records, state.Photos, state.Memos)
	filtered := FilterByMonth(all, month)
	visible := Page(filtered, size, page)

	entries := make([]models.DiaryEntry, 0, len(visible))
	for _, date := range visible {
		entries = append(entries, buildDiaryEntry(date, records, state))
	}

	return DiaryFeed{
		Entries: entries,
		Months:  AvailableMonths(all),
		Month:   month,
		Page:    page,
		Total:   len(filtered),
		HasMore: len(visible) < len(filtered),
	}, nil
}

func (service *DiaryService) Entry(ctx context.Context, userID string, date string) models.DiaryEntry {
	book := service.books.Diary(userID)
	service.ensureLoaded(ctx, userID, date, book)
	return service.snapshotEntry(ctx, userID, date, book)
}

func (service *DiaryService) snapshotEntry(ctx context.Context, userID string, date string, book *DiaryBook) models.DiaryEntry {
	records := service.records.Records(ctx, userID, false)
	return buildDiaryEntry(date, records, book.Snapshot())
}

func buildDiaryEntry(date string, records models.DailyRecords, state DiaryState) models.DiaryEntry {
	_, hasNutrients := records[date]
	edit := memoEditOf(&state, date)
	photos := state.Photos[date]
	if photos == nil {
		photos = []string{}
	}
	entry := models.DiaryEntry{
		Date:         date,
		Photos:       photos,
		Memo:         state.Memos[date],
		HasNutrients: hasNutrients,
		MemoState:    edit.State,
	}
	if edit.State != MemoViewing {
		entry.MemoDraft = edit.Draft
	}
	return entry
}

func (service *DiaryService) AppendPhoto(ctx context.Context, userID string, date string, image string) (models.DiaryEntry, error) {
	service.ensureLoaded(ctx, userID, date, service.books.Diary(userID))
	if err := service.Execute(ctx, userID, NewAppendPhotoCommand(date, image)); err != nil {
		return service.Entry(ctx, userID, date), err
	}
	return service.Entry(ctx, userID, date), nil
}

func (service *DiaryService) DeletePhoto(ctx context.Context, userID string, date string, index int) (models.DiaryEntry, error) {
	book := service.books.Diary(userID)
	if !service.ensureLoaded(ctx, userID, date, book) {
		if err := ctx.Err(); err != nil {
			return service.snapshotEntry(ctx, userID, date, book), err
		}
		return service.snapshotEntry(ctx, userID, date, book), ErrDateUnavailable
	}
	if err := service.Execute(ctx, userID, NewDeletePhotoCommand(date, index)); err != nil {
		return service.Entry(ctx, userID, date), err
	}
	return service.Entry(ctx, userID, date), nil
}

func (service *DiaryService) BeginMemoEdit(ctx context.Context, userID string, date string) (models.DiaryEntry, error) {
	book := service.books.Diary(userID)
	service.ensureLoaded(ctx, userID, date, book)
	if _, err := book.BeginMemoEdit(date); err != nil {
		return service.Entry(ctx, userID, date), err
	}
	return service.Entry(ctx, userID, date), nil
}

func (service *DiaryService) CancelMemoEdit(ctx context.Context, userID string, date string) (models.DiaryEntry, error) {
	if err := service.books.Diary(userID).CancelMemoEdit(date); err != nil {
		return service.Entry(ctx, userID, date), err
	}
	return service.Entry(ctx, userID, date), nil
}

// SaveMemo moves an open edit through saving and replaces the memo.
func (service *DiaryService) SaveMemo(ctx context.Context, userID string, date string, memo string) (models.DiaryEntry, error) {
	book := service.books.Diary(userID)
	service.ensureLoaded(ctx, userID, date, book)
	if err := book.StartMemoSave(date, memo); err != nil {
		return service.Entry(ctx, userID, date), err
	}

	err := service.Execute(ctx, userID, NewSaveMemoCommand(date, memo))
	book.FinishMemoSave(date, err == nil)
	return service.Entry(ctx, userID, date), err
}

// Execute applies command optimistically and persists it. On failure the
// local change is rolled back and the command is queued for retry.
func (service *DiaryService) Execute(ctx context.Context, userID string, command DiaryCommand) error {
	book := service.books.Diary(userID)
	if err := command.Apply(book); err != nil {
		return err
	}

	persistErr := command.Persist(ctx, service.gateway, userID)
	if persistErr == nil {
		service.dropSuperseded(userID, command, "")
		return nil
	}
	command.Rollback(book)

	pendingID, err := service.enqueue(userID, command, persistErr)
	if err != nil {
		log.Printf("queue %s for user %s on %s: %v", command.Kind(), userID, command.Date(), err)
		return fmt.Errorf("%w: %v", ErrQueueMutation, persistErr)
	}
	service.dropSuperseded(userID, command, pendingID)
	log.Printf("%s for user %s on %s failed, queued as %s: %v", command.Kind(), userID, command.Date(), pendingID, persistErr)
	return &PersistError{PendingID: pendingID, Err: persistErr}
}

// dropSuperseded discards queued memo saves older than command. A memo save
// replaces the whole memo, so replaying an older one would undo a newer save.
func (service *DiaryService) dropSuperseded(userID string, command DiaryCommand, keepID string) {
	if service.pending == nil || command.Kind() != models.MutationMemoSave {
		return
	}
	if err := service.pending.DeleteSuperseded(userID, command.Kind(), command.Date(), keepID); err != nil {
		log.Printf("drop superseded %s for user %s on %s: %v", command.Kind(), userID, command.Date(), err)
	}
}

func (service *DiaryService) enqueue(userID string, command DiaryCommand, cause error) (string, error) {
	if service.pending == nil {
		return "", errors.New("pending queue is not configured")
	}
	payload, err := command.Payload()
	if err != nil {
		return "", err
	}

	now := service.now()
	next := now.Add(pendingRetryBaseDelay)
	entry := models.PendingMutation{
		ID:            uuid.NewString(),
		UserID:        userID,
		Kind:          command.Kind(),
		Date:          command.Date(),
		Payload:       payload,
		Attempts:      1,
		LastError:     cause.Error(),
		NextAttemptAt: &next,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := service.pending.Save(&entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (service *DiaryService) PendingForUser(userID string) ([]models.PendingMutation, error) {
	if service.pending == nil {
		return []models.PendingMutation{}, nil
	}
	return service.pending.ListByUser(userID)
}

// Calendar returns the month grid for month (YYYY-MM, empty for the current
// month) with nutrient, photo and memo flags.
func (service *DiaryService) Calendar(ctx context.Context, userID string, month string) ([]CalendarDayState, error) {
	now := service.now()
	monthStart := DateAtLocation(now, service.location)
	if month != "" {
		parsed, err := ParseMonthKey(month, service.location)
		if err != nil {
			return nil, err
		}
		monthStart = parsed
	}

	records := service.records.Records(ctx, userID, false)
	book := service.books.Diary(userID)
	if !book.BulkLoaded() {
		service.LoadAll(ctx, userID, records)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := book.Snapshot()
	return BuildCalendarDays(monthStart, records, state.Photos, state.Memos, now, service.location), nil
}
