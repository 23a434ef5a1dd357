package services

import (
	"errors"
	"sync"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

const (
	MemoViewing = "viewing"
	MemoEditing = "editing"
	MemoSaving  = "saving"
)

var (
	ErrPhotoIndexOutOfRange  = errors.New("photo index out of range")
	ErrInvalidMemoTransition = errors.New("invalid memo transition")
)

type MemoEdit struct {
	State string
	Draft string
}

// DiaryState is the client-side view of one user's diary.
type DiaryState struct {
	Photos models.PhotoMap
	Memos  models.MemoMap
	Edits  map[string]MemoEdit
	// Loaded marks dates whose photo list was fetched from the backend, so
	// local indices line up with the backend's.
	Loaded map[string]bool
}

// DiaryBook guards a DiaryState. Every write is a read-modify-write against
// the latest state under the lock, so concurrent fetch completions and user
// mutations never overwrite each other.
type DiaryBook struct {
	mu         sync.Mutex
	state      DiaryState
	bulkLoaded bool
}

func NewDiaryBook() *DiaryBook {
	return &DiaryBook{state: newDiaryState()}
}

func newDiaryState() DiaryState {
	return DiaryState{
		Photos: models.PhotoMap{},
		Memos:  models.MemoMap{},
		Edits:  map[string]MemoEdit{},
		Loaded: map[string]bool{},
	}
}

func (book *DiaryBook) Update(mutate func(state *DiaryState) error) error {
	book.mu.Lock()
	defer book.mu.Unlock()
	return mutate(&book.state)
}

// Snapshot returns a deep copy that callers may read without locking.
func (book *DiaryBook) Snapshot() DiaryState {
	book.mu.Lock()
	defer book.mu.Unlock()

	snapshot := newDiaryState()
	for date, photos := range book.state.Photos {
		snapshot.Photos[date] = append([]string(nil), photos...)
	}
	for date, memo := range book.state.Memos {
		snapshot.Memos[date] = memo
	}
	for date, edit := range book.state.Edits {
		snapshot.Edits[date] = edit
	}
	for date, loaded := range book.state.Loaded {
		snapshot.Loaded[date] = loaded
	}
	return snapshot
}

func (book *DiaryBook) BulkLoaded() bool {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.bulkLoaded
}

func (book *DiaryBook) MarkBulkLoaded() {
	book.mu.Lock()
	defer book.mu.Unlock()
	book.bulkLoaded = true
}

func (book *DiaryBook) IsLoaded(date string) bool {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.state.Loaded[date]
}

// MergeFetchedPhotos replaces the photos of date with the backend's copy.
func (book *DiaryBook) MergeFetchedPhotos(date string, photos []string) {
	_ = book.Update(func(state *DiaryState) error {
		setPhotos(state, date, append([]string(nil), photos...))
		state.Loaded[date] = true
		return nil
	})
}

func (book *DiaryBook) MergeFetchedMemo(date string, memo string) {
	_ = book.Update(func(state *DiaryState) error {
		setMemo(state, date, memo)
		return nil
	})
}

func (book *DiaryBook) AppendPhoto(date string, image string) int {
	index := 0
	_ = book.Update(func(state *DiaryState) error {
		photos := append(state.Photos[date], image)
		setPhotos(state, date, photos)
		index = len(photos) - 1
		return nil
	})
	return index
}

func (book *DiaryBook) RemovePhoto(date string, index int) (string, error) {
	removed := ""
	err := book.Update(func(state *DiaryState) error {
		photos := state.Photos[date]
		if index < 0 || index >= len(photos) {
			return ErrPhotoIndexOutOfRange
		}
		removed = photos[index]
		next := make([]string, 0, len(photos)-1)
		next = append(next, photos[:index]...)
		next = append(next, photos[index+1:]...)
		setPhotos(state, date, next)
		return nil
	})
	return removed, err
}

// PhotoIndex finds the copy of image on date nearest to hint, or -1.
func (book *DiaryBook) PhotoIndex(date string, image string, hint int) int {
	book.mu.Lock()
	defer book.mu.Unlock()
	return nearestPhotoIndex(book.state.Photos[date], image, hint)
}

func nearestPhotoIndex(photos []string, image string, hint int) int {
	found := -1
	for index, photo := range photos {
		if photo != image {
			continue
		}
		if found < 0 || distance(index, hint) < distance(found, hint) {
			found = index
		}
	}
	return found
}

func distance(a int, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// InsertPhoto puts image back at index, clamped to the current length.
func (book *DiaryBook) InsertPhoto(date string, index int, image string) {
	_ = book.Update(func(state *DiaryState) error {
		photos := state.Photos[date]
		if index < 0 {
			index = 0
		}
		if index > len(photos) {
			index = len(photos)
		}
		next := make([]string, 0, len(photos)+1)
		next = append(next, photos[:index]...)
		next = append(next, image)
		next = append(next, photos[index:]...)
		setPhotos(state, date, next)
		return nil
	})
}

// WithdrawPhoto removes the most recent copy of image from date. Other
// mutations may have shifted indices since it was appended.
func (book *DiaryBook) WithdrawPhoto(date string, image string) bool {
	withdrawn := false
	_ = book.Update(func(state *DiaryState) error {
		photos := state.Photos[date]
		for index := len(photos) - 1; index >= 0; index-- {
			if photos[index] != image {
				continue
			}
			next := make([]string, 0, len(photos)-1)
			next = append(next, photos[:index]...)
			next = append(next, photos[index+1:]...)
			setPhotos(state, date, next)
			withdrawn = true
			break
		}
		return nil
	})
	return withdrawn
}

// SetMemo replaces the memo of date and reports the previous value.
func (book *DiaryBook) SetMemo(date string, memo string) (string, bool) {
	previous, had := "", false
	_ = book.Update(func(state *DiaryState) error {
		previous, had = state.Memos[date]
		setMemo(state, date, memo)
		return nil
	})
	return previous, had
}

// RestoreMemo undoes SetMemo unless another save has landed since.
func (book *DiaryBook) RestoreMemo(date string, expected string, previous string, had bool) {
	_ = book.Update(func(state *DiaryState) error {
		if state.Memos[date] != expected {
			return nil
		}
		if had {
			setMemo(state, date, previous)
		} else {
			delete(state.Memos, date)
		}
		return nil
	})
}

func (book *DiaryBook) MemoEdit(date string) MemoEdit {
	book.mu.Lock()
	defer book.mu.Unlock()
	return memoEditOf(&book.state, date)
}

func (book *DiaryBook) BeginMemoEdit(date string) (MemoEdit, error) {
	var edit MemoEdit
	err := book.Update(func(state *DiaryState) error {
		current := memoEditOf(state, date)
		if current.State != MemoViewing {
			return ErrInvalidMemoTransition
		}
		edit = MemoEdit{State: MemoEditing, Draft: state.Memos[date]}
		state.Edits[date] = edit
		return nil
	})
	return edit, err
}

func (book *DiaryBook) CancelMemoEdit(date string) error {
	return book.Update(func(state *DiaryState) error {
		if memoEditOf(state, date).State != MemoEditing {
			return ErrInvalidMemoTransition
		}
		delete(state.Edits, date)
		return nil
	})
}

func (book *DiaryBook) StartMemoSave(date string, draft string) error {
	return book.Update(func(state *DiaryState) error {
		if memoEditOf(state, date).State != MemoEditing {
			return ErrInvalidMemoTransition
		}
		state.Edits[date] = MemoEdit{State: MemoSaving, Draft: draft}
		return nil
	})
}

// FinishMemoSave returns to viewing on success. A failed save goes back to
// editing and keeps the draft.
func (book *DiaryBook) FinishMemoSave(date string, saved bool) {
	_ = book.Update(func(state *DiaryState) error {
		edit := memoEditOf(state, date)
		if edit.State != MemoSaving {
			return nil
		}
		if saved {
			delete(state.Edits, date)
			return nil
		}
		state.Edits[date] = MemoEdit{State: MemoEditing, Draft: edit.Draft}
		return nil
	})
}

func memoEditOf(state *DiaryState, date string) MemoEdit {
	if edit, ok := state.Edits[date]; ok {
		return edit
	}
	return MemoEdit{State: MemoViewing}
}

func setPhotos(state *DiaryState, date string, photos []string) {
	if len(photos) == 0 {
		delete(state.Photos, date)
		return
	}
	state.Photos[date] = photos
}

func setMemo(state *DiaryState, date string, memo string) {
	if memo == "" {
		delete(state.Memos, date)
		return
	}
	state.Memos[date] = memo
}
