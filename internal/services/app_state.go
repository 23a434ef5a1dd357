package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

var (
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrInvalidLanguage = errors.New("invalid language")
	ErrSavePreference  = errors.New("save preference failed")
)

type PreferenceStore interface {
	Find(userID string) (models.UserPreference, bool, error)
	Save(preference *models.UserPreference) error
}

// Session is the per-user application state shared by every view.
type Session struct {
	UserID   string         `json:"user_id"`
	Profile  models.Profile `json:"profile"`
	Theme    string         `json:"theme"`
	Language string         `json:"language"`

	// LanguageSet is false while Language is only the deployment default.
	LanguageSet bool `json:"-"`
}

type sessionEntry struct {
	session Session
	diary   *DiaryBook
}

// AppStateStore owns every Session. Reads return copies and writes go
// through the update methods below.
type AppStateStore struct {
	mu              sync.Mutex
	sessions        map[string]*sessionEntry
	preferences     PreferenceStore
	defaultLanguage string
	now             func() time.Time
}

func NewAppStateStore(preferences PreferenceStore, defaultLanguage string) *AppStateStore {
	return &AppStateStore{
		sessions:        make(map[string]*sessionEntry),
		preferences:     preferences,
		defaultLanguage: defaultLanguage,
		now:             time.Now,
	}
}

func (store *AppStateStore) Session(userID string) Session {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.entryLocked(userID).session
}

func (store *AppStateStore) Diary(userID string) *DiaryBook {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.entryLocked(userID).diary
}

func (store *AppStateStore) UpdateProfile(userID string, update func(profile *models.Profile)) Session {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry := store.entryLocked(userID)
	update(&entry.session.Profile)
	return entry.session
}

func (store *AppStateStore) SetTheme(userID string, theme string) (Session, error) {
	normalized := strings.ToLower(strings.TrimSpace(theme))
	if normalized != models.ThemeLight && normalized != models.ThemeDark {
		return Session{}, ErrInvalidTheme
	}
	return store.updatePreference(userID, func(session *Session) {
		session.Theme = normalized
	})
}

// SetLanguage expects a language already normalized against the catalog.
func (store *AppStateStore) SetLanguage(userID string, language string) (Session, error) {
	normalized := strings.ToLower(strings.TrimSpace(language))
	if normalized == "" {
		return Session{}, ErrInvalidLanguage
	}
	return store.updatePreference(userID, func(session *Session) {
		session.Language = normalized
		session.LanguageSet = true
	})
}

// Forget drops the in-memory state of userID, e.g. on logout.
func (store *AppStateStore) Forget(userID string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.sessions, userID)
}

func (store *AppStateStore) updatePreference(userID string, update func(session *Session)) (Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry := store.entryLocked(userID)
	next := entry.session
	update(&next)

	if store.preferences != nil {
		preference := models.UserPreference{
			UserID:    userID,
			Theme:     next.Theme,
			UpdatedAt: store.now(),
		}
		if next.LanguageSet {
			preference.Language = next.Language
		}
		if err := store.preferences.Save(&preference); err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrSavePreference, err)
		}
	}

	entry.session = next
	return next, nil
}

func (store *AppStateStore) entryLocked(userID string) *sessionEntry {
	if entry, ok := store.sessions[userID]; ok {
		return entry
	}

	session := Session{UserID: userID, Theme: models.ThemeLight, Language: store.defaultLanguage}
	if store.preferences != nil {
		preference, found, err := store.preferences.Find(userID)
		if err != nil {
			log.Printf("load preferences for user %s: %v", userID, err)
		}
		if err == nil && found {
			if preference.Theme != "" {
				session.Theme = preference.Theme
			}
			if preference.Language != "" {
				session.Language = preference.Language
				session.LanguageSet = true
			}
		}
	}

	entry := &sessionEntry{session: session, diary: NewDiaryBook()}
	store.sessions[userID] = entry
	return entry
}
