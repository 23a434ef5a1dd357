package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/terraincognita07/dailyvalue/internal/db"
	"github.com/terraincognita07/dailyvalue/internal/i18n"
	"github.com/terraincognita07/dailyvalue/internal/models"
)

const testSecretKey = "test-secret-key-with-at-least-32-characters"

var errUpstreamDown = errors.New("upstream down")

type upstreamStub struct {
	mu         sync.Mutex
	records    models.DailyRecords
	photos     map[string][]string
	memos      map[string]string
	candidates []models.NutrientReading
	intake     models.IntakeResult
	answer     string
	failWrites bool
	failAI     bool
	committed  []models.NutrientReading
	profiles   []models.ProfileUpdate
	image      string
}

func newUpstreamStub() *upstreamStub {
	return &upstreamStub{
		records: models.DailyRecords{},
		photos:  map[string][]string{},
		memos:   map[string]string{},
	}
}

func (stub *upstreamStub) FetchStatistics(ctx context.Context, userID string) (models.DailyRecords, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	records := models.DailyRecords{}
	for date, readings := range stub.records {
		records[date] = append([]models.NutrientReading(nil), readings...)
	}
	return records, nil
}

func (stub *upstreamStub) FetchPhotos(ctx context.Context, userID string, date string) ([]string, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return append([]string(nil), stub.photos[date]...), nil
}

func (stub *upstreamStub) SavePhoto(ctx context.Context, userID string, date string, image string) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.failWrites {
		return errUpstreamDown
	}
	stub.photos[date] = append(stub.photos[date], image)
	return nil
}

func (stub *upstreamStub) DeletePhoto(ctx context.Context, userID string, date string, index int) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.failWrites {
		return errUpstreamDown
	}
	photos := stub.photos[date]
	if index >= 0 && index < len(photos) {
		stub.photos[date] = append(photos[:index:index], photos[index+1:]...)
	}
	return nil
}

func (stub *upstreamStub) FetchMemo(ctx context.Context, userID string, date string) (string, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return stub.memos[date], nil
}

func (stub *upstreamStub) SaveMemo(ctx context.Context, userID string, date string, memo string) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.failWrites {
		return errUpstreamDown
	}
	stub.memos[date] = memo
	return nil
}

func (stub *upstreamStub) AnalyzeLabel(ctx context.Context, userID string, image models.LabelImage) ([]models.NutrientReading, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.failAI {
		return nil, errUpstreamDown
	}
	return stub.candidates, nil
}

func (stub *upstreamStub) AddNutrients(ctx context.Context, userID string, nutrients []models.NutrientReading) (models.IntakeResult, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.failAI {
		return models.IntakeResult{}, errUpstreamDown
	}
	stub.committed = nutrients
	result := stub.intake
	result.Nutrients = nutrients
	return result, nil
}

func (stub *upstreamStub) FetchUserStatus(ctx context.Context, userID string) (models.IntakeResult, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return stub.intake, nil
}

func (stub *upstreamStub) AskAI(ctx context.Context, userID string, question string, history []models.ChatMessage) (string, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.failAI {
		return "", errUpstreamDown
	}
	return stub.answer, nil
}

func (stub *upstreamStub) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.failWrites {
		return errUpstreamDown
	}
	stub.profiles = append(stub.profiles, update)
	return nil
}

func (stub *upstreamStub) UpdateProfileImage(ctx context.Context, userID string, image string) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.failWrites {
		return errUpstreamDown
	}
	stub.image = image
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *upstreamStub, *Handler) {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "dailyvalue-api-test.db")
	database, err := db.OpenSQLite(databasePath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	manager, err := i18n.NewEmbeddedManager(i18n.LangKO)
	if err != nil {
		t.Fatalf("load locales: %v", err)
	}

	upstream := newUpstreamStub()
	handler, err := NewHandler(database, testSecretKey, upstream, time.UTC, manager, false, 3)
	if err != nil {
		t.Fatalf("NewHandler() unexpected error: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app, handler)
	return app, upstream, handler
}

func signTestToken(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	claims := authClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecretKey))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, app *fiber.App, method string, path string, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return response
}

func expectStatus(t *testing.T, response *http.Response, status int) {
	t.Helper()
	if response.StatusCode != status {
		body, _ := io.ReadAll(response.Body)
		t.Fatalf("expected status %d, got %d: %s", status, response.StatusCode, body)
	}
}

func decodeJSON(t *testing.T, response *http.Response, target any) {
	t.Helper()
	defer response.Body.Close()
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func readAPIError(t *testing.T, response *http.Response) string {
	t.Helper()
	payload := map[string]any{}
	decodeJSON(t, response, &payload)
	code, _ := payload["error"].(string)
	return code
}
