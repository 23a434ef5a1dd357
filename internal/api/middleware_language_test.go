package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func getMeWithLanguage(t *testing.T, app *fiber.App, path string, token string, acceptLanguage string) meResponse {
	t.Helper()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Accept-Language", acceptLanguage)

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	expectStatus(t, response, http.StatusOK)
	payload := meResponse{}
	decodeJSON(t, response, &payload)
	return payload
}

func TestLanguageFallsBackToAcceptLanguage(t *testing.T) {
	app, _, _ := newTestApp(t)
	token := signTestToken(t, "u1", time.Hour)

	payload := getMeWithLanguage(t, app, "/api/me", token, "fr-FR,en-US;q=0.8,ko;q=0.5")
	if payload.Session.Language != "en" || payload.Messages["app.title"] != "DailyValue" {
		t.Fatalf("expected English from Accept-Language, got %q", payload.Session.Language)
	}

	payload = getMeWithLanguage(t, app, "/api/me", token, "fr, de")
	if payload.Session.Language != "ko" {
		t.Fatalf("expected the default for unsupported languages, got %q", payload.Session.Language)
	}

	payload = getMeWithLanguage(t, app, "/api/me?lang=ko", token, "en")
	if payload.Session.Language != "ko" {
		t.Fatalf("expected ?lang to win over Accept-Language, got %q", payload.Session.Language)
	}
}

func TestSavedLanguageWinsOverAcceptLanguage(t *testing.T) {
	app, _, _ := newTestApp(t)
	token := signTestToken(t, "u1", time.Hour)

	response := doJSON(t, app, http.MethodPut, "/api/me/preferences", token, map[string]string{"theme": "dark"})
	expectStatus(t, response, http.StatusOK)
	payload := getMeWithLanguage(t, app, "/api/me", token, "en")
	if payload.Session.Language != "en" {
		t.Fatalf("a theme change must not pin the language, got %q", payload.Session.Language)
	}

	response = doJSON(t, app, http.MethodPut, "/api/me/preferences", token, map[string]string{"language": "ko"})
	expectStatus(t, response, http.StatusOK)
	payload = getMeWithLanguage(t, app, "/api/me", token, "en")
	if payload.Session.Language != "ko" {
		t.Fatalf("expected the saved language, got %q", payload.Session.Language)
	}
}
