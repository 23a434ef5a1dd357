package api

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestCancelledServerContextStopsDiaryLoad(t *testing.T) {
	app, upstream, handler := newTestApp(t)
	upstream.photos[time.Now().UTC().Format("2006-01-02")] = []string{"aW1n"}
	token := signTestToken(t, "u1", time.Hour)

	lifecycle, cancel := context.WithCancel(context.Background())
	cancel()
	handler.SetRequestContext(lifecycle, time.Minute)

	response := doJSON(t, app, http.MethodGet, "/api/diary", token, nil)
	expectStatus(t, response, http.StatusServiceUnavailable)
	if code := readAPIError(t, response); code != "request_cancelled" {
		t.Fatalf("expected request_cancelled, got %q", code)
	}
	if handler.state.Diary("u1").BulkLoaded() {
		t.Fatal("expected a cancelled load to leave the diary unloaded")
	}
	if photos := handler.state.Diary("u1").Snapshot().Photos; len(photos) != 0 {
		t.Fatalf("expected no merged photos, got %v", photos)
	}

	handler.SetRequestContext(context.Background(), time.Minute)
	response = doJSON(t, app, http.MethodGet, "/api/diary", token, nil)
	expectStatus(t, response, http.StatusOK)
}

func TestRequestTimeoutBoundsHandlers(t *testing.T) {
	app, _, handler := newTestApp(t)
	token := signTestToken(t, "u1", time.Hour)
	handler.SetRequestContext(context.Background(), time.Nanosecond)

	response := doJSON(t, app, http.MethodGet, "/api/calendar", token, nil)
	expectStatus(t, response, http.StatusServiceUnavailable)
}
