package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/terraincognita07/dailyvalue/internal/db"
	"github.com/terraincognita07/dailyvalue/internal/models"
	"gorm.io/datatypes"
)

func seedPendingMutations(t *testing.T, dbPath string, entries ...models.PendingMutation) {
	t.Helper()

	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	defer sqlDB.Close()

	repo := db.NewPendingMutationRepository(database)
	for index := range entries {
		if err := repo.Save(&entries[index]); err != nil {
			t.Fatalf("seed %s: %v", entries[index].ID, err)
		}
	}
}

func TestRunRetryPendingCommandReplaysDueMutations(t *testing.T) {
	var (
		mu    sync.Mutex
		saved []map[string]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/meal-memo" {
			http.Error(w, "unexpected request", http.StatusNotFound)
			return
		}
		body := map[string]string{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		saved = append(saved, body)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	dbPath := filepath.Join(t.TempDir(), "dailyvalue-cli.db")
	future := time.Now().Add(time.Hour).UTC()
	seedPendingMutations(t, dbPath,
		models.PendingMutation{ID: "m1", UserID: "u1", Kind: models.MutationMemoSave, Date: "2024-05-01", Payload: datatypes.JSON(`{"memo":"점심 샐러드"}`)},
		models.PendingMutation{ID: "m2", UserID: "u1", Kind: models.MutationMemoSave, Date: "2024-05-02", Payload: datatypes.JSON(`{"memo":"later"}`), NextAttemptAt: &future},
		models.PendingMutation{ID: "m3", UserID: "u2", Kind: "unknown_kind", Date: "2024-05-03", Payload: datatypes.JSON(`{}`)},
	)

	var out bytes.Buffer
	report, err := RunRetryPendingCommand(context.Background(), dbPath, server.URL, time.Second, &out)
	if err != nil {
		t.Fatalf("RunRetryPendingCommand() unexpected error: %v", err)
	}
	if report.Succeeded != 1 || report.Dropped != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report %#v", report)
	}
	if len(saved) != 1 || saved[0]["memo"] != "점심 샐러드" || saved[0]["user_id"] != "u1" {
		t.Fatalf("unexpected upstream writes %#v", saved)
	}
	if !strings.Contains(out.String(), "1 succeeded, 0 failed, 1 dropped") {
		t.Fatalf("unexpected summary %q", out.String())
	}
}

func TestRunRetryPendingCommandRejectsBadUpstreamURL(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dailyvalue-cli.db")
	if _, err := RunRetryPendingCommand(context.Background(), dbPath, "ftp://example.com", time.Second, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for non-http upstream url")
	}
}
