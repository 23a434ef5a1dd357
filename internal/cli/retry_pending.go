package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/terraincognita07/dailyvalue/internal/db"
	"github.com/terraincognita07/dailyvalue/internal/services"
	"github.com/terraincognita07/dailyvalue/internal/upstream"
)

// RunRetryPendingCommand replays every due diary mutation once and writes a
// summary to out. Mutations are replayed upstream only since no diary is
// loaded in this process.
func RunRetryPendingCommand(ctx context.Context, dbPath string, upstreamURL string, timeout time.Duration, out io.Writer) (services.RetryReport, error) {
	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		return services.RetryReport{}, fmt.Errorf("database init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	client, err := upstream.NewClient(upstreamURL, timeout)
	if err != nil {
		return services.RetryReport{}, fmt.Errorf("upstream client init failed: %w", err)
	}

	repositories := db.NewRepositories(database)
	retry := services.NewRetryService(client, services.NewAppStateStore(nil, ""), repositories.Pending)

	report, err := retry.RunDue(ctx)
	if err != nil {
		return report, fmt.Errorf("retry pending mutations: %w", err)
	}

	fmt.Fprintf(out, "Replayed pending mutations: %d succeeded, %d failed, %d dropped\n", report.Succeeded, report.Failed, report.Dropped)
	return report, nil
}
