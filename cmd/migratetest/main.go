package main

import (
	"context"
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/logging"
	"github.com/labqa/inspection/internal/repositories"
	"github.com/labqa/inspection/internal/sqlite"
	"log/slog"
	"os"
	"time"
)

// migratetest migrates a copy of the production database and checks that the stored inspections survived.
func main() {
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug)
	var (
		err       error
		start     = time.Now()
		sqliteURL string
		ok        bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd // 5 seconds

	if sqliteURL, ok = os.LookupEnv("INSPECTION_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "INSPECTION_SQLITE_URL not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, sqliteURL, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating database",
			slog.String("url", sqliteURL), errors.SlogError(err))
		os.Exit(1)
	}

	inspections := repositories.NewInspectionRepository(db, logger)
	count, err := inspections.CountRecords(ctx)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error counting inspections", errors.SlogError(err))
		os.Exit(1)
	}
	if count == 0 {
		logger.LogAttrs(ctx, slog.LevelError, "no inspections found, something is likely wrong")
		os.Exit(1)
	}
	if _, err = inspections.ReadAllRecords(ctx); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error decoding inspections", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "inspection count", slog.Int("count", count))

	if err = db.Close(); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(err))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
}
