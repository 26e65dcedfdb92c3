package main

import (
	"context"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/donseba/go-htmx"
	"github.com/joho/godotenv"
	"github.com/labqa/inspection/internal/envstruct"
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/logging"
	"github.com/labqa/inspection/internal/pprofserver"
	"github.com/labqa/inspection/internal/repositories"
	"github.com/labqa/inspection/internal/schemasource"
	"github.com/labqa/inspection/internal/sqlite"
	"github.com/labqa/inspection/internal/wizard"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	engine         *wizard.Engine
	inspections    *repositories.InspectionRepository
	htmx           *htmx.HTMX
	maxUploadBytes int64
}

type config struct {
	// Addr is the address the HTTP server listens on.
	Addr string `env:"INSPECTION_ADDR" envDefault:"localhost:4000"`
	// SqliteURL is the database file. Use ":memory:" for a throwaway database.
	SqliteURL string `env:"INSPECTION_SQLITE_URL" envDefault:"./inspection.sqlite3"`
	// SchemaURL is tried before SchemaPath when set.
	SchemaURL       string        `env:"INSPECTION_SCHEMA_URL" envDefault:""`
	SchemaPath      string        `env:"INSPECTION_SCHEMA_PATH" envDefault:"./roteiros.json"`
	SessionLifetime time.Duration `env:"INSPECTION_SESSION_LIFETIME" envDefault:"12h"`
	// MaxUploadBytes limits the request body of form submissions, evidence files included.
	MaxUploadBytes int64 `env:"INSPECTION_MAX_UPLOAD_BYTES" envDefault:"33554432"`
	// PprofAddr enables the profiling listener when set. Bind it to loopback.
	PprofAddr string `env:"INSPECTION_PPROF_ADDR" envDefault:""`
}

const sessionCleanupInterval = 24 * time.Hour

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		err error
		cfg config
	)
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	if cfg.PprofAddr != "" {
		pprofserver.Launch(ctx, cfg.PprofAddr, logger)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, cfg.SqliteURL, logger); err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close database", errors.SlogError(closeErr))
		}
	}()

	client := &http.Client{Timeout: schemasource.DefaultTimeout}
	s, err := schemasource.Load(ctx, client, cfg.SchemaURL, cfg.SchemaPath, logger)
	if err != nil {
		return errors.Wrap(err, "load inspection schema")
	}

	inspections := repositories.NewInspectionRepository(db, logger)

	store := sqlite3store.NewWithCleanupInterval(db.ReadWrite, sessionCleanupInterval)
	defer store.StopCleanup()
	sessionManager := scs.New()
	sessionManager.Store = store
	sessionManager.Lifetime = cfg.SessionLifetime

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		engine:         wizard.NewEngine(s, inspections, time.Now, logger),
		inspections:    inspections,
		htmx:           htmx.New(),
		maxUploadBytes: cfg.MaxUploadBytes,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failure loading .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
