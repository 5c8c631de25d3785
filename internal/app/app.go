package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	r "github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/phrazzld/handset/internal/callsettings"
	"github.com/phrazzld/handset/internal/config"
	"github.com/phrazzld/handset/internal/contacts"
	"github.com/phrazzld/handset/internal/device"
	"github.com/phrazzld/handset/internal/events"
	"github.com/phrazzld/handset/internal/importer"
	"github.com/phrazzld/handset/internal/platform/postgres"
	"github.com/phrazzld/handset/internal/platform/redis"
	"github.com/phrazzld/handset/internal/ril"
	"github.com/phrazzld/handset/internal/scheduler"
	"github.com/phrazzld/handset/internal/settings"
)

// recentEvents is how many emitted events are kept for inspection.
const recentEvents = 50

// App holds the shared dependencies and releases them on Close.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DB    *sql.DB
	Redis *r.Client

	Settings  settings.ListStore
	Contacts  *contacts.Service
	ICCs      *ril.StoreICCProvider
	Conn      ril.Connection
	Scheduler *scheduler.Scheduler
	Emitter   *events.InMemoryEventEmitter
	Recent    *events.Recorder
	WakeLocks *device.WakeLockManager
	FS        afero.Fs

	Barring    *callsettings.Barring
	Forwarding *callsettings.Forwarding
	Waiting    *callsettings.Waiting

	merger importer.Merger
}

// New opens the configured store backend and builds every component on
// top of it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		FS:     afero.NewOsFs(),
	}

	var contactStore contacts.Store
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := OpenDatabase(ctx, cfg.Database.URL, logger)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.Settings = postgres.NewSettingsStore(db, logger)
		contactStore = postgres.NewContactStore(db, logger)

	case config.BackendRedis:
		client, err := redis.Connect(ctx, redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		a.Redis = client
		a.Settings = redis.NewSettingsStore(client, cfg.Redis.Prefix, logger)
		contactStore = contacts.NewMemoryStore()

	default:
		a.Settings = settings.NewMemoryStore()
		contactStore = contacts.NewMemoryStore()
	}
	logger.Info("store backend ready", "backend", cfg.Store.Backend)

	a.Contacts = contacts.NewService(contactStore, logger)
	a.merger = a.Contacts
	if a.DB != nil {
		a.merger = postgres.NewTxMerger(a.DB, logger)
	}
	a.ICCs = ril.NewStoreICCProvider(a.Settings)
	a.Conn = ril.NewStoreConnection(a.Settings, logger)
	a.Scheduler = scheduler.New(logger)
	a.WakeLocks = device.NewWakeLockManager(logger)

	a.Emitter = events.NewInMemoryEventEmitter(logger)
	a.Recent = events.NewRecorder(recentEvents)
	a.Emitter.RegisterHandler(a.Recent)
	a.Emitter.RegisterHandler(logEvents(logger))

	serviceClass := cfg.Device.ServiceClass
	a.Barring = callsettings.NewBarring(a.Conn, a.Scheduler, a.Emitter, serviceClass, logger)
	a.Forwarding = callsettings.NewForwarding(a.Conn, a.Scheduler, a.Emitter, serviceClass, logger)
	a.Waiting = callsettings.NewWaiting(a.Conn, a.Scheduler, a.Emitter, logger)

	return a, nil
}

// UI is the presentation side of an import: how progress, results and the
// retry question reach the user. Nil fields fall back to no-op defaults,
// and a nil Dialog retries up to Config.Import.MaxRetries times.
type UI struct {
	Overlay importer.Overlay
	Status  importer.StatusNotifier
	Dialog  importer.Dialog
}

// NewController builds an import controller presenting through ui.
func (a *App) NewController(ui UI) *importer.Controller {
	dialog := ui.Dialog
	if dialog == nil {
		dialog = importer.RetryDialog{Max: a.Config.Import.MaxRetries}
	}
	return importer.NewController(importer.Options{
		Merger:        a.merger,
		ICCs:          a.ICCs,
		FS:            a.FS,
		SDCardRoot:    a.Config.Import.SDCardRoot,
		Overlay:       ui.Overlay,
		Status:        ui.Status,
		Dialog:        dialog,
		WakeLocks:     a.WakeLocks,
		Settings:      a.Settings,
		Emitter:       a.Emitter,
		FeedbackDelay: a.Config.Import.FeedbackDelay,
		Logger:        a.Logger,
	})
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// OpenDatabase opens a pgx-backed connection pool and pings it.
func OpenDatabase(ctx context.Context, url string, logger *slog.Logger) (*sql.DB, error) {
	if url == "" {
		return nil, errors.New("database url is required for the postgres backend")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")
	return db, nil
}

func logEvents(logger *slog.Logger) events.EventHandler {
	log := logger.With("component", "event_log")
	return events.EventHandlerFunc(func(_ context.Context, event *events.Event) error {
		log.Debug("event emitted", "event_id", event.ID, "event_type", event.Type)
		return nil
	})
}
