package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/handset/internal/platform/logger"
	"github.com/phrazzld/handset/internal/settings"
	"github.com/phrazzld/handset/internal/store"
)

// SettingsStore implements settings.Store on the settings table.
type SettingsStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

var _ settings.ListStore = (*SettingsStore)(nil)

// NewSettingsStore creates a SettingsStore. If logger is nil, a default
// logger will be used.
func NewSettingsStore(db store.DBTX, logger *slog.Logger) *SettingsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsStore{
		db:     db,
		logger: logger.With(slog.String("component", "settings_store")),
		now:    time.Now,
	}
}

// WithTx returns a store running its queries in tx.
func (s *SettingsStore) WithTx(tx *sql.Tx) *SettingsStore {
	return &SettingsStore{db: tx, logger: s.logger, now: s.now}
}

func (s *SettingsStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, settings.ErrNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to read setting",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("setting", "get", "query failed", MapError(err))
	}
	return value, nil
}

func (s *SettingsStore) Set(ctx context.Context, key string, value []byte) error {
	const query = `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, s.now().UTC()); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to write setting",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return store.NewStoreError("setting", "set", "upsert failed", MapError(err))
	}
	s.logger.Debug("setting stored", slog.String("key", key), slog.Int("bytes", len(value)))
	return nil
}

// Keys lists stored keys with the given prefix, in order.
func (s *SettingsStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM settings WHERE starts_with(key, $1) ORDER BY key`, prefix)
	if err != nil {
		return nil, store.NewStoreError("setting", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan setting key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate setting keys: %w", err)
	}
	return keys, nil
}
