// Package redis implements settings.Store on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/phrazzld/handset/internal/settings"
	"github.com/phrazzld/handset/internal/store"
	r "github.com/redis/go-redis/v9"
)

// Client is the subset of the go-redis client the store uses.
type Client interface {
	Get(ctx context.Context, key string) *r.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *r.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *r.ScanCmd
}

var _ Client = (*r.Client)(nil)

// Options configures a connection.
type Options struct {
	Addr string
	DB   int
}

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, opts Options) (*r.Client, error) {
	client := r.NewClient(&r.Options{Addr: opts.Addr, DB: opts.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// SettingsStore keeps each setting under prefix+key.
type SettingsStore struct {
	client Client
	prefix string
	logger *slog.Logger
}

var _ settings.ListStore = (*SettingsStore)(nil)

// NewSettingsStore creates a SettingsStore.
func NewSettingsStore(client Client, prefix string, logger *slog.Logger) *SettingsStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsStore{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "redis_settings_store"),
	}
}

func (s *SettingsStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, settings.ErrNotFound
		}
		s.logger.Error("failed to read setting", "key", key, "error", err)
		return nil, store.NewStoreError("setting", "get", "redis GET failed", err)
	}
	return value, nil
}

func (s *SettingsStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		s.logger.Error("failed to write setting", "key", key, "error", err)
		return store.NewStoreError("setting", "set", "redis SET failed", err)
	}
	return nil
}

// Keys lists stored keys starting with prefix, without the store prefix,
// sorted.
func (s *SettingsStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	match := escapeGlob(s.prefix+prefix) + "*"
	for {
		page, next, err := s.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return nil, store.NewStoreError("setting", "list", "redis SCAN failed", err)
		}
		for _, k := range page {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
