package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/url"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/handset/internal/platform/migrations"
)

// Environment variables checked for the test database URL, in order.
const (
	EnvTestDatabaseURL = "HANDSET_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// DatabaseURL returns the configured test database URL, or "" when none is
// set.
func DatabaseURL() string {
	for _, name := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Open connects to the test database and applies every migration. The test
// is skipped when no database URL is configured; the connection is closed
// on cleanup.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	dbURL := DatabaseURL()
	if dbURL == "" {
		t.Skipf("%s not set, skipping database test", EnvTestDatabaseURL)
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		t.Fatalf("open test database %s: %v", MaskURL(dbURL), err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping test database %s: %v", MaskURL(dbURL), err)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := migrations.Run(ctx, db, "up", quiet); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// WithTx runs fn inside a transaction that is rolled back afterwards, so
// tests can write freely without affecting each other.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin test transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Errorf("roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// MaskURL hides the password in a database URL for logging.
func MaskURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "<invalid database url>"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
