// Package migrations embeds the PostgreSQL schema and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var files embed.FS

const (
	// Dir is the migrations directory inside the embedded filesystem.
	Dir = "sql"
	// TableName records applied versions.
	TableName = "handset_schema_migrations"
)

// Commands are the goose commands Run accepts.
var Commands = []string{"up", "down", "reset", "status", "version"}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf logs at error level. It does not exit; Run returns the error.
func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func configure(logger *slog.Logger) error {
	goose.SetBaseFS(files)
	goose.SetLogger(&slogGooseLogger{logger: logger})
	goose.SetTableName(TableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// Run executes a goose command against db.
func Run(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	if !slices.Contains(Commands, command) {
		return fmt.Errorf("unknown migration command: %s (expected one of %v)", command, Commands)
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "migrations", "command", command)
	if err := configure(log); err != nil {
		return err
	}

	start := time.Now()
	log.Info("starting migration operation")

	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, db, Dir)
	case "down":
		err = goose.DownContext(ctx, db, Dir)
	case "reset":
		err = goose.ResetContext(ctx, db, Dir)
	case "status":
		err = goose.StatusContext(ctx, db, Dir)
	case "version":
		err = goose.VersionContext(ctx, db, Dir)
	}
	if err != nil {
		log.Error("migration failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Info("migration operation completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Collect parses the embedded migrations without touching a database.
func Collect() (goose.Migrations, error) {
	goose.SetBaseFS(files)
	return goose.CollectMigrations(Dir, 0, goose.MaxVersion)
}
