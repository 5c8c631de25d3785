// Package main implements the handset daemon, which exposes contact imports
// and the call settings panels over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/phrazzld/handset/internal/app"
	"github.com/phrazzld/handset/internal/config"
	"github.com/phrazzld/handset/internal/platform/logger"
	"github.com/phrazzld/handset/internal/platform/migrations"
)

func main() {
	migrate := flag.Bool("migrate", true, "apply pending migrations on start when using the postgres backend")
	flag.Parse()

	if err := run(context.Background(), *migrate); err != nil {
		log.Fatalf("handset server: %v", err)
	}
}

func run(ctx context.Context, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, closer, err := logger.Setup(logger.LoggerConfig{
		Level: cfg.Server.LogLevel,
		File:  cfg.Server.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	defer func() { _ = closer.Close() }()

	l.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"store_backend", cfg.Store.Backend)

	a, err := app.New(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			l.Error("error closing application resources", "error", err)
		}
	}()

	if a.DB != nil && migrate {
		if err := migrations.Run(ctx, a.DB, "up", l); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	return newServer(a).ListenAndServe(ctx)
}
