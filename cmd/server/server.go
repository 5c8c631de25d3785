package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/handset/internal/api"
	"github.com/phrazzld/handset/internal/app"
	"github.com/phrazzld/handset/internal/importer"
	"golang.org/x/text/language"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	app        *app.App
	controller *importer.Controller
	jobs       *api.JobRegistry
	stopJobs   context.CancelFunc
	handler    http.Handler
}

// newServer builds the router over a. Imports report progress to a Tracker
// that clients poll through the job endpoints.
func newServer(a *app.App) *server {
	tracker := importer.NewTracker(importer.NewRenderer(language.English))
	controller := a.NewController(app.UI{Overlay: tracker, Status: tracker})

	jobCtx, stopJobs := context.WithCancel(context.Background())
	jobs := api.NewJobRegistry(jobCtx, controller, tracker, a.Logger)

	return &server{
		app:        a,
		controller: controller,
		jobs:       jobs,
		stopJobs:   stopJobs,
		handler: api.NewRouter(
			api.NewImportHandler(jobs, a.Settings, a.Logger),
			api.NewCallSettingsHandler(a.Barring, a.Forwarding, a.Waiting, a.Logger),
			a.Logger,
		),
	}
}

// ListenAndServe serves until SIGINT, SIGTERM or ctx cancellation, then
// shuts down: in-flight requests finish, and a running import is cancelled
// and given what is left of the shutdown timeout to wind down.
func (s *server) ListenAndServe(ctx context.Context) error {
	logger := s.app.Logger
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.app.Config.Server.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	go func() {
		logger.Info("starting server", "port", s.app.Config.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			cancelServer()
		}
	}()

	select {
	case <-shutdownCh:
		logger.Info("shutting down server")
	case <-serverCtx.Done():
		logger.Info("server context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.drainImports(shutdownCtx)

	logger.Info("server shutdown completed")
	return nil
}

func (s *server) drainImports(ctx context.Context) {
	defer s.stopJobs()
	s.controller.Cancel()

	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.app.Logger.Warn("import still running at shutdown, abandoning it")
	}
}
