// Package main implements handsetctl, a terminal client that drives the
// contact importer and the call settings panels in-process.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/handset/internal/app"
	"github.com/phrazzld/handset/internal/config"
	"github.com/phrazzld/handset/internal/platform/logger"
	"github.com/spf13/cobra"
)

func main() {
	c := newCLI(config.Load)
	err := c.root.ExecuteContext(context.Background())
	c.close()
	if err != nil {
		os.Exit(1)
	}
}

type cli struct {
	root       *cobra.Command
	loadConfig func() (*config.Config, error)
	logLevel   string
	app        *app.App
}

func newCLI(loadConfig func() (*config.Config, error)) *cli {
	c := &cli{loadConfig: loadConfig}
	c.root = &cobra.Command{
		Use:               "handsetctl",
		Short:             "handsetctl",
		Long:              "handsetctl - import contacts and manage call settings on the handset",
		SilenceUsage:      true,
		PersistentPreRunE: c.init,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	c.root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level written to stderr (debug, info, warn, error)")

	c.root.AddCommand(
		c.newImportCmd(),
		c.newBarringCmd(),
		c.newForwardingCmd(),
		c.newWaitingCmd(),
		c.newSIMCmd(),
		c.newSettingsCmd(),
		c.newMigrateCmd(),
	)
	return c
}

func (c *cli) init(cmd *cobra.Command, _ []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	level, ok := logger.ParseLevel(c.logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", c.logLevel)
	}
	l := logger.New(cmd.ErrOrStderr(), level)
	slog.SetDefault(l)

	c.app, err = app.New(cmd.Context(), cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		c.app.Logger.Error("error closing application resources", "error", err)
	}
	c.app = nil
}
