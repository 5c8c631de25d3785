package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/phrazzld/handset/internal/app"
	"github.com/phrazzld/handset/internal/importer"
	"github.com/phrazzld/handset/internal/platform/terminal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

type importFunc func(ctx context.Context, ctl *importer.Controller) (importer.Summary, error)

func (c *cli) newImportCmd() *cobra.Command {
	var retries int
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import contacts from the SIM card, the memory card or a vCard file",
		Long: "Import contacts. Progress is shown while reading and importing; " +
			"press Ctrl-C to stop after the current contact.",
	}
	cmd.PersistentFlags().IntVar(&retries, "retries", 0, "retry a failed import this many times without asking")

	var phonebook string
	sim := &cobra.Command{
		Use:   "sim [iccID]",
		Short: "Import the SIM card phonebook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iccID := c.app.Config.Device.DefaultICC
			if len(args) == 1 {
				iccID = args[0]
			}
			if iccID == "" {
				return errors.New("no SIM card given and device.default_icc is not set")
			}
			if phonebook != "" {
				if _, err := c.insertPhonebook(cmd, iccID, phonebook); err != nil {
					return err
				}
			}
			return c.runImport(cmd, retries, func(ctx context.Context, ctl *importer.Controller) (importer.Summary, error) {
				return ctl.ImportFromSIM(ctx, iccID)
			})
		},
	}
	sim.Flags().StringVar(&phonebook, "phonebook", "", "vCard file stored on the SIM card before importing")

	sdcard := &cobra.Command{
		Use:   "sdcard",
		Short: "Import every vCard file on the memory card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runImport(cmd, retries, func(ctx context.Context, ctl *importer.Controller) (importer.Summary, error) {
				return ctl.ImportFromSDCard(ctx)
			})
		},
	}

	vcard := &cobra.Command{
		Use:   "vcard <file|->",
		Short: "Import a vCard file, or standard input with -",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return c.runImport(cmd, retries, func(ctx context.Context, ctl *importer.Controller) (importer.Summary, error) {
				return ctl.ImportVCard(ctx, text)
			})
		},
	}

	cmd.AddCommand(sim, sdcard, vcard)
	return cmd
}

// runImport drives one import on the terminal. SIGINT cancels the import
// instead of killing the process so the overlay and wake-lock are released.
func (c *cli) runImport(cmd *cobra.Command, retries int, run importFunc) error {
	out := cmd.OutOrStdout()
	renderer := importer.NewRenderer(language.English)
	prompt := terminal.NewPrompt(cmd.InOrStdin(), out, renderer)
	prompt.Force = retries

	ctl := c.app.NewController(app.UI{
		Overlay: terminal.NewOverlay(out, renderer),
		Status:  terminal.NewStatusLine(out, renderer),
		Dialog:  prompt,
	})

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-interrupts:
				ctl.Cancel()
			case <-done:
				return
			}
		}
	}()

	summary, err := run(cmd.Context(), ctl)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		_, _ = fmt.Fprintf(out, "%d contacts could not be imported\n", summary.Failed)
	}
	return nil
}

// readInput reads a file from the device filesystem, or standard input for
// "-".
func (c *cli) readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := afero.ReadFile(c.app.FS, name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}
