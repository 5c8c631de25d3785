package main

import (
	"errors"
	"fmt"

	"github.com/phrazzld/handset/internal/importer"
	"github.com/phrazzld/handset/internal/platform/migrations"
	"github.com/spf13/cobra"
)

func (c *cli) newSIMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Manage emulated SIM cards",
	}
	insert := &cobra.Command{
		Use:   "insert <iccID> <file|->",
		Short: "Store a vCard file as the phonebook of a SIM card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.insertPhonebook(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stored %d contacts on SIM card %s\n", n, args[0])
			return nil
		},
	}
	cmd.AddCommand(insert)
	return cmd
}

func (c *cli) insertPhonebook(cmd *cobra.Command, iccID, file string) (int, error) {
	text, err := c.readInput(cmd, file)
	if err != nil {
		return 0, err
	}
	phonebook, err := importer.ParseVCards(text)
	if err != nil {
		return 0, err
	}
	if err := c.app.ICCs.Insert(cmd.Context(), iccID, phonebook); err != nil {
		return 0, fmt.Errorf("insert SIM card %s: %w", iccID, err)
	}
	return len(phonebook), nil
}

func (c *cli) newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect the device settings store",
	}
	list := &cobra.Command{
		Use:   "list [prefix]",
		Short: "List settings, optionally only keys starting with prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prefix string
			if len(args) == 1 {
				prefix = args[0]
			}
			keys, err := c.app.Settings.Keys(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, key := range keys {
				value, err := c.app.Settings.Get(cmd.Context(), key)
				if err != nil {
					return fmt.Errorf("get %s: %w", key, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, value)
			}
			return nil
		},
	}
	cmd.AddCommand(list)
	return cmd
}

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <up|down|reset|status|version>",
		Short:     "Run database migrations",
		Long:      "Run database migrations against the postgres store backend",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrations.Commands,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.app.DB == nil {
				return errors.New("migrate needs the postgres store backend")
			}
			return migrations.Run(cmd.Context(), c.app.DB, args[0], c.app.Logger)
		},
	}
}
