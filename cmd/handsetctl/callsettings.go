package main

import (
	"fmt"
	"strings"

	"github.com/phrazzld/handset/internal/callsettings"
	"github.com/phrazzld/handset/internal/ril"
	"github.com/spf13/cobra"
)

func (c *cli) newBarringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "barring",
		Short: "Show and change call barring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Barring.Refresh(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range c.app.Barring.Snapshot().Programs {
				state := "off"
				if p.Active {
					state = "on"
				}
				locked := ""
				if !p.Enabled {
					locked = " (locked)"
				}
				_, _ = fmt.Fprintf(out, "%-9s %s%s\n", p.Name, state, locked)
			}
			return nil
		},
	}

	var password string
	toggle := &cobra.Command{
		Use:   "toggle <program>",
		Short: "Switch a barring program on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := ril.ParseProgram(args[0])
			if err != nil {
				return err
			}
			active, err := c.app.Barring.Toggle(cmd.Context(), program, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", program, onOff(active))
			return nil
		},
	}
	toggle.Flags().StringVarP(&password, "password", "p", "", "call barring password")
	_ = toggle.MarkFlagRequired("password")

	passcode := &cobra.Command{
		Use:   "passcode <current> <new>",
		Short: "Change the call barring password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Barring.ChangePasscode(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "call barring password changed")
			return nil
		},
	}

	cmd.AddCommand(toggle, passcode)
	return cmd
}

func (c *cli) newForwardingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forwarding",
		Short: "Show and change call forwarding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := c.app.Forwarding.Query(cmd.Context())
			if err != nil {
				return err
			}
			for _, rule := range rules {
				printForwarding(cmd, rule)
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <reason> <number>",
		Short: "Forward calls to number",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.setForwarding(cmd, args[0], true, args[1])
		},
	}
	disable := &cobra.Command{
		Use:   "disable <reason>",
		Short: "Stop forwarding calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.setForwarding(cmd, args[0], false, "")
		},
	}

	cmd.AddCommand(set, disable)
	return cmd
}

func (c *cli) setForwarding(cmd *cobra.Command, reasonName string, enabled bool, number string) error {
	reason, err := ril.ParseReason(reasonName)
	if err != nil {
		return err
	}
	status, err := c.app.Forwarding.Set(cmd.Context(), callsettings.ForwardingChange{
		Reason:  reason,
		Enabled: enabled,
		Number:  number,
	})
	if err != nil {
		return err
	}
	printForwarding(cmd, status)
	return nil
}

func printForwarding(cmd *cobra.Command, s callsettings.ForwardingStatus) {
	line := fmt.Sprintf("%-13s %s", s.Name, onOff(s.Active))
	if s.Active && s.Number != "" {
		line += " -> " + s.Number
	}
	if s.Active && s.TimeSeconds > 0 {
		line += fmt.Sprintf(" after %ds", s.TimeSeconds)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
}

func (c *cli) newWaitingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waiting",
		Short: "Show and change call waiting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enabled, err := c.app.Waiting.Get(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "call waiting %s\n", onOff(enabled))
			return nil
		},
	}

	set := &cobra.Command{
		Use:       "set <on|off>",
		Short:     "Switch call waiting on or off",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := c.app.Waiting.Set(cmd.Context(), strings.EqualFold(args[0], "on"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "call waiting %s\n", onOff(enabled))
			return nil
		},
	}

	cmd.AddCommand(set)
	return cmd
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
