package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/tokentip/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "List tooltip settings for the viewing user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		run := runFrom(cmd)
		b, err := openBoard(ctx, run, "")
		if err != nil {
			return err
		}
		defer b.close()

		reg := b.app.Settings()
		defs := reg.Definitions()
		width := 0
		for _, def := range defs {
			width = max(width, runewidth.StringWidth(def.Key))
		}
		key, scope := lipgloss.NewStyle().Bold(true).Render, lipgloss.NewStyle().Faint(true).Render
		if run.NoColor {
			key, scope = plain, plain
		}
		for _, def := range defs {
			if !def.Config {
				continue
			}
			on, err := reg.Bool(ctx, def.Key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-5t  %s  %s\n",
				key(runewidth.FillRight(def.Key, width)), on,
				scope(string(def.Scope)), def.Name)
		}
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY true|false",
	Short: "Change a tooltip toggle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		run := runFrom(cmd)
		on, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[1], err)
		}
		if args[0] == settings.KeyTooltipConfig {
			return fmt.Errorf("%s is managed with 'tokentip config'", args[0])
		}
		b, err := openBoard(ctx, run, "")
		if err != nil {
			return err
		}
		defer b.close()

		if err := b.app.Settings().SetBool(ctx, args[0], on); err != nil {
			return err
		}
		status(cmd, "%s = %t", args[0], on)
		return nil
	},
}

func plain(s ...string) string { return strings.Join(s, " ") }

func init() { //nolint:gochecknoinits
	settingsCmd.AddCommand(settingsSetCmd)
}
