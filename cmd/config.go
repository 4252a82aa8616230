package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/tokentip/pkg/attribute"
	"github.com/oakwood-commons/tokentip/pkg/layout"
)

var (
	configOut    string
	configOutput string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the tooltip configuration",
	Long: `The tooltip configuration is a world setting: it is shared by every user
and persisted in the settings database given with --db.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored tooltip configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := openBoard(cmd.Context(), runFrom(cmd), "")
		if err != nil {
			return err
		}
		defer b.close()

		cfg, err := layout.Load(cmd.Context(), b.app.Settings())
		if err != nil {
			return err
		}
		return writeConfig(cmd, cfg)
	},
}

var configExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the tooltip configuration as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		b, err := openBoard(ctx, runFrom(cmd), "")
		if err != nil {
			return err
		}
		defer b.close()

		form, err := b.app.OpenConfigForm(ctx)
		if err != nil {
			return err
		}
		name, data, err := form.Export()
		if err != nil {
			return err
		}
		if configOut == "-" {
			_, err := cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		if configOut != "" {
			name = configOut
		}
		if err := os.WriteFile(name, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		status(cmd, "exported tooltip configuration to %s", name)
		return nil
	},
}

var configImportCmd = &cobra.Command{
	Use:   "import [FILE]",
	Short: "Import a tooltip configuration file (JSON, YAML or TOML)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		run := runFrom(cmd)
		b, err := openBoard(ctx, run, "")
		if err != nil {
			return err
		}
		defer b.close()

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		if err := importConfig(ctx, b, path); err != nil {
			return err
		}
		if run.DBPath == "" {
			status(cmd, "imported %s; without --db the configuration is not persisted", path)
		} else {
			status(cmd, "imported %s into %s", path, run.DBPath)
		}
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a tooltip configuration file and every code row in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := openBoard(ctx, runFrom(cmd), "")
		if err != nil {
			return err
		}
		defer b.close()

		cfg, err := layout.ImportFile(layout.Default(), args[0])
		if err != nil {
			return err
		}
		for i, row := range cfg.Attributes {
			if row.Type != attribute.TypeCode {
				continue
			}
			if err := b.app.Env().Expr.Compile(row.Path); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
		}
		status(cmd, "%s: %d rows, %d columns", args[0], len(cfg.Attributes), cfg.Columns)
		return nil
	},
}

// importConfig applies the file at path through the configuration form and
// saves the result.
func importConfig(ctx context.Context, b *board, path string) error {
	form, err := b.app.OpenConfigForm(ctx)
	if err != nil {
		return err
	}
	var files []string
	if path != "" {
		files = []string{path}
	}
	if err := form.Import(files); err != nil {
		return err
	}
	return form.Submit(ctx, form.Config())
}

func writeConfig(cmd *cobra.Command, cfg layout.Config) error {
	switch configOutput {
	case "json":
		data, err := layout.Export(cfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("invalid --output %q (expected json or yaml)", configOutput)
	}
}

func init() { //nolint:gochecknoinits
	configShowCmd.Flags().StringVarP(&configOutput, "output", "o", "yaml", "output format: yaml|json")
	configExportCmd.Flags().StringVar(&configOut, "out", "", "destination file, - for stdout (default: tooltip-config.json)")
	configCmd.AddCommand(configShowCmd, configExportCmd, configImportCmd, configValidateCmd)
}
