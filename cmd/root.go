// Package cmd implements the tokentip command line: tooltip previews over a
// scene fixture, tooltip configuration management, and the HTTP bridge.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/tokentip/pkg/logger"
	"github.com/oakwood-commons/tokentip/pkg/settings"
)

var (
	logLevel int8
	quiet    bool
	noColor  bool
	user     string
	gm       bool
	dbPath   string
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName,
	Short: "Token tooltips for virtual tabletop scenes",
	Long: `tokentip renders configurable tooltips for tokens on a virtual tabletop.

Rows are attribute paths or CEL expressions evaluated against the token's actor;
presets such as health, armor and distance are available to expressions.
Scenes are read from JSON, YAML or TOML fixtures.`,
	Example: `  tokentip render scene.yaml t-goblin
  tokentip config import tooltip-config.json --db tokentip.db
  tokentip serve scene.yaml --addr 127.0.0.1:8787`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// setup resolves the run configuration (env first, flags win) and attaches it
// and the logger to the command context.
func setup(cmd *cobra.Command, _ []string) error {
	run := settings.NewCliParams()
	envCfg, err := settings.ParseEnv()
	if err != nil {
		return err
	}
	envCfg.Apply(run)

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		run.MinLogLevel = logLevel
	}
	if flags.Changed("user") {
		run.User = user
	}
	if flags.Changed("gm") {
		run.GM = gm
	}
	if flags.Changed("db") {
		run.DBPath = dbPath
	}
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		run.Addr = serveAddr
	}
	run.IsQuiet = quiet
	run.NoColor = noColor

	lgr := logger.ForCommand(logger.Get(run.MinLogLevel), cmd.Name())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithLogger(settings.IntoContext(ctx, run), lgr)
	cmd.SetContext(ctx)
	return nil
}

// runFrom returns the run configuration resolved by setup.
func runFrom(cmd *cobra.Command) *settings.Run {
	if run, ok := settings.FromContext(cmd.Context()); ok {
		return run
	}
	return settings.NewCliParams()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print tokentip version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), versionString())
		return err
	},
}

func versionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, go %s)",
		settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

// status prints progress lines unless --quiet is set.
func status(cmd *cobra.Command, format string, args ...any) {
	if runFrom(cmd).IsQuiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

func init() { //nolint:gochecknoinits
	pf := rootCmd.PersistentFlags()
	pf.Int8Var(&logLevel, "log-level", 0, "minimum log level (-1 debug, 0 info, 1 warn, 2 error)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	pf.BoolVar(&noColor, "no-color", false, "disable color output")
	pf.StringVar(&user, "user", "", "viewing user id (default: the scene's user)")
	pf.BoolVar(&gm, "gm", false, "view as a game master")
	pf.StringVar(&dbPath, "db", "", "SQLite settings database (default: in-memory)")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd, renderCmd, configCmd, settingsCmd, functionsCmd, serveCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with args and output redirected.
func ExecuteContext(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	defer func() {
		rootCmd.SetArgs(os.Args[1:])
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	}()
	return rootCmd.ExecuteContext(ctx)
}

// resetFlags restores every flag to its default so the next execution
// starts clean.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
