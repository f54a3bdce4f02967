package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/NeverVane/histskim/internal/apperr"
	"github.com/NeverVane/histskim/internal/config"
	"github.com/NeverVane/histskim/internal/logger"
	"github.com/NeverVane/histskim/internal/output"
	"github.com/NeverVane/histskim/internal/sentry"
	"github.com/NeverVane/histskim/internal/stats"
	"github.com/NeverVane/histskim/internal/storage"
	"github.com/NeverVane/histskim/internal/timefilter"
	"github.com/NeverVane/histskim/internal/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// app carries state shared by the commands of one invocation
type app struct {
	cfg       *config.Config
	formatter *output.Formatter
	sentry    *sentry.Client
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{formatter: output.NewFormatter(true)}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()

	if err != nil {
		a.formatter.Error(err)
		if a.sentry != nil {
			a.sentry.CaptureError(err, "main")
		}
	}
	if a.sentry != nil {
		a.sentry.Close()
	}

	os.Exit(apperr.ExitCode(err))
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "histskim [query]",
		Short: "Interactively search shell history and print the chosen command",
		Long: `histskim opens a fuzzy finder over the nushell/reedline history.sqlite3
database and prints the command you pick to stdout, so a shell keybinding can
insert it into the prompt. The store is opened read-only.

Keys:
  enter        accept            esc, ctrl+c   cancel
  tab          toggle details    ctrl+d        toggle current-directory filter
  ctrl+r       cycle location    ctrl+l        reload
  ctrl+s       mark (--multi)    ctrl+y        copy to clipboard

Exit status is 0 after a selection, 130 when cancelled and 2 on errors.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return a.runPicker(cmd, query)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.config/histskim/config.toml)")
	rootCmd.PersistentFlags().String("db", "", "History database (default: ~/.config/nushell/history.sqlite3)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	flags := rootCmd.Flags()
	flags.Bool("cwd", true, "Start restricted to the current directory")
	flags.Bool("no-cwd", false, "Start with the current-directory filter off")
	flags.String("dir", "", "Directory to filter on (default: working directory)")
	flags.Int64("session-id", 0, "Current shell session id, enables the Session location")
	flags.String("location", "", "Initial location: session, directory, machine or everywhere")
	flags.String("contains", "", "Only load commands containing this literal text")
	flags.String("since", "", "Only load commands started at or after this time (e.g. 2d, yesterday, 2024-01-31)")
	flags.String("until", "", "Only load commands started before this time")
	flags.Int("limit", 0, "Maximum number of entries to load (0 = unlimited)")
	flags.Bool("multi", false, "Allow marking several entries with ctrl+s")
	flags.Bool("print0", false, "Terminate results with NUL instead of newline")
	flags.String("format", "", "Result format: plain or json")
	flags.Bool("details", false, "Open with the detail pane expanded")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(infoCmd(a))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// setup loads configuration and initializes logging and error reporting
func (a *app) setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")

	cfg, err := config.Load(config.ExpandHome(configPath))
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("db") {
		dbPath, _ := cmd.Flags().GetString("db")
		cfg.Database.Path = config.ExpandHome(dbPath)
	}

	loggerConfig := &logger.Config{
		Level:     cfg.Log.Level,
		Output:    cfg.Log.Output,
		Color:     cfg.Output.ColorsEnabled && !noColor,
		Timestamp: cfg.Log.Timestamp,
		Caller:    cfg.Log.Caller,
	}
	if verbose {
		loggerConfig.Level = "debug"
	}
	if err := logger.Init(loggerConfig); err != nil {
		return apperr.ConfigInvalid(err, "failed to initialize logger")
	}

	a.cfg = cfg
	a.formatter = output.NewFormatter(cfg.Output.ColorsEnabled)
	a.formatter.SetFlags(verbose, noColor)

	client, err := sentry.NewClient(cfg.Sentry, version)
	if err != nil {
		// Error reporting is optional; never fail the session over it
		a.formatter.Warning("Failed to initialize error monitoring: %v", err)
	} else {
		a.sentry = client
	}

	logger.GetLogger().Config().Debug().
		Str("config_dir", cfg.ConfigDir).
		Str("database", cfg.Database.Path).
		Msg("Configuration loaded")
	return nil
}

// pickerFlags are the root command flags that shape a session
type pickerFlags struct {
	cwd, noCwd *bool
	dir        string
	sessionID  int64
	location   string
	contains   string
	since      string
	until      string
	limit      *int
	multi      bool
	print0     bool
	format     string
	details    bool
	noColor    bool
	hostname   string
	workingDir string
	now        time.Time
}

func readPickerFlags(cmd *cobra.Command) pickerFlags {
	f := cmd.Flags()
	var pf pickerFlags

	if f.Changed("cwd") {
		v, _ := f.GetBool("cwd")
		pf.cwd = &v
	}
	if f.Changed("no-cwd") {
		v, _ := f.GetBool("no-cwd")
		pf.noCwd = &v
	}
	if f.Changed("limit") {
		v, _ := f.GetInt("limit")
		pf.limit = &v
	}
	pf.dir, _ = f.GetString("dir")
	pf.sessionID, _ = f.GetInt64("session-id")
	pf.location, _ = f.GetString("location")
	pf.contains, _ = f.GetString("contains")
	pf.since, _ = f.GetString("since")
	pf.until, _ = f.GetString("until")
	pf.multi, _ = f.GetBool("multi")
	pf.print0, _ = f.GetBool("print0")
	pf.format, _ = f.GetString("format")
	pf.details, _ = f.GetBool("details")
	pf.noColor, _ = f.GetBool("no-color")
	return pf
}

// buildScope derives the initial query scope from configuration and flags.
// --location wins over --cwd, which wins over search.restrict_to_cwd.
func buildScope(cfg *config.Config, pf pickerFlags) (storage.QueryScope, error) {
	scope := storage.QueryScope{
		RestrictToCwd: cfg.Search.RestrictToCwd,
		Cwd:           pf.workingDir,
		Hostname:      pf.hostname,
		SessionID:     pf.sessionID,
		Contains:      pf.contains,
		Limit:         cfg.Search.Limit,
	}
	if pf.dir != "" {
		dir, err := filepath.Abs(config.ExpandHome(pf.dir))
		if err != nil {
			return scope, apperr.ConfigInvalid(err, "invalid --dir %q", pf.dir)
		}
		scope.Cwd = dir
	}

	if pf.cwd != nil {
		scope.RestrictToCwd = *pf.cwd
	}
	if pf.noCwd != nil && *pf.noCwd {
		scope.RestrictToCwd = false
	}
	if pf.limit != nil {
		if *pf.limit < 0 {
			return scope, apperr.ConfigInvalid(nil, "--limit must be non-negative")
		}
		scope.Limit = *pf.limit
	}

	location := pf.location
	if location == "" {
		location = cfg.Search.Location
	}
	if location != "" {
		loc, err := storage.ParseLocation(location)
		if err != nil {
			return scope, apperr.ConfigInvalid(err, "invalid location")
		}
		if loc == storage.LocationSession && !scope.HasSession() {
			return scope, apperr.ConfigInvalid(nil, "location session needs --session-id")
		}
		scope = scope.WithLocation(loc)
	}

	if scope.RestrictToCwd && scope.Cwd == "" {
		return scope, apperr.ConfigInvalid(nil, "cannot determine the working directory, pass --dir or --no-cwd")
	}

	window, err := timefilter.NewParser().ParseWindow(pf.since, pf.until, pf.now)
	if err != nil {
		return scope, err
	}
	scope.Since = window.Since
	scope.Until = window.Until

	return scope, nil
}

func (a *app) runPicker(cmd *cobra.Command, query string) error {
	ctx := cmd.Context()
	log := logger.GetLogger().WithComponent("picker")

	pf := readPickerFlags(cmd)
	pf.now = time.Now()
	if wd, err := os.Getwd(); err == nil {
		pf.workingDir = wd
	} else {
		log.Warn().Err(err).Msg("Failed to get working directory")
	}
	if host, err := os.Hostname(); err == nil {
		pf.hostname = host
	} else {
		log.Warn().Err(err).Msg("Failed to get hostname, host filter disabled")
	}

	scope, err := buildScope(a.cfg, pf)
	if err != nil {
		return err
	}

	format := a.cfg.Output.Format
	if pf.format != "" {
		format = pf.format
	}
	emitter, err := output.NewEmitter(os.Stdout, format, pf.print0 || a.cfg.Output.Print0)
	if err != nil {
		return err
	}

	reader, err := storage.Open(ctx, a.cfg.Database.Path, &storage.Options{BusyTimeout: a.cfg.GetBusyTimeout()})
	if err != nil {
		return err
	}
	defer reader.Close()

	a.formatter.Verbose("Searching %s", reader.Path())

	outcome, err := tui.Launch(ctx, reader, tui.Options{
		Scope:        scope,
		InitialQuery: query,
		Prompt:       a.cfg.TUI.Prompt,
		MultiSelect:  pf.multi || a.cfg.TUI.MultiSelect,
		ShowDetails:  pf.details || a.cfg.TUI.ShowDetails,
		AltScreen:    a.cfg.TUI.AltScreen,
		NoColor:      pf.noColor || !a.cfg.Output.ColorsEnabled,
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("state", outcome.State.String()).
		Str("location", outcome.Scope.Location().String()).
		Msg("Session ended")

	return emitter.Emit(outcome)
}

// infoCmd prints statistics about the history store
func infoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show statistics about the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			topN, _ := cmd.Flags().GetInt("top")

			reader, err := storage.Open(ctx, a.cfg.Database.Path, &storage.Options{BusyTimeout: a.cfg.GetBusyTimeout()})
			if err != nil {
				return err
			}
			defer reader.Close()

			storeStats, err := reader.Stats(ctx)
			if err != nil {
				return err
			}
			a.formatter.Stats(storeStats, time.Now())

			if topN <= 0 {
				return nil
			}

			records, err := reader.Fetch(ctx, storage.QueryScope{})
			if err != nil {
				return err
			}

			opts := stats.DefaultOptions()
			opts.TopN = topN
			a.formatter.Usage(stats.Analyze(records, opts))
			return nil
		},
	}

	cmd.Flags().Int("top", 10, "Number of top commands and directories to show (0 = none)")

	return cmd
}

// versionCmd displays version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		// Needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "histskim %s\n\nCommit:      %s\nBuild Date:  %s\nOS/Arch:     %s/%s\nGo Version:  %s\n",
				version, commit, date, runtime.GOOS, runtime.GOARCH, runtime.Version())
			return nil
		},
	}
}
