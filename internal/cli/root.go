package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"insights-dashboard/internal/config"
	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/logging"
	"insights-dashboard/internal/render"
	"insights-dashboard/internal/retry"
	"insights-dashboard/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-01-15"
)

// quietConsole marks commands that own the terminal and must not receive
// console log lines.
const quietConsole = "quiet-console"

// skipSetup marks commands that run without configuration or logging.
const skipSetup = "skip-setup"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	// openStore is replaced in tests.
	openStore func(ctx context.Context) (store.InsightStore, error)
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{
		Config: config.Default(),
		Logger: zerolog.Nop(),
	}
	app.openStore = app.newStore

	rootCmd := &cobra.Command{
		Use:   "insights",
		Short: "Investment insights dashboard",
		Long: `Insights shows the latest investment insights from the daily_insights
collection as a live dashboard, in the browser or in the terminal.

New documents appear without reloading. Recommendations can be handed
over to a chat assistant with their full context on the clipboard.

Use 'insights help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/insights-dashboard)")
	rootCmd.PersistentFlags().String("env", "", "environment: development or production (default: $INSIGHTS_ENV)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newListCmd(app))
	rootCmd.AddCommand(newAskCmd(app))
	rootCmd.AddCommand(newPublishCmd(app))
	addHelpCommands(rootCmd)

	return rootCmd
}

// setup loads configuration and builds the logger for cmd.
func (a *App) setup(cmd *cobra.Command) error {
	if cmd.Annotations[skipSetup] != "" {
		return nil
	}

	configDir, _ := cmd.Flags().GetString("config")
	env, _ := cmd.Flags().GetString("env")
	cfg, err := config.Load(configDir, env)
	if err != nil {
		return err
	}
	a.Config = cfg

	logCfg := logging.LogConfig{
		Level:      cfg.Logging.Level,
		Console:    cmd.Annotations[quietConsole] == "",
		File:       cfg.Logging.File,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		NoColor:    !cfg.UI.ColorEnabled,
		ConsoleOut: cmd.ErrOrStderr(),
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logCfg.Level = "debug"
	}
	a.Logger = logging.NewLoggerWithConfig(logCfg).With().Str("env", cfg.Environment).Logger()
	return nil
}

// newStore opens the configured store backend, retrying while the backend
// reports itself unavailable.
func (a *App) newStore(ctx context.Context) (store.InsightStore, error) {
	cfg := retry.DefaultConfig()
	cfg.Retryable = func(err error) bool {
		return apperrors.Is(err, apperrors.ErrStoreUnavailable)
	}
	cfg.OnRetry = func(err error, next time.Duration) {
		a.Logger.Warn().Err(err).Str("backend", a.Config.Store.Backend).Dur("retry_in", next).Msg("Opening store failed")
	}
	return retry.DoWithResult(ctx, cfg, func() (store.InsightStore, error) {
		return a.openBackend(ctx)
	})
}

func (a *App) openBackend(ctx context.Context) (store.InsightStore, error) {
	sc := a.Config.Store
	switch sc.Backend {
	case config.BackendFirestore:
		if sc.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", sc.EmulatorHost); err != nil {
				return nil, err
			}
		}
		return store.NewFirestoreStore(ctx, store.FirestoreConfig{
			ProjectID:       sc.ProjectID,
			CredentialsFile: sc.CredentialsFile,
			EmulatorHost:    sc.EmulatorHost,
		}, a.Logger)
	case config.BackendSQLite:
		return store.NewSQLiteStore(store.SQLiteConfig{
			Path:         sc.SQLitePath,
			PollInterval: sc.PollInterval,
			WatchFile:    sc.WatchFile,
		}, a.Logger)
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", apperrors.ErrConfigInvalid, sc.Backend)
	}
}

// query returns the live query of the insight feed.
func (a *App) query() store.Query {
	q := store.DefaultQuery()
	if a.Config.Feed.Collection != "" {
		q.Collection = a.Config.Feed.Collection
	}
	if a.Config.Feed.Limit > 0 {
		q.Limit = a.Config.Feed.Limit
	}
	return q
}

func (a *App) renderer() *render.Renderer {
	return render.NewRenderer(render.Options{
		Locale:   a.Config.UI.Locale,
		Location: a.Config.Location(),
	})
}

// htmlLang returns the primary language subtag of the configured locale.
func (a *App) htmlLang() string {
	lang, _, _ := strings.Cut(a.Config.UI.Locale, "-")
	if lang == "" {
		return "he"
	}
	return strings.ToLower(lang)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				_ = output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Insights Dashboard v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if output.IsJSON() {
				_ = output.JSON(map[string]string{"path": dir})
			} else {
				output.Println(dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Environment")
	output.Printf("  Name:            %s\n", cfg.Environment)
	output.Println()

	output.Bold("Store")
	output.Printf("  Backend:         %s\n", cfg.Store.Backend)
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		output.Printf("  Project:         %s\n", cfg.Store.ProjectID)
		if cfg.Store.EmulatorHost != "" {
			output.Printf("  Emulator:        %s\n", cfg.Store.EmulatorHost)
		}
	case config.BackendSQLite:
		output.Printf("  Path:            %s\n", cfg.Store.SQLitePath)
		output.Printf("  Poll Interval:   %s\n", cfg.Store.PollInterval)
		output.Printf("  Watch File:      %v\n", cfg.Store.WatchFile)
	}
	output.Println()

	output.Bold("Feed")
	output.Printf("  Collection:      %s\n", cfg.Feed.Collection)
	output.Printf("  Limit:           %d\n", cfg.Feed.Limit)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Printf("  Heartbeat:       %s\n", cfg.Server.Heartbeat)
	output.Println()

	output.Bold("UI")
	output.Printf("  Locale:          %s\n", cfg.UI.Locale)
	output.Printf("  Timezone:        %s\n", cfg.UI.Timezone)
	output.Printf("  Color:           %v\n", cfg.UI.ColorEnabled)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  File:            %v\n", cfg.Logging.File)
	output.Println()

	output.Bold("Assistant")
	output.Printf("  Chat URL:        %s\n", cfg.Assistant.ChatURL)
}
