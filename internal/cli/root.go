// Package cli provides the command-line interface for displaydb.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/displaydb/internal/cache"
	"github.com/iliyamo/displaydb/internal/config"
	"github.com/iliyamo/displaydb/internal/console"
	"github.com/iliyamo/displaydb/internal/database"
	"github.com/iliyamo/displaydb/internal/logging"
	"github.com/iliyamo/displaydb/internal/service"
	"github.com/iliyamo/displaydb/internal/session"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates the root command.  Without a subcommand it runs an
// interactive inventory session.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "displaydb",
		Short: "Digital display inventory console",
		Long: `displaydb manages the inventory of digital displays and their hardware
models stored in a MySQL database.

After logging in, displays can be listed, searched, inserted, updated and
deleted from a line-based menu. Models are created on demand when a display
references an unknown model and removed once no display uses them.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		RunE:          runSession,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultConfigFile+")")
	pf.String("driver", "", "Database driver (mysql|sqlite)")
	pf.String("host", "", "Default host offered at login")
	pf.String("database", "", "Default database name offered at login")
	pf.String("user", "", "Default username offered at login")
	pf.String("tls", "", "MySQL TLS mode (false|true|skip-verify|preferred)")
	pf.StringP("output", "o", "", "Output format (plain|table)")
	pf.String("history-file", "", "Prompt history file")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-file", "", "Log file (default: stderr)")
	pf.Bool("events", false, "Publish inventory events to RabbitMQ")
	pf.Bool("cache", false, "Cache model details in Redis")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{console.FormatPlain, console.FormatTable}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{database.DriverMySQL, database.DriverSQLite}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewVersionCommand(Version))
	rootCmd.AddCommand(NewAuditCommand())

	return rootCmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return nil
}

func runSession(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	in, err := console.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.HistoryFile)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	opts := []service.Option{service.WithLogger(log)}
	if cfg.Events.Enabled {
		opts = append(opts, service.WithPublisher(service.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue)))
	}
	if cfg.Cache.Enabled {
		if rdb := config.NewRedisClient(ctx, cfg.Cache); rdb != nil {
			defer func() { _ = rdb.Close() }()
			opts = append(opts, service.WithCache(cache.NewModelCache(rdb, cfg.Cache.TTL, cfg.Cache.Prefix, log)))
		} else {
			log.Warn("redis unavailable, model cache disabled", zap.String("addr", cfg.Cache.Addr))
		}
	}

	s := session.New(session.Options{
		Connector: database.NewConnector(database.Options{
			Driver:         cfg.DB.Driver,
			TLS:            cfg.DB.TLS,
			ConnectTimeout: cfg.DB.ConnectTimeout,
		}),
		Prompter: in,
		Printer:  console.NewPrinter(cmd.OutOrStdout(), cfg.Output),
		Logger:   log,
		Defaults: database.Credentials{Host: cfg.DB.Host, Name: cfg.DB.Name, User: cfg.DB.User},
		Inventory: func(db *sql.DB) *service.Inventory {
			return service.NewInventory(db, opts...)
		},
	})
	return s.Run(ctx)
}
