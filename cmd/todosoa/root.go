package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/todosoa"
	"github.com/aretw0/todosoa/internal/cli"
	"github.com/aretw0/todosoa/internal/config"
	"github.com/aretw0/todosoa/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v      = config.New()
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "todosoa",
	Short: "todosoa is a hypermedia to-do list",
	Long: `todosoa keeps a to-do collection behind a storage engine, a render service
and a resource host that only talk to each other through addressed requests.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if err := config.ReadFile(v, path); err != nil {
			return err
		}
		c, err := config.Decode(v)
		if err != nil {
			return err
		}
		cfg = c

		level := logging.ParseLevel(cfg.Log.Level)
		if cfg.Log.Format == "json" {
			logger = logging.NewJSON(level)
		} else {
			logger = logging.New(level)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./todosoa.yaml when present)")
	flags.String("backend", "file", "Storage backend: memory, file, redis or sqlite")
	flags.String("path", ".todosoa", "Directory (or sqlite file) holding the collection")
	flags.String("collection", "todos-hypermedia", "Name of the stored collection")
	flags.String("redis-addr", "localhost:6379", "Redis address for the redis backend")
	flags.String("domain", "todo", "Address of the resource host")
	flags.Duration("timeout", 5*time.Second, "Aggregate timeout for concurrent requests")
	flags.String("templates", "", "YAML or JSON file overriding render templates")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "text", "Log format: text or json")

	bind(v, map[string]string{
		"store.backend":    "backend",
		"store.path":       "path",
		"store.name":       "collection",
		"redis.addr":       "redis-addr",
		"host.domain":      "domain",
		"host.timeout":     "timeout",
		"render.templates": "templates",
		"log.level":        "log-level",
		"log.format":       "log-format",
	})
}

func bind(v *viper.Viper, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// withApp opens the configured App for the duration of fn.
func withApp(ctx context.Context, reg prometheus.Registerer, fn func(ctx context.Context, app *todosoa.App) error) error {
	app, err := cli.NewApp(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Close failed", "err", err)
		}
	}()
	return fn(ctx, app)
}
