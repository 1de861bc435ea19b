package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/logging"
)

var (
	v          = viper.New()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "zaloga",
	Short: "Zaloga inventory server",
	Long: `Multi-tenant inventory management backend. Holders keep inventories of
items, users request them and holders or administrators issue them.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (yaml, toml or json)")
	flags.StringP("db", "d", "zaloga.sqlite3", "SQLite database path")
	flags.StringP("log", "l", "", "log file path (default: stdout/stderr only)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("uploads", "uploads", "directory for uploaded item photos")

	serveCmd.Flags().StringP("addr", "a", "", "listen address (default: :$PORT or :8080)")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	bindFlags(flags, map[string]string{
		"db":        "db",
		"log":       "log.file",
		"log-level": "log.level",
		"uploads":   "uploads_dir",
	})
	bindFlags(serveCmd.Flags(), map[string]string{"addr": "addr"})

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bindFlags maps command-line flags onto config keys.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

// setup loads configuration and installs the default logger. The returned
// cleanup closes the log file, if one was opened.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, nil, err
	}

	cleanup, err := logging.Setup(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, cleanup, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
