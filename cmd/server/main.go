package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-workspace/internal/config"
	"github.com/vovakirdan/wirechat-workspace/internal/log"
)

var (
	configPath string
	logLevel   string
	dbPath     string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "wirechat-workspace",
	Short:         "Workspace messaging server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig resolves configuration and applies persistent flag overrides.
func loadConfig() (config.Config, *zerolog.Logger, error) {
	bootstrap := log.NewWithWriter(os.Stderr, "info")

	cfg, resolved, err := config.Load(bootstrap, configPath)
	if err != nil {
		return cfg, bootstrap, err
	}
	cfg.UpdateFrom(config.Config{LogLevel: logLevel, DatabasePath: dbPath})

	logger := log.NewWithWriter(os.Stderr, cfg.LogLevel)
	logger.Debug().Str("config", resolved).Msg("configuration loaded")
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.NewWithWriter(os.Stderr, "error").Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
