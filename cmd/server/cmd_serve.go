package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-workspace/internal/app"
	"github.com/vovakirdan/wirechat-workspace/internal/config"
)

var (
	serveAddr            string
	serveReadHeader      time.Duration
	serveShutdownTimeout time.Duration
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address")
	serveCmd.Flags().DurationVar(&serveReadHeader, "read-header-timeout", 0, "HTTP read header timeout")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.UpdateFrom(config.Config{
		Addr:              serveAddr,
		ReadHeaderTimeout: serveReadHeader,
		ShutdownTimeout:   serveShutdownTimeout,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting wirechat workspace server")
	if err := application.Run(ctx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
