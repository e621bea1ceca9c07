package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfreitag/benchhub"
	"github.com/mfreitag/benchhub/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd starts the BenchHub server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hub server",
	Long: `Start the BenchHub server.

The server will:
  - Load configuration from the specified YAML file (defaults apply
    when no file is given)
  - Serve the session API on the configured port
  - Push change events to websocket subscribers

The server runs until interrupted (Ctrl+C) or receives SIGTERM. All
stored sessions, notes, telemetry, and tasks are lost on shutdown.

Example:
  benchhub serve
  benchhub serve -c config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{Port: 8080, LogLevel: "info"}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := newLogger(level)

	logger.Info("starting server",
		"port", cfg.Port,
		"allowed_origins", len(cfg.AllowedOrigins),
		"sweep_interval", cfg.SweepInterval.Duration().String(),
	)

	opts := []benchhub.Option{
		benchhub.WithPort(cfg.Port),
		benchhub.WithLogger(logger),
	}
	if len(cfg.AllowedOrigins) > 0 {
		opts = append(opts, benchhub.WithAllowedOrigins(cfg.AllowedOrigins...))
	}
	if cfg.SweepInterval > 0 {
		opts = append(opts, benchhub.WithSweepInterval(cfg.SweepInterval.Duration()))
	}

	bh, err := benchhub.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create benchhub: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- bh.Start(ctx)
	}()

	// wait for server to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
