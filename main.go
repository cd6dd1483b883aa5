package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/delivro/rateshop/internal/server"
	"github.com/delivro/rateshop/pkg/rating"
)

var version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "rateshop",
	Short:   "Delivro Rateshop - carrier registry and checkout rate quoting service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(carriersCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	registry, closeStore, err := openRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	engine := rating.New(rating.DefaultConfig())

	logger.Info("Starting Delivro Rateshop",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("db_path", cfg.DBPath),
	)

	srv := server.New(server.Config{Port: cfg.Port}, registry, engine, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
