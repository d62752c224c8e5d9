package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/infrastructure/config"
	"github.com/Apanazar/WGE/infrastructure/di"
)

func serveCmd() *cobra.Command {
	var (
		addr       string
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the workspace HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				os.Setenv("CONFIG_FILE", configFile)
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if addr != "" {
				cfg.ServerAddress = addr
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides SERVER_ADDRESS)")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML configuration overlay, watched for limit changes")
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer cleanup()
	logger := container.Logger

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      container.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("snapshots", cfg.SnapshotBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	fmt.Printf("%s listening on %s\n", brand.Sprint("wikigraph"), cfg.ServerAddress)

	select {
	case err, ok := <-serveErr:
		if ok && err != nil {
			logger.Error("Server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
		return err
	}
	subtle.Println("server stopped")
	return nil
}
