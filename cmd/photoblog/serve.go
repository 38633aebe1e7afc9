package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/photoblog/config"
	photobloghttp "github.com/sagarc03/photoblog/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the photoblog HTTP API.

With the filesystem object store the server also answers the presigned
upload and download URLs it issues, under /objects/.`,
	RunE: runServe,
}

var serveMigrate bool

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: PHOTOBLOG_SERVER_PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "create missing tables before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx, cfg, openOptions{migrate: serveMigrate})
	if err != nil {
		return err
	}
	defer a.Close()

	handlerConfig := photobloghttp.HandlerConfig{
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Health:        a.db,
		CORS:          cfg.CORS,
	}
	if a.backend.Local != nil {
		handlerConfig.Objects = a.backend.Local
		handlerConfig.Verifier = a.backend.Verifier
	}

	handler := photobloghttp.NewHandler(&handlerConfig, a.coordinator, a.facade)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "storage", cfg.Storage.Type, "local_objects", a.backend.Local != nil)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
