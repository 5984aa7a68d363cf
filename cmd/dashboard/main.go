package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Lllllllleong/documentinsights/internal/config"
	"github.com/Lllllllleong/documentinsights/internal/dashboard"
	"github.com/Lllllllleong/documentinsights/internal/gcp"
	"github.com/Lllllllleong/documentinsights/internal/presenter"
	"github.com/Lllllllleong/documentinsights/internal/services"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(gcp.GetEnv("INSIGHTS_CONFIG", "config.yaml"))
	if err != nil {
		slog.Error("Critical: configuration is incomplete, refusing to start", "error", err)
		return err
	}

	p, err := presenter.New()
	if err != nil {
		return err
	}

	var uploader dashboard.DocumentUploader
	if cfg.UploadEnabled {
		uploader = services.NewUploader(services.UploaderConfig{
			Bucket:          cfg.UploadBucket,
			CredentialsFile: cfg.CredentialsFile,
		})
	}

	server := dashboard.NewServer(services.NewFetcher(cfg.ResultsEndpoint), uploader, p, dashboard.Options{
		Title:         cfg.PageTitle,
		Location:      cfg.StorageLocation,
		TruncateLimit: cfg.TruncateLimit,
		SessionTTL:    cfg.SessionTTL,
	})

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.Info("Dashboard listening.", "addr", httpServer.Addr, "uploadEnabled", cfg.UploadEnabled, "truncateLimit", cfg.TruncateLimit)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Shutting down dashboard.")
		return httpServer.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
