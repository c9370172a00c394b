package main

import (
	"context"
	"fmt"
	logByDefault "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexora-app/moderation-server/internal/classifier"
	config "github.com/lexora-app/moderation-server/internal/config"
	"github.com/lexora-app/moderation-server/internal/global"
	log "github.com/lexora-app/moderation-server/internal/log"
	"github.com/lexora-app/moderation-server/internal/metrics"
	"github.com/lexora-app/moderation-server/internal/model"
	"github.com/lexora-app/moderation-server/internal/moderation"
	"github.com/lexora-app/moderation-server/internal/server"
	storage "github.com/lexora-app/moderation-server/internal/storage"

	// This controls the maxprocs environment variable in container runtimes.
	// see https://martin.baillie.id/wrote/gotchas-in-the-go-network-packages-defaults/#bonus-gomaxprocs-containers-and-the-cfs
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// Set the local timezone to UTC
	time.Local = time.UTC

	// Initialize the configuration
	config, err := config.MustLoadConfig()
	if err != nil {
		logByDefault.Fatalf("Config load error: %v", err)
		os.Exit(1)
	}

	// Logger configuration
	logger := log.New(
		log.WithLevel(config.Verbose),
		log.WithSource(),
	)

	global.Config = config
	global.Logger = logger

	if err := run(config, logger); err != nil {
		logger.ErrorContext(context.Background(), "an error occurred", slog.String("error", err.Error()))
		os.Exit(1)
	}

	os.Exit(0)
}

func run(config *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_, err := maxprocs.Set(maxprocs.Logger(func(s string, i ...interface{}) {
		logger.DebugContext(ctx, fmt.Sprintf(s, i...))
	}))
	if err != nil {
		return fmt.Errorf("setting max procs: %w", err)
	}

	// Setup hash function
	model.InitHashFunction()

	// Setup database connection
	db, err := storage.New(config, logger)
	if err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}
	defer db.Close()

	// Setup metrics sink
	m := metrics.New(config)
	defer m.Close()

	// Setup the enforcement engine
	engine, err := moderation.New(db, config, logger, m)
	if err != nil {
		return fmt.Errorf("moderation engine setup error: %w", err)
	}
	defer engine.Close()

	// Start the suspension expiry sweeper
	go engine.RunSweeper(ctx)

	// Setup the content-safety classifier client, nil when not configured
	scorer, err := classifier.New(config)
	if err != nil {
		return fmt.Errorf("classifier setup error: %w", err)
	}

	// Setup the API server
	srv := server.New(config, logger, engine, db, scorer)
	srv.AddHealthCheck(func() (bool, map[string]string) {
		dbStatus, err := db.Status()

		return err == nil, map[string]string{"database": dbStatus}
	})

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.InfoContext(ctx, "Server started", slog.String("host", config.API.Host), slog.Int("port", config.API.Port))

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	const shutdownTimeout = 10 * time.Second

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.InfoContext(ctx, "Server stopped")

	return nil
}
