package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/example/trip-sharing/internal/config"
	"github.com/example/trip-sharing/internal/httpapi"
	"github.com/example/trip-sharing/internal/logging"
	"github.com/example/trip-sharing/internal/models"
	"github.com/example/trip-sharing/internal/trips"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		logging.NewLogger("info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	srv, err := httpapi.NewServerFromConfig(cfg, logger)
	if err != nil {
		logger.Error("server wiring failed", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	if cfg.RunMigrations {
		if db := httpapi.DB(srv.Trips); db != nil {
			path := filepath.Join("migrations", "001_create_schema.sql")
			b, err := os.ReadFile(path)
			if err != nil {
				logger.Error("migration read failed", "path", path, "error", err)
				os.Exit(1)
			}
			if _, err := db.Exec(string(b)); err != nil {
				logger.Error("migration exec failed", "path", path, "error", err)
				os.Exit(1)
			}
			logger.Info("migration applied", "path", path)
		} else {
			logger.Warn("MIGRATE=true but no postgres store configured")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// expire trips whose departure time has passed
	sweeper := &trips.Sweeper{
		Store:  srv.Trips,
		Logger: logger,
		Every:  cfg.ExpirySweepEvery,
	}
	if srv.Kafka != nil {
		sweeper.Publish = func(typ models.TripEventType, t *models.Trip) error {
			return srv.Kafka.PublishTripEvent(typ, t)
		}
	} else {
		sweeper.Publish = func(typ models.TripEventType, t *models.Trip) error {
			return srv.Geo.Remove(ctx, t.ID)
		}
	}
	go sweeper.Run(ctx)

	hs := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("trip-sharing listening", "addr", cfg.HTTPAddr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
