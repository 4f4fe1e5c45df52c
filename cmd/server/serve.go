package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/iliyamo/movieweb/internal/config"
	"github.com/iliyamo/movieweb/internal/database"
	"github.com/iliyamo/movieweb/internal/datamanager"
	"github.com/iliyamo/movieweb/internal/handler"
	"github.com/iliyamo/movieweb/internal/omdb"
	"github.com/iliyamo/movieweb/internal/queue"
	"github.com/iliyamo/movieweb/internal/router"
	"github.com/iliyamo/movieweb/internal/service"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dm, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	var events service.Publisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.AMQPURL, cfg.ActivityLog); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("activity-consumer: stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover(), echomw.RequestID(), echomw.Logger())
	router.RegisterRoutes(e, handler.New(dm, newLookup(cfg), events), router.Options{
		Redis:     rdb,
		RateLimit: cfg.RateLimit,
		Cache:     cfg.Cache,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (env=%s, storage=%s)", addr, cfg.Env, cfg.Storage)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore selects the DataManager implementation. The MySQL schema is
// created on startup so a fresh database works without running migrate.
func openStore(ctx context.Context, cfg config.Config) (datamanager.DataManager, func(), error) {
	if cfg.Storage == config.StorageMemory {
		log.Printf("storage: using in-memory store, data is lost on exit")
		return datamanager.NewMemoryDataManager(), func() {}, nil
	}

	db, err := database.Open(cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return datamanager.NewSQLDataManager(db), func() { _ = db.Close() }, nil
}

// newLookup returns nil when no OMDb key is configured; the lookup endpoint
// then reports 503 while the rest of the API keeps working.
func newLookup(cfg config.Config) handler.MovieLookup {
	client, err := omdb.New(cfg.OMDbAPIKey)
	if err != nil {
		log.Printf("omdb: %v; movie lookup disabled", err)
		return nil
	}
	return client
}
