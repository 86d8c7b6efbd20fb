// Package main is the entry point for the trip manager API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkordes/trip-manager/internal/backend"
	"github.com/pkordes/trip-manager/internal/cascade"
	"github.com/pkordes/trip-manager/internal/config"
	"github.com/pkordes/trip-manager/internal/handler"
	"github.com/pkordes/trip-manager/internal/logging"
	"github.com/pkordes/trip-manager/internal/observability"
	"github.com/pkordes/trip-manager/internal/repo"
	"github.com/pkordes/trip-manager/internal/schema"
	"github.com/pkordes/trip-manager/internal/service"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use the default logger before ours is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	// --- Backend ----------------------------------------------------------
	// The backend is chosen once. A document store that cannot be reached
	// within the probe timeout pins the process to the local file store.
	opts := backend.OptionsFor(cfg)
	opts.Logger = logger
	sel, err := backend.Select(context.Background(), opts)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sel.Close(ctx); err != nil {
			logger.Error("failed to close document store", "error", err)
		}
	}()

	metrics := observability.New("tripmgr")
	metrics.SetBackend(string(sel.Mode), cfg.Driver)

	// Metrics wrap the schema layer: validation failures are counted too.
	store := observability.InstrumentStore(repo.New(sel.Store, schema.Default()), metrics)
	cascader := cascade.New(store, cascade.WithLogger(logger), cascade.WithObserver(metrics))

	// --- Router -----------------------------------------------------------
	srv := handler.NewServer(
		service.NewTripService(store, cascader),
		service.NewItemService(store),
		service.NewExportService(store),
		handler.BackendInfo{Mode: string(sel.Mode), Driver: cfg.Driver},
		logger,
	)
	router := handler.NewRouter(srv, handler.RouterConfig{
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Metrics:      metrics.Handler(),
	})

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", httpSrv.Addr, "backend", sel.Mode, "driver", cfg.Driver)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		logger.Error("server error", "error", err)
		return
	}
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		return
	}
	logger.Info("server stopped")
}
