// Package main boots the Cart Service Simulator HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyhunter13/cart-service-simulator/internal/catalog"
	"github.com/fairyhunter13/cart-service-simulator/internal/config"
	httpapi "github.com/fairyhunter13/cart-service-simulator/internal/http"
	"github.com/fairyhunter13/cart-service-simulator/internal/obs"
	"github.com/fairyhunter13/cart-service-simulator/internal/persist"
	"github.com/fairyhunter13/cart-service-simulator/internal/session"
)

func main() {
	cfg := config.Load()
	obs.InitLogger()
	obs.Logger.Info("service_starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var newAdapter session.AdapterFactory
	if cfg.DatabaseURL != "" {
		db, err := persist.OpenDB(ctx, cfg.DatabaseURL)
		if err != nil {
			obs.Logger.Error("database_open_failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		newAdapter = func(slot string) persist.Adapter {
			return persist.NewPostgresAdapter(db, slot)
		}
		obs.Logger.Info("persistence_backend", "backend", "postgres")
	} else {
		newAdapter = func(slot string) persist.Adapter {
			return persist.NewFileAdapter(cfg.SnapshotDir, slot)
		}
		obs.Logger.Info("persistence_backend", "backend", "file", "dir", cfg.SnapshotDir)
	}

	writer := persist.NewWriter(cfg.FlushInterval)
	writer.Start(ctx)

	sessions := session.NewManager(cfg, writer, newAdapter)

	cat := catalog.New()
	if cfg.SeedDemoCatalog {
		cat.SeedDemo()
		obs.Logger.Info("demo_catalog_seeded", "products", cat.Len())
	}

	app := httpapi.NewApp(cfg, cat, sessions, writer)
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	app.StartShutdown()
	obs.Logger.Info("shutdown_flush_begin", "pending_snapshots", writer.PendingSize())

	ctxFlush, cancelFlush := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelFlush()
	if flushed := writer.DrainUntil(ctxFlush); !flushed {
		obs.Logger.Warn("shutdown_flush_timeout")
	} else {
		obs.Logger.Info("shutdown_flush_complete")
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	obs.Logger.Info("service_stopped")
}
