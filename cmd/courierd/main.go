package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lokalmart/courierd/internal/database"
	"github.com/lokalmart/courierd/internal/logging"
	"github.com/lokalmart/courierd/internal/push"
	"github.com/lokalmart/courierd/internal/server"
	"github.com/lokalmart/courierd/internal/worker"
)

func main() {
	logger := logging.Setup(os.Getenv("COURIERD_LOG_LEVEL"))

	port := os.Getenv("COURIERD_PORT")
	if port == "" {
		port = "8595"
	}

	dbPath := os.Getenv("COURIERD_DB_PATH")
	if dbPath == "" {
		dbPath = "courierd.db"
	}

	originURL := os.Getenv("COURIERD_ORIGIN_URL")
	if originURL == "" {
		originURL = "https://www.lokalmart.app"
	}

	trackingURL := os.Getenv("COURIERD_TRACKING_URL")
	if trackingURL == "" {
		trackingURL = "https://api.lokalmart.app/api/tracking/location"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		OriginURL:   originURL,
		TrackingURL: trackingURL,
		GatewayURL:  os.Getenv("COURIERD_GATEWAY_URL"),
		AccessToken: os.Getenv("COURIERD_GATEWAY_TOKEN"),
		APIToken:    os.Getenv("COURIERD_API_TOKEN"),
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("COURIERD_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("COURIERD_VAPID_PRIVATE_KEY"),
		},
	}

	srv, err := server.New(db, cfg, logger)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pre-populate the asset cache. A failed install keeps whatever cache
	// version was installed before; it is not fatal.
	installCtx, installCancel := context.WithTimeout(ctx, 2*time.Minute)
	if err := srv.Worker().Dispatch(installCtx, worker.Event{Kind: worker.KindInstall}); err != nil {
		logger.Warn("asset cache install failed, previous cache remains active", "error", err)
	} else if err := srv.Worker().Dispatch(installCtx, worker.Event{Kind: worker.KindActivate}); err != nil {
		logger.Warn("stale cache cleanup failed", "error", err)
	}
	installCancel()

	srv.Transport().Start(ctx)

	// Background cleanup goroutine
	const notificationRetention = 30 * 24 * time.Hour
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().UTC().Add(-notificationRetention)
				if n, err := srv.NotificationStore().Cleanup(cutoff); err != nil {
					logger.Error("cleanup notification log", "error", err)
				} else if n > 0 {
					logger.Info("cleaned up notification log", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("courierd listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	srv.Transport().Stop()
	cancel()

	// Hold the process open until in-flight events complete.
	srv.Worker().Wait()
}
