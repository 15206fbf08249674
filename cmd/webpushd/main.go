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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"webpush-saas/config"
	"webpush-saas/internal/api"
	"webpush-saas/internal/db"
	"webpush-saas/internal/notification"
	"webpush-saas/internal/store"
	"webpush-saas/internal/sweeper"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "webpushd").Logger()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	logger.Info().Str("path", configPath).Strs("defaulted", cfg.Defaulted).Msg("configuration loaded")

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatal().Msg("VAPID keys must be configured, generate them with `pushsim vapid`")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
		Urgency:         webpush.Urgency(cfg.Push.Urgency),
	}

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, &webpushOptions, logger)
	pool.Start(ctx)
	logger.Info().Int("workers", cfg.WorkerPool.Size).Msg("dispatch pool started")

	sweeperSvc := sweeper.NewService(appStore, pool, cfg.WorkerPool.SweepInterval, logger)
	go sweeperSvc.Run(ctx)

	router := api.NewRouter(appStore, &webpushOptions, pool, cfg.Server, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server Shutdown")
	}
	cancel()

	logger.Info().Msg("server gracefully stopped")
}
