package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"story-playback/internal/app"
	"story-playback/internal/config"
	"story-playback/internal/stories"
	"story-playback/internal/worker"
	"story-playback/pkg/logger"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open backends", zap.Error(err))
	}
	defer backends.Close()

	if backends.InMemory() {
		logger.Fatal("DATABASE_URL not set; the api expires in-memory stories itself")
	}
	if err := backends.RequireShared(); err != nil {
		logger.Fatal("cannot archive expired stories", zap.Error(err))
	}

	clock := clockwork.NewRealClock()
	storiesSvc := stories.NewService(backends.Stories, backends.Archive, clock, logger)

	w, err := worker.NewWorker(clock, logger)
	if err != nil {
		logger.Fatal("failed to create worker", zap.Error(err))
	}
	if err := w.Every(worker.JobExpireStories, cfg.Worker.ExpireInterval, worker.ExpireStories(storiesSvc, clock, logger)); err != nil {
		logger.Fatal("failed to schedule job", zap.Error(err))
	}
	w.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	if err := w.Shutdown(); err != nil {
		logger.Error("worker shutdown failed", zap.Error(err))
	}
}
