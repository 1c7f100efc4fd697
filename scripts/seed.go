// Seed loads the demo feed, archive, highlights and comments into the
// configured Postgres and Redis. Run with: go run scripts/seed.go
package main

import (
	"context"
	"log"
	"time"

	"story-playback/internal/app"
	"story-playback/internal/config"
	"story-playback/internal/mockdata"
	"story-playback/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logger.NewLogger(cfg.Log.Level, "console")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open backends", zap.Error(err))
	}
	defer backends.Close()

	if err := backends.RequireShared(); err != nil {
		logger.Fatal("nothing to seed", zap.Error(err))
	}

	err = mockdata.Seed(ctx, time.Now(), mockdata.Target{
		Stories:    backends.Stories,
		Archive:    backends.Archive,
		Highlights: backends.Highlights,
		Comments:   backends.Comments,
	})
	if err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
	logger.Info("seeding complete")
}
