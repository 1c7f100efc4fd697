// Package app opens the storage backends shared by the api, the worker and
// the seed script.
package app

import (
	"context"
	"errors"
	"fmt"

	"story-playback/internal/archive"
	"story-playback/internal/cache"
	"story-playback/internal/comments"
	"story-playback/internal/config"
	"story-playback/internal/db"
	"story-playback/internal/highlights"
	"story-playback/internal/kv"
	"story-playback/internal/stories"

	"go.uber.org/zap"
)

// Backends holds the repositories for one process. Postgres and Redis are
// optional; without them the process keeps its data in memory.
type Backends struct {
	DB    *db.DB
	Cache *cache.Cache

	Stories    stories.Repository
	Highlights highlights.Repository
	Comments   comments.Store
	Archive    *archive.Store
}

func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backends, error) {
	b := &Backends{}

	if cfg.Postgres.URL != "" {
		database, err := db.NewDB(cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.InitSchema(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		b.DB = database
		b.Stories = stories.NewPostgres(database)
		b.Highlights = highlights.NewPostgres(database)
		b.Comments = comments.NewPostgres(database)
	} else {
		logger.Warn("DATABASE_URL not set, keeping stories, highlights and comments in memory")
		b.Stories = stories.NewMemory()
		b.Highlights = highlights.NewMemory()
		b.Comments = comments.NewMemory()
	}

	var store kv.Store = kv.NewMemory()
	if cfg.Redis.Addr != "" {
		c, err := cache.NewCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("failed to connect to redis, keeping archives in memory", zap.Error(err))
		} else {
			b.Cache = c
			store = c
		}
	} else {
		logger.Warn("REDIS_ADDR not set, keeping archives in memory")
	}
	b.Archive = archive.NewStore(store, logger)

	return b, nil
}

// InMemory reports whether live stories are process-local, in which case
// the api has to expire them itself.
func (b *Backends) InMemory() bool {
	return b.DB == nil
}

// RequireShared fails unless both Postgres and Redis are connected. Processes
// that write for the api to read later cannot fall back to memory.
func (b *Backends) RequireShared() error {
	if b.DB == nil {
		return errors.New("DATABASE_URL not set")
	}
	if b.Cache == nil {
		return errors.New("redis unavailable, archives would not be shared")
	}
	return nil
}

func (b *Backends) Close() error {
	var errs []error
	if b.Cache != nil {
		errs = append(errs, b.Cache.Close())
	}
	if b.DB != nil {
		errs = append(errs, b.DB.Close())
	}
	return errors.Join(errs...)
}
