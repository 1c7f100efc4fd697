package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"story-playback/internal/app"
	"story-playback/internal/comments"
	"story-playback/internal/config"
	"story-playback/internal/handlers"
	"story-playback/internal/highlights"
	"story-playback/internal/mockdata"
	"story-playback/internal/storage"
	"story-playback/internal/stories"
	"story-playback/internal/viewer"
	"story-playback/internal/websocket"
	"story-playback/internal/worker"
	"story-playback/pkg/logger"

	ws "github.com/gorilla/websocket"
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

	var stor *storage.Storage
	if cfg.Minio.Endpoint != "" {
		stor, err = storage.NewStorage(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			logger.Warn("failed to create storage, continuing without presigned uploads", zap.Error(err))
			stor = nil
		}
	} else {
		logger.Warn("MINIO_ENDPOINT not set, running without storage")
	}

	clock := clockwork.NewRealClock()
	if cfg.SeedDemo {
		err := mockdata.Seed(ctx, clock.Now(), mockdata.Target{
			Stories:    backends.Stories,
			Archive:    backends.Archive,
			Highlights: backends.Highlights,
			Comments:   backends.Comments,
		})
		if err != nil {
			logger.Warn("failed to seed demo data", zap.Error(err))
		} else {
			logger.Info("demo data seeded")
		}
	}

	storiesSvc := stories.NewService(backends.Stories, backends.Archive, clock, logger)
	highlightsSvc := highlights.NewService(backends.Highlights, backends.Archive, clock, logger)
	commentsSvc := comments.NewService(backends.Comments, backends.Cache, clock, logger)

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	manager := viewer.NewManager(storiesSvc, highlightsSvc, hub, clock, logger, viewer.Config{
		BaseURL: cfg.Server.BaseURL,
		IdleTTL: cfg.Viewer.IdleTTL,
	})
	defer manager.Shutdown()

	w, err := worker.NewWorker(clock, logger)
	if err != nil {
		logger.Fatal("failed to create worker", zap.Error(err))
	}
	if err := w.Every(worker.JobReapSessions, cfg.Worker.ReapInterval, worker.ReapSessions(manager, clock)); err != nil {
		logger.Fatal("failed to schedule job", zap.Error(err))
	}
	if backends.InMemory() {
		// nobody else can see in-memory stories, so expire them here
		if err := w.Every(worker.JobExpireStories, cfg.Worker.ExpireInterval, worker.ExpireStories(storiesSvc, clock, logger)); err != nil {
			logger.Fatal("failed to schedule job", zap.Error(err))
		}
	}
	w.Start()

	checks := map[string]handlers.Pinger{"database": nil, "redis": nil, "storage": nil}
	if backends.DB != nil {
		checks["database"] = backends.DB
	}
	if backends.Cache != nil {
		checks["redis"] = backends.Cache
	}
	var presigner handlers.Presigner
	if stor != nil {
		presigner = stor
		checks["storage"] = stor
	}

	var limiter handlers.RateLimiter
	if backends.Cache != nil {
		limiter = backends.Cache
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:      logger,
		JWTSecret:   cfg.Auth.JWTSecret,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Stories:     handlers.NewStoriesHandler(storiesSvc, limiter, logger),
		Viewer:      handlers.NewViewerHandler(manager, hub, upgrader(cfg.Server.CORSAllowedOrigins), logger),
		Archive:     handlers.NewArchiveHandler(backends.Archive, logger),
		Highlights:  handlers.NewHighlightsHandler(highlightsSvc, logger),
		Comments:    handlers.NewCommentsHandler(commentsSvc, logger),
		Upload:      handlers.NewUploadHandler(presigner, logger),
		Health:      handlers.NewHealthHandler(checks),
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := w.Shutdown(); err != nil {
		logger.Error("worker shutdown failed", zap.Error(err))
	}

	logger.Info("server exited")
}

// upgrader accepts websocket handshakes from the configured browser origins.
func upgrader(origins []string) ws.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return ws.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		},
	}
}
