package handlers

import (
	"slices"
	"time"

	"story-playback/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig carries the handlers and cross-cutting settings of the API.
type RouterConfig struct {
	Logger      *zap.Logger
	JWTSecret   string
	CORSOrigins []string

	Stories    *StoriesHandler
	Viewer     *ViewerHandler
	Archive    *ArchiveHandler
	Highlights *HighlightsHandler
	Comments   *CommentsHandler
	Upload     *UploadHandler
	Health     *HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.GinZapLogger(cfg.Logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/", RootHandler)
	router.GET("/healthz", cfg.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/")
	auth.Use(middleware.AuthMiddleware(cfg.JWTSecret, cfg.Logger))
	{
		auth.GET("/stories", cfg.Stories.GetFeed)
		auth.POST("/stories", cfg.Stories.PublishStory)
		auth.POST("/stories/:user_id/seen", cfg.Stories.MarkSeen)

		auth.POST("/upload/presigned", cfg.Upload.GetPresignedURL)

		auth.POST("/viewer", cfg.Viewer.Open)
		auth.POST("/viewer/highlights/:user_id/:highlight_id", cfg.Viewer.OpenHighlight)
		auth.GET("/viewer/:id", cfg.Viewer.Get)
		auth.DELETE("/viewer/:id", cfg.Viewer.Close)
		auth.POST("/viewer/:id/next", cfg.Viewer.Next)
		auth.POST("/viewer/:id/prev", cfg.Viewer.Prev)
		auth.POST("/viewer/:id/pause", cfg.Viewer.Pause)
		auth.POST("/viewer/:id/resume", cfg.Viewer.Resume)
		auth.POST("/viewer/:id/toggle", cfg.Viewer.Toggle)
		auth.POST("/viewer/:id/tap", cfg.Viewer.Tap)
		auth.POST("/viewer/:id/media", cfg.Viewer.Media)
		auth.GET("/viewer/:id/ws", cfg.Viewer.Stream)

		auth.GET("/archive", cfg.Archive.List)
		auth.POST("/archive", cfg.Archive.Archive)
		auth.DELETE("/archive", cfg.Archive.DeleteAll)
		auth.DELETE("/archive/:story_id", cfg.Archive.Delete)

		auth.GET("/users/:user_id/highlights", cfg.Highlights.List)
		auth.POST("/highlights", cfg.Highlights.Create)
		auth.PATCH("/highlights/:id", cfg.Highlights.Rename)
		auth.DELETE("/highlights/:id", cfg.Highlights.Delete)
		auth.POST("/highlights/:id/stories", cfg.Highlights.AddStory)
		auth.DELETE("/highlights/:id/stories/:story_id", cfg.Highlights.RemoveStory)

		auth.GET("/comments/:content_type/:content_id", cfg.Comments.List)
		auth.POST("/comments/:content_type/:content_id", cfg.Comments.Add)
		auth.GET("/comments/:content_type/:content_id/count", cfg.Comments.Count)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	switch {
	case slices.Contains(origins, "*"):
		c.AllowAllOrigins = true
	case len(origins) > 0:
		c.AllowOrigins = origins
		c.AllowCredentials = true
	default:
		c.AllowOrigins = []string{"http://localhost:3000"}
		c.AllowCredentials = true
	}
	c.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	c.MaxAge = 12 * time.Hour
	return c
}
