package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Story Playback API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": gin.H{
			"stories": []string{
				"GET /stories",
				"POST /stories",
				"POST /stories/:user_id/seen",
			},
			"viewer": []string{
				"POST /viewer",
				"POST /viewer/highlights/:user_id/:highlight_id",
				"GET /viewer/:id",
				"DELETE /viewer/:id",
				"POST /viewer/:id/{next,prev,pause,resume,toggle,tap,media}",
				"GET /viewer/:id/ws",
			},
			"archive": []string{
				"GET /archive",
				"POST /archive",
				"DELETE /archive",
				"DELETE /archive/:story_id",
			},
			"highlights": []string{
				"GET /users/:user_id/highlights",
				"POST /highlights",
				"PATCH /highlights/:id",
				"DELETE /highlights/:id",
				"POST /highlights/:id/stories",
				"DELETE /highlights/:id/stories/:story_id",
			},
			"comments": []string{
				"GET /comments/:content_type/:content_id",
				"POST /comments/:content_type/:content_id",
				"GET /comments/:content_type/:content_id/count",
			},
			"upload": []string{
				"POST /upload/presigned",
			},
			"system": []string{
				"GET /healthz",
				"GET /metrics",
			},
		},
	})
}
