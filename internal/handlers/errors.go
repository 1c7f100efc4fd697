package handlers

import (
	"errors"
	"net/http"

	"story-playback/internal/apperror"
	"story-playback/internal/comments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Remedy string `json:"remedy,omitempty"`
}

// respondError writes err as JSON with a status derived from its apperror
// kind. Unclassified errors are logged and hidden behind a 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	e, ok := apperror.From(err)
	if !ok {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal server error", Code: "internal"})
		return
	}

	status := http.StatusInternalServerError
	switch e.Kind {
	case apperror.KindValidation:
		status = http.StatusBadRequest
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindTransient:
		status = http.StatusServiceUnavailable
		if errors.Is(err, comments.ErrRateLimited) {
			status = http.StatusTooManyRequests
		}
	case apperror.KindEnvironment:
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.String("code", e.Code), zap.Error(err))
	}
	c.Error(err)
	c.JSON(status, errorBody{Error: e.Message, Code: e.Code, Remedy: e.Remedy})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "invalid_request", Remedy: "correct the highlighted field and try again"})
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Code: "unauthorized"})
}
