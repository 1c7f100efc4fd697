package handlers

import (
	"context"
	"errors"
	"net/http"

	"story-playback/internal/middleware"
	"story-playback/internal/models"
	"story-playback/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Presigner interface {
	PresignUpload(ctx context.Context, userID, fileName, contentType string) (url, key string, err error)
}

type UploadHandler struct {
	storage Presigner
	logger  *zap.Logger
}

// NewUploadHandler accepts a nil presigner when object storage is not
// configured; uploads then answer 503.
func NewUploadHandler(stor Presigner, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{storage: stor, logger: logger}
}

func (h *UploadHandler) GetPresignedURL(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "Uploads are not available", Code: "storage_unavailable", Remedy: "try again later"})
		return
	}

	var req models.PresignedUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	url, key, err := h.storage.PresignUpload(c.Request.Context(), userID, req.FileName, req.ContentType)
	if errors.Is(err, storage.ErrContentType) {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "upload_type_invalid", Remedy: "upload an image or a video"})
		return
	}
	if err != nil {
		h.logger.Error("failed to generate presigned URL", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "Could not prepare the upload", Code: "storage_unavailable", Remedy: "try again in a moment"})
		return
	}

	h.logger.Info("presigned URL generated", zap.String("user_id", userID), zap.String("media_key", key))
	c.JSON(http.StatusOK, models.PresignedUploadResponse{UploadURL: url, MediaKey: key})
}
