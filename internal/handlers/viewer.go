package handlers

import (
	"net/http"

	"story-playback/internal/apperror"
	"story-playback/internal/middleware"
	"story-playback/internal/models"
	"story-playback/internal/playback"
	"story-playback/internal/viewer"
	"story-playback/internal/websocket"

	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type ViewerHandler struct {
	manager  *viewer.Manager
	hub      *websocket.Hub
	upgrader ws.Upgrader
	logger   *zap.Logger
}

func NewViewerHandler(manager *viewer.Manager, hub *websocket.Hub, upgrader ws.Upgrader, logger *zap.Logger) *ViewerHandler {
	return &ViewerHandler{manager: manager, hub: hub, upgrader: upgrader, logger: logger}
}

type tapResponse struct {
	Action playback.Action `json:"action"`
	View   viewer.View     `json:"view"`
}

func (h *ViewerHandler) Open(c *gin.Context) {
	viewerID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req models.OpenViewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s, err := h.manager.Open(c.Request.Context(), viewerID, req.StartUserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, s.View())
}

func (h *ViewerHandler) OpenHighlight(c *gin.Context) {
	viewerID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	s, err := h.manager.OpenHighlight(c.Request.Context(), viewerID, c.Param("user_id"), c.Param("highlight_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, s.View())
}

func (h *ViewerHandler) Get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *ViewerHandler) Close(c *gin.Context) {
	viewerID, _ := middleware.GetUserID(c)
	if err := h.manager.Close(viewerID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ViewerHandler) Next(c *gin.Context)   { h.command(c, (*viewer.Session).Next) }
func (h *ViewerHandler) Prev(c *gin.Context)   { h.command(c, (*viewer.Session).Prev) }
func (h *ViewerHandler) Pause(c *gin.Context)  { h.command(c, (*viewer.Session).Pause) }
func (h *ViewerHandler) Resume(c *gin.Context) { h.command(c, (*viewer.Session).Resume) }
func (h *ViewerHandler) Toggle(c *gin.Context) { h.command(c, (*viewer.Session).Toggle) }

func (h *ViewerHandler) Tap(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req models.TapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	action, v, err := s.Tap(req.X, req.Width)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tapResponse{Action: action, View: v})
}

func (h *ViewerHandler) Media(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req models.MediaEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	v, err := s.Media(req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Stream upgrades to a websocket that receives every event of the session
// and accepts the same commands as the REST endpoints.
func (h *ViewerHandler) Stream(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := websocket.NewClient(s.ID, h.hub, conn, func(cmd websocket.Command) (any, error) {
		return h.dispatch(s, cmd)
	})
	h.hub.RegisterClient(client)
	client.Send(viewer.Message{Event: "snapshot", View: s.View()})

	go client.WritePump()
	go client.ReadPump()
}

func (h *ViewerHandler) dispatch(s *viewer.Session, cmd websocket.Command) (any, error) {
	switch cmd.Action {
	case "next":
		return s.Next()
	case "prev":
		return s.Prev()
	case "pause":
		return s.Pause()
	case "resume":
		return s.Resume()
	case "toggle":
		return s.Toggle()
	case "tap":
		if cmd.Width <= 0 {
			return nil, apperror.Validation("tap_width_invalid", "Tap width must be positive")
		}
		action, v, err := s.Tap(cmd.X, cmd.Width)
		if err != nil {
			return nil, err
		}
		return tapResponse{Action: action, View: v}, nil
	case "media":
		return s.Media(models.MediaEventRequest{
			SegmentID:  cmd.SegmentID,
			Event:      cmd.Event,
			DurationMS: cmd.DurationMS,
			Error:      cmd.Error,
		})
	default:
		return nil, apperror.Validation("viewer_action_invalid", "Unknown viewer action")
	}
}

func (h *ViewerHandler) command(c *gin.Context, op func(*viewer.Session) (viewer.View, error)) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	v, err := op(s)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *ViewerHandler) session(c *gin.Context) (*viewer.Session, bool) {
	viewerID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return nil, false
	}
	s, err := h.manager.Session(viewerID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	return s, true
}
