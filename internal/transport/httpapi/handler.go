// Package httpapi exposes the monitoring pipeline to the console UI.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"careline/internal/usecase"
)

// Handler handles console HTTP requests.
type Handler struct {
	controller *usecase.SessionController
	feed       *MonitorFeed
}

func NewHandler(controller *usecase.SessionController, feed *MonitorFeed) *Handler {
	return &Handler{controller: controller, feed: feed}
}

// RegisterRoutes registers console routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/session/start", h.StartSession)
	e.POST("/api/session/stop", h.StopSession)
	e.GET("/api/session/status", h.SessionStatus)
	e.POST("/api/session/alert/dismiss", h.DismissAlert)
	e.GET("/ws/monitor", h.Monitor)
	e.GET("/health", h.Health)
}

// StartSession opens a new consultation session.
func (h *Handler) StartSession(c echo.Context) error {
	sessionID, err := h.controller.Start(c.Request().Context())
	if errors.Is(err, usecase.ErrAlreadyRecording) {
		return c.JSON(http.StatusConflict, errorBody(err))
	}
	if err != nil {
		return c.JSON(http.StatusBadGateway, errorBody(err))
	}
	return c.JSON(http.StatusOK, map[string]string{"session_id": sessionID})
}

// StopSession ends the active session and returns its frozen feedback set.
func (h *Handler) StopSession(c echo.Context) error {
	feedbacks, err := h.controller.Stop(c.Request().Context())
	if errors.Is(err, usecase.ErrNotRecording) {
		return c.JSON(http.StatusConflict, errorBody(err))
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}
	return c.JSON(http.StatusOK, map[string]any{"feedbacks": feedbacks})
}

// SessionStatus reports the recording flag and active session id.
func (h *Handler) SessionStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.controller.Status())
}

// DismissAlert closes the visible alert, if any.
func (h *Handler) DismissAlert(c echo.Context) error {
	h.controller.DismissAlert()
	return c.NoContent(http.StatusNoContent)
}

// Monitor streams session snapshots to the console over a websocket.
func (h *Handler) Monitor(c echo.Context) error {
	return h.feed.ServeWS(c, h.controller.Snapshot())
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
