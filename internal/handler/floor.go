package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yourorg/tablereserve/internal/infrastructure/stream"
)

// FloorHandler handles WebSocket connections for live floor displays.
// Connected clients receive every domain event the hub broadcasts, so a
// host stand can watch bookings and status changes without polling.
type FloorHandler struct {
	hub            *stream.Hub
	logger         *slog.Logger
	allowedOrigins []string
}

// NewFloorHandler creates a new floor display handler
func NewFloorHandler(hub *stream.Hub, logger *slog.Logger, allowedOrigins []string) *FloorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FloorHandler{
		hub:            hub,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *FloorHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP upgrades the connection and registers it with the hub. The hub
// owns all writes, heartbeats included; this handler only reads to detect
// the client going away.
func (h *FloorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.hub.Register(ws)
	defer h.hub.Unregister(ws)

	// Drain incoming frames until the client disconnects. Floor displays
	// are read-only, so any payload is ignored.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("floor display closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
	}
}
