package realtimehandler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"crm/internal/domain/auth"
	"crm/internal/platform/realtime"
	"crm/internal/transport/http/api"
	"crm/internal/transport/http/middleware"
)

type Handler struct {
	Hub      *realtime.Hub
	Upgrader *websocket.Upgrader
	Secret   string
}

func NewHandler(hub *realtime.Hub, upgrader *websocket.Upgrader, secret string) *Handler {
	return &Handler{Hub: hub, Upgrader: upgrader, Secret: secret}
}

// HandleConnect joins the caller to its personal room and its role room.
// Browsers cannot set headers on a websocket handshake, so the token may
// also arrive as the token query parameter.
func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
			return
		}
		parsed, err := auth.ActorFromToken(h.Secret, token)
		if err != nil {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "invalid token", middleware.GetRequestID(r.Context()))
			return
		}
		actor = parsed
	}

	if err := h.Hub.Serve(h.Upgrader, w, r, realtime.UserRoom(actor.UserID), actor.RoleRoom()); err != nil {
		slog.Warn("websocket upgrade failed", "userId", actor.UserID, "err", err)
	}
}
