package api

import (
	"net/http"

	"github.com/comment-sync-api/internal/config"
	"github.com/comment-sync-api/internal/hub"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSHandler upgrades viewer connections onto the live comment channel
type WSHandler struct {
	hub      *hub.Hub
	cfg      *config.Config
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(h *hub.Hub, cfg *config.Config, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub: h,
		cfg: cfg,
		log: log.With().Str("handler", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Comment widgets embed on arbitrary pages.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := hub.NewClient(h.hub, conn, h.cfg.Sync.WriteBuffer, h.log)
	client.Run(c.Request.Context())
}
