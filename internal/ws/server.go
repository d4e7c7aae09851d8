package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"knnect-svr/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is open, same as the ingestion port.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades map-display clients and registers them on the hub.
type Handler struct {
	hub *hub.Hub
	log *slog.Logger
}

func NewHandler(h *hub.Hub, log *slog.Logger) *Handler {
	return &Handler{hub: h, log: log.With("component", "ws")}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newClient(conn, h.hub, h.log.With("remote", r.RemoteAddr))
	h.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// StartServer sirve el feed websocket en /ws. Bloquea, igual que el
// servidor de métricas.
func StartServer(port string, h *hub.Hub, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/ws", NewHandler(h, log))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Error("ws server failed", "error", err)
	}
}
