package websocket

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatrelay/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Accept upgrades each request and runs the connection until it drops.
func Accept(r domain.Registry, h domain.MessageHandler, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		conn := NewConn(uuid.NewString(), ws, r, h, opts)
		if err := conn.Start(); err != nil {
			slog.Error("register error", "clientId", conn.ID(), "error", err)
		}
	}
}
