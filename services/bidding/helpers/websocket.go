package helpers

import (
	"context"
	"net/http"
	"time"

	"auction-marketplace/utils"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// PingPeriod must stay below pongWait
	PingPeriod = 54 * time.Second
)

// Upgrader is shared by every websocket endpoint
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// browsers on other origins are expected, the session cookie still authenticates
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchPeer reads (and discards) client frames until the peer goes away, then
// calls cancel. Only control frames are handled.
func WatchPeer(conn *websocket.Conn, cancel context.CancelFunc) {
	go func() {
		defer cancel()

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					utils.Warn("websocket read error", map[string]any{"error": err.Error()})
				}
				return
			}
		}
	}()
}

// WriteJSON sends v as a single text frame
func WriteJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WritePing keeps idle connections alive
func WritePing(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// Close sends a normal close frame and closes the connection
func Close(conn *websocket.Conn) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	_ = conn.Close()
}
