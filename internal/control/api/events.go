package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	websocketWriteTimeout      = 10 * time.Second
	websocketHeartbeatInterval = 30 * time.Second
	websocketReadTimeout       = 60 * time.Second
)

var eventsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return origin == "http://localhost" || origin == "http://127.0.0.1" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:")
	},
}

// handleEvents upgrades to a websocket and pushes the status as JSON text
// frames: once on connect, then on every change.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	updates, unsubscribe := s.ctrl.Subscribe()
	defer unsubscribe()

	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// The read loop only handles control frames and notices the peer leaving.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(websocketReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(websocketReadTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.WithError(err).Debug("Websocket closed unexpectedly")
				}
				return
			}
		}
	}()

	if err := writeStatus(conn, s.ctrl.GetStatus()); err != nil {
		return
	}

	ticker := time.NewTicker(websocketHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(websocketWriteTimeout))
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(websocketWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-updates:
			if err := writeStatus(conn, s.ctrl.GetStatus()); err != nil {
				return
			}
		}
	}
}

func writeStatus(conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(websocketWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}
