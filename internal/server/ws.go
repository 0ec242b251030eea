package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds a single WebSocket write.
const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Clients self-identify; there is no origin-based trust boundary.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type socketMessage map[string]any

// progressSocket serializes writes from the read loop and the broadcast
// forwarder onto one connection.
type progressSocket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *progressSocket) write(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(v)
}

// handleProgressSocket upgrades the connection and streams upload progress
// events for the client. The client may send {"type":"ping"} keepalives and
// {"type":"subscribe_job","job_id":...} acknowledgement requests; progress
// events are pushed regardless.
func (s *Server) handleProgressSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := clientID(r)
	events, unsubscribe := s.broadcaster.Subscribe(client)
	defer func() {
		unsubscribe()
		conn.Close()
	}()

	sock := &progressSocket{conn: conn}
	if err := sock.write(socketMessage{"type": "connected", "client_id": client}); err != nil {
		return
	}

	go func() {
		for ev := range events {
			if err := sock.write(ev); err != nil {
				conn.Close()
				return
			}
		}
	}()

	s.logger.Debug("progress socket connected", "client_id", client)

	for {
		var msg struct {
			Type  string `json:"type"`
			JobID string `json:"job_id"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "ping":
			if err := sock.write(socketMessage{"type": "pong"}); err != nil {
				return
			}
		case "subscribe_job":
			if err := sock.write(socketMessage{"type": "subscribed", "job_id": msg.JobID}); err != nil {
				return
			}
		}
	}
}
