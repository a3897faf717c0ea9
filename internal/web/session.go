package web

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hpungsan/skim/internal/coordinator"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Exports carry the whole summary text.
	maxMessageSize = 1 << 20

	sendBufferSize = 64
)

var (
	errSessionClosed  = stderrors.New("session closed")
	errSendBufferFull = stderrors.New("send buffer full")
)

// upgrader only accepts same-origin pages.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		host := r.Host
		return origin == "http://"+host || origin == "https://"+host
	},
}

// wsSession is one browser connection attached to the coordinator.
type wsSession struct {
	coord *coordinator.Coordinator
	conn  *websocket.Conn
	log   *slog.Logger

	send chan coordinator.Outbound

	mu     sync.Mutex
	closed bool
}

func newWSSession(coord *coordinator.Coordinator, conn *websocket.Conn, log *slog.Logger) *wsSession {
	return &wsSession{
		coord: coord,
		conn:  conn,
		log:   log.With("remote", conn.RemoteAddr().String()),
		send:  make(chan coordinator.Outbound, sendBufferSize),
	}
}

// Send queues msg for the write pump. It never blocks the coordinator.
func (s *wsSession) Send(msg coordinator.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSessionClosed
	}

	select {
	case s.send <- msg:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close closes the connection. Safe to call more than once.
func (s *wsSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	close(s.send)
	s.conn.Close()
}

// readPump forwards inbound frames to the coordinator until the connection
// closes, then detaches the session.
func (s *wsSession) readPump() {
	defer func() {
		if err := s.coord.Detach(s); err != nil {
			s.log.Debug("detach skipped", "error", err)
		}
		s.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read error", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg coordinator.Inbound
		if err := json.Unmarshal(data, &msg); err != nil || msg.Channel == "" {
			s.log.Warn("malformed frame dropped", "error", err)
			continue
		}

		if err := s.coord.Submit(context.Background(), msg); err != nil {
			s.log.Warn("event not submitted", "channel", msg.Channel, "error", err)
			return
		}
	}
}

// writePump writes queued events and keepalive pings.
func (s *wsSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.log.Error("marshal error", "channel", msg.Channel, "error", err)
				continue
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Warn("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ coordinator.Session = (*wsSession)(nil)
