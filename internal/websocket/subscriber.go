package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Feed connection tuning
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only ever send control frames.
	maxInboundSize = 512
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The feed is read-only and guarded by the bearer key.
		return true
	},
}

// Subscriber is one read-only leaderboard feed connection
type Subscriber struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
}

func newSubscriber(conn *websocket.Conn, logger *slog.Logger) *Subscriber {
	id := uuid.NewString()
	return &Subscriber{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger.With("subscriber_id", id),
	}
}

// Serve upgrades the request and attaches the connection to the hub
func Serve(hub *Hub, logger *slog.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sub := newSubscriber(conn, logger)
	hub.Register(sub)

	go sub.writeLoop()
	go sub.drain(hub)
}

// drain keeps reading so pong and close frames are processed. Data frames
// are discarded unread.
func (s *Subscriber) drain(hub *Hub) {
	defer func() {
		hub.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxInboundSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("subscriber read ended", "error", err)
			}
			return
		}
	}
}

// writeLoop sends one text frame per leaderboard update and keeps the
// connection alive with pings
func (s *Subscriber) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Debug("subscriber write failed", "error", err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue queues a frame without blocking; it reports false when the buffer is full
func (s *Subscriber) enqueue(frame []byte) bool {
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}
