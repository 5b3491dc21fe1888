package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/quiz-world/internal/domain"
)

// MessageTypeLeaderboardUpdate is the only frame type on the feed
const MessageTypeLeaderboardUpdate = "leaderboard_update"

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// LeaderboardUpdate carries the current gym top entries
type LeaderboardUpdate struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

// Hub maintains the set of active subscribers and broadcasts messages
type Hub struct {
	subscribers map[*Subscriber]bool

	register   chan *Subscriber
	unregister chan *Subscriber
	broadcast  chan []byte

	// last leaderboard frame, replayed to new subscribers
	latest []byte

	mu sync.RWMutex

	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan []byte, 256),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			h.closeAll()
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			latest := h.latest
			h.mu.Unlock()
			if latest != nil {
				sub.enqueue(latest)
			}
			h.logger.Debug("subscriber registered", "subscriber_id", sub.id)

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
			}
			h.mu.Unlock()
			h.logger.Debug("subscriber unregistered", "subscriber_id", sub.id)

		case data := <-h.broadcast:
			h.mu.Lock()
			h.latest = data
			h.mu.Unlock()
			h.broadcastMessage(data)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		delete(h.subscribers, sub)
		close(sub.send)
	}
}

// broadcastMessage sends a frame to every connected subscriber
func (h *Hub) broadcastMessage(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if !sub.enqueue(data) {
			h.logger.Warn("subscriber buffer full, skipping", "subscriber_id", sub.id)
		}
	}
}

// BroadcastLeaderboard sends the current top entries to all subscribers
func (h *Hub) BroadcastLeaderboard(entries []domain.LeaderboardEntry) {
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	data, err := json.Marshal(&Message{
		Type:      MessageTypeLeaderboardUpdate,
		Data:      LeaderboardUpdate{Leaderboard: entries},
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a subscriber to the hub
func (h *Hub) Register(sub *Subscriber) {
	select {
	case h.register <- sub:
	case <-h.ctx.Done():
	}
}

// Unregister removes a subscriber from the hub
func (h *Hub) Unregister(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.ctx.Done():
	}
}

// GetTotalConnections returns the number of connected subscribers
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
