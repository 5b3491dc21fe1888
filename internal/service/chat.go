package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quiz-world/internal/domain"
	"github.com/quiz-world/internal/metrics"
	"github.com/quiz-world/internal/store"
)

// ChatService stores the shared chat log
type ChatService struct {
	store   store.PresenceStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     Clock
}

// NewChatService creates a new chat service
func NewChatService(s store.PresenceStore, m *metrics.Metrics, logger *slog.Logger) *ChatService {
	return &ChatService{
		store:   s,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock replaces the time source
func (s *ChatService) SetClock(now Clock) {
	s.now = now
}

// Send stores a message and trims the log to the retention limit.
// Trimming is not atomic with the write; concurrent senders may briefly
// leave more than ChatRetention messages behind.
func (s *ChatService) Send(ctx context.Context, playerID, username, message string) (*domain.ChatMessage, error) {
	if playerID == "" {
		return nil, domain.NewValidationError("playerId", "is required")
	}
	if username == "" {
		return nil, domain.NewValidationError("username", "is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, domain.NewValidationError("message", "is required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	msg := &domain.ChatMessage{
		ID:        "msg_" + id.String(),
		PlayerID:  playerID,
		Username:  username,
		Message:   domain.TruncateMessage(message),
		Timestamp: s.now().UnixMilli(),
	}
	if err := store.SetJSON(ctx, s.store, store.ChatKey(msg.ID), msg); err != nil {
		return nil, fmt.Errorf("saving chat message: %w", err)
	}
	s.metrics.ChatMessageStored()

	if err := s.trim(ctx); err != nil {
		s.logger.Warn("failed to trim chat log", "error", err)
	}

	return msg, nil
}

// Messages returns the most recent messages, oldest first
func (s *ChatService) Messages(ctx context.Context) ([]domain.ChatLine, error) {
	msgs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(msgs) > domain.ChatReadLimit {
		msgs = msgs[len(msgs)-domain.ChatReadLimit:]
	}

	lines := make([]domain.ChatLine, len(msgs))
	for i, m := range msgs {
		lines[i] = domain.ChatLine{Username: m.Username, Message: m.Message}
	}
	return lines, nil
}

func (s *ChatService) trim(ctx context.Context) error {
	msgs, err := s.load(ctx)
	if err != nil {
		return err
	}
	if len(msgs) <= domain.ChatRetention {
		return nil
	}

	excess := msgs[:len(msgs)-domain.ChatRetention]
	keys := make([]string, len(excess))
	for i, m := range excess {
		keys[i] = store.ChatKey(m.ID)
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("deleting old chat messages: %w", err)
	}
	return nil
}

// load returns every stored message ordered by timestamp, then id
func (s *ChatService) load(ctx context.Context) ([]*domain.ChatMessage, error) {
	entries, err := s.store.ScanPrefix(ctx, store.ChatPrefix)
	if err != nil {
		return nil, fmt.Errorf("scanning chat messages: %w", err)
	}

	msgs := make([]*domain.ChatMessage, 0, len(entries))
	for _, e := range entries {
		m, err := decodeChatMessage(e.Value)
		if err != nil {
			s.logger.Warn("skipping unreadable chat message", "key", e.Key, "error", err)
			continue
		}
		msgs = append(msgs, m)
	}

	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].Timestamp != msgs[j].Timestamp {
			return msgs[i].Timestamp < msgs[j].Timestamp
		}
		return msgs[i].ID < msgs[j].ID
	})
	return msgs, nil
}
