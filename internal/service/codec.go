package service

import (
	"encoding/json"
	"fmt"

	"github.com/quiz-world/internal/domain"
)

func decodePlayer(raw []byte) (*domain.Player, error) {
	var p domain.Player
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding player: %w", err)
	}
	p.Normalize()
	return &p, nil
}

func decodeGymEntry(raw []byte) (*domain.GymEntry, error) {
	var e domain.GymEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decoding gym entry: %w", err)
	}
	return &e, nil
}

func decodeChatMessage(raw []byte) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding chat message: %w", err)
	}
	return &m, nil
}
