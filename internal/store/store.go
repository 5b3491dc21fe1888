// Package store defines the flat key-value contract the presence protocol runs on.
//
// Records are opaque JSON documents addressed by string keys in one namespace.
// There are no multi-key transactions: every write is last-write-wins. Indexes
// are optional score-ordered sets that let callers avoid full prefix scans.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("store: key not found")

// Key prefixes of the shared namespace.
const (
	PlayerPrefix  = "player:"
	ChatPrefix    = "chat:"
	GymPrefix     = "gym:"
	AccountPrefix = "account:"

	PresenceIndex = "index:presence"
)

// Entry is a key and its raw record as returned by a prefix scan.
type Entry struct {
	Key   string
	Value []byte
}

// PresenceStore is a durable mapping from key to JSON record.
type PresenceStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one slot per key; missing keys yield nil.
	MGet(ctx context.Context, keys ...string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	// ScanPrefix returns every entry whose key starts with prefix, ordered by key.
	ScanPrefix(ctx context.Context, prefix string) ([]Entry, error)

	IndexAdd(ctx context.Context, index, member string, score float64) error
	// IndexRange returns members with min <= score <= max in ascending score order.
	IndexRange(ctx context.Context, index string, min, max float64) ([]string, error)
	IndexRemove(ctx context.Context, index string, members ...string) error

	Ping(ctx context.Context) error
	Close() error
}

// PlayerKey returns the key of a player record.
func PlayerKey(id string) string { return PlayerPrefix + id }

// ChatKey returns the key of a chat record.
func ChatKey(id string) string { return ChatPrefix + id }

// GymKey returns the key of a gym entry.
func GymKey(playerID string) string { return GymPrefix + playerID }

// AccountKey returns the key of a username pointer.
func AccountKey(normalizedUsername string) string { return AccountPrefix + normalizedUsername }

// GetJSON loads key and decodes it into dst.
func GetJSON(ctx context.Context, s PresenceStore, key string, dst any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s PresenceStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
