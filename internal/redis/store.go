package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"

	"github.com/quiz-world/internal/config"
	"github.com/quiz-world/internal/store"
	"github.com/redis/go-redis/v9"
)

// Store is a Redis-backed store.PresenceStore
type Store struct {
	client    *redis.Client
	scanCount int64
	logger    *slog.Logger
}

var _ store.PresenceStore = (*Store)(nil)

// NewStore connects to Redis and verifies the connection
func NewStore(cfg *config.RedisConfig, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewStoreFromClient(client, cfg.ScanCount, logger), nil
}

// NewStoreFromClient wraps an existing client
func NewStoreFromClient(client *redis.Client, scanCount int64, logger *slog.Logger) *Store {
	if scanCount <= 0 {
		scanCount = 200
	}
	return &Store{
		client:    client,
		scanCount: scanCount,
		logger:    logger,
	}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client
func (s *Store) Client() *redis.Client {
	return s.client
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// Get returns the raw record stored at key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	return val, nil
}

// MGet returns the records for keys, nil for missing ones
func (s *Store) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("multi-getting %d keys: %w", len(keys), err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[i] = []byte(str)
		}
	}
	return out, nil
}

// Set stores value at key without expiry
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// Delete removes keys
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting %d keys: %w", len(keys), err)
	}
	return nil
}

// ScanPrefix walks the keyspace with SCAN MATCH prefix* and loads the values
func (s *Store) ScanPrefix(ctx context.Context, prefix string) ([]store.Entry, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", s.scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	// SCAN may return duplicates
	sort.Strings(keys)
	keys = dedupSorted(keys)

	vals, err := s.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	entries := make([]store.Entry, 0, len(keys))
	for i, key := range keys {
		if vals[i] == nil {
			// deleted between SCAN and MGET
			continue
		}
		entries = append(entries, store.Entry{Key: key, Value: vals[i]})
	}
	return entries, nil
}

// IndexAdd sets member's score in a sorted set
func (s *Store) IndexAdd(ctx context.Context, index, member string, score float64) error {
	err := s.client.ZAdd(ctx, index, redis.Z{
		Score:  score,
		Member: member,
	}).Err()
	if err != nil {
		return fmt.Errorf("indexing %s in %s: %w", member, index, err)
	}
	return nil
}

// IndexRange returns members with scores in [min, max], ascending
func (s *Store) IndexRange(ctx context.Context, index string, min, max float64) ([]string, error) {
	members, err := s.client.ZRangeByScore(ctx, index, &redis.ZRangeBy{
		Min: formatScore(min),
		Max: formatScore(max),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("ranging %s: %w", index, err)
	}
	return members, nil
}

// IndexRemove drops members from a sorted set
func (s *Store) IndexRemove(ctx context.Context, index string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := s.client.ZRem(ctx, index, args...).Err(); err != nil {
		return fmt.Errorf("removing from %s: %w", index, err)
	}
	return nil
}

func formatScore(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dedupSorted(keys []string) []string {
	out := keys[:0]
	for i, k := range keys {
		if i > 0 && k == keys[i-1] {
			continue
		}
		out = append(out, k)
	}
	return out
}
