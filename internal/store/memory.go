package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process PresenceStore used for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	data    map[string][]byte
	indexes map[string]map[string]float64
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		data:    make(map[string][]byte),
		indexes: make(map[string]map[string]float64),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *Memory) MGet(_ context.Context, keys ...string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := m.data[k]; ok {
			out[i] = slices.Clone(v)
		}
	}
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *Memory) ScanPrefix(_ context.Context, prefix string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, Entry{Key: k, Value: slices.Clone(v)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) IndexAdd(_ context.Context, index, member string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.indexes[index]
	if !ok {
		set = make(map[string]float64)
		m.indexes[index] = set
	}
	set[member] = score
	return nil
}

func (m *Memory) IndexRange(_ context.Context, index string, min, max float64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type scored struct {
		member string
		score  float64
	}
	var hits []scored
	for member, score := range m.indexes[index] {
		if score >= min && score <= max {
			hits = append(hits, scored{member, score})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score < hits[j].score
		}
		return hits[i].member < hits[j].member
	})
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.member
	}
	return out, nil
}

func (m *Memory) IndexRemove(_ context.Context, index string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.indexes[index]
	for _, member := range members {
		delete(set, member)
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// Len returns the number of stored keys with prefix
func (m *Memory) Len(prefix string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}
