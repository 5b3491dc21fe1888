package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "player:a")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "player:a", []byte(`{"id":"a"}`)))
	got, err := m.Get(ctx, "player:a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a"}`, string(got))

	require.NoError(t, m.Delete(ctx, "player:a", "missing"))
	_, err = m.Get(ctx, "player:a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryScanPrefixIsKeyOrdered(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "gym:b", []byte("2")))
	require.NoError(t, m.Set(ctx, "gym:a", []byte("1")))
	require.NoError(t, m.Set(ctx, "chat:x", []byte("3")))

	entries, err := m.ScanPrefix(ctx, GymPrefix)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "gym:a", entries[0].Key)
	assert.Equal(t, "gym:b", entries[1].Key)
	assert.Equal(t, 2, m.Len(GymPrefix))
}

func TestMemoryMGetLeavesMissingNil(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k1", []byte("v1")))

	vals, err := m.MGet(ctx, "k1", "k2")
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, []byte("v1"), vals[0])
	assert.Nil(t, vals[1])
}

func TestMemoryIndexRange(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.IndexAdd(ctx, PresenceIndex, "old", 10))
	require.NoError(t, m.IndexAdd(ctx, PresenceIndex, "new", 30))
	require.NoError(t, m.IndexAdd(ctx, PresenceIndex, "mid", 20))

	members, err := m.IndexRange(ctx, PresenceIndex, 15, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"mid", "new"}, members)

	require.NoError(t, m.IndexAdd(ctx, PresenceIndex, "old", 40))
	members, err = m.IndexRange(ctx, PresenceIndex, 15, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"mid", "new", "old"}, members)

	require.NoError(t, m.IndexRemove(ctx, PresenceIndex, "mid"))
	members, err = m.IndexRange(ctx, PresenceIndex, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, members)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	type rec struct {
		ID    string `json:"id"`
		Score int    `json:"score"`
	}
	require.NoError(t, SetJSON(ctx, m, GymKey("p1"), rec{ID: "p1", Score: 9}))

	var got rec
	require.NoError(t, GetJSON(ctx, m, GymKey("p1"), &got))
	assert.Equal(t, rec{ID: "p1", Score: 9}, got)

	err := GetJSON(ctx, m, GymKey("p2"), &got)
	assert.ErrorIs(t, err, ErrNotFound)
}
