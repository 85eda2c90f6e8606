package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var got string
	assert.ErrorIs(t, m.Get(ctx, "missing", &got), ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	require.NoError(t, m.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)

	// Overwrite in place.
	require.NoError(t, m.Set(ctx, "k", "v2", 0))
	require.NoError(t, m.Get(ctx, "k", &got))
	assert.Equal(t, "v2", got)
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	current := time.Date(2026, time.June, 16, 9, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return current }

	require.NoError(t, m.Set(ctx, "k", 42, time.Hour))

	var got int
	require.NoError(t, m.Get(ctx, "k", &got))
	assert.Equal(t, 42, got)

	current = current.Add(time.Hour)
	assert.ErrorIs(t, m.Get(ctx, "k", &got), ErrNotFound)
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	current := time.Date(2026, time.June, 16, 9, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return current }

	require.NoError(t, m.Set(ctx, "k", 1, 0))
	current = current.Add(1000 * time.Hour)

	var got int
	require.NoError(t, m.Get(ctx, "k", &got))
}

func TestMemoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 1; i <= 3; i++ {
		require.NoError(t, m.PushToList(ctx, "l", i))
	}

	entries, err := m.List(ctx, "l", 0, 99)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var first int
	require.NoError(t, json.Unmarshal(entries[0], &first))
	assert.Equal(t, 3, first)
}

func TestMemoryTrimKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 1; i <= 10; i++ {
		require.NoError(t, m.PushToList(ctx, "l", i))
	}
	require.NoError(t, m.TrimList(ctx, "l", 0, 4))

	entries, err := m.List(ctx, "l", 0, 99)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	var newest, oldest int
	require.NoError(t, json.Unmarshal(entries[0], &newest))
	require.NoError(t, json.Unmarshal(entries[4], &oldest))
	assert.Equal(t, 10, newest)
	assert.Equal(t, 6, oldest)
}

func TestMemoryListRangeBeyondLength(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	entries, err := m.List(ctx, "empty", 0, 99)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, m.TrimList(ctx, "empty", 0, 99))
}
