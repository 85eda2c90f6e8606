package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Memory is an in-process Store for tests and one-shot CLI runs. Now is
// overridable so expiry can be exercised without sleeping.
type Memory struct {
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
	lists   map[string][]json.RawMessage
}

type memoryEntry struct {
	value     json.RawMessage
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		Now:     time.Now,
		entries: make(map[string]memoryEntry),
		lists:   make(map[string][]json.RawMessage),
	}
}

func (m *Memory) Get(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return ErrNotFound
	}
	if !e.expiresAt.IsZero() && !m.Now().Before(e.expiresAt) {
		delete(m.entries, key)
		return ErrNotFound
	}
	return json.Unmarshal(e.value, dest)
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: raw, expiresAt: expiresAt}
	return nil
}

func (m *Memory) PushToList(_ context.Context, listKey string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[listKey] = append([]json.RawMessage{raw}, m.lists[listKey]...)
	return nil
}

func (m *Memory) TrimList(_ context.Context, listKey string, start, stop int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[listKey]
	if start >= len(list) {
		m.lists[listKey] = nil
		return nil
	}
	if stop >= len(list) {
		stop = len(list) - 1
	}
	m.lists[listKey] = list[start : stop+1]
	return nil
}

func (m *Memory) List(_ context.Context, listKey string, start, stop int) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[listKey]
	if start >= len(list) {
		return nil, nil
	}
	if stop >= len(list) {
		stop = len(list) - 1
	}
	out := make([]json.RawMessage, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}
