package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/dmv-monitor/internal/db"
)

// Postgres backs the Store contract with the kv_entries and kv_list_entries
// tables. Expiry is enforced on read; stale rows are swept opportunistically
// on write.
type Postgres struct {
	db *db.DB
}

func NewPostgres(d *db.DB) *Postgres { return &Postgres{db: d} }

func (p *Postgres) Get(ctx context.Context, key string, dest any) error {
	var raw []byte
	err := p.db.QueryRow(ctx, `
SELECT value FROM kv_entries
WHERE key=$1 AND (expires_at IS NULL OR expires_at > now())`, key).Scan(&raw)
	if err != nil {
		if db.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("store get %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("store get %q: decode: %w", key, err)
	}
	return nil
}

func (p *Postgres) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store set %q: encode: %w", key, err)
	}

	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	if err := p.db.Exec(ctx, `
INSERT INTO kv_entries(key, value, expires_at, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (key) DO UPDATE SET value=$2, expires_at=$3, updated_at=now()`,
		key, raw, expiresAt); err != nil {
		return fmt.Errorf("store set %q: %w", key, err)
	}

	// Sweep expired rows while we hold a connection anyway.
	_ = p.db.Exec(ctx, `DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	return nil
}

func (p *Postgres) PushToList(ctx context.Context, listKey string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store push %q: encode: %w", listKey, err)
	}
	if err := p.db.Exec(ctx, `
INSERT INTO kv_list_entries(list_key, value) VALUES ($1, $2)`, listKey, raw); err != nil {
		return fmt.Errorf("store push %q: %w", listKey, err)
	}
	return nil
}

func (p *Postgres) TrimList(ctx context.Context, listKey string, start, stop int) error {
	if err := p.db.Exec(ctx, `
DELETE FROM kv_list_entries
WHERE list_key=$1 AND id NOT IN (
	SELECT id FROM kv_list_entries WHERE list_key=$1
	ORDER BY id DESC OFFSET $2 LIMIT $3
)`, listKey, start, stop-start+1); err != nil {
		return fmt.Errorf("store trim %q: %w", listKey, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, listKey string, start, stop int) ([]json.RawMessage, error) {
	rows, err := p.db.Query(ctx, `
SELECT value FROM kv_list_entries WHERE list_key=$1
ORDER BY id DESC OFFSET $2 LIMIT $3`, listKey, start, stop-start+1)
	if err != nil {
		return nil, fmt.Errorf("store list %q: %w", listKey, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store list %q: %w", listKey, err)
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, rows.Err()
}
