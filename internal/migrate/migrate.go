// Package migrate bootstraps the key-value schema. Statements are idempotent
// so running on every startup is safe.
package migrate

import (
	"context"

	"github.com/example/dmv-monitor/internal/db"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key TEXT PRIMARY KEY,
	value JSONB NOT NULL,
	expires_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS kv_list_entries (
	id BIGSERIAL PRIMARY KEY,
	list_key TEXT NOT NULL,
	value JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_kv_list_entries_key ON kv_list_entries(list_key, id DESC);
`

func Up(ctx context.Context, d *db.DB) error {
	return d.Exec(ctx, schemaSQL)
}
