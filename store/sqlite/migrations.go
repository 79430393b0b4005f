package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Bazaar store (SQLite).
var Migrations = migrate.NewGroup("bazaar")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_bazaar_creators",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_creators (
    principal      TEXT PRIMARY KEY,
    handle         TEXT NOT NULL DEFAULT '',
    content_count  INTEGER NOT NULL DEFAULT 0,
    total_earnings INTEGER NOT NULL DEFAULT 0,
    verified       INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bazaar_creators_handle ON bazaar_creators (handle);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_creators`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bazaar_content",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_content (
    id             INTEGER PRIMARY KEY,
    creator        TEXT NOT NULL DEFAULT '',
    title          TEXT NOT NULL DEFAULT '',
    description    TEXT NOT NULL DEFAULT '',
    content_ref    TEXT NOT NULL DEFAULT '',
    price          INTEGER NOT NULL DEFAULT 0,
    purchase_count INTEGER NOT NULL DEFAULT 0,
    total_earnings INTEGER NOT NULL DEFAULT 0,
    active         INTEGER NOT NULL DEFAULT 1,
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bazaar_content_creator ON bazaar_content (creator, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_content`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bazaar_purchases",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_purchases (
    buyer        TEXT NOT NULL,
    content_id   INTEGER NOT NULL,
    receipt_id   TEXT NOT NULL DEFAULT '',
    purchased_at TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (buyer, content_id)
);

CREATE INDEX IF NOT EXISTS idx_bazaar_purchases_buyer ON bazaar_purchases (buyer, purchased_at);
CREATE INDEX IF NOT EXISTS idx_bazaar_purchases_content ON bazaar_purchases (content_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_purchases`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bazaar_platform",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bazaar_platform (
    id              INTEGER PRIMARY KEY CHECK (id = 1),
    owner           TEXT NOT NULL DEFAULT '',
    fee_balance     INTEGER NOT NULL DEFAULT 0,
    content_counter INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

INSERT OR IGNORE INTO bazaar_platform (id) VALUES (1);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bazaar_platform`)
				return err
			},
		},
	)
}
