package config

import (
	"context"
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS server_profiles (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    name             TEXT NOT NULL UNIQUE,
    is_active        INTEGER NOT NULL DEFAULT 0,
    listen_host      TEXT NOT NULL DEFAULT '0.0.0.0',
    listen_port      INTEGER NOT NULL DEFAULT 4010,
    message_format   TEXT NOT NULL DEFAULT 'lis2a',
    consumer_name    TEXT NOT NULL DEFAULT 'file',
    capture_dir      TEXT NOT NULL DEFAULT 'astm_messages',
    lims_url         TEXT NOT NULL DEFAULT '',
    lims_retries     INTEGER NOT NULL DEFAULT 3,
    lims_retry_delay_ms INTEGER NOT NULL DEFAULT 5000,
    verbose          INTEGER NOT NULL DEFAULT 0,
    logfile          TEXT NOT NULL DEFAULT '',
    created_at       TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_server_profiles_active ON server_profiles(is_active);
`

// Migrate brings the schema up to currentSchemaVersion.
func (db *DB) Migrate(ctx context.Context) error {
	version, err := db.getSchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("config: get schema version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}
	if version < 1 {
		if err := db.applySchemaV1(ctx); err != nil {
			return fmt.Errorf("config: apply schema v1: %w", err)
		}
	}
	return nil
}

func (db *DB) getSchemaVersion(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&count)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	var version int
	err = db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	return version, err
}

func (db *DB) applySchemaV1(ctx context.Context) error {
	return db.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
			return fmt.Errorf("config: execute schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (1)`); err != nil {
			return fmt.Errorf("config: record schema version: %w", err)
		}
		return nil
	})
}

// SchemaVersion returns the database's current schema version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	return db.getSchemaVersion(ctx)
}
