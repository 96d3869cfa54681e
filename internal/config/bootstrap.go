package config

import (
	"context"
	"fmt"
)

const defaultProfileName = "default"

// NeedsBootstrap reports whether no server profile exists yet.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM server_profiles`).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("config: count profiles: %w", err)
	}
	return count == 0, nil
}

// Bootstrap creates a default profile with the package defaults on first
// run (spec §3), activating it immediately.
func (db *DB) Bootstrap(ctx context.Context) error {
	needs, err := db.NeedsBootstrap(ctx)
	if err != nil {
		return err
	}
	if !needs {
		return nil
	}

	store := NewProfileStore(db)
	p, err := store.Create(ctx, &Profile{
		Name:             defaultProfileName,
		ListenHost:       "0.0.0.0",
		ListenPort:       4010,
		MessageFormat:    "lis2a",
		ConsumerName:     "senaite.core.lis2a.import",
		CaptureDir:       "astm_messages",
		LIMSRetries:      3,
		LIMSRetryDelayMS: 5000,
	})
	if err != nil {
		return fmt.Errorf("config: create default profile: %w", err)
	}
	return store.SetActive(ctx, p.ID)
}
