package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "astm-go.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	v1, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, v1)

	require.NoError(t, db.Migrate(ctx))
	v2, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestBootstrapCreatesActiveDefaultProfile(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	needs, err := db.NeedsBootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, needs)

	require.NoError(t, db.Bootstrap(ctx))

	needs, err = db.NeedsBootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, needs)

	store := NewProfileStore(db)
	active, err := store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultProfileName, active.Name)
	assert.True(t, active.IsActive)
	assert.Equal(t, 4010, active.ListenPort)

	// Bootstrap is a no-op once a profile exists.
	require.NoError(t, db.Bootstrap(ctx))
	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProfileStoreCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewProfileStore(db)

	created, err := store.Create(ctx, &Profile{
		Name:          "lab-a",
		ListenHost:    "127.0.0.1",
		ListenPort:    4011,
		MessageFormat: "astm",
		ConsumerName:  "lims",
		CaptureDir:    "captures",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	fetched, err := store.GetByName(ctx, "lab-a")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "astm", fetched.MessageFormat)

	fetched.ListenPort = 4012
	require.NoError(t, store.Update(ctx, fetched))

	reFetched, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 4012, reFetched.ListenPort)

	require.NoError(t, store.SetActive(ctx, created.ID))
	active, err := store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, active.ID)

	require.NoError(t, store.Delete(ctx, created.ID))
	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestGetByNameNotFound(t *testing.T) {
	db := openTestDB(t)
	store := NewProfileStore(db)

	_, err := store.GetByName(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
