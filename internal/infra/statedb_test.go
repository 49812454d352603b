package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, dir string) *StateDB {
	t.Helper()
	key, err := EnsureKey(dir)
	require.NoError(t, err)
	db, err := NewStateDB(dir, key)
	require.NoError(t, err)
	return db
}

func TestStateDB_SetGetDelete(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	_, ok, err := db.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Set("isBlocking", "true"))
	v, ok, err := db.Get("isBlocking")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	// Overwrite.
	require.NoError(t, db.Set("isBlocking", "false"))
	v, _, err = db.Get("isBlocking")
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	require.NoError(t, db.Delete("isBlocking"))
	_, ok, err = db.Get("isBlocking")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is fine.
	require.NoError(t, db.Delete("isBlocking"))
}

func TestStateDB_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db := openTestDB(t, dir)
	require.NoError(t, db.Set("dailyBlocked_2025-05-01", "3600"))
	require.NoError(t, db.Close())

	db = openTestDB(t, dir)
	defer db.Close()
	v, ok, err := db.Get("dailyBlocked_2025-05-01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3600", v)
}

func TestEnsureKey_StableAcrossCalls(t *testing.T) {
	dir := t.TempDir()

	k1, err := EnsureKey(dir)
	require.NoError(t, err)
	k2, err := EnsureKey(dir)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 32)
}

func TestEnsureKey_DiffersPerDataDir(t *testing.T) {
	k1, err := EnsureKey(t.TempDir())
	require.NoError(t, err)
	k2, err := EnsureKey(t.TempDir())
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}
