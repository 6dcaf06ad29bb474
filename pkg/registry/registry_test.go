package registry

import (
	"testing"

	"github.com/cuemby/aegis/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	db := openTestDB(t)

	var first, second uint64
	err := db.Update(func(tx *bolt.Tx) error {
		var err error
		first, err = Create(tx, "user:alice")
		if err != nil {
			return err
		}
		second, err = Create(tx, "user:bob")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestLabelAndIDRoundTrip(t *testing.T) {
	db := openTestDB(t)

	var id uint64
	err := db.Update(func(tx *bolt.Tx) error {
		var err error
		id, err = Create(tx, "user:alice")
		return err
	})
	require.NoError(t, err)

	err = db.View(func(tx *bolt.Tx) error {
		label, err := Label(tx, id)
		require.NoError(t, err)
		assert.Equal(t, "user:alice", label)

		gotID, err := ID(tx, "user:alice")
		require.NoError(t, err)
		assert.Equal(t, id, gotID)
		return nil
	})
	require.NoError(t, err)
}

func TestRenameUpdatesBothDirections(t *testing.T) {
	db := openTestDB(t)

	var id uint64
	err := db.Update(func(tx *bolt.Tx) error {
		var err error
		id, err = Create(tx, "user:alice")
		if err != nil {
			return err
		}
		return Rename(tx, id, "user:alice2")
	})
	require.NoError(t, err)

	err = db.View(func(tx *bolt.Tx) error {
		_, err := ID(tx, "user:alice")
		assert.Error(t, err)

		gotID, err := ID(tx, "user:alice2")
		require.NoError(t, err)
		assert.Equal(t, id, gotID)
		return nil
	})
	require.NoError(t, err)
}

func TestDeleteRemovesBothDirections(t *testing.T) {
	db := openTestDB(t)

	var id uint64
	err := db.Update(func(tx *bolt.Tx) error {
		var err error
		id, err = Create(tx, "user:alice")
		if err != nil {
			return err
		}
		return Delete(tx, id)
	})
	require.NoError(t, err)

	err = db.View(func(tx *bolt.Tx) error {
		_, err := Label(tx, id)
		assert.Error(t, err)
		_, err = ID(tx, "user:alice")
		assert.Error(t, err)
		return nil
	})
	require.NoError(t, err)
}

func TestEnsureIDIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	var first, second uint64
	err := db.Update(func(tx *bolt.Tx) error {
		var err error
		first, err = EnsureID(tx, "user:alice")
		if err != nil {
			return err
		}
		second, err = EnsureID(tx, "user:alice")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
