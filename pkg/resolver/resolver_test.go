package resolver

import (
	"testing"

	"github.com/cuemby/aegis/pkg/storage"
	"github.com/cuemby/aegis/pkg/txn"
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

func TestGetMaskDirectGrant(t *testing.T) {
	db := openTestDB(t)
	var subject, object uint64

	err := txn.Transact(db, func(tx *txn.Tx) error {
		var err error
		subject, err = tx.CreateEntity("user:alice")
		if err != nil {
			return err
		}
		object, err = tx.CreateEntity("resource:doc1")
		if err != nil {
			return err
		}
		return tx.Grant(subject, object, 0x1)
	})
	require.NoError(t, err)

	err = db.View(func(bt *bolt.Tx) error {
		assert.Equal(t, uint64(0x1), GetMask(bt, subject, object))
		assert.True(t, Check(bt, subject, object, 0x1))
		assert.False(t, Check(bt, subject, object, 0x2))
		return nil
	})
	require.NoError(t, err)
}

func TestGetMaskViaRole(t *testing.T) {
	db := openTestDB(t)
	var subject, object uint64
	const roleID = 7

	err := txn.Transact(db, func(tx *txn.Tx) error {
		var err error
		subject, err = tx.CreateEntity("user:alice")
		if err != nil {
			return err
		}
		object, err = tx.CreateEntity("resource:doc1")
		if err != nil {
			return err
		}
		if err := tx.SetRole(object, roleID, 0x7); err != nil {
			return err
		}
		return tx.Grant(subject, object, roleID)
	})
	require.NoError(t, err)

	err = db.View(func(bt *bolt.Tx) error {
		assert.Equal(t, uint64(0x7), GetMask(bt, subject, object))
		return nil
	})
	require.NoError(t, err)
}

func TestGetMaskUndefinedRoleFallsBackToRawMask(t *testing.T) {
	db := openTestDB(t)
	var subject, object uint64

	err := txn.Transact(db, func(tx *txn.Tx) error {
		var err error
		subject, err = tx.CreateEntity("user:alice")
		if err != nil {
			return err
		}
		object, err = tx.CreateEntity("resource:doc1")
		if err != nil {
			return err
		}
		// grant value 0x3 names no role on object, so it is used directly as a mask.
		return tx.Grant(subject, object, 0x3)
	})
	require.NoError(t, err)

	err = db.View(func(bt *bolt.Tx) error {
		assert.Equal(t, uint64(0x3), GetMask(bt, subject, object))
		return nil
	})
	require.NoError(t, err)
}

func TestGetMaskWalksInheritance(t *testing.T) {
	db := openTestDB(t)
	var grandparent, parent, child, object uint64

	err := txn.Transact(db, func(tx *txn.Tx) error {
		var err error
		grandparent, err = tx.CreateEntity("user:admin")
		if err != nil {
			return err
		}
		parent, err = tx.CreateEntity("team:eng")
		if err != nil {
			return err
		}
		child, err = tx.CreateEntity("user:alice")
		if err != nil {
			return err
		}
		object, err = tx.CreateEntity("resource:doc1")
		if err != nil {
			return err
		}
		if err := tx.Grant(grandparent, object, 0x4); err != nil {
			return err
		}
		if err := tx.SetInherit(object, parent, grandparent); err != nil {
			return err
		}
		return tx.SetInherit(object, child, parent)
	})
	require.NoError(t, err)

	err = db.View(func(bt *bolt.Tx) error {
		assert.Equal(t, uint64(0x4), GetMask(bt, child, object))
		return nil
	})
	require.NoError(t, err)
}

func TestSetInheritRejectsSelfReference(t *testing.T) {
	db := openTestDB(t)

	err := txn.Transact(db, func(tx *txn.Tx) error {
		object, err := tx.CreateEntity("resource:doc1")
		if err != nil {
			return err
		}
		entity, err := tx.CreateEntity("user:alice")
		if err != nil {
			return err
		}
		return tx.SetInherit(object, entity, entity)
	})
	assert.Error(t, err)
}

func TestSetInheritRejectsCycle(t *testing.T) {
	db := openTestDB(t)

	err := txn.Transact(db, func(tx *txn.Tx) error {
		object, err := tx.CreateEntity("resource:doc1")
		if err != nil {
			return err
		}
		a, err := tx.CreateEntity("user:a")
		if err != nil {
			return err
		}
		b, err := tx.CreateEntity("user:b")
		if err != nil {
			return err
		}
		if err := tx.SetInherit(object, a, b); err != nil {
			return err
		}
		return tx.SetInherit(object, b, a)
	})
	assert.Error(t, err)
}

func TestRevokeAlsoRemovesInheritanceEdge(t *testing.T) {
	db := openTestDB(t)
	var subject, parent, object uint64

	err := txn.Transact(db, func(tx *txn.Tx) error {
		var err error
		subject, err = tx.CreateEntity("user:alice")
		if err != nil {
			return err
		}
		parent, err = tx.CreateEntity("team:eng")
		if err != nil {
			return err
		}
		object, err = tx.CreateEntity("resource:doc1")
		if err != nil {
			return err
		}
		if err := tx.Grant(subject, object, 0x1); err != nil {
			return err
		}
		if err := tx.SetInherit(object, subject, parent); err != nil {
			return err
		}
		_, err = tx.Revoke(subject, object)
		return err
	})
	require.NoError(t, err)

	err = db.View(func(bt *bolt.Tx) error {
		_, ok := GetInherit(bt, object, subject)
		assert.False(t, ok)
		assert.Equal(t, uint64(0), GetMask(bt, subject, object))
		return nil
	})
	require.NoError(t, err)
}
