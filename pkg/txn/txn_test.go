package txn

import (
	"errors"
	"testing"

	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/cuemby/aegis/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateRenameDeleteEntity(t *testing.T) {
	db := openTestDB(t)
	var id uint64
	require.NoError(t, Transact(db, func(tx *Tx) error {
		var err error
		id, err = tx.CreateEntity("user:alice")
		return err
	}))
	assert.NotZero(t, id)

	require.NoError(t, Transact(db, func(tx *Tx) error {
		return tx.RenameEntity(id, "user:alicia")
	}))

	require.NoError(t, Transact(db, func(tx *Tx) error {
		return tx.DeleteEntity(id)
	}))
}

func TestGrantAndGrantSet(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		require.NoError(t, tx.Grant(1, 100, 0x01))
		require.NoError(t, tx.Grant(1, 100, 0x02))
		assert.Equal(t, uint64(0x03), storage.Caps.Get(tx.Bolt(), 1, 100))

		require.NoError(t, tx.GrantSet(1, 100, 0x04))
		assert.Equal(t, uint64(0x04), storage.Caps.Get(tx.Bolt(), 1, 100))
		return nil
	}))
}

func TestRevokeRemovesGrantAndInheritanceEdge(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		require.NoError(t, tx.Grant(1, 100, 0x01))
		require.NoError(t, tx.SetInherit(100, 1, 2))

		existed, err := tx.Revoke(1, 100)
		require.NoError(t, err)
		assert.True(t, existed)

		assert.Equal(t, uint64(0), storage.Caps.Get(tx.Bolt(), 1, 100))
		_, ok := storage.GetPair(tx.Bolt(), storage.BucketInherit, 100, 1)
		assert.False(t, ok)
		return nil
	}))
}

func TestRevokeNonexistentReportsNotExisted(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		existed, err := tx.Revoke(1, 100)
		require.NoError(t, err)
		assert.False(t, existed)
		return nil
	}))
}

func TestSetRoleAndGetRole(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		require.NoError(t, tx.SetRole(100, 5, 0x0F))
		assert.Equal(t, uint64(0x0F), tx.GetRole(100, 5))
		return nil
	}))
}

func TestGetRoleFallsBackToRawMaskWhenUndefined(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		assert.Equal(t, uint64(0x02), tx.GetRole(100, 0x02))
		return nil
	}))
}

func TestSetInheritRejectsSelfReference(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		err := tx.SetInherit(100, 1, 1)
		assert.True(t, errors.Is(err, aegiserr.ErrSelfReference))
		return nil
	}))
}

func TestSetInheritRejectsCycle(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		require.NoError(t, tx.SetInherit(100, 1, 2))
		require.NoError(t, tx.SetInherit(100, 2, 3))

		err := tx.SetInherit(100, 3, 1)
		assert.True(t, errors.Is(err, aegiserr.ErrCircularReference))
		return nil
	}))
}

func TestSetInheritAllowsDiamondNonCycle(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		require.NoError(t, tx.SetInherit(100, 1, 3))
		require.NoError(t, tx.SetInherit(100, 2, 3))
		return nil
	}))
}

func TestSetInheritHandlesChainAtMaxDepth(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		var prev uint64 = 0
		for i := uint64(1); i <= MaxInheritanceDepth; i++ {
			require.NoError(t, tx.SetInherit(100, i, prev))
			prev = i
		}
		return nil
	}))
}

func TestRemoveInherit(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		require.NoError(t, tx.SetInherit(100, 1, 2))
		existed, err := tx.RemoveInherit(100, 1)
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = tx.RemoveInherit(100, 1)
		require.NoError(t, err)
		assert.False(t, existed)
		return nil
	}))
}

func TestSetLabel(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		id, err := tx.CreateEntity("team:sales")
		require.NoError(t, err)
		require.NoError(t, tx.SetLabel(id, "team:sales-renamed"))
		return nil
	}))
}

func TestSetAndGetMeta(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		require.NoError(t, tx.SetMeta("epoch", "1700000000000"))
		v, ok := tx.GetMeta("epoch")
		require.True(t, ok)
		assert.Equal(t, "1700000000000", v)

		_, ok = tx.GetMeta("missing")
		assert.False(t, ok)
		return nil
	}))
}

func TestSetBitLabel(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Transact(db, func(tx *Tx) error {
		return tx.SetBitLabel(0, "type-create")
	}))
}

func TestTransactRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	sentinel := errors.New("boom")
	err := Transact(db, func(tx *Tx) error {
		require.NoError(t, tx.Grant(1, 100, 0x01))
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	require.NoError(t, Transact(db, func(tx *Tx) error {
		assert.Equal(t, uint64(0), storage.Caps.Get(tx.Bolt(), 1, 100))
		return nil
	}))
}
