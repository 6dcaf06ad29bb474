package bootstrap

import (
	"testing"

	"github.com/cuemby/aegis/pkg/gate"
	"github.com/cuemby/aegis/pkg/registry"
	"github.com/cuemby/aegis/pkg/resolver"
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

func TestIsBootstrappedFalseBeforeBootstrap(t *testing.T) {
	db := openTestDB(t)
	done, err := IsBootstrapped(db)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestBootstrapGrantsRootFullAccess(t *testing.T) {
	db := openTestDB(t)

	epoch, err := Bootstrap(db, "root", 1700000000000)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), epoch)

	done, err := IsBootstrapped(db)
	require.NoError(t, err)
	assert.True(t, done)

	rootLabel, ok, err := GetRootEntity(db)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user:root", rootLabel)

	err = db.View(func(bt *bolt.Tx) error {
		rootID, err := registry.ID(bt, "user:root")
		require.NoError(t, err)

		metaType, err := registry.ID(bt, "_type:_type")
		require.NoError(t, err)
		assert.True(t, resolver.Check(bt, rootID, metaType, gate.TypeAdmin))

		userType, err := registry.ID(bt, "_type:user")
		require.NoError(t, err)
		assert.True(t, resolver.Check(bt, rootID, userType, gate.EntityAdmin|gate.PasswordAdmin))

		teamType, err := registry.ID(bt, "_type:team")
		require.NoError(t, err)
		assert.True(t, resolver.Check(bt, rootID, teamType, gate.EntityAdmin))
		assert.False(t, resolver.Check(bt, rootID, teamType, gate.PasswordAdmin))
		return nil
	})
	require.NoError(t, err)
}

func TestBootstrapRejectsSecondCall(t *testing.T) {
	db := openTestDB(t)
	_, err := Bootstrap(db, "root", 1)
	require.NoError(t, err)

	_, err = Bootstrap(db, "root", 2)
	assert.Error(t, err)
}

func TestBootstrapRegistersBitLabels(t *testing.T) {
	db := openTestDB(t)
	_, err := Bootstrap(db, "root", 1)
	require.NoError(t, err)

	err = db.View(func(bt *bolt.Tx) error {
		for bit, name := range gate.BitLabels {
			got := bt.Bucket(storage.BucketBitLabels).Get([]byte{byte(bit)})
			assert.Equal(t, name, string(got))
		}
		return nil
	})
	require.NoError(t, err)
}
