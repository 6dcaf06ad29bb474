package storage

import (
	"errors"
	"testing"

	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestParseEntityID(t *testing.T) {
	id, err := ParseEntityID("user:alice")
	require.NoError(t, err)
	assert.Equal(t, EntityID{Type: "user", ID: "alice"}, id)
	assert.Equal(t, "user:alice", id.String())
	assert.Equal(t, EntityID{Type: "_type", ID: "user"}, id.MetaType())
	assert.False(t, id.IsMetaType())
}

func TestParseEntityIDRejectsMalformed(t *testing.T) {
	cases := []string{"", "noseparator", ":novalue", "user:", string([]byte{0xff})}
	for _, c := range cases {
		_, err := ParseEntityID(c)
		assert.True(t, errors.Is(err, aegiserr.ErrEntityIDMalformed), "expected ErrEntityIDMalformed for %q", c)
	}
}

func TestParseEntityIDRejectsOversizeType(t *testing.T) {
	huge := make([]byte, MaxEntityTypeLen+1)
	for i := range huge {
		huge[i] = 'a'
	}
	_, err := ParseEntityID(string(huge) + ":x")
	assert.True(t, errors.Is(err, aegiserr.ErrEntityIDMalformed))
}

func TestIsMetaType(t *testing.T) {
	id, err := ParseEntityID("_type:user")
	require.NoError(t, err)
	assert.True(t, id.IsMetaType())
}

func TestEncodeDecodePartsRoundTrip(t *testing.T) {
	encoded := EncodeParts("user:alice", "1000", "2000")
	parts := DecodeParts(encoded)
	assert.Equal(t, []string{"user:alice", "1000", "2000"}, parts)
}

func TestPartAt(t *testing.T) {
	encoded := EncodeParts("a", "bb", "ccc")
	v, ok := PartAt(encoded, 1)
	require.True(t, ok)
	assert.Equal(t, "bb", v)

	_, ok = PartAt(encoded, 5)
	assert.False(t, ok)
}

func TestDecodePartsHandlesTruncatedInput(t *testing.T) {
	encoded := EncodeParts("hello", "world")
	truncated := encoded[:len(encoded)-2]
	parts := DecodeParts(truncated)
	assert.Equal(t, []string{"hello"}, parts)
}

func TestEncodeDecodePairRoundTrip(t *testing.T) {
	key := EncodePair(42, 99)
	a, b, ok := DecodePair(key[:])
	require.True(t, ok)
	assert.Equal(t, uint64(42), a)
	assert.Equal(t, uint64(99), b)
}

func TestDecodePairRejectsWrongLength(t *testing.T) {
	_, _, ok := DecodePair([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestEncodeDecodeU64RoundTrip(t *testing.T) {
	enc := EncodeU64(123456789)
	v, ok := DecodeU64(enc[:])
	require.True(t, ok)
	assert.Equal(t, uint64(123456789), v)
}

func TestPutGetU64(t *testing.T) {
	db := openTestDB(t)
	err := db.Update(func(tx *bolt.Tx) error {
		require.NoError(t, PutU64(tx, BucketMeta, []byte("k"), 7))
		v, ok := GetU64(tx, BucketMeta, []byte("k"))
		assert.True(t, ok)
		assert.Equal(t, uint64(7), v)
		assert.True(t, Exists(tx, BucketMeta, []byte("k")))
		assert.False(t, Exists(tx, BucketMeta, []byte("missing")))
		return nil
	})
	require.NoError(t, err)
}

func TestPutGetDeletePair(t *testing.T) {
	db := openTestDB(t)
	err := db.Update(func(tx *bolt.Tx) error {
		require.NoError(t, PutPair(tx, BucketRoles, 1, 2, 0xFF))
		v, ok := GetPair(tx, BucketRoles, 1, 2)
		require.True(t, ok)
		assert.Equal(t, uint64(0xFF), v)

		existed, err := DeletePair(tx, BucketRoles, 1, 2)
		require.NoError(t, err)
		assert.True(t, existed)

		_, ok = GetPair(tx, BucketRoles, 1, 2)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestPutMarker(t *testing.T) {
	db := openTestDB(t)
	err := db.Update(func(tx *bolt.Tx) error {
		key := EncodeParts("user:alice", "abc123")
		require.NoError(t, PutMarker(tx, BucketSessionsByEntity, key))
		assert.True(t, Exists(tx, BucketSessionsByEntity, key))
		return nil
	})
	require.NoError(t, err)
}

func TestForEachPrefixAndCountPrefix(t *testing.T) {
	db := openTestDB(t)
	err := db.Update(func(tx *bolt.Tx) error {
		prefix := EncodeU64(10)
		for i := uint64(0); i < 3; i++ {
			require.NoError(t, PutPair(tx, BucketRoles, 10, i, i*10))
		}
		require.NoError(t, PutPair(tx, BucketRoles, 99, 0, 1))

		assert.Equal(t, 3, CountPrefix(tx, BucketRoles, prefix[:]))

		var seen int
		err := ForEachPrefix(tx, BucketRoles, prefix[:], func(k, v []byte) error {
			seen++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, seen)
		return nil
	})
	require.NoError(t, err)
}

func TestBiPairForwardAndReverse(t *testing.T) {
	db := openTestDB(t)
	err := db.Update(func(tx *bolt.Tx) error {
		require.NoError(t, Caps.Put(tx, 1, 100, 0x01))
		require.NoError(t, Caps.Put(tx, 2, 100, 0x02))

		assert.Equal(t, uint64(0x01), Caps.Get(tx, 1, 100))

		forward, err := Caps.ListForward(tx, 1)
		require.NoError(t, err)
		require.Len(t, forward, 1)
		assert.Equal(t, Pair{ID: 100, Value: 0x01}, forward[0])

		reverse, err := Caps.ListReverse(tx, 100)
		require.NoError(t, err)
		assert.Len(t, reverse, 2)

		assert.Equal(t, 1, Caps.CountForward(tx, 1))
		assert.Equal(t, 2, Caps.CountReverse(tx, 100))
		return nil
	})
	require.NoError(t, err)
}

func TestBiPairPutOrMergesBits(t *testing.T) {
	db := openTestDB(t)
	err := db.Update(func(tx *bolt.Tx) error {
		require.NoError(t, Caps.PutOr(tx, 1, 100, 0x01))
		require.NoError(t, Caps.PutOr(tx, 1, 100, 0x02))
		assert.Equal(t, uint64(0x03), Caps.Get(tx, 1, 100))
		return nil
	})
	require.NoError(t, err)
}

func TestBiPairDeleteRemovesBothSides(t *testing.T) {
	db := openTestDB(t)
	err := db.Update(func(tx *bolt.Tx) error {
		require.NoError(t, Caps.Put(tx, 1, 100, 0x01))

		existed, err := Caps.Delete(tx, 1, 100)
		require.NoError(t, err)
		assert.True(t, existed)

		assert.Equal(t, uint64(0), Caps.Get(tx, 1, 100))
		reverse, err := Caps.ListReverse(tx, 100)
		require.NoError(t, err)
		assert.Empty(t, reverse)
		return nil
	})
	require.NoError(t, err)
}

func TestOpenCreatesAllBuckets(t *testing.T) {
	db := openTestDB(t)
	err := db.View(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			assert.NotNil(t, tx.Bucket(bucket), "missing bucket %s", bucket)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, db.Path(), "aegis.db")
}
