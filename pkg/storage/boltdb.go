package storage

import (
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	// BucketCaps holds subject->object capability grants: key EncodePair(subject, object), value EncodeU64(mask or role id).
	BucketCaps = []byte("caps")
	// BucketCapsRev mirrors BucketCaps with the pair reversed: key EncodePair(object, subject).
	BucketCapsRev = []byte("caps_rev")
	// BucketRoles holds per-object role definitions: key EncodePair(object, role), value EncodeU64(mask).
	BucketRoles = []byte("roles")
	// BucketInherit holds inheritance edges: key EncodePair(object, child), value EncodeU64(parent).
	BucketInherit = []byte("inh")
	// BucketMeta holds singleton/bootstrap bookkeeping: arbitrary string keys and values.
	BucketMeta = []byte("meta")
	// BucketLabels maps a registry numeric id to its entity label: key EncodeU64(id), value "type:id" string.
	BucketLabels = []byte("labels")
	// BucketNames is the reverse of BucketLabels: key "type:id" string, value EncodeU64(id).
	BucketNames = []byte("names")
	// BucketBitLabels documents the 15-bit system capability vocabulary: key single byte bit index, value name.
	BucketBitLabels = []byte("bitlabels")
	// BucketSessions holds session tokens: key sha256(token) hex, value EncodeParts(entity, createdAt, expiresAt).
	BucketSessions = []byte("sessions")
	// BucketSessionsByEntity indexes sessions by owning entity: key EncodeParts(entity, tokenHash), value expiresAt (EncodeU64).
	BucketSessionsByEntity = []byte("sessions_by_entity")
)

var allBuckets = [][]byte{
	BucketCaps,
	BucketCapsRev,
	BucketRoles,
	BucketInherit,
	BucketMeta,
	BucketLabels,
	BucketNames,
	BucketBitLabels,
	BucketSessions,
	BucketSessionsByEntity,
}

// DB wraps a bbolt database opened with aegis's bucket layout. Every higher
// package (registry, txn, resolver, gate, planner, bootstrap, session) reads
// and writes through the *bolt.Tx handed out by View/Update rather than
// holding its own handle, so bbolt remains the single point of truth for
// transaction isolation.
type DB struct {
	bolt *bolt.DB
}

// Open creates or opens the aegis database file under dataDir and ensures
// every bucket the domain needs exists.
func Open(dataDir string) (*DB, error) {
	dbPath := filepath.Join(dataDir, "aegis.db")

	bdb, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		bdb.Close()
		return nil, err
	}

	return &DB{bolt: bdb}, nil
}

// Close closes the underlying database file.
func (d *DB) Close() error {
	return d.bolt.Close()
}

// View runs fn in a read-only transaction. Multiple Views may run concurrently
// with each other and with the single in-flight Update, per bbolt's MVCC model.
func (d *DB) View(fn func(tx *bolt.Tx) error) error {
	return d.bolt.View(fn)
}

// Update runs fn in a read-write transaction. bbolt serializes Updates, which
// is exactly the single-writer invariant the planner relies on: no advisory
// locking is needed above this layer.
func (d *DB) Update(fn func(tx *bolt.Tx) error) error {
	return d.bolt.Update(fn)
}

// Path returns the path of the backing file, mainly for logging and metrics labels.
func (d *DB) Path() string {
	return d.bolt.Path()
}
