// Package registry assigns and looks up the numeric ids every other aegis
// package (resolver, gate, planner) operates on internally. Capability
// grants, roles, and inheritance edges all key off these ids rather than
// "type:id" strings, so the registry is the one place a string label is
// exchanged for a uint64 or back.
package registry

import (
	"strconv"

	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/cuemby/aegis/pkg/storage"
	bolt "go.etcd.io/bbolt"
)

const metaNextID = "next_id"

// NextID returns the id that the next Create call will assign, without
// consuming it. Create calls it internally; callers normally don't need it,
// Create already atomically reads and advances the counter.
func NextID(tx *bolt.Tx) uint64 {
	b := tx.Bucket(storage.BucketMeta)
	data := b.Get([]byte(metaNextID))
	if data == nil {
		return 1
	}
	id, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 1
	}
	return id
}

func setNextID(tx *bolt.Tx, id uint64) error {
	return tx.Bucket(storage.BucketMeta).Put([]byte(metaNextID), []byte(strconv.FormatUint(id, 10)))
}

// Create assigns a fresh id to label and records the id<->label mapping.
// label is the canonical "type:id" entity string. If label was already mapped
// to another id, that id's label entry is removed first.
func Create(tx *bolt.Tx, label string) (uint64, error) {
	id := NextID(tx)
	if oldIDBytes := tx.Bucket(storage.BucketNames).Get([]byte(label)); oldIDBytes != nil {
		if oldID, ok := storage.DecodeU64(oldIDBytes); ok {
			oldKey := storage.EncodeU64(oldID)
			if err := tx.Bucket(storage.BucketLabels).Delete(oldKey[:]); err != nil {
				return 0, err
			}
		}
	}
	labelKey := storage.EncodeU64(id)
	if err := tx.Bucket(storage.BucketLabels).Put(labelKey[:], []byte(label)); err != nil {
		return 0, err
	}
	if err := tx.Bucket(storage.BucketNames).Put([]byte(label), labelKey[:]); err != nil {
		return 0, err
	}
	if err := setNextID(tx, id+1); err != nil {
		return 0, err
	}
	return id, nil
}

// Rename repoints id's label mapping, clearing the old reverse entry first.
func Rename(tx *bolt.Tx, id uint64, newLabel string) error {
	labelKey := storage.EncodeU64(id)
	old := tx.Bucket(storage.BucketLabels).Get(labelKey[:])
	if old != nil {
		if err := tx.Bucket(storage.BucketNames).Delete(old); err != nil {
			return err
		}
	}
	if err := tx.Bucket(storage.BucketLabels).Put(labelKey[:], []byte(newLabel)); err != nil {
		return err
	}
	return tx.Bucket(storage.BucketNames).Put([]byte(newLabel), labelKey[:])
}

// SetLabel points label at id, reassigning it away from whatever id (if any)
// previously held it and dropping id's own previous label.
func SetLabel(tx *bolt.Tx, id uint64, label string) error {
	labelKey := storage.EncodeU64(id)
	if old := tx.Bucket(storage.BucketLabels).Get(labelKey[:]); old != nil && string(old) != label {
		if err := tx.Bucket(storage.BucketNames).Delete(old); err != nil {
			return err
		}
	}
	oldIDBytes := tx.Bucket(storage.BucketNames).Get([]byte(label))
	if oldIDBytes != nil {
		oldID, ok := storage.DecodeU64(oldIDBytes)
		if ok && oldID != id {
			oldKey := storage.EncodeU64(oldID)
			if err := tx.Bucket(storage.BucketLabels).Delete(oldKey[:]); err != nil {
				return err
			}
		}
	}
	if err := tx.Bucket(storage.BucketLabels).Put(labelKey[:], []byte(label)); err != nil {
		return err
	}
	return tx.Bucket(storage.BucketNames).Put([]byte(label), labelKey[:])
}

// Delete removes id's label mapping in both directions.
func Delete(tx *bolt.Tx, id uint64) error {
	labelKey := storage.EncodeU64(id)
	label := tx.Bucket(storage.BucketLabels).Get(labelKey[:])
	if label != nil {
		if err := tx.Bucket(storage.BucketNames).Delete(label); err != nil {
			return err
		}
	}
	return tx.Bucket(storage.BucketLabels).Delete(labelKey[:])
}

// Label returns the "type:id" string id was registered under.
func Label(tx *bolt.Tx, id uint64) (string, error) {
	labelKey := storage.EncodeU64(id)
	data := tx.Bucket(storage.BucketLabels).Get(labelKey[:])
	if data == nil {
		return "", aegiserr.ErrEntityNotFound
	}
	return string(data), nil
}

// ID returns the numeric id label was registered under.
func ID(tx *bolt.Tx, label string) (uint64, error) {
	data := tx.Bucket(storage.BucketNames).Get([]byte(label))
	if data == nil {
		return 0, aegiserr.ErrEntityNotFound
	}
	id, ok := storage.DecodeU64(data)
	if !ok {
		return 0, aegiserr.ErrCorruptedRecord
	}
	return id, nil
}

// EnsureID returns label's id, creating it if it doesn't already exist.
func EnsureID(tx *bolt.Tx, label string) (uint64, error) {
	id, err := ID(tx, label)
	if err == nil {
		return id, nil
	}
	return Create(tx, label)
}

// List returns every (id, label) pair in the registry, ordered by id.
func List(tx *bolt.Tx) ([]Entry, error) {
	var out []Entry
	c := tx.Bucket(storage.BucketLabels).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		id, ok := storage.DecodeU64(k)
		if !ok {
			continue
		}
		out = append(out, Entry{ID: id, Label: string(v)})
	}
	return out, nil
}

// Entry is one registry record returned by List.
type Entry struct {
	ID    uint64
	Label string
}
