// Package txn provides the mutating verbs of the capability store: grant,
// revoke, role and inheritance edits, and entity lifecycle. Every verb here
// assumes its caller has already authorized the operation (pkg/gate) — txn
// itself performs no permission checks, only the structural invariants
// (no self-reference, no inheritance cycles) that would corrupt the graph.
package txn

import (
	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/cuemby/aegis/pkg/registry"
	"github.com/cuemby/aegis/pkg/storage"
	bolt "go.etcd.io/bbolt"
)

// MaxInheritanceDepth bounds both the cycle check on write and the mask walk
// on read, so a malformed or adversarial inheritance graph can't force an
// unbounded chain walk.
const MaxInheritanceDepth = 10

// Tx wraps a single bbolt read-write transaction with the capability-store
// verbs. It is cheap to construct and carries no state beyond the *bolt.Tx;
// callers obtain one via Transact rather than constructing it directly.
type Tx struct {
	bolt *bolt.Tx
}

// Grant ORs mask into the existing grant from subject to object.
func (t *Tx) Grant(subject, object, mask uint64) error {
	return storage.Caps.PutOr(t.bolt, subject, object, mask)
}

// GrantSet replaces the grant from subject to object with exactly mask.
func (t *Tx) GrantSet(subject, object, mask uint64) error {
	return storage.Caps.Put(t.bolt, subject, object, mask)
}

// Revoke removes every grant from subject to object and any inheritance edge
// where object is the scope and subject is the child, mirroring the original
// semantics that a revoke also severs the subject's place in that scope's
// inheritance chain.
func (t *Tx) Revoke(subject, object uint64) (existed bool, err error) {
	existed, err = storage.Caps.Delete(t.bolt, subject, object)
	if err != nil {
		return existed, err
	}
	if _, err := storage.DeletePair(t.bolt, storage.BucketInherit, object, subject); err != nil {
		return existed, err
	}
	return existed, nil
}

// SetRole defines role's capability mask on object.
func (t *Tx) SetRole(object, role, mask uint64) error {
	return storage.PutPair(t.bolt, storage.BucketRoles, object, role, mask)
}

// GetRole returns role's capability mask on object, or role itself if undefined
// (the "role-or-raw-mask" fallback the resolver also applies).
func (t *Tx) GetRole(object, role uint64) uint64 {
	mask, ok := storage.GetPair(t.bolt, storage.BucketRoles, object, role)
	if !ok {
		return role
	}
	return mask
}

// SetInherit makes child inherit parent's effective mask within object's
// scope, rejecting self-reference and any edge that would close a cycle.
func (t *Tx) SetInherit(object, child, parent uint64) error {
	if child == parent {
		return aegiserr.ErrSelfReference
	}
	if err := t.checkNoCycle(object, child, parent); err != nil {
		return err
	}
	return storage.PutPair(t.bolt, storage.BucketInherit, object, child, parent)
}

// RemoveInherit deletes the inheritance edge for child within object's scope.
func (t *Tx) RemoveInherit(object, child uint64) (existed bool, err error) {
	return storage.DeletePair(t.bolt, storage.BucketInherit, object, child)
}

func (t *Tx) checkNoCycle(object, from, to uint64) error {
	cur := to
	for i := 0; i < MaxInheritanceDepth; i++ {
		parent, ok := storage.GetPair(t.bolt, storage.BucketInherit, object, cur)
		if !ok {
			return nil
		}
		if parent == from {
			return aegiserr.ErrCircularReference
		}
		cur = parent
	}
	return nil
}

// CreateEntity registers a fresh "type:id" label and returns its numeric id.
func (t *Tx) CreateEntity(label string) (uint64, error) {
	return registry.Create(t.bolt, label)
}

// RenameEntity repoints id's registry label.
func (t *Tx) RenameEntity(id uint64, newLabel string) error {
	return registry.Rename(t.bolt, id, newLabel)
}

// DeleteEntity removes id's registry label.
func (t *Tx) DeleteEntity(id uint64) error {
	return registry.Delete(t.bolt, id)
}

// SetLabel reassigns label to id.
func (t *Tx) SetLabel(id uint64, label string) error {
	return registry.SetLabel(t.bolt, id, label)
}

// SetMeta stores a bootstrap/bookkeeping string value.
func (t *Tx) SetMeta(key, value string) error {
	return t.bolt.Bucket(storage.BucketMeta).Put([]byte(key), []byte(value))
}

// GetMeta reads a bootstrap/bookkeeping string value.
func (t *Tx) GetMeta(key string) (string, bool) {
	v := t.bolt.Bucket(storage.BucketMeta).Get([]byte(key))
	if v == nil {
		return "", false
	}
	return string(v), true
}

// SetBitLabel documents what a SystemCap bit means, for introspection tools.
func (t *Tx) SetBitLabel(bit uint8, name string) error {
	return t.bolt.Bucket(storage.BucketBitLabels).Put([]byte{bit}, []byte(name))
}

// Bolt exposes the underlying transaction for packages (bootstrap, session)
// that need bucket access txn doesn't wrap directly.
func (t *Tx) Bolt() *bolt.Tx {
	return t.bolt
}

// Transact runs fn inside a single read-write transaction, committing on
// success and rolling back on error. bbolt serializes all Updates, so every
// Transact call across the process is already the single writer spec.md's
// storage model requires; pkg/planner exists to batch many logical
// operations into fewer calls here, not to add locking on top of it.
func Transact(db *storage.DB, fn func(tx *Tx) error) error {
	return db.Update(func(bt *bolt.Tx) error {
		return fn(&Tx{bolt: bt})
	})
}
