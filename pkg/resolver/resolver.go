// Package resolver answers the one question the rest of aegis is built
// around: what is subject's effective capability mask on object, once
// inheritance is taken into account. It performs no writes and no
// authorization of its own calls — it is the mechanism pkg/gate's Require
// calls into, not a gate itself.
package resolver

import (
	"github.com/cuemby/aegis/pkg/metrics"
	"github.com/cuemby/aegis/pkg/storage"
	"github.com/cuemby/aegis/pkg/txn"
	bolt "go.etcd.io/bbolt"
)

// GetMask computes subject's effective capability mask on object by walking
// the inheritance chain within object's scope, OR-ing in each hop's
// contribution, up to txn.MaxInheritanceDepth hops. A grant's stored value is
// tried first as a role id on object; if no role with that id is defined,
// the stored value itself is treated as the raw mask.
func GetMask(tx *bolt.Tx, subject, object uint64) uint64 {
	timer := metrics.NewTimer()
	var mask uint64
	s := subject
	depth := 0
	for i := 0; i < txn.MaxInheritanceDepth; i++ {
		grant, _ := storage.GetPair(tx, storage.BucketCaps, s, object)
		if grant != 0 {
			mask |= roleOrRawMask(tx, object, grant)
		}
		parent, ok := storage.GetPair(tx, storage.BucketInherit, object, s)
		if !ok {
			break
		}
		s = parent
		depth++
	}
	metrics.ResolveInheritanceDepth.Observe(float64(depth))
	timer.ObserveDuration(metrics.ResolveDuration)
	return mask
}

// roleOrRawMask implements the dual semantics a grant's numeric value can
// carry: if it names a defined role on object, that role's mask applies;
// otherwise the value itself is the mask.
func roleOrRawMask(tx *bolt.Tx, object, value uint64) uint64 {
	if mask, ok := storage.GetPair(tx, storage.BucketRoles, object, value); ok {
		return mask
	}
	return value
}

// Check reports whether subject's effective mask on object contains every
// bit of required.
func Check(tx *bolt.Tx, subject, object, required uint64) bool {
	return GetMask(tx, subject, object)&required == required
}

// GetRoleID returns the raw grant value stored for (subject, object), before
// role-or-raw-mask resolution. 0 means no direct grant.
func GetRoleID(tx *bolt.Tx, subject, object uint64) uint64 {
	v, _ := storage.GetPair(tx, storage.BucketCaps, subject, object)
	return v
}

// GetRole returns role's capability mask on object, falling back to role
// itself if undefined, matching the same dual semantics GetMask applies.
func GetRole(tx *bolt.Tx, object, role uint64) uint64 {
	return roleOrRawMask(tx, object, role)
}

// GetInherit returns child's inheritance parent within object's scope.
func GetInherit(tx *bolt.Tx, object, child uint64) (parent uint64, ok bool) {
	return storage.GetPair(tx, storage.BucketInherit, object, child)
}

// ListForSubject returns every (object, grant) pair subject holds a direct
// grant on, without walking inheritance.
func ListForSubject(tx *bolt.Tx, subject uint64) ([]storage.Pair, error) {
	return storage.Caps.ListForward(tx, subject)
}

// ListForObject returns every (subject, grant) pair held directly on object,
// without walking inheritance. Callers needing effective access across every
// subject must resolve each one individually with GetMask.
func ListForObject(tx *bolt.Tx, object uint64) ([]storage.Pair, error) {
	return storage.Caps.ListReverse(tx, object)
}

// CountForSubject counts objects subject holds a direct grant on.
func CountForSubject(tx *bolt.Tx, subject uint64) int {
	return storage.Caps.CountForward(tx, subject)
}

// CountForObject counts subjects holding a direct grant on object.
func CountForObject(tx *bolt.Tx, object uint64) int {
	return storage.Caps.CountReverse(tx, object)
}
