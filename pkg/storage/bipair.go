package storage

import bolt "go.etcd.io/bbolt"

// BiPair is a bidirectional numeric-pair index: Put keeps fwd[a,b] and
// rev[b,a] in sync so both "everything a points at" and "everything that
// points at b" are answered by a prefix scan on the first 8 bytes of the key.
type BiPair struct {
	Fwd []byte // bucket name for (a,b) -> value
	Rev []byte // bucket name for (b,a) -> value
}

// Get returns the value stored for (a, b), or 0 if absent.
func (p BiPair) Get(tx *bolt.Tx, a, b uint64) uint64 {
	key := EncodePair(a, b)
	data := tx.Bucket(p.Fwd).Get(key[:])
	if data == nil {
		return 0
	}
	v, _ := DecodeU64(data)
	return v
}

// Put stores v for (a, b) and mirrors it into the reverse bucket as (b, a).
func (p BiPair) Put(tx *bolt.Tx, a, b, v uint64) error {
	fk := EncodePair(a, b)
	rk := EncodePair(b, a)
	val := EncodeU64(v)
	if err := tx.Bucket(p.Fwd).Put(fk[:], val[:]); err != nil {
		return err
	}
	return tx.Bucket(p.Rev).Put(rk[:], val[:])
}

// PutOr ORs mask into the existing value for (a, b) and stores the result.
func (p BiPair) PutOr(tx *bolt.Tx, a, b, mask uint64) error {
	return p.Put(tx, a, b, p.Get(tx, a, b)|mask)
}

// Delete removes both the forward and reverse entries for (a, b). existed
// reports whether the forward entry was present before deletion.
func (p BiPair) Delete(tx *bolt.Tx, a, b uint64) (existed bool, err error) {
	fk := EncodePair(a, b)
	rk := EncodePair(b, a)
	existed = tx.Bucket(p.Fwd).Get(fk[:]) != nil
	if err := tx.Bucket(p.Fwd).Delete(fk[:]); err != nil {
		return existed, err
	}
	if err := tx.Bucket(p.Rev).Delete(rk[:]); err != nil {
		return existed, err
	}
	return existed, nil
}

// Pair is one (other-side-id, value) result from a ListForward/ListReverse scan.
type Pair struct {
	ID    uint64
	Value uint64
}

// ListForward enumerates every (b, value) pair stored under fwd[a, *].
func (p BiPair) ListForward(tx *bolt.Tx, a uint64) ([]Pair, error) {
	return listPrefixed(tx, p.Fwd, a)
}

// ListReverse enumerates every (a, value) pair stored under rev[b, *].
func (p BiPair) ListReverse(tx *bolt.Tx, b uint64) ([]Pair, error) {
	return listPrefixed(tx, p.Rev, b)
}

// CountForward counts entries under fwd[a, *].
func (p BiPair) CountForward(tx *bolt.Tx, a uint64) int {
	prefix := EncodeU64(a)
	return CountPrefix(tx, p.Fwd, prefix[:])
}

// CountReverse counts entries under rev[b, *].
func (p BiPair) CountReverse(tx *bolt.Tx, b uint64) int {
	prefix := EncodeU64(b)
	return CountPrefix(tx, p.Rev, prefix[:])
}

func listPrefixed(tx *bolt.Tx, bucket []byte, pfx uint64) ([]Pair, error) {
	prefix := EncodeU64(pfx)
	var out []Pair
	err := ForEachPrefix(tx, bucket, prefix[:], func(k, v []byte) error {
		_, other, ok := DecodePair(k)
		if !ok {
			return nil
		}
		val, _ := DecodeU64(v)
		out = append(out, Pair{ID: other, Value: val})
		return nil
	})
	return out, err
}

// Caps is the BiPair over BucketCaps/BucketCapsRev: Get/Put take
// (subject, object) as (a, b) so a forward scan answers "every object this
// subject has a grant on" and a reverse scan answers "every subject with a
// grant on this object".
var Caps = BiPair{Fwd: BucketCaps, Rev: BucketCapsRev}
