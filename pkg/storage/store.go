package storage

import bolt "go.etcd.io/bbolt"

// PutU64 stores v as an 8-byte big-endian value under key in bucket.
func PutU64(tx *bolt.Tx, bucket, key []byte, v uint64) error {
	b := tx.Bucket(bucket)
	val := EncodeU64(v)
	return b.Put(key, val[:])
}

// GetU64 reads an 8-byte big-endian value. ok is false if key is absent or malformed.
func GetU64(tx *bolt.Tx, bucket, key []byte) (v uint64, ok bool) {
	b := tx.Bucket(bucket)
	data := b.Get(key)
	if data == nil {
		return 0, false
	}
	return DecodeU64(data)
}

// Exists reports whether key is present in bucket.
func Exists(tx *bolt.Tx, bucket, key []byte) bool {
	return tx.Bucket(bucket).Get(key) != nil
}

// PutMarker stores a zero-length presence marker, for index buckets where
// only key membership matters.
func PutMarker(tx *bolt.Tx, bucket, key []byte) error {
	return tx.Bucket(bucket).Put(key, []byte{})
}

// PutPair stores v under the fixed 16-byte key EncodePair(a, b), used by
// single-sided numeric relation buckets (BucketRoles, BucketInherit) that
// don't need a reverse index.
func PutPair(tx *bolt.Tx, bucket []byte, a, b, v uint64) error {
	key := EncodePair(a, b)
	val := EncodeU64(v)
	return tx.Bucket(bucket).Put(key[:], val[:])
}

// GetPair reads the value stored under EncodePair(a, b). ok is false if absent.
func GetPair(tx *bolt.Tx, bucket []byte, a, b uint64) (v uint64, ok bool) {
	key := EncodePair(a, b)
	data := tx.Bucket(bucket).Get(key[:])
	if data == nil {
		return 0, false
	}
	return DecodeU64(data)
}

// DeletePair removes the entry under EncodePair(a, b), reporting whether it existed.
func DeletePair(tx *bolt.Tx, bucket []byte, a, b uint64) (existed bool, err error) {
	key := EncodePair(a, b)
	existed = tx.Bucket(bucket).Get(key[:]) != nil
	return existed, tx.Bucket(bucket).Delete(key[:])
}

// ForEachPrefix iterates every key/value pair in bucket whose key starts with
// prefix, in key order, stopping early if fn returns an error.
func ForEachPrefix(tx *bolt.Tx, bucket, prefix []byte, fn func(k, v []byte) error) error {
	c := tx.Bucket(bucket).Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

// CountPrefix counts keys in bucket starting with prefix.
func CountPrefix(tx *bolt.Tx, bucket, prefix []byte) int {
	n := 0
	c := tx.Bucket(bucket).Cursor()
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		n++
	}
	return n
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}
