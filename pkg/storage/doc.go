/*
Package storage provides the BoltDB-backed substrate aegis's authorization
state lives in: capability grants, role definitions, inheritance edges, the
label/id registry, and session tokens.

bbolt is used directly rather than through a generic Store interface, because
bbolt's own transaction model already gives aegis everything spec.md's storage
requirements ask for: a single in-flight writer, consistent concurrent
readers, and byte-ordered keys that support prefix scans. The relation,
label and session-index buckets use the length-prefixed or fixed-width key
encodings in keys.go so that a single Seek gives either direct lookup or
prefix enumeration without a secondary index; meta, names, bitlabels and
sessions key by plain strings or bytes, as listed below.

# Bucket layout

	caps                 subject+object -> mask or role id   (EncodePair, EncodeU64)
	caps_rev              object+subject -> mask or role id   (EncodePair, EncodeU64)
	roles                 object+role    -> mask              (EncodePair, EncodeU64)
	inh                   object+child   -> parent id         (EncodePair, EncodeU64)
	meta                  string         -> string            (bootstrap bookkeeping)
	labels                id             -> "type:id"         (EncodeU64)
	names                 "type:id"      -> id                (EncodeU64)
	bitlabels              bit index      -> name
	sessions               token hash     -> session record    (EncodeParts)
	sessions_by_entity     entity+hash    -> expires at         (EncodeParts, EncodeU64)

caps and caps_rev duplicate the same fact under two key orders so that both
"who can act on this scope" and "what can this subject act on" are answered
by a prefix scan rather than a full bucket walk; BiPair (bipair.go) writes
and deletes both sides together inside the caller's transaction.

# Usage

	db, err := storage.Open(dataDir)
	if err != nil { ... }
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		return storage.PutU64(tx, storage.BucketCaps, key, mask)
	})
*/
package storage
