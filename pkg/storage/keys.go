package storage

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
)

// MaxEntityTypeLen is the largest number of bytes an entity type name may occupy.
const MaxEntityTypeLen = 255

// EntityID is a parsed "type:id" entity name, the unit every subject/object
// in aegis is addressed by before it is resolved to a numeric registry id.
type EntityID struct {
	Type string
	ID   string
}

// String renders the entity back into its canonical "type:id" form.
func (e EntityID) String() string {
	return e.Type + ":" + e.ID
}

// MetaType returns the type-entity scope for e's type, e.g. "user:alice" -> "_type:user".
func (e EntityID) MetaType() EntityID {
	return EntityID{Type: "_type", ID: e.Type}
}

// IsMetaType reports whether e is itself a _type:* entity.
func (e EntityID) IsMetaType() bool {
	return e.Type == "_type"
}

// ParseEntityID parses "type:id" into its parts, enforcing the validation
// rules of spec.md §7 (ErrEntityIDMalformed): empty type, type too long,
// empty id, missing separator, or invalid UTF-8.
func ParseEntityID(s string) (EntityID, error) {
	if !utf8.ValidString(s) {
		return EntityID{}, fmt.Errorf("entity id %q: invalid UTF-8: %w", s, aegiserr.ErrEntityIDMalformed)
	}
	typ, id, ok := strings.Cut(s, ":")
	if !ok {
		return EntityID{}, fmt.Errorf("entity id %q: missing ':' separator: %w", s, aegiserr.ErrEntityIDMalformed)
	}
	if typ == "" {
		return EntityID{}, fmt.Errorf("entity id %q: empty type: %w", s, aegiserr.ErrEntityIDMalformed)
	}
	if len(typ) > MaxEntityTypeLen {
		return EntityID{}, fmt.Errorf("entity id %q: type exceeds %d bytes: %w", s, MaxEntityTypeLen, aegiserr.ErrEntityIDMalformed)
	}
	if id == "" {
		return EntityID{}, fmt.Errorf("entity id %q: empty id: %w", s, aegiserr.ErrEntityIDMalformed)
	}
	return EntityID{Type: typ, ID: id}, nil
}

// EncodeParts builds a length-prefixed composite key: [len byte][bytes]...
// for each part. No delimiters, no escaping, any bytes (up to 255 per part)
// are admissible, and the result supports O(1) part-N extraction and
// zero-copy prefix scans on any leading part.
func EncodeParts(parts ...string) []byte {
	total := 0
	for _, p := range parts {
		total += 1 + len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, byte(len(p)))
		out = append(out, p...)
	}
	return out
}

// DecodeParts parses a length-prefixed composite key back into its parts.
// Truncated input is parsed as far as possible and the partial result
// returned silently: writers in this package never produce truncated keys,
// and readers only ever consume their own prior writes.
func DecodeParts(b []byte) []string {
	parts := make([]string, 0, 4)
	i := 0
	for i < len(b) {
		n := int(b[i])
		if i+1+n > len(b) {
			break
		}
		parts = append(parts, string(b[i+1:i+1+n]))
		i += 1 + n
	}
	return parts
}

// PartAt returns the nth part (0-indexed) of a length-prefixed composite key.
func PartAt(b []byte, n int) (string, bool) {
	i, count := 0, 0
	for i < len(b) {
		l := int(b[i])
		if i+1+l > len(b) {
			return "", false
		}
		if count == n {
			return string(b[i+1 : i+1+l]), true
		}
		i += 1 + l
		count++
	}
	return "", false
}

// EncodePair builds the fixed 16-byte big-endian concatenation of two u64s
// used for numeric relations (capability grants, roles, inheritance edges).
// Prefix iteration on the first 8 bytes enumerates all pairs sharing a.
func EncodePair(a, b uint64) [16]byte {
	var out [16]byte
	binary.BigEndian.PutUint64(out[0:8], a)
	binary.BigEndian.PutUint64(out[8:16], b)
	return out
}

// DecodePair splits a 16-byte pair key back into its two u64 halves.
// ok is false if key is not exactly 16 bytes.
func DecodePair(key []byte) (a, b uint64, ok bool) {
	if len(key) != 16 {
		return 0, 0, false
	}
	return binary.BigEndian.Uint64(key[0:8]), binary.BigEndian.Uint64(key[8:16]), true
}

// EncodeU64 big-endian encodes a single u64, used for label/registry keys.
func EncodeU64(v uint64) [8]byte {
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], v)
	return out
}

// DecodeU64 decodes an 8-byte big-endian u64. ok is false otherwise.
func DecodeU64(b []byte) (uint64, bool) {
	if len(b) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}
