// Package session implements bearer-token sessions bound to an entity.
// Tokens are 32 random bytes, handed to the caller base64url-encoded and
// never stored in that form — only their SHA-256 hash is persisted, so a
// database read alone can't be replayed as a live credential.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/cuemby/aegis/pkg/bootstrap"
	"github.com/cuemby/aegis/pkg/metrics"
	"github.com/cuemby/aegis/pkg/storage"
	bolt "go.etcd.io/bbolt"
)

// Info describes one session as returned by ListSessions.
type Info struct {
	Entity    string
	TokenHash string
	CreatedAt int64 // epoch milliseconds
	ExpiresAt int64 // epoch milliseconds, 0 = never expires
}

// Result is returned by BootstrapWithToken: the genesis outcome plus a
// ready-to-use session for the new root entity.
type Result struct {
	RootEntity string
	Token      string
	Epoch      int64
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", aegiserr.Wrap("generate session token", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func encodeSession(entity string, createdAt, expiresAt int64) []byte {
	return storage.EncodeParts(entity, strconv.FormatInt(createdAt, 10), strconv.FormatInt(expiresAt, 10))
}

// decodeSession parses a BucketSessions value back into its fields. ok is
// false if the record doesn't have the expected three parts or either
// timestamp fails to parse as an integer.
func decodeSession(data []byte) (entity string, createdAt, expiresAt int64, ok bool) {
	parts := storage.DecodeParts(data)
	if len(parts) != 3 {
		return "", 0, 0, false
	}
	createdAt, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, 0, false
	}
	expiresAt, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, 0, false
	}
	return parts[0], createdAt, expiresAt, true
}

// CreateSession mints a token for entity, valid from now for ttl (0 means it
// never expires), and returns the token. Only its hash is stored.
func CreateSession(db *storage.DB, entity string, ttl time.Duration, now time.Time) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	hash := hashToken(token)

	createdAt := now.UnixMilli()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixMilli()
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(storage.BucketSessions).Put([]byte(hash), encodeSession(entity, createdAt, expiresAt)); err != nil {
			return err
		}
		idxKey := storage.EncodeParts(entity, hash)
		return storage.PutU64(tx, storage.BucketSessionsByEntity, idxKey, uint64(expiresAt))
	})
	if err != nil {
		return "", aegiserr.Wrap("create session", err)
	}
	return token, nil
}

// ValidateSession hashes token, looks it up, and returns the bound entity if
// the session exists and (expiresAt == 0 or expiresAt >= now).
func ValidateSession(db *storage.DB, token string, now time.Time) (entity string, err error) {
	hash := hashToken(token)

	err = db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(storage.BucketSessions).Get([]byte(hash))
		if data == nil {
			metrics.SessionValidationsTotal.WithLabelValues("invalid").Inc()
			return aegiserr.ErrTokenInvalid
		}
		ent, _, expiresAt, ok := decodeSession(data)
		if !ok {
			metrics.SessionValidationsTotal.WithLabelValues("invalid").Inc()
			return aegiserr.ErrCorruptedRecord
		}
		if expiresAt != 0 && expiresAt < now.UnixMilli() {
			metrics.SessionValidationsTotal.WithLabelValues("expired").Inc()
			return aegiserr.ErrTokenExpired
		}
		metrics.SessionValidationsTotal.WithLabelValues("valid").Inc()
		entity = ent
		return nil
	})
	return entity, err
}

// RevokeSession deletes the session bound to token, reporting whether it
// existed beforehand.
func RevokeSession(db *storage.DB, token string) (existed bool, err error) {
	hash := hashToken(token)

	err = db.Update(func(tx *bolt.Tx) error {
		data := tx.Bucket(storage.BucketSessions).Get([]byte(hash))
		if data == nil {
			return nil
		}
		existed = true
		ent, _, _, ok := decodeSession(data)
		if err := tx.Bucket(storage.BucketSessions).Delete([]byte(hash)); err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return tx.Bucket(storage.BucketSessionsByEntity).Delete(storage.EncodeParts(ent, hash))
	})
	if err != nil {
		return false, aegiserr.Wrap("revoke session", err)
	}
	return existed, nil
}

// ListSessions returns every non-expired session bound to entity as of now.
func ListSessions(db *storage.DB, entity string, now time.Time) ([]Info, error) {
	var infos []Info
	err := db.View(func(tx *bolt.Tx) error {
		prefix := storage.EncodeParts(entity)
		return storage.ForEachPrefix(tx, storage.BucketSessionsByEntity, prefix, func(k, _ []byte) error {
			hash, ok := storage.PartAt(k, 1)
			if !ok {
				return nil
			}
			data := tx.Bucket(storage.BucketSessions).Get([]byte(hash))
			if data == nil {
				return nil
			}
			ent, createdAt, expiresAt, ok := decodeSession(data)
			if !ok {
				return nil
			}
			if expiresAt != 0 && expiresAt < now.UnixMilli() {
				return nil
			}
			infos = append(infos, Info{Entity: ent, TokenHash: hash, CreatedAt: createdAt, ExpiresAt: expiresAt})
			return nil
		})
	})
	if err != nil {
		return nil, aegiserr.Wrap("list sessions", err)
	}
	return infos, nil
}

// RevokeAllSessions deletes every session bound to entity, regardless of
// expiry, returning the count removed.
func RevokeAllSessions(db *storage.DB, entity string) (int, error) {
	count := 0
	err := db.Update(func(tx *bolt.Tx) error {
		prefix := storage.EncodeParts(entity)
		var hashes []string
		if err := storage.ForEachPrefix(tx, storage.BucketSessionsByEntity, prefix, func(k, _ []byte) error {
			if hash, ok := storage.PartAt(k, 1); ok {
				hashes = append(hashes, hash)
			}
			return nil
		}); err != nil {
			return err
		}
		for _, hash := range hashes {
			if err := tx.Bucket(storage.BucketSessions).Delete([]byte(hash)); err != nil {
				return err
			}
			if err := tx.Bucket(storage.BucketSessionsByEntity).Delete(storage.EncodeParts(entity, hash)); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, aegiserr.Wrap("revoke all sessions", err)
	}
	return count, nil
}

// BootstrapWithToken runs genesis and immediately mints a non-expiring
// session for the new root entity, so a fresh store yields one call's worth
// of both identity and credential.
func BootstrapWithToken(db *storage.DB, rootID string, now time.Time) (Result, error) {
	epoch, err := bootstrap.Bootstrap(db, rootID, now.UnixMilli())
	if err != nil {
		return Result{}, err
	}
	rootLabel := "user:" + rootID
	token, err := CreateSession(db, rootLabel, 0, now)
	if err != nil {
		return Result{}, err
	}
	return Result{RootEntity: rootLabel, Token: token, Epoch: epoch}, nil
}
