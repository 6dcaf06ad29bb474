// Package bootstrap runs the one-time genesis sequence that brings an empty
// store into a consistent, authorizable state: the meta-type, the core
// entity types, a root user holding admin everywhere, and the documentary
// bit labels the rest of the system reads back for introspection. It is the
// only code path in aegis that runs with the gate disabled.
package bootstrap

import (
	"strconv"

	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/cuemby/aegis/pkg/gate"
	"github.com/cuemby/aegis/pkg/registry"
	"github.com/cuemby/aegis/pkg/storage"
	"github.com/cuemby/aegis/pkg/txn"
	bolt "go.etcd.io/bbolt"
)

// CoreTypes are the entity types that exist from genesis.
var CoreTypes = []string{"user", "team", "app", "resource"}

// AdminRoleLabel is the entity label under which the admin role's numeric
// id is registered, so every component that needs "the admin role id"
// resolves it the same way bootstrap assigned it.
const AdminRoleLabel = "role:admin"

// IsBootstrapped reports whether Bootstrap has already run against db.
func IsBootstrapped(db *storage.DB) (bool, error) {
	var bootstrapped bool
	err := db.View(func(bt *bolt.Tx) error {
		v := bt.Bucket(storage.BucketMeta).Get([]byte("bootstrapped"))
		bootstrapped = string(v) == "true"
		return nil
	})
	return bootstrapped, err
}

// GetRootEntity returns the "user:<root_id>" label recorded at bootstrap,
// or ok=false if the store hasn't been bootstrapped yet.
func GetRootEntity(db *storage.DB) (label string, ok bool, err error) {
	err = db.View(func(bt *bolt.Tx) error {
		v := bt.Bucket(storage.BucketMeta).Get([]byte("root_entity"))
		if v != nil {
			label, ok = string(v), true
		}
		return nil
	})
	return label, ok, err
}

// AdminRoleID resolves the numeric id registered under AdminRoleLabel,
// creating it if this is the first call (only Bootstrap itself should ever
// hit the creating path; every later caller finds it already registered).
func AdminRoleID(tx *txn.Tx) (uint64, error) {
	return registry.EnsureID(tx.Bolt(), AdminRoleLabel)
}

// Bootstrap runs the genesis sequence under one write transaction with the
// gate bypassed entirely, failing with aegiserr.ErrAlreadyBootstrapped if it
// has already run. epochMillis is supplied by the caller (typically
// time.Now().UnixMilli()) rather than read from a clock inside the
// transaction, so the transaction body itself stays a pure function of its
// inputs. Returns the recorded epoch.
func Bootstrap(db *storage.DB, rootID string, epochMillis int64) (int64, error) {
	already, err := IsBootstrapped(db)
	if err != nil {
		return 0, err
	}
	if already {
		return 0, aegiserr.ErrAlreadyBootstrapped
	}

	err = txn.Transact(db, func(tx *txn.Tx) error {
		adminRole, err := AdminRoleID(tx)
		if err != nil {
			return err
		}

		// 1-3. meta-type, core types, and their scope entities.
		metaType, err := tx.CreateEntity("_type:_type")
		if err != nil {
			return err
		}
		typeEntities := make(map[string]uint64, len(CoreTypes))
		for _, t := range CoreTypes {
			id, err := tx.CreateEntity("_type:" + t)
			if err != nil {
				return err
			}
			typeEntities[t] = id
		}

		// 4. role "admin" -> TYPE_ADMIN on the meta-type, ENTITY_ADMIN
		// (plus PASSWORD_ADMIN for user) on each core type's scope entity.
		if err := tx.SetRole(metaType, adminRole, gate.TypeAdmin); err != nil {
			return err
		}
		for _, t := range CoreTypes {
			mask := gate.EntityAdmin
			if t == "user" {
				mask |= gate.PasswordAdmin
			}
			if err := tx.SetRole(typeEntities[t], adminRole, mask); err != nil {
				return err
			}
		}

		// 5. root user entity.
		rootLabel := "user:" + rootID
		rootEntity, err := tx.CreateEntity(rootLabel)
		if err != nil {
			return err
		}

		// 6. root holds the admin role on every type entity created above.
		if err := tx.Grant(rootEntity, metaType, adminRole); err != nil {
			return err
		}
		for _, t := range CoreTypes {
			if err := tx.Grant(rootEntity, typeEntities[t], adminRole); err != nil {
				return err
			}
		}

		// 7. documentary bit labels.
		for bit, name := range gate.BitLabels {
			if err := tx.SetBitLabel(uint8(bit), name); err != nil {
				return err
			}
		}

		// 8. mark bootstrapped.
		if err := tx.SetMeta("bootstrapped", "true"); err != nil {
			return err
		}
		if err := tx.SetMeta("bootstrap_epoch", strconv.FormatInt(epochMillis, 10)); err != nil {
			return err
		}
		return tx.SetMeta("root_entity", rootLabel)
	})
	if err != nil {
		return 0, err
	}
	return epochMillis, nil
}
