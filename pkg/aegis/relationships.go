package aegis

import (
	"strconv"
	"strings"

	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/cuemby/aegis/pkg/audit"
	"github.com/cuemby/aegis/pkg/gate"
	"github.com/cuemby/aegis/pkg/planner"
	"github.com/cuemby/aegis/pkg/registry"
	"github.com/cuemby/aegis/pkg/resolver"
	"github.com/cuemby/aegis/pkg/txn"
	bolt "go.etcd.io/bbolt"
)

// roleEntityLabel is the entity label a named role/relation is registered
// under, so its numeric id can be used uniformly as a capability grant's
// value wherever pkg/resolver's role-or-raw-mask fallback applies.
func roleEntityLabel(name string) string {
	return "role:" + name
}

// decodeRelationValue renders a stored grant value back to a human label: the
// bare role name if the value resolves to a "role:*" entity, otherwise the
// raw mask formatted as hex.
func decodeRelationValue(bt *bolt.Tx, value uint64) string {
	if label, err := registry.Label(bt, value); err == nil {
		if name, ok := strings.CutPrefix(label, "role:"); ok {
			return name
		}
	}
	return "0x" + strconv.FormatUint(value, 16)
}

// SetRelationship records that subjectLabel holds the named relation on
// objectLabel. relation is resolved to a "role:relation" entity id (created
// on first use) so the same value can later expand via SetCapability;
// callers needing a raw mask instead of a named relation should use
// SetCapability on the object directly with a numeric-only role. The write
// goes through the planner; callers needing read-your-writes should use
// GetRelationships immediately after a synchronous path.
func (e *Engine) SetRelationship(actorLabel, subjectLabel, relation, objectLabel string) error {
	var op planner.Op
	err := e.db.Update(func(bt *bolt.Tx) error {
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		subject, err := e.resolveID(bt, subjectLabel)
		if err != nil {
			return err
		}
		object, err := e.resolveID(bt, objectLabel)
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, object, gate.GrantWrite); err != nil {
			return err
		}
		roleID, err := registry.EnsureID(bt, roleEntityLabel(relation))
		if err != nil {
			return err
		}
		op = planner.Grant(actor, subject, object, roleID)
		return nil
	})
	if err := aegiserr.WrapStorage(err); err != nil {
		return err
	}
	return e.planner.Submit(op)
}

// DeleteRelationship revokes every grant subjectLabel holds on objectLabel.
func (e *Engine) DeleteRelationship(actorLabel, subjectLabel, objectLabel string) error {
	var op planner.Op
	err := e.db.Update(func(bt *bolt.Tx) error {
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		subject, err := e.resolveID(bt, subjectLabel)
		if err != nil {
			return err
		}
		object, err := e.resolveID(bt, objectLabel)
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, object, gate.GrantDelete); err != nil {
			return err
		}
		op = planner.Revoke(actor, subject, object)
		return nil
	})
	if err := aegiserr.WrapStorage(err); err != nil {
		return err
	}
	return e.planner.Submit(op)
}

// Relationship is one direct grant returned by GetRelationships.
type Relationship struct {
	Subject  string
	Relation string
}

// GetRelationships lists every subject holding a direct grant on
// objectLabel, after checking actorLabel holds GrantRead there.
func (e *Engine) GetRelationships(actorLabel, objectLabel string) ([]Relationship, error) {
	var out []Relationship
	err := e.db.View(func(bt *bolt.Tx) error {
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		object, err := e.resolveID(bt, objectLabel)
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, object, gate.GrantRead); err != nil {
			return err
		}
		pairs, err := resolver.ListForObject(bt, object)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			label, err := registry.Label(bt, p.ID)
			if err != nil {
				continue
			}
			out = append(out, Relationship{Subject: label, Relation: decodeRelationValue(bt, p.Value)})
		}
		return nil
	})
	if err := aegiserr.WrapStorage(err); err != nil {
		return nil, err
	}
	return out, nil
}

// SetCapability defines roleName's capability mask on objectLabel, after
// checking actorLabel holds CapWrite there. This runs synchronously (not
// through the planner) since role definitions are rare, low-volume writes
// that callers typically need to see reflected immediately.
func (e *Engine) SetCapability(actorLabel, objectLabel, roleName string, mask uint64) error {
	return e.transactSync(func(tx *txn.Tx) error {
		bt := tx.Bolt()
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		object, err := e.resolveID(bt, objectLabel)
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, object, gate.CapWrite); err != nil {
			return err
		}
		roleID, err := registry.EnsureID(bt, roleEntityLabel(roleName))
		if err != nil {
			return err
		}
		if err := tx.SetRole(object, roleID, mask); err != nil {
			return err
		}
		e.audit.Publish(audit.EventRoleSet, actor, object, map[string]string{"role": roleName, "mask": decodeRelationValue(bt, mask)})
		return nil
	})
}

// GetCapability returns roleName's capability mask on objectLabel, after
// checking actorLabel holds CapRead there.
func (e *Engine) GetCapability(actorLabel, objectLabel, roleName string) (uint64, error) {
	var mask uint64
	err := e.db.View(func(bt *bolt.Tx) error {
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		object, err := e.resolveID(bt, objectLabel)
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, object, gate.CapRead); err != nil {
			return err
		}
		roleID, err := registry.ID(bt, roleEntityLabel(roleName))
		if err != nil {
			return nil
		}
		mask = resolver.GetRole(bt, object, roleID)
		return nil
	})
	return mask, aegiserr.WrapStorage(err)
}

// SetInheritance makes childLabel inherit parentLabel's relationship within
// objectLabel's scope, after checking actorLabel holds DelegateWrite there.
func (e *Engine) SetInheritance(actorLabel, objectLabel, childLabel, parentLabel string) error {
	return e.transactSync(func(tx *txn.Tx) error {
		bt := tx.Bolt()
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		object, err := e.resolveID(bt, objectLabel)
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, object, gate.DelegateWrite); err != nil {
			return err
		}
		child, err := e.resolveID(bt, childLabel)
		if err != nil {
			return err
		}
		parent, err := e.resolveID(bt, parentLabel)
		if err != nil {
			return err
		}
		if err := tx.SetInherit(object, child, parent); err != nil {
			return aegiserr.Wrap("set inheritance", err)
		}
		e.audit.Publish(audit.EventInheritSet, actor, object, map[string]string{"child": childLabel, "parent": parentLabel})
		return nil
	})
}

// GetInheritance returns childLabel's inheritance parent within objectLabel's
// scope, after checking actorLabel holds DelegateRead there.
func (e *Engine) GetInheritance(actorLabel, objectLabel, childLabel string) (parent string, ok bool, err error) {
	err = e.db.View(func(bt *bolt.Tx) error {
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		object, err := e.resolveID(bt, objectLabel)
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, object, gate.DelegateRead); err != nil {
			return err
		}
		child, err := e.resolveID(bt, childLabel)
		if err != nil {
			return err
		}
		parentID, found := resolver.GetInherit(bt, object, child)
		if !found {
			return nil
		}
		label, err := registry.Label(bt, parentID)
		if err != nil {
			return nil
		}
		parent, ok = label, true
		return nil
	})
	return parent, ok, aegiserr.WrapStorage(err)
}

// RemoveInheritance deletes childLabel's inheritance edge within
// objectLabel's scope, after checking actorLabel holds DelegateDelete there.
func (e *Engine) RemoveInheritance(actorLabel, objectLabel, childLabel string) error {
	return e.transactSync(func(tx *txn.Tx) error {
		bt := tx.Bolt()
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		object, err := e.resolveID(bt, objectLabel)
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, object, gate.DelegateDelete); err != nil {
			return err
		}
		child, err := e.resolveID(bt, childLabel)
		if err != nil {
			return err
		}
		if _, err := tx.RemoveInherit(object, child); err != nil {
			return err
		}
		e.audit.Publish(audit.EventInheritRemoved, actor, object, map[string]string{"child": childLabel})
		return nil
	})
}

// SetCapLabel records the label for a SystemCap bit, after checking
// actorLabel holds SystemRead on scopeLabel. The label is stored by bit alone,
// so one label per bit is shared by every scope (documentary writes ride on the
// same visibility requirement as reading system state).
func (e *Engine) SetCapLabel(actorLabel, scopeLabel string, bit uint8, name string) error {
	return e.transactSync(func(tx *txn.Tx) error {
		bt := tx.Bolt()
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		scope, err := e.resolveID(bt, scopeLabel)
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, scope, gate.SystemRead); err != nil {
			return err
		}
		return tx.SetBitLabel(bit, name)
	})
}
