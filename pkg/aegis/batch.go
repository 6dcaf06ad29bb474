package aegis

import (
	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/cuemby/aegis/pkg/gate"
	"github.com/cuemby/aegis/pkg/planner"
	"github.com/cuemby/aegis/pkg/registry"
	bolt "go.etcd.io/bbolt"
)

type batchOpKind int

const (
	batchGrant batchOpKind = iota
	batchRevoke
	batchSetInherit
)

type queuedOp struct {
	kind     batchOpKind
	subject  string
	object   string
	relation string // role name for batchGrant, parent label for batchSetInherit
	required uint64
}

// WriteBatch accumulates planner ops under one actor, so a caller performing
// several related mutations (e.g. provisioning a team) pays one gate-check
// pass and submits them together. Ops still merge with whatever else the
// planner's current batch window holds; WriteBatch does not force its own
// ops into a single flush.
type WriteBatch struct {
	engine *Engine
	actor  string
	ops    []queuedOp
}

// WriteBatch starts a new batch acting as actorLabel.
func (e *Engine) WriteBatch(actorLabel string) *WriteBatch {
	return &WriteBatch{engine: e, actor: actorLabel}
}

// Grant queues a grant of relation from subjectLabel to objectLabel.
func (b *WriteBatch) Grant(subjectLabel, relation, objectLabel string) *WriteBatch {
	b.ops = append(b.ops, queuedOp{kind: batchGrant, subject: subjectLabel, object: objectLabel, relation: relation, required: gate.GrantWrite})
	return b
}

// Revoke queues revocation of every grant subjectLabel holds on objectLabel.
func (b *WriteBatch) Revoke(subjectLabel, objectLabel string) *WriteBatch {
	b.ops = append(b.ops, queuedOp{kind: batchRevoke, subject: subjectLabel, object: objectLabel, required: gate.GrantDelete})
	return b
}

// SetInherit queues an inheritance edge within objectLabel's scope.
func (b *WriteBatch) SetInherit(objectLabel, childLabel, parentLabel string) *WriteBatch {
	b.ops = append(b.ops, queuedOp{kind: batchSetInherit, subject: childLabel, object: objectLabel, relation: parentLabel, required: gate.DelegateWrite})
	return b
}

// Execute resolves every queued op's labels, checks actor holds the
// required bit on each op's scope, and submits all of them to the planner in
// one pass. Label resolution and role registration run under one write
// transaction (SetInherit queues nothing durable itself; only a fresh role
// name needs a write), so a gate failure partway through leaves nothing
// queued from this Execute call. The batch is cleared whether or not
// Execute succeeds.
func (b *WriteBatch) Execute() error {
	ops := b.ops
	b.ops = nil

	var toSubmit []planner.Op
	err := b.engine.db.Update(func(bt *bolt.Tx) error {
		actor, err := b.engine.resolveID(bt, b.actor)
		if err != nil {
			return err
		}
		for _, q := range ops {
			object, err := b.engine.resolveID(bt, q.object)
			if err != nil {
				return err
			}
			if err := requireGate(bt, b.actor, actor, object, q.required); err != nil {
				return err
			}
			switch q.kind {
			case batchGrant:
				subject, err := b.engine.resolveID(bt, q.subject)
				if err != nil {
					return err
				}
				roleID, err := registry.EnsureID(bt, roleEntityLabel(q.relation))
				if err != nil {
					return err
				}
				toSubmit = append(toSubmit, planner.Grant(actor, subject, object, roleID))
			case batchRevoke:
				subject, err := b.engine.resolveID(bt, q.subject)
				if err != nil {
					return err
				}
				toSubmit = append(toSubmit, planner.Revoke(actor, subject, object))
			case batchSetInherit:
				child, err := b.engine.resolveID(bt, q.subject)
				if err != nil {
					return err
				}
				parent, err := b.engine.resolveID(bt, q.relation)
				if err != nil {
					return err
				}
				toSubmit = append(toSubmit, planner.SetInherit(actor, object, child, parent))
			}
		}
		return nil
	})
	if err := aegiserr.WrapStorage(err); err != nil {
		return err
	}

	for _, op := range toSubmit {
		if err := b.engine.planner.Submit(op); err != nil {
			return err
		}
	}
	return nil
}
