// Package aegis is the facade that binds the storage, registry, resolver,
// gate, planner, bootstrap, session, and audit packages into the single
// programmatic surface an embedder uses. Every mutating verb here except the
// bootstrap and session verbs calls gate.Require before touching pkg/txn or
// pkg/planner; reads go straight to
// pkg/resolver. Engine realizes what would be process-wide singletons in the
// original design as instance fields, so more than one can exist in a
// process (e.g. under test) without global state collisions.
package aegis

import (
	"time"

	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/cuemby/aegis/pkg/audit"
	"github.com/cuemby/aegis/pkg/bootstrap"
	"github.com/cuemby/aegis/pkg/config"
	"github.com/cuemby/aegis/pkg/gate"
	"github.com/cuemby/aegis/pkg/log"
	"github.com/cuemby/aegis/pkg/metrics"
	"github.com/cuemby/aegis/pkg/planner"
	"github.com/cuemby/aegis/pkg/registry"
	"github.com/cuemby/aegis/pkg/resolver"
	"github.com/cuemby/aegis/pkg/storage"
	"github.com/cuemby/aegis/pkg/txn"
	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

// Engine is one open aegis store plus its background writer and audit
// broker. The zero value is not usable; construct with New.
type Engine struct {
	db      *storage.DB
	planner *planner.Planner
	audit   *audit.Broker
	cfg     config.Config
	logger  zerolog.Logger
}

// New opens the store at cfg.DataDir, starts the planner's writer goroutine
// and the audit broker, and initializes the global logger from cfg.Log.
func New(cfg config.Config) (*Engine, error) {
	log.Init(cfg.LoggerConfig())

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return nil, aegiserr.Wrap("open store", err)
	}

	broker := audit.NewBroker()
	broker.Start()

	p := planner.NewWithTuning(db, broker, cfg.Tuning())

	return &Engine{
		db:      db,
		planner: p,
		audit:   broker,
		cfg:     cfg,
		logger:  log.WithComponent("aegis"),
	}, nil
}

// Close stops the planner (performing a final flush), stops the audit
// broker, and closes the store.
func (e *Engine) Close() error {
	e.planner.Close()
	e.audit.Stop()
	return e.db.Close()
}

// Audit returns the engine's audit broker, so an embedder can Subscribe to
// mutation events.
func (e *Engine) Audit() *audit.Broker {
	return e.audit
}

// DB returns the engine's underlying store, for callers wiring up
// pkg/metrics' periodic Collector against it.
func (e *Engine) DB() *storage.DB {
	return e.db
}

// Bootstrap runs the genesis sequence exactly once. See pkg/bootstrap.
func (e *Engine) Bootstrap(rootID string) (epoch int64, err error) {
	epoch, err = bootstrap.Bootstrap(e.db, rootID, time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	e.audit.Publish(audit.EventBootstrapComplete, 0, 0, map[string]string{"root": "user:" + rootID})
	return epoch, nil
}

// IsBootstrapped reports whether Bootstrap has already run.
func (e *Engine) IsBootstrapped() (bool, error) {
	return bootstrap.IsBootstrapped(e.db)
}

// transactSync runs fn synchronously against the store, bypassing the
// planner, for callers needing read-your-writes on the same call.
func (e *Engine) transactSync(fn func(tx *txn.Tx) error) error {
	return aegiserr.WrapStorage(txn.Transact(e.db, fn))
}

func (e *Engine) resolveID(bt *bolt.Tx, label string) (uint64, error) {
	id, err := registry.ID(bt, label)
	if err != nil {
		return 0, aegiserr.Wrap("resolve "+label, err)
	}
	return id, nil
}

func metaTypeLabel(typeName string) string {
	return "_type:" + typeName
}

// requireGate checks actorLabel's effective mask on scopeLabel under tx,
// returning *aegiserr.InsufficientPermissionError on denial. Also records
// the outcome to metrics.GateDecisionsTotal.
func requireGate(bt *bolt.Tx, actorLabel string, actor, scope, required uint64) error {
	err := gate.Require(bt, actorLabel, actor, scope, required)
	if err != nil {
		metrics.GateDecisionsTotal.WithLabelValues("deny").Inc()
		return err
	}
	metrics.GateDecisionsTotal.WithLabelValues("allow").Inc()
	return nil
}

// CreateType registers a new `_type:name` scope entity, after checking
// actorLabel holds TypeCreate on the meta-type.
func (e *Engine) CreateType(actorLabel, name string) error {
	return e.transactSync(func(tx *txn.Tx) error {
		bt := tx.Bolt()
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		metaType, err := e.resolveID(bt, metaTypeLabel("_type"))
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, metaType, gate.TypeCreate); err != nil {
			return err
		}
		id, err := tx.CreateEntity(metaTypeLabel(name))
		if err != nil {
			return err
		}
		e.audit.Publish(audit.EventEntityCreated, actor, id, map[string]string{"label": metaTypeLabel(name)})
		return nil
	})
}

// DeleteType removes a `_type:name` scope entity, after checking
// actorLabel holds TypeDelete on the meta-type.
func (e *Engine) DeleteType(actorLabel, name string) error {
	return e.transactSync(func(tx *txn.Tx) error {
		bt := tx.Bolt()
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		metaType, err := e.resolveID(bt, metaTypeLabel("_type"))
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, metaType, gate.TypeDelete); err != nil {
			return err
		}
		typeID, err := e.resolveID(bt, metaTypeLabel(name))
		if err != nil {
			return err
		}
		if err := tx.DeleteEntity(typeID); err != nil {
			return err
		}
		e.audit.Publish(audit.EventEntityDeleted, actor, typeID, map[string]string{"label": metaTypeLabel(name)})
		return nil
	})
}

// TypeExists reports whether `_type:name` is registered.
func (e *Engine) TypeExists(name string) (bool, error) {
	var exists bool
	err := e.db.View(func(bt *bolt.Tx) error {
		_, err := registry.ID(bt, metaTypeLabel(name))
		exists = err == nil
		return nil
	})
	return exists, aegiserr.WrapStorage(err)
}

// CreateEntity creates a new entity of an existing type, after checking
// actorLabel holds EntityCreate on that type's scope entity.
func (e *Engine) CreateEntity(actorLabel, entityLabel string) error {
	parsed, err := storage.ParseEntityID(entityLabel)
	if err != nil {
		return aegiserr.Wrap("create entity", err)
	}
	return e.transactSync(func(tx *txn.Tx) error {
		bt := tx.Bolt()
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		typeScope, err := e.resolveID(bt, parsed.MetaType().String())
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, typeScope, gate.EntityCreate); err != nil {
			return err
		}
		id, err := tx.CreateEntity(entityLabel)
		if err != nil {
			return err
		}
		e.audit.Publish(audit.EventEntityCreated, actor, id, map[string]string{"label": entityLabel})
		return nil
	})
}

// DeleteEntity removes an entity, after checking actorLabel holds
// EntityDelete on its type's scope entity.
func (e *Engine) DeleteEntity(actorLabel, entityLabel string) error {
	parsed, err := storage.ParseEntityID(entityLabel)
	if err != nil {
		return aegiserr.Wrap("delete entity", err)
	}
	return e.transactSync(func(tx *txn.Tx) error {
		bt := tx.Bolt()
		actor, err := e.resolveID(bt, actorLabel)
		if err != nil {
			return err
		}
		typeScope, err := e.resolveID(bt, parsed.MetaType().String())
		if err != nil {
			return err
		}
		if err := requireGate(bt, actorLabel, actor, typeScope, gate.EntityDelete); err != nil {
			return err
		}
		entityID, err := e.resolveID(bt, entityLabel)
		if err != nil {
			return err
		}
		if err := tx.DeleteEntity(entityID); err != nil {
			return err
		}
		e.audit.Publish(audit.EventEntityDeleted, actor, entityID, map[string]string{"label": entityLabel})
		return nil
	})
}

// EntityExists reports whether entityLabel is registered.
func (e *Engine) EntityExists(entityLabel string) (bool, error) {
	var exists bool
	err := e.db.View(func(bt *bolt.Tx) error {
		_, err := registry.ID(bt, entityLabel)
		exists = err == nil
		return nil
	})
	return exists, aegiserr.WrapStorage(err)
}
