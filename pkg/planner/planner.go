// Package planner batches the mutating verbs of the capability store into
// fewer, larger bbolt transactions. Submit is fire-and-forget: the caller
// hands an Op to a single background writer goroutine and moves on, trading
// immediate durability for throughput under write pressure. The writer
// adapts its batch size to the load it's actually seeing rather than using a
// fixed threshold.
package planner

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/cuemby/aegis/pkg/audit"
	"github.com/cuemby/aegis/pkg/log"
	"github.com/cuemby/aegis/pkg/metrics"
	"github.com/cuemby/aegis/pkg/storage"
	"github.com/cuemby/aegis/pkg/txn"
	"github.com/rs/zerolog"
)

const flushInterval = 20 * time.Millisecond

// Tuning overrides the adaptive batcher's starting point and bounds.
// NewWithTuning fills each zero field from DefaultTuning.
type Tuning struct {
	InitialCapacity int
	MinCapacity     int
	MaxCapacity     int
	FlushInterval   time.Duration
}

// DefaultTuning matches the constants this package has always used.
var DefaultTuning = Tuning{InitialCapacity: 200, MinCapacity: 50, MaxCapacity: 5000, FlushInterval: flushInterval}

func (t Tuning) orDefault() Tuning {
	if t.InitialCapacity == 0 {
		t.InitialCapacity = DefaultTuning.InitialCapacity
	}
	if t.MinCapacity == 0 {
		t.MinCapacity = DefaultTuning.MinCapacity
	}
	if t.MaxCapacity == 0 {
		t.MaxCapacity = DefaultTuning.MaxCapacity
	}
	if t.FlushInterval == 0 {
		t.FlushInterval = DefaultTuning.FlushInterval
	}
	return t
}

// Kind identifies which capability-store verb an Op carries.
type Kind int

const (
	OpGrant Kind = iota
	OpRevoke
	OpSetRole
	OpSetInherit
	OpRemoveInherit
)

// Op is one mutating operation submitted to the planner. Only the fields
// relevant to Kind are populated; see the OpXxx constructors. Actor is
// carried for audit publishing only — txn performs no authorization, so it
// never reads this field.
type Op struct {
	Kind    Kind
	Actor   uint64
	Subject uint64
	Object  uint64
	Mask    uint64
	Role    uint64
	Child   uint64
	Parent  uint64
}

// Grant builds a Grant op: OR mask into subject's grant on object.
func Grant(actor, subject, object, mask uint64) Op {
	return Op{Kind: OpGrant, Actor: actor, Subject: subject, Object: object, Mask: mask}
}

// Revoke builds a Revoke op: clear subject's grant on object.
func Revoke(actor, subject, object uint64) Op {
	return Op{Kind: OpRevoke, Actor: actor, Subject: subject, Object: object}
}

// SetRole builds a SetRole op: define role's mask on object.
func SetRole(actor, object, role, mask uint64) Op {
	return Op{Kind: OpSetRole, Actor: actor, Object: object, Role: role, Mask: mask}
}

// SetInherit builds a SetInherit op: child inherits parent within object's scope.
func SetInherit(actor, object, child, parent uint64) Op {
	return Op{Kind: OpSetInherit, Actor: actor, Object: object, Child: child, Parent: parent}
}

// RemoveInherit builds a RemoveInherit op: remove child's inheritance edge within object's scope.
func RemoveInherit(actor, object, child uint64) Op {
	return Op{Kind: OpRemoveInherit, Actor: actor, Object: object, Child: child}
}

type pairKey struct{ a, b uint64 }

// batch merges same-key operations so a hot subject/object pair costs one
// write regardless of how many times it was touched inside the window.
// Within one flush, revokes are applied after grants and rm_inherits after
// inherits: a grant and a revoke for the same (subject, object) landing in
// the same batch resolves to revoked, not granted. The actor recorded
// against a merged key is whichever op touched it last.
type batch struct {
	grants       map[pairKey]uint64
	grantActors  map[pairKey]uint64
	revokes      map[pairKey]uint64
	roles        map[pairKey]uint64
	roleActors   map[pairKey]uint64
	inherits     map[pairKey]uint64
	inherActors  map[pairKey]uint64
	rmInherits   map[pairKey]uint64
	count        int
}

func newBatch() *batch {
	return &batch{
		grants:      make(map[pairKey]uint64, 256),
		grantActors: make(map[pairKey]uint64, 256),
		revokes:     make(map[pairKey]uint64),
		roles:       make(map[pairKey]uint64),
		roleActors:  make(map[pairKey]uint64),
		inherits:    make(map[pairKey]uint64),
		inherActors: make(map[pairKey]uint64),
		rmInherits:  make(map[pairKey]uint64),
	}
}

func (b *batch) isEmpty() bool { return b.count == 0 }

func (b *batch) add(op Op) {
	b.count++
	switch op.Kind {
	case OpGrant:
		k := pairKey{op.Subject, op.Object}
		b.grants[k] |= op.Mask
		b.grantActors[k] = op.Actor
	case OpRevoke:
		k := pairKey{op.Subject, op.Object}
		delete(b.grants, k)
		delete(b.grantActors, k)
		b.revokes[k] = op.Actor
	case OpSetRole:
		k := pairKey{op.Object, op.Role}
		b.roles[k] = op.Mask
		b.roleActors[k] = op.Actor
	case OpSetInherit:
		k := pairKey{op.Object, op.Child}
		delete(b.rmInherits, k)
		b.inherits[k] = op.Parent
		b.inherActors[k] = op.Actor
	case OpRemoveInherit:
		k := pairKey{op.Object, op.Child}
		delete(b.inherits, k)
		delete(b.inherActors, k)
		b.rmInherits[k] = op.Actor
	}
}

// flush commits the batch in one transaction and, on success, publishes one
// audit event per merged key to broker (which may be nil).
func (b *batch) flush(db *storage.DB, broker *audit.Broker, logger zerolog.Logger) error {
	if b.isEmpty() {
		return nil
	}
	n := b.count
	b.count = 0

	grants, grantActors := b.grants, b.grantActors
	revokes := b.revokes
	roles, roleActors := b.roles, b.roleActors
	inherits, inherActors := b.inherits, b.inherActors
	rmInherits := b.rmInherits

	b.grants = make(map[pairKey]uint64, 256)
	b.grantActors = make(map[pairKey]uint64, 256)
	b.revokes = make(map[pairKey]uint64)
	b.roles = make(map[pairKey]uint64)
	b.roleActors = make(map[pairKey]uint64)
	b.inherits = make(map[pairKey]uint64)
	b.inherActors = make(map[pairKey]uint64)
	b.rmInherits = make(map[pairKey]uint64)

	err := txn.Transact(db, func(tx *txn.Tx) error {
		for k, mask := range grants {
			if err := tx.Grant(k.a, k.b, mask); err != nil {
				return err
			}
		}
		for k := range revokes {
			if _, err := tx.Revoke(k.a, k.b); err != nil {
				return err
			}
		}
		for k, mask := range roles {
			if err := tx.SetRole(k.a, k.b, mask); err != nil {
				return err
			}
		}
		for k, parent := range inherits {
			if err := tx.SetInherit(k.a, k.b, parent); err != nil {
				return err
			}
		}
		for k := range rmInherits {
			if _, err := tx.RemoveInherit(k.a, k.b); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		metrics.PlannerFlushErrors.Inc()
		logger.Error().Err(err).Int("batch_size", n).Msg("planner flush failed, batch dropped")
		return err
	}

	metrics.PlannerBatchSize.Observe(float64(n))
	if broker != nil {
		for k, mask := range grants {
			broker.Publish(audit.EventGrant, grantActors[k], k.b, map[string]string{"subject": u64s(k.a), "mask": u64s(mask)})
		}
		for k, actor := range revokes {
			broker.Publish(audit.EventRevoke, actor, k.b, map[string]string{"subject": u64s(k.a)})
		}
		for k, mask := range roles {
			broker.Publish(audit.EventRoleSet, roleActors[k], k.a, map[string]string{"role": u64s(k.b), "mask": u64s(mask)})
		}
		for k, parent := range inherits {
			broker.Publish(audit.EventInheritSet, inherActors[k], k.a, map[string]string{"child": u64s(k.b), "parent": u64s(parent)})
		}
		for k, actor := range rmInherits {
			broker.Publish(audit.EventInheritRemoved, actor, k.a, map[string]string{"child": u64s(k.b)})
		}
	}
	return nil
}

func u64s(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// adaptive tracks recent flush pressure and grows or shrinks the capacity
// threshold every 8 flushes: consistently hitting capacity before the
// flush interval elapses grows it, consistently timing out instead shrinks it.
type adaptive struct {
	capacity, min, max int
	fills, timeouts    int
	window             int
}

func newAdaptive() *adaptive {
	return newAdaptiveWithTuning(DefaultTuning)
}

func newAdaptiveWithTuning(t Tuning) *adaptive {
	return &adaptive{capacity: t.InitialCapacity, min: t.MinCapacity, max: t.MaxCapacity}
}

func (a *adaptive) record(hitCapacity bool, wasTimeout bool) {
	a.window++
	if wasTimeout {
		a.timeouts++
	} else if hitCapacity {
		a.fills++
	}
	if a.window >= 8 {
		a.adapt()
	}
	metrics.PlannerCapacity.Set(float64(a.capacity))
}

func (a *adaptive) adapt() {
	if a.window == 0 {
		return
	}
	fillPct := a.fills * 100 / a.window
	timeoutPct := a.timeouts * 100 / a.window

	switch {
	case fillPct > 60:
		a.capacity = min(a.capacity*3/2, a.max)
	case timeoutPct > 60 && a.capacity > a.min*2:
		a.capacity = max(a.capacity*2/3, a.min)
	}
	a.fills, a.timeouts, a.window = 0, 0, 0
}

// Planner owns the single background writer goroutine. pkg/aegis routes
// relationship set/delete and WriteBatch ops through it; its other mutating
// verbs commit synchronously. Resolver and gate reads go straight to storage
// and so always see at least the last flushed state.
type Planner struct {
	db     *storage.DB
	broker *audit.Broker
	tuning Tuning
	opCh   chan Op
	stopCh chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool
	logger zerolog.Logger
}

// New starts a planner writing through db using DefaultTuning. broker may be
// nil, in which case no audit events are published.
func New(db *storage.DB, broker *audit.Broker) *Planner {
	return NewWithTuning(db, broker, DefaultTuning)
}

// NewWithTuning starts a planner with caller-supplied adaptive batching
// bounds, e.g. as loaded from pkg/config.
func NewWithTuning(db *storage.DB, broker *audit.Broker, tuning Tuning) *Planner {
	p := &Planner{
		db:     db,
		broker: broker,
		tuning: tuning.orDefault(),
		opCh:   make(chan Op, 256),
		stopCh: make(chan struct{}),
		logger: log.WithComponent("planner"),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Submit enqueues op for the writer goroutine. It waits only while the
// 256-op channel buffer is full, and returns aegiserr.ErrPlannerClosed once
// the planner has been closed.
func (p *Planner) Submit(op Op) error {
	if p.closed.Load() {
		return aegiserr.ErrPlannerClosed
	}
	select {
	case p.opCh <- op:
		return nil
	case <-p.stopCh:
		return aegiserr.ErrPlannerClosed
	}
}

// Close stops the writer goroutine after a final flush of any pending batch,
// including ops still queued in the channel.
func (p *Planner) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.stopCh)
	p.wg.Wait()
}

func (p *Planner) run() {
	defer p.wg.Done()

	b := newBatch()
	ad := newAdaptiveWithTuning(p.tuning)
	ticker := time.NewTicker(p.tuning.FlushInterval)
	defer ticker.Stop()

	flush := func(wasTimeout bool) {
		hitCapacity := b.count >= ad.capacity
		timer := metrics.NewTimer()
		if err := b.flush(p.db, p.broker, p.logger); err == nil {
			timer.ObserveDuration(metrics.PlannerFlushDuration)
		}
		ad.record(hitCapacity, wasTimeout)
		trigger := "timeout"
		if hitCapacity {
			trigger = "capacity"
		}
		metrics.PlannerFlushesTotal.WithLabelValues(trigger).Inc()
		metrics.PlannerQueueDepth.Set(0)
	}

	for {
		select {
		case op, ok := <-p.opCh:
			if !ok {
				_ = b.flush(p.db, p.broker, p.logger)
				return
			}
			b.add(op)
			metrics.PlannerQueueDepth.Set(float64(b.count))
			if b.count >= ad.capacity {
				flush(false)
			}
		case <-ticker.C:
			if !b.isEmpty() {
				flush(true)
			}
		case <-p.stopCh:
			for drained := false; !drained; {
				select {
				case op := <-p.opCh:
					b.add(op)
				default:
					drained = true
				}
			}
			_ = b.flush(p.db, p.broker, p.logger)
			return
		}
	}
}
