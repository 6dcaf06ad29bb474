package planner

import (
	"testing"
	"time"

	"github.com/cuemby/aegis/pkg/audit"
	"github.com/cuemby/aegis/pkg/resolver"
	"github.com/cuemby/aegis/pkg/storage"
	"github.com/cuemby/aegis/pkg/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBatchMergesSameKeyGrants(t *testing.T) {
	b := newBatch()
	b.add(Grant(0, 1, 2, 0x1))
	b.add(Grant(0, 1, 2, 0x4))
	assert.Equal(t, uint64(0x5), b.grants[pairKey{1, 2}])
	assert.Equal(t, 2, b.count)
}

func TestBatchRevokeWinsOverSameBatchGrant(t *testing.T) {
	b := newBatch()
	b.add(Grant(0, 1, 2, 0x1))
	b.add(Revoke(0, 1, 2))
	_, stillGranted := b.grants[pairKey{1, 2}]
	assert.False(t, stillGranted)
	_, revoked := b.revokes[pairKey{1, 2}]
	assert.True(t, revoked)
}

func TestBatchSetInheritCancelsPendingRemoveInherit(t *testing.T) {
	b := newBatch()
	b.add(RemoveInherit(0, 1, 2))
	b.add(SetInherit(0, 1, 2, 3))
	_, pendingRemoval := b.rmInherits[pairKey{1, 2}]
	assert.False(t, pendingRemoval)
	assert.Equal(t, uint64(3), b.inherits[pairKey{1, 2}])
}

func TestPlannerSubmitAppliesGrant(t *testing.T) {
	db := openTestDB(t)
	var subject, object uint64
	err := txn.Transact(db, func(tx *txn.Tx) error {
		var err error
		subject, err = tx.CreateEntity("user:alice")
		if err != nil {
			return err
		}
		object, err = tx.CreateEntity("resource:doc1")
		return err
	})
	require.NoError(t, err)

	p := New(db, nil)
	require.NoError(t, p.Submit(Grant(subject, subject, object, 0x1)))
	p.Close()

	err = db.View(func(bt *bolt.Tx) error {
		assert.Equal(t, uint64(0x1), resolver.GetMask(bt, subject, object))
		return nil
	})
	require.NoError(t, err)
}

func TestPlannerFlushesOnTickerWithoutClose(t *testing.T) {
	db := openTestDB(t)
	var subject, object uint64
	err := txn.Transact(db, func(tx *txn.Tx) error {
		var err error
		subject, err = tx.CreateEntity("user:bob")
		if err != nil {
			return err
		}
		object, err = tx.CreateEntity("resource:doc2")
		return err
	})
	require.NoError(t, err)

	p := New(db, nil)
	defer p.Close()
	require.NoError(t, p.Submit(Grant(subject, subject, object, 0x2)))

	require.Eventually(t, func() bool {
		applied := false
		_ = db.View(func(bt *bolt.Tx) error {
			applied = resolver.GetMask(bt, subject, object) == 0x2
			return nil
		})
		return applied
	}, time.Second, 5*time.Millisecond)
}

func TestPlannerSubmitAfterCloseReturnsError(t *testing.T) {
	db := openTestDB(t)
	p := New(db, nil)
	p.Close()
	err := p.Submit(Grant(0, 1, 2, 0x1))
	assert.Error(t, err)
}

func TestPlannerPublishesAuditEventOnFlush(t *testing.T) {
	db := openTestDB(t)
	var actor, subject, object uint64
	err := txn.Transact(db, func(tx *txn.Tx) error {
		var err error
		actor, err = tx.CreateEntity("user:root")
		if err != nil {
			return err
		}
		subject, err = tx.CreateEntity("user:alice")
		if err != nil {
			return err
		}
		object, err = tx.CreateEntity("resource:doc1")
		return err
	})
	require.NoError(t, err)

	broker := audit.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	p := New(db, broker)
	require.NoError(t, p.Submit(Grant(actor, subject, object, 0x1)))
	p.Close()

	select {
	case event := <-sub:
		assert.Equal(t, audit.EventGrant, event.Type)
		assert.Equal(t, actor, event.Actor)
		assert.Equal(t, object, event.Scope)
	case <-time.After(time.Second):
		t.Fatal("expected audit event after flush")
	}
}

func TestAdaptiveGrowsCapacityUnderSustainedFill(t *testing.T) {
	a := newAdaptive()
	initial := a.capacity
	for i := 0; i < 8; i++ {
		a.record(true, false)
	}
	assert.Greater(t, a.capacity, initial)
}

func TestAdaptiveShrinksCapacityUnderSustainedTimeout(t *testing.T) {
	a := newAdaptive()
	a.capacity = 1000
	for i := 0; i < 8; i++ {
		a.record(false, true)
	}
	assert.Less(t, a.capacity, 1000)
}
