package metrics

import (
	"time"

	"github.com/cuemby/aegis/pkg/storage"
	bolt "go.etcd.io/bbolt"
)

// Collector periodically samples gauge-style metrics that aren't naturally
// updated on every operation: entity counts and stored session counts.
type Collector struct {
	db     *storage.DB
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over db.
func NewCollector(db *storage.DB) *Collector {
	return &Collector{
		db:     db,
		stopCh: make(chan struct{}),
	}
}

// Start begins periodic collection.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	_ = c.db.View(func(tx *bolt.Tx) error {
		EntitiesTotal.Set(float64(tx.Bucket(storage.BucketLabels).Stats().KeyN))
		SessionsActive.Set(float64(tx.Bucket(storage.BucketSessions).Stats().KeyN))
		return nil
	})
}
