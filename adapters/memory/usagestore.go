package memory

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/artpar/metergate/ports"
)

// counter is a single usage counter row.
type counter struct {
	count     int64
	expiresAt time.Time
}

// usageShard is a single shard of the usage store.
type usageShard struct {
	mu       sync.RWMutex
	counters map[string]counter
}

// UsageStore is a sharded in-memory implementation of ports.UsageStore.
// Uses sharding to reduce lock contention; each increment is serialized by
// its shard lock, so concurrent callers never lose an update.
type UsageStore struct {
	shards    []*usageShard
	numShards int
	cleanup   *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

// UsageStoreConfig configures the usage store.
type UsageStoreConfig struct {
	NumShards       int           // Number of shards (default: 32)
	CleanupInterval time.Duration // How often to reclaim expired counters (default: 1h)
}

// NewUsageStore creates a new sharded in-memory usage store.
func NewUsageStore(cfg UsageStoreConfig) *UsageStore {
	if cfg.NumShards <= 0 {
		cfg.NumShards = 32
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}

	s := &UsageStore{
		shards:    make([]*usageShard, cfg.NumShards),
		numShards: cfg.NumShards,
		done:      make(chan struct{}),
	}

	for i := range s.shards {
		s.shards[i] = &usageShard{
			counters: make(map[string]counter),
		}
	}

	// Start background reclamation of expired counters
	s.cleanup = time.NewTicker(cfg.CleanupInterval)
	go s.cleanupLoop()

	return s
}

// key generates the map key for a user and period.
func (s *UsageStore) key(userID, period string) string {
	return userID + ":" + period
}

// getShard returns the shard for a given key using consistent hashing.
func (s *UsageStore) getShard(key string) *usageShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(s.numShards)]
}

// Count returns the current count for a user's period; 0 when absent.
func (s *UsageStore) Count(ctx context.Context, userID, period string) (int64, error) {
	k := s.key(userID, period)
	shard := s.getShard(k)

	shard.mu.RLock()
	defer shard.mu.RUnlock()

	return shard.counters[k].count, nil
}

// Increment atomically adds 1 to the counter, creating the row with the given
// expiry if absent, and returns the post-increment count.
func (s *UsageStore) Increment(ctx context.Context, userID, period string, expiresAt time.Time) (int64, error) {
	k := s.key(userID, period)
	shard := s.getShard(k)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	c, ok := shard.counters[k]
	if !ok {
		c = counter{expiresAt: expiresAt}
	}
	c.count++
	shard.counters[k] = c

	return c.count, nil
}

// cleanupLoop periodically removes expired counters.
func (s *UsageStore) cleanupLoop() {
	for {
		select {
		case <-s.cleanup.C:
			s.doCleanup(time.Now())
		case <-s.done:
			return
		}
	}
}

// doCleanup removes counters whose expiry has passed.
func (s *UsageStore) doCleanup(now time.Time) {
	for _, shard := range s.shards {
		shard.mu.Lock()
		for k, c := range shard.counters {
			if c.expiresAt.Before(now) {
				delete(shard.counters, k)
			}
		}
		shard.mu.Unlock()
	}
}

// Close stops the cleanup goroutine.
func (s *UsageStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cleanup.Stop()
	})
	return nil
}

// Len returns the total number of counters across all shards (for testing).
func (s *UsageStore) Len() int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		total += len(shard.counters)
		shard.mu.RUnlock()
	}
	return total
}

// Ensure interface compliance.
var _ ports.UsageStore = (*UsageStore)(nil)
