package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// keyPrefix namespaces snapshot keys in the cache.
const keyPrefix = "energy_stats:"

// Store persists the latest snapshot per owner. Writes overwrite
// unconditionally; Get reports found=false when no snapshot exists.
type Store interface {
	Put(ctx context.Context, ownerID string, snap Snapshot) error
	Get(ctx context.Context, ownerID string) (Snapshot, bool, error)
}

// Key returns the cache key for an owner's snapshot.
func Key(ownerID string) string {
	return keyPrefix + ownerID
}

// RedisStore keeps snapshots in Redis as JSON strings, one key per
// owner, no expiry.
type RedisStore struct {
	rdb *goredis.Client
}

// NewRedisStore creates a store on an established Redis client.
func NewRedisStore(rdb *goredis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Put writes the owner's snapshot, replacing any previous one.
func (s *RedisStore) Put(ctx context.Context, ownerID string, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, Key(ownerID), payload, 0).Err(); err != nil {
		return fmt.Errorf("writing snapshot for %s: %w", ownerID, err)
	}
	return nil
}

// Get reads the owner's latest snapshot. A missing key is not an error.
func (s *RedisStore) Get(ctx context.Context, ownerID string) (Snapshot, bool, error) {
	payload, err := s.rdb.Get(ctx, Key(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("reading snapshot for %s: %w", ownerID, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("unmarshalling snapshot for %s: %w", ownerID, err)
	}
	return snap, true, nil
}

// MemoryStore is an in-process Store for tests and development.
// Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]Snapshot)}
}

// Put stores the owner's snapshot.
func (s *MemoryStore) Put(_ context.Context, ownerID string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[ownerID] = snap
	return nil
}

// Get returns the owner's snapshot, if one has been written.
func (s *MemoryStore) Get(_ context.Context, ownerID string) (Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[ownerID]
	return snap, ok, nil
}
