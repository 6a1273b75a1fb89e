// Package idempotency remembers which order an Idempotency-Key produced so a
// retried placement returns the original order instead of a new one.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingTTL bounds how long a reservation blocks its key when the request
// holding it never completes.
const PendingTTL = time.Minute

// pending is stored under a reserved key until the order exists.
const pending = "pending"

// Store maps idempotency keys to order IDs. A key is reserved before the
// order is placed, so concurrent requests with the same key cannot both
// place one.
type Store interface {
	// Get returns the order ID remembered for key, or found=false. A key
	// that is reserved but not completed is not found.
	Get(ctx context.Context, key string) (orderID string, found bool, err error)
	// Reserve claims key for ttl. When reserved is false the key is taken,
	// and orderID is empty while the other request is still in flight.
	Reserve(ctx context.Context, key string, ttl time.Duration) (orderID string, reserved bool, err error)
	// Complete points a reserved key at orderID.
	Complete(ctx context.Context, key, orderID string, ttl time.Duration) error
	// Release frees a reservation whose placement failed.
	Release(ctx context.Context, key string) error
}

const keyPrefix = "toko:idempotency:"

// RedisStore keeps keys in Redis with an expiry.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisClient connects to addr with a short dial timeout.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	orderID, err := s.rdb.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) || orderID == pending {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return orderID, true, nil
}

func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	// The key can expire between SetNX and Get; try once more in that case.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.rdb.SetNX(ctx, keyPrefix+key, pending, ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("redis setnx %s: %w", key, err)
		}
		if ok {
			return "", true, nil
		}
		value, err := s.rdb.Get(ctx, keyPrefix+key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("redis get %s: %w", key, err)
		}
		if value == pending {
			return "", false, nil
		}
		return value, false, nil
	}
	return "", false, nil
}

func (s *RedisStore) Complete(ctx context.Context, key, orderID string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, keyPrefix+key, orderID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

type memoryEntry struct {
	orderID   string
	expiresAt time.Time
}

// MemoryStore keeps keys in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// live returns the unexpired entry for key. Callers hold mu.
func (s *MemoryStore) live(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) set(key, value string, ttl time.Duration) {
	e := memoryEntry{orderID: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.orderID == pending {
		return "", false, nil
	}
	return e.orderID, true, nil
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.live(key); ok {
		if e.orderID == pending {
			return "", false, nil
		}
		return e.orderID, false, nil
	}
	s.set(key, pending, ttl)
	return "", true, nil
}

func (s *MemoryStore) Complete(_ context.Context, key, orderID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(key, orderID, ttl)
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
