package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/domain"
)

// MemoryProfileCache keeps profile entries in process. A zero ttl keeps them
// until Clear.
type MemoryProfileCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[domain.EntityID]domain.ProfileEntry
	now     func() time.Time
}

func NewMemoryProfileCache(ttl time.Duration) *MemoryProfileCache {
	return &MemoryProfileCache{
		ttl:     ttl,
		entries: make(map[domain.EntityID]domain.ProfileEntry),
		now:     time.Now,
	}
}

var _ ProfileCache = (*MemoryProfileCache)(nil)

func (c *MemoryProfileCache) Get(_ context.Context, id domain.EntityID) (*domain.ProfileEntry, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().Sub(e.FetchedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, id)
		c.mu.Unlock()
		return nil, false, nil
	}
	cp := e
	return &cp, true, nil
}

func (c *MemoryProfileCache) Set(_ context.Context, e *domain.ProfileEntry) error {
	if e == nil || e.UserID.IsZero() {
		return errors.New("profile entry without user id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.UserID] = *e
	return nil
}

func (c *MemoryProfileCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[domain.EntityID]domain.ProfileEntry)
	return nil
}

func (c *MemoryProfileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisProfileCache shares profile entries between storefront processes.
// Entries are JSON under prefix+id and expire after ttl.
type RedisProfileCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisProfileCache(rdb *redis.Client, prefix string, ttl time.Duration) *RedisProfileCache {
	if prefix == "" {
		prefix = "storefront:profile:"
	}
	return &RedisProfileCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

var _ ProfileCache = (*RedisProfileCache)(nil)

func (c *RedisProfileCache) key(id domain.EntityID) string { return c.prefix + id.String() }

func (c *RedisProfileCache) Get(ctx context.Context, id domain.EntityID) (*domain.ProfileEntry, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get profile: %w", err)
	}
	var e domain.ProfileEntry
	if err := json.Unmarshal(val, &e); err != nil {
		// битая запись считается промахом
		_ = c.rdb.Del(ctx, c.key(id)).Err()
		return nil, false, nil
	}
	return &e, true, nil
}

func (c *RedisProfileCache) Set(ctx context.Context, e *domain.ProfileEntry) error {
	if e == nil || e.UserID.IsZero() {
		return errors.New("profile entry without user id")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.key(e.UserID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set profile: %w", err)
	}
	return nil
}

// Clear removes every entry under the prefix.
func (c *RedisProfileCache) Clear(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis clear profiles: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan profiles: %w", err)
	}
	if len(batch) > 0 {
		if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis clear profiles: %w", err)
		}
	}
	return nil
}
