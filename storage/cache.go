package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nataliagff23/checklist-clientes/dashboard"
	"github.com/nataliagff23/checklist-clientes/domain"
)

const (
	clientsCacheKey    = "clients"
	taskStatesCacheKey = "task-states"
	templatesCacheKey  = "templates"
)

// Cache wraps a store with Redis-backed caching of the list reads. Writes go
// to the wrapped store and evict the entries they invalidate.
type Cache struct {
	base  dashboard.Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base dashboard.Store, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListClients(ctx context.Context) ([]domain.Client, error) {
	return cached(ctx, c, clientsCacheKey, c.base.ListClients)
}

func (c *Cache) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return c.base.GetClient(ctx, id)
}

func (c *Cache) InsertClient(ctx context.Context, nc domain.NewClient) (domain.Client, error) {
	client, err := c.base.InsertClient(ctx, nc)
	if err != nil {
		return domain.Client{}, err
	}
	c.evict(ctx, clientsCacheKey)
	return client, nil
}

func (c *Cache) DeleteClient(ctx context.Context, id string) error {
	if err := c.base.DeleteClient(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, clientsCacheKey, taskStatesCacheKey, tasksCacheKey(id))
	return nil
}

// CreateClientWithTasks forwards to the wrapped store when it can create a
// client and its tasks in one transaction.
func (c *Cache) CreateClientWithTasks(ctx context.Context, nc domain.NewClient, instantiate dashboard.InstantiateFunc) (domain.Client, int, error) {
	tx, ok := c.base.(dashboard.ClientCreator)
	if !ok {
		return domain.Client{}, 0, errors.ErrUnsupported
	}
	client, n, err := tx.CreateClientWithTasks(ctx, nc, instantiate)
	if err != nil {
		return domain.Client{}, 0, err
	}
	c.evict(ctx, clientsCacheKey, taskStatesCacheKey, tasksCacheKey(client.ID))
	return client, n, nil
}

func (c *Cache) ListTemplates(ctx context.Context) ([]domain.TaskTemplate, error) {
	return cached(ctx, c, templatesCacheKey, c.base.ListTemplates)
}

func (c *Cache) InsertTasks(ctx context.Context, tasks []domain.ChecklistTask) error {
	if err := c.base.InsertTasks(ctx, tasks); err != nil {
		return err
	}
	keys := []string{taskStatesCacheKey}
	seen := map[string]bool{}
	for _, t := range tasks {
		if !seen[t.ClientID] {
			seen[t.ClientID] = true
			keys = append(keys, tasksCacheKey(t.ClientID))
		}
	}
	c.evict(ctx, keys...)
	return nil
}

func (c *Cache) ListTasks(ctx context.Context, clientID string) ([]domain.ChecklistTask, error) {
	return cached(ctx, c, tasksCacheKey(clientID), func(ctx context.Context) ([]domain.ChecklistTask, error) {
		return c.base.ListTasks(ctx, clientID)
	})
}

func (c *Cache) ListTaskStates(ctx context.Context) ([]domain.TaskState, error) {
	return cached(ctx, c, taskStatesCacheKey, c.base.ListTaskStates)
}

func (c *Cache) SetTaskCompleted(ctx context.Context, key domain.TaskKey, done bool) error {
	if err := c.base.SetTaskCompleted(ctx, key, done); err != nil {
		return err
	}
	c.evict(ctx, taskStatesCacheKey, tasksCacheKey(key.ClientID))
	return nil
}

func (c *Cache) GetBriefing(ctx context.Context, clientID string) (*domain.Briefing, error) {
	return c.base.GetBriefing(ctx, clientID)
}

func (c *Cache) InsertBriefing(ctx context.Context, clientID string, data domain.BriefingData) (domain.Briefing, error) {
	return c.base.InsertBriefing(ctx, clientID, data)
}

func (c *Cache) UpdateBriefing(ctx context.Context, clientID, id string, data domain.BriefingData) error {
	return c.base.UpdateBriefing(ctx, clientID, id, data)
}

// cached serves key from Redis, falling back to fetch and storing its result.
// Redis failures never fail the read.
func cached[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := load[T](ctx, c, key); ok {
		return v, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.store(ctx, key, v)
	return v, nil
}

func load[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var v T
	if c.redis == nil {
		return v, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, key).Err()
		}
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return v, false
	}
	return v, true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

// InvalidateTemplates drops the cached template catalog after it has been
// replaced in the underlying store.
func (c *Cache) InvalidateTemplates(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, templatesCacheKey).Err()
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func tasksCacheKey(clientID string) string {
	return "tasks:" + clientID
}
