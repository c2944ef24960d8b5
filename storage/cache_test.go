package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nataliagff23/checklist-clientes/catalog"
	"github.com/nataliagff23/checklist-clientes/dashboard"
	"github.com/nataliagff23/checklist-clientes/domain"
	"github.com/nataliagff23/checklist-clientes/storage/memory"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

var cacheTemplates = []domain.TaskTemplate{
	{ChecklistType: domain.ChecklistSetup, Section: "A", TaskName: "one", SectionOrder: 1, TaskOrder: 1},
	{ChecklistType: domain.ChecklistOnboarding, Section: "B", TaskName: "two", SectionOrder: 1, TaskOrder: 1},
}

func TestCacheListClientsMissThenHit(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	base := memory.New(cacheTemplates)
	if _, err := base.InsertClient(ctx, domain.NewClient{BusinessName: "Acme"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	cache := NewCache(base, client, time.Minute)

	first, err := cache.ListClients(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	second, err := cache.ListClients(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if base.Calls(memory.OpListClients) != 1 {
		t.Fatalf("expected 1 backend call, got %d", base.Calls(memory.OpListClients))
	}
	if len(second) != 1 || second[0].ID != first[0].ID || !second[0].CreatedAt.Equal(first[0].CreatedAt) {
		t.Fatalf("cached clients differ: %#v vs %#v", second, first)
	}
	if ttl := mr.TTL(clientsCacheKey); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}
}

func TestCacheToggleEvictsTaskEntries(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	base := memory.New(cacheTemplates)
	cache := NewCache(base, client, time.Minute)
	c, _ := base.InsertClient(ctx, domain.NewClient{BusinessName: "Acme"})
	if err := cache.InsertTasks(ctx, catalog.Instantiate(c.ID, cacheTemplates)); err != nil {
		t.Fatalf("insert tasks: %v", err)
	}

	tasks, err := cache.ListTasks(ctx, c.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if _, err := cache.ListTaskStates(ctx); err != nil {
		t.Fatalf("list states: %v", err)
	}
	if !mr.Exists(tasksCacheKey(c.ID)) || !mr.Exists(taskStatesCacheKey) {
		t.Fatalf("expected cache entries")
	}

	if err := cache.SetTaskCompleted(ctx, tasks[0].Key(), true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if mr.Exists(tasksCacheKey(c.ID)) || mr.Exists(taskStatesCacheKey) {
		t.Fatalf("toggle did not evict task entries")
	}

	reloaded, err := cache.ListTasks(ctx, c.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if !reloaded[0].IsCompleted {
		t.Fatalf("stale tasks served after toggle")
	}
}

func TestCacheFailedWriteKeepsEntries(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	base := memory.New(cacheTemplates)
	cache := NewCache(base, client, time.Minute)
	if _, err := cache.ListClients(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	boom := errors.New("boom")
	base.Fail(memory.OpInsertClient, boom)
	if _, err := cache.InsertClient(ctx, domain.NewClient{BusinessName: "Acme"}); !errors.Is(err, boom) {
		t.Fatalf("expected error, got %v", err)
	}
	if !mr.Exists(clientsCacheKey) {
		t.Fatalf("failed write evicted the cache")
	}
}

func TestCacheFallsBackOnCorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	base := memory.New(cacheTemplates)
	cache := NewCache(base, client, time.Minute)
	if err := mr.Set(templatesCacheKey, "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := cache.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if !reflect.DeepEqual(got, cacheTemplates) {
		t.Fatalf("unexpected templates: %#v", got)
	}
}

func TestCacheWithoutRedisPassesThrough(t *testing.T) {
	ctx := context.Background()
	base := memory.New(cacheTemplates)
	cache := NewCache(base, nil, time.Minute)
	_, _ = cache.ListClients(ctx)
	_, _ = cache.ListClients(ctx)
	if base.Calls(memory.OpListClients) != 2 {
		t.Fatalf("expected every read to reach the store")
	}
}

func TestCacheCreateClientRequiresTransactionalBase(t *testing.T) {
	cache := NewCache(memory.New(cacheTemplates), nil, time.Minute)
	_, _, err := cache.CreateClientWithTasks(context.Background(), domain.NewClient{BusinessName: "Acme"}, catalog.Instantiate)
	if !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}

	// The directory falls back to sequential writes through the cache.
	dir := dashboard.NewDirectory(cache, nil, nil)
	if _, err := dir.Create(context.Background(), domain.NewClient{BusinessName: "Acme"}); err != nil {
		t.Fatalf("create through cache: %v", err)
	}
}

func TestCacheInvalidateTemplates(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	base := memory.New(cacheTemplates)
	c := NewCache(base, client, time.Minute)
	if _, err := c.ListTemplates(ctx); err != nil {
		t.Fatalf("list templates: %v", err)
	}
	base.SetTemplates(cacheTemplates[:1])
	if err := c.InvalidateTemplates(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(templatesCacheKey) {
		t.Fatalf("templates entry still cached")
	}
	got, err := c.ListTemplates(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected the replaced catalog, got %+v, %v", got, err)
	}
}
