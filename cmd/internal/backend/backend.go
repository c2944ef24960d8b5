// Package backend opens the store selected by the configuration, with the
// optional redis cache and activity queue around it.
package backend

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/catalog"
	"github.com/nataliagff23/checklist-clientes/config"
	"github.com/nataliagff23/checklist-clientes/dashboard"
	"github.com/nataliagff23/checklist-clientes/domain"
	"github.com/nataliagff23/checklist-clientes/storage"
	"github.com/nataliagff23/checklist-clientes/storage/memory"
	"github.com/nataliagff23/checklist-clientes/storage/postgres"
)

// Backend bundles the store and activity feed used by the binaries.
type Backend struct {
	// Store is the store handed to the dashboard, cached when redis is
	// configured.
	Store dashboard.Store
	// Events is nil when no activity queue is configured.
	Events dashboard.Publisher
	// Redis is nil when no redis connection string is configured.
	Redis *redis.Client

	base    dashboard.Store
	queue   *storage.ActivityQueue
	closers []func()
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	b := &Backend{}
	switch cfg.Backend {
	case config.BackendMemory:
		templates, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		b.base = memory.New(templates)
	case config.BackendPostgres:
		pg, err := postgres.Open(ctx, cfg.Endpoint, cfg.AccessKey)
		if err != nil {
			return nil, err
		}
		b.base = pg
		b.closers = append(b.closers, pg.Close)
	default:
		st, err := storage.New(cfg.Endpoint, cfg.AccessKey, storage.Tables{
			Clients:   cfg.ClientsTable,
			Templates: cfg.TemplatesTable,
			Tasks:     cfg.TasksTable,
			Briefings: cfg.BriefingsTable,
		})
		if err != nil {
			return nil, err
		}
		b.base = st
	}
	b.Store = b.base

	if cfg.RedisConnString != "" {
		rc := redis.NewClient(RedisOptions(cfg.RedisConnString))
		b.closers = append(b.closers, func() {
			if err := rc.Close(); err != nil {
				log.WithError(err).Warn("close redis client")
			}
		})
		b.Redis = rc
		b.Store = storage.NewCache(b.base, rc, cfg.CacheTTL)
	}

	if cfg.ActivityQueueURL != "" {
		q, err := storage.NewActivityQueue(cfg.ActivityQueueURL, cfg.AccessKey)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("activity queue: %w", err)
		}
		b.queue = q
		b.Events = q
	}
	return b, nil
}

// Queue returns the activity queue, or nil when none is configured.
func (b *Backend) Queue() *storage.ActivityQueue {
	return b.queue
}

// RedisOptions accepts a redis:// URL or the "host:port,password=...,ssl=True"
// form used by Azure Cache for Redis.
func RedisOptions(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "password":
			opts.Password = v
		case "ssl":
			if strings.EqualFold(v, "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

// Provision prepares the backend for first use: it creates the tables or the
// schema, replaces the template catalog and creates the activity queue.
func (b *Backend) Provision(ctx context.Context, templates []domain.TaskTemplate) error {
	switch s := b.base.(type) {
	case *storage.Storage:
		if err := s.CreateTables(ctx); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
		if err := s.ReplaceTemplates(ctx, templates); err != nil {
			return fmt.Errorf("seed templates: %w", err)
		}
	case *postgres.Store:
		if err := s.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if err := s.ReplaceTemplates(ctx, templates); err != nil {
			return fmt.Errorf("seed templates: %w", err)
		}
	case *memory.Store:
		s.SetTemplates(templates)
	}
	if c, ok := b.Store.(*storage.Cache); ok {
		if err := c.InvalidateTemplates(ctx); err != nil {
			return fmt.Errorf("invalidate cached templates: %w", err)
		}
	}
	if b.queue != nil {
		if err := b.queue.Create(ctx); err != nil {
			return fmt.Errorf("create activity queue: %w", err)
		}
	}
	return nil
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
