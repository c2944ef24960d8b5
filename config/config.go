// Package config reads the dashboard configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend selects the store implementation.
type Backend string

const (
	BackendTables   Backend = "tables"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// ErrMissingStore is returned when the store endpoint or access key is unset.
var ErrMissingStore = errors.New("missing storage config")

// Config holds the settings shared by the binaries.
type Config struct {
	Backend   Backend
	Endpoint  string
	AccessKey string

	ClientsTable   string
	TemplatesTable string
	TasksTable     string
	BriefingsTable string

	ActivityQueueURL string
	RedisConnString  string
	CacheTTL         time.Duration

	PublicBaseURL string
	Port          string
	Debug         bool
}

// FromEnv builds a Config from environment variables. STORE_ENDPOINT and
// STORE_ACCESS_KEY are required unless the memory backend is selected.
func FromEnv() (Config, error) {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) (Config, error) {
	cfg := Config{
		Backend:          Backend(or(getenv("STORE_BACKEND"), string(BackendTables))),
		Endpoint:         getenv("STORE_ENDPOINT"),
		AccessKey:        getenv("STORE_ACCESS_KEY"),
		ClientsTable:     or(getenv("CLIENTS_TABLE"), "clients"),
		TemplatesTable:   or(getenv("TEMPLATES_TABLE"), "tasktemplates"),
		TasksTable:       or(getenv("TASKS_TABLE"), "checklisttasks"),
		BriefingsTable:   or(getenv("BRIEFINGS_TABLE"), "clientbriefings"),
		ActivityQueueURL: getenv("ACTIVITY_QUEUE_URL"),
		RedisConnString:  getenv("REDIS_CONNECTION_STRING"),
		CacheTTL:         30 * time.Second,
		PublicBaseURL:    getenv("PUBLIC_BASE_URL"),
		Port:             or(getenv("PORT"), "8080"),
	}

	switch cfg.Backend {
	case BackendTables, BackendPostgres, BackendMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Backend)
	}
	if cfg.Backend != BackendMemory && (cfg.Endpoint == "" || cfg.AccessKey == "") {
		return Config{}, ErrMissingStore
	}

	if v := getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = ttl
	}
	if dbg, err := strconv.ParseBool(getenv("DEBUG")); err == nil {
		cfg.Debug = dbg
	}
	return cfg, nil
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
