// Package activity keeps a short per-client history of confirmed changes,
// filled from the activity queue.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nataliagff23/checklist-clientes/domain"
)

const (
	feedPrefix = "activity"
	// DefaultLimit is how many events a feed keeps per client.
	DefaultLimit = 50
)

// ErrInvalidEvent is returned for events that can never be recorded.
var ErrInvalidEvent = errors.New("invalid activity event")

// Feed stores the most recent events of each client in a redis list, newest
// first.
type Feed struct {
	redis *redis.Client
	limit int64
}

// NewFeed creates a feed keeping up to limit events per client.
func NewFeed(client *redis.Client, limit int) *Feed {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Feed{redis: client, limit: int64(limit)}
}

func feedKey(clientID string) string {
	return fmt.Sprintf("%s:%s", feedPrefix, clientID)
}

// Record appends ev to its client's feed. A client.deleted event drops the
// whole feed.
func (f *Feed) Record(ctx context.Context, ev domain.Event) error {
	if ev.ClientID == "" {
		return fmt.Errorf("%w: %s has no client", ErrInvalidEvent, ev.Type)
	}
	key := feedKey(ev.ClientID)
	if ev.Type == domain.ClientDeleted {
		return f.redis.Del(ctx, key).Err()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pipe := f.redis.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, f.limit-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to n events of a client, newest first.
func (f *Feed) Recent(ctx context.Context, clientID string, n int) ([]domain.Event, error) {
	if n <= 0 || int64(n) > f.limit {
		n = int(f.limit)
	}
	raw, err := f.redis.LRange(ctx, feedKey(clientID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(raw))
	for _, r := range raw {
		var ev domain.Event
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
