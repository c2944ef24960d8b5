package activity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/domain"
	"github.com/nataliagff23/checklist-clientes/storage"
)

// Source is the queue the processor drains.
type Source interface {
	Receive(ctx context.Context) (*storage.Delivery, error)
	Ack(ctx context.Context, d storage.Delivery) error
}

type recorder interface {
	Record(ctx context.Context, ev domain.Event) error
}

// Processor moves events from the activity queue into the feed.
type Processor struct {
	source Source
	feed   recorder
	log    *log.Logger
	idle   time.Duration
}

// NewProcessor creates a processor that waits idle between polls of an empty
// queue.
func NewProcessor(source Source, feed recorder, idle time.Duration, logger *log.Logger) *Processor {
	if idle <= 0 {
		idle = time.Second
	}
	return &Processor{source: source, feed: feed, log: logger, idle: idle}
}

// Run processes messages until ctx is done.
func (p *Processor) Run(ctx context.Context) error {
	for {
		handled, err := p.Step(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			p.log.WithError(err).Warn("process activity message")
		}
		if handled && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.idle):
		}
	}
}

// Step handles at most one message and reports whether one was received.
// Undecodable or invalid messages are logged once and acked. Messages that
// fail to record for any other reason are left on the queue and come back
// once their visibility timeout expires.
func (p *Processor) Step(ctx context.Context) (bool, error) {
	d, err := p.source.Receive(ctx)
	if err != nil {
		return false, err
	}
	if d == nil {
		return false, nil
	}
	var ev domain.Event
	if err := json.Unmarshal([]byte(d.Text), &ev); err != nil {
		p.log.WithError(err).WithField("message.id", d.ID).Warn("dropping undecodable activity message")
		return true, p.source.Ack(ctx, *d)
	}
	if err := p.feed.Record(ctx, ev); err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			p.log.WithError(err).WithField("message.id", d.ID).Warn("dropping invalid activity message")
			return true, p.source.Ack(ctx, *d)
		}
		return true, err
	}
	p.log.WithFields(log.Fields{
		"event.type": ev.Type,
		"client.id":  ev.ClientID,
	}).Debug("recorded activity")
	return true, p.source.Ack(ctx, *d)
}
