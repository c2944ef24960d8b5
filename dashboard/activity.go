package dashboard

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/domain"
)

var lastTimestamp int64

// nextTimestamp returns a strictly increasing unix-nano timestamp.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}

// notifier publishes activity events; failures are logged once and never
// reported to the caller of the write.
type notifier struct {
	events Publisher
	log    *log.Logger
}

func newNotifier(events Publisher, logger *log.Logger) notifier {
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return notifier{events: events, log: logger}
}

func (n notifier) publish(ctx context.Context, typ, clientID, entityID string, data any) {
	ev := domain.Event{Type: typ, ClientID: clientID, EntityID: entityID, Timestamp: nextTimestamp()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			n.log.WithError(err).WithField("event", typ).Error("encode activity event")
			return
		}
		ev.Data = raw
	}
	if err := n.events.Publish(ctx, ev); err != nil {
		n.log.WithError(err).WithFields(log.Fields{"event": typ, "client": clientID}).Error("publish activity event")
	}
}
