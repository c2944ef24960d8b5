package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/domain"
)

// BriefingEditor holds the draft of a client's briefing. Edits stay local
// until Save.
type BriefingEditor struct {
	store    Store
	notifier notifier
	log      *log.Logger
	clientID string

	saveMu sync.Mutex

	mu       sync.Mutex
	data     domain.BriefingData
	id       string
	revision uint64
	saved    uint64
}

// NewBriefingEditor returns an editor positioned on the default document.
func NewBriefingEditor(store Store, events Publisher, logger *log.Logger, clientID string) *BriefingEditor {
	n := newNotifier(events, logger)
	return &BriefingEditor{store: store, notifier: n, log: n.log, clientID: clientID, data: domain.DefaultBriefing()}
}

// ClientID returns the owner of the briefing.
func (e *BriefingEditor) ClientID() string { return e.clientID }

// Load fetches the stored document. Without one the editor keeps the default
// shape and no id.
func (e *BriefingEditor) Load(ctx context.Context) error {
	b, err := e.store.GetBriefing(ctx, e.clientID)
	if err != nil {
		return fmt.Errorf("get briefing of %s: %w", e.clientID, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.revision++
	e.saved = e.revision
	if b == nil {
		e.data = domain.DefaultBriefing()
		e.id = ""
		return nil
	}
	e.data = b.Data.Clone()
	e.id = b.ID
	return nil
}

// Data returns a copy of the draft.
func (e *BriefingEditor) Data() domain.BriefingData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data.Clone()
}

// ID returns the id of the stored document, or "" before the first save.
func (e *BriefingEditor) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// Persisted reports whether a stored document exists.
func (e *BriefingEditor) Persisted() bool {
	return e.ID() != ""
}

// Dirty reports whether the draft has edits that were not saved.
func (e *BriefingEditor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision != e.saved
}

// Set changes one field of the draft.
func (e *BriefingEditor) Set(key string, v domain.FieldValue) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.data.Set(key, v); err != nil {
		return err
	}
	e.revision++
	return nil
}

// SetText is Set for text and single-choice fields.
func (e *BriefingEditor) SetText(key, text string) error {
	return e.Set(key, domain.FieldValue{Text: text})
}

// ToggleOption flips one option of a multi-choice field in the draft.
func (e *BriefingEditor) ToggleOption(key, option string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.data.ToggleOption(key, option); err != nil {
		return err
	}
	e.revision++
	return nil
}

// Replace swaps the whole draft.
func (e *BriefingEditor) Replace(d domain.BriefingData) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data = d.Clone()
	e.revision++
}

// Save writes the draft. The first save inserts the document and remembers
// its id; later saves update that document. On failure the draft and the id
// are left unchanged.
func (e *BriefingEditor) Save(ctx context.Context) (domain.Briefing, error) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	data := e.data.Clone()
	id := e.id
	rev := e.revision
	e.mu.Unlock()

	entry := e.log.WithField("client", e.clientID)
	saved, err := e.write(ctx, id, data)
	if err != nil {
		entry.WithError(err).Error("save briefing")
		return domain.Briefing{}, err
	}

	e.mu.Lock()
	e.id = saved.ID
	e.saved = rev
	e.mu.Unlock()

	entry.WithField("briefing", saved.ID).Debug("briefing saved")
	e.notifier.publish(ctx, domain.BriefingSaved, e.clientID, saved.ID, nil)
	return saved, nil
}

func (e *BriefingEditor) write(ctx context.Context, id string, data domain.BriefingData) (domain.Briefing, error) {
	if id != "" {
		if err := e.store.UpdateBriefing(ctx, e.clientID, id, data); err != nil {
			return domain.Briefing{}, fmt.Errorf("update briefing %s: %w", id, err)
		}
		return domain.Briefing{ID: id, ClientID: e.clientID, Data: data}, nil
	}

	b, err := e.store.InsertBriefing(ctx, e.clientID, data)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, domain.ErrBriefingExists) {
		return domain.Briefing{}, fmt.Errorf("insert briefing: %w", err)
	}
	// Another editor created the document first; update it instead of
	// creating a second one.
	existing, getErr := e.store.GetBriefing(ctx, e.clientID)
	if getErr != nil || existing == nil {
		return domain.Briefing{}, fmt.Errorf("insert briefing: %w", err)
	}
	if err := e.store.UpdateBriefing(ctx, e.clientID, existing.ID, data); err != nil {
		return domain.Briefing{}, fmt.Errorf("update briefing %s: %w", existing.ID, err)
	}
	return domain.Briefing{ID: existing.ID, ClientID: e.clientID, Data: data, CreatedAt: existing.CreatedAt}, nil
}
