package dashboard

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/catalog"
	"github.com/nataliagff23/checklist-clientes/domain"
)

// Listing is the directory view: every client with its checklist progress.
type Listing struct {
	Clients  []domain.Client            `json:"clients"`
	Progress map[string]domain.Progress `json:"progress"`
}

// ProgressOf returns the progress of a client, defaulting to zero.
func (l Listing) ProgressOf(id string) domain.Progress {
	return l.Progress[id]
}

// Directory manages the set of clients.
type Directory struct {
	store    Store
	notifier notifier
	log      *log.Logger
}

// NewDirectory creates a Directory. events and logger may be nil.
func NewDirectory(store Store, events Publisher, logger *log.Logger) *Directory {
	n := newNotifier(events, logger)
	return &Directory{store: store, notifier: n, log: n.log}
}

// List fetches all clients and computes their progress from the current task
// rows.
func (d *Directory) List(ctx context.Context) (Listing, error) {
	clients, err := d.store.ListClients(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("list clients: %w", err)
	}
	states, err := d.store.ListTaskStates(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("list task states: %w", err)
	}
	ids := make([]string, len(clients))
	for i, c := range clients {
		ids[i] = c.ID
	}
	if clients == nil {
		clients = []domain.Client{}
	}
	return Listing{Clients: clients, Progress: domain.ProgressByClient(ids, states)}, nil
}

// Get returns the client or domain.ErrNotFound.
func (d *Directory) Get(ctx context.Context, id string) (domain.Client, error) {
	c, err := d.store.GetClient(ctx, id)
	if err != nil {
		return domain.Client{}, fmt.Errorf("get client %s: %w", id, err)
	}
	if c == nil {
		return domain.Client{}, fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
	}
	return *c, nil
}

// Create inserts a client together with one pending task per template. The
// client and its tasks are stored as one unit: when the store cannot do this
// in a transaction, a failed task insert deletes the client again.
func (d *Directory) Create(ctx context.Context, nc domain.NewClient) (domain.Client, error) {
	nc, err := nc.Normalize()
	if err != nil {
		return domain.Client{}, err
	}

	if tx, ok := d.store.(ClientCreator); ok {
		client, n, err := tx.CreateClientWithTasks(ctx, nc, catalog.Instantiate)
		if err == nil {
			d.created(ctx, client, n)
			return client, nil
		}
		if !errors.Is(err, errors.ErrUnsupported) {
			d.log.WithError(err).WithField("business_name", nc.BusinessName).Error("create client")
			return domain.Client{}, fmt.Errorf("create client: %w", err)
		}
	}

	templates, err := d.store.ListTemplates(ctx)
	if err != nil {
		return domain.Client{}, fmt.Errorf("list templates: %w", err)
	}
	client, err := d.store.InsertClient(ctx, nc)
	if err != nil {
		d.log.WithError(err).WithField("business_name", nc.BusinessName).Error("insert client")
		return domain.Client{}, fmt.Errorf("insert client: %w", err)
	}
	tasks := catalog.Instantiate(client.ID, templates)
	if err := d.store.InsertTasks(ctx, tasks); err != nil {
		entry := d.log.WithError(err).WithField("client", client.ID)
		entry.Error("insert checklist tasks")
		if delErr := d.store.DeleteClient(ctx, client.ID); delErr != nil {
			entry.WithField("cleanup_error", delErr.Error()).Error("client left without tasks")
			return domain.Client{}, fmt.Errorf("insert tasks: %w", errors.Join(err, fmt.Errorf("delete client %s: %w", client.ID, delErr)))
		}
		return domain.Client{}, fmt.Errorf("insert tasks: %w", err)
	}
	d.created(ctx, client, len(tasks))
	return client, nil
}

func (d *Directory) created(ctx context.Context, c domain.Client, tasks int) {
	d.log.WithFields(log.Fields{"client": c.ID, "tasks": tasks}).Info("client created")
	d.notifier.publish(ctx, domain.ClientCreated, c.ID, c.ID, domain.ClientCreatedEventData{BusinessName: c.BusinessName, Tasks: tasks})
}

// Delete removes the client. Its tasks and briefing go with it.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.store.DeleteClient(ctx, id); err != nil {
		d.log.WithError(err).WithField("client", id).Error("delete client")
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	d.notifier.publish(ctx, domain.ClientDeleted, id, id, nil)
	return nil
}
