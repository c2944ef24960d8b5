// Package dashboard implements the client directory, the per-client
// checklist, the briefing editor and the view session on top of a Store.
package dashboard

import (
	"context"

	"github.com/nataliagff23/checklist-clientes/domain"
)

// Store abstracts the persistent collections used by the dashboard.
// Lookups return a nil record when the row does not exist; mutations of
// missing rows return domain.ErrNotFound.
type Store interface {
	// ListClients returns all clients, newest first.
	ListClients(ctx context.Context) ([]domain.Client, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	InsertClient(ctx context.Context, c domain.NewClient) (domain.Client, error)
	// DeleteClient removes the client together with its tasks and briefing.
	DeleteClient(ctx context.Context, id string) error

	ListTemplates(ctx context.Context) ([]domain.TaskTemplate, error)
	// InsertTasks stores every task or none of them.
	InsertTasks(ctx context.Context, tasks []domain.ChecklistTask) error
	// ListTasks returns a client's tasks ordered by section then task order.
	ListTasks(ctx context.Context, clientID string) ([]domain.ChecklistTask, error)
	ListTaskStates(ctx context.Context) ([]domain.TaskState, error)
	SetTaskCompleted(ctx context.Context, key domain.TaskKey, done bool) error

	GetBriefing(ctx context.Context, clientID string) (*domain.Briefing, error)
	// InsertBriefing fails with domain.ErrBriefingExists when the client
	// already has a briefing.
	InsertBriefing(ctx context.Context, clientID string, data domain.BriefingData) (domain.Briefing, error)
	UpdateBriefing(ctx context.Context, clientID, id string, data domain.BriefingData) error
}

// InstantiateFunc turns the template catalog into task rows for a client.
type InstantiateFunc func(clientID string, templates []domain.TaskTemplate) []domain.ChecklistTask

// ClientCreator is implemented by stores that can insert a client and its
// tasks in one transaction. Implementations that wrap another store return
// errors.ErrUnsupported when the wrapped store cannot.
type ClientCreator interface {
	CreateClientWithTasks(ctx context.Context, c domain.NewClient, instantiate InstantiateFunc) (domain.Client, int, error)
}

// Publisher receives activity events after writes are confirmed.
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.Event) error { return nil }
