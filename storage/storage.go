package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"github.com/nataliagff23/checklist-clientes/domain"
)

// maxBatch is the largest entity group transaction the table service accepts.
const maxBatch = 100

// table is the subset of *aztables.Client used by Storage.
type table interface {
	CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
	NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
	GetEntity(ctx context.Context, pk, rk string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
	DeleteEntity(ctx context.Context, pk, rk string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
	SubmitTransaction(ctx context.Context, actions []aztables.TransactionAction, options *aztables.SubmitTransactionOptions) (aztables.TransactionResponse, error)
}

// Tables names the four tables used by the dashboard.
type Tables struct {
	Clients   string
	Templates string
	Tasks     string
	Briefings string
}

// Storage keeps clients, templates, checklist tasks and briefings in Azure
// Table storage.
type Storage struct {
	clientTable   table
	templateTable table
	taskTable     table
	briefingTable table
	now           func() time.Time
}

// New creates a Storage for the table service at endpoint, authenticated
// with the account access key.
func New(endpoint, accessKey string, tables Tables) (*Storage, error) {
	account, err := AccountName(endpoint)
	if err != nil {
		return nil, err
	}
	cred, err := aztables.NewSharedKeyCredential(account, accessKey)
	if err != nil {
		return nil, fmt.Errorf("table credential: %w", err)
	}
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientWithSharedKey(endpoint, cred, &opts)
	if err != nil {
		return nil, err
	}
	return newStorage(
		svc.NewClient(tables.Clients),
		svc.NewClient(tables.Templates),
		svc.NewClient(tables.Tasks),
		svc.NewClient(tables.Briefings),
	), nil
}

func newStorage(clients, templates, tasks, briefings table) *Storage {
	return &Storage{
		clientTable:   clients,
		templateTable: templates,
		taskTable:     tasks,
		briefingTable: briefings,
		now:           time.Now,
	}
}

// AccountName derives the storage account from a service endpoint. Hosted
// endpoints carry it as the first host label, emulator endpoints
// (http://127.0.0.1:10002/devstoreaccount1) as the first path segment.
func AccountName(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	if host == "localhost" || net.ParseIP(host) != nil {
		seg, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if seg == "" {
			return "", fmt.Errorf("endpoint %q has no account in its path", endpoint)
		}
		return seg, nil
	}
	account, _, _ := strings.Cut(host, ".")
	return account, nil
}

// CreateTables creates every table, ignoring those that already exist.
func (s *Storage) CreateTables(ctx context.Context) error {
	for _, t := range []table{s.clientTable, s.templateTable, s.taskTable, s.briefingTable} {
		if _, err := t.CreateTable(ctx, nil); err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
				return err
			}
		}
	}
	return nil
}

// ReplaceTemplates makes the stored catalog equal to templates: every
// template is upserted and rows missing from templates are deleted. Existing
// clients keep the tasks they were created with.
func (s *Storage) ReplaceTemplates(ctx context.Context, templates []domain.TaskTemplate) error {
	keep := make(map[[2]string]bool, len(templates))
	for _, t := range templates {
		ent := newTemplateEntity(t)
		payload, err := json.Marshal(ent)
		if err != nil {
			return err
		}
		if _, err := s.templateTable.UpsertEntity(ctx, payload, nil); err != nil {
			return fmt.Errorf("upsert template %s/%s: %w", t.ChecklistType, templateRowKey(t), err)
		}
		keep[[2]string{ent.PartitionKey, ent.RowKey}] = true
	}
	stored, err := listEntities[templateEntity](ctx, s.templateTable, nil)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	for _, e := range stored {
		if keep[[2]string{e.PartitionKey, e.RowKey}] {
			continue
		}
		if _, err := s.templateTable.DeleteEntity(ctx, e.PartitionKey, e.RowKey, nil); err != nil && !isStatus(err, 404) {
			return fmt.Errorf("delete template %s/%s: %w", e.PartitionKey, e.RowKey, err)
		}
	}
	return nil
}

func isStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}

// listEntities decodes every entity matched by opts into T.
func listEntities[T any](ctx context.Context, t table, opts *aztables.ListEntitiesOptions) ([]T, error) {
	pager := t.NewListEntitiesPager(opts)
	var out []T
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent T
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			out = append(out, ent)
		}
	}
	return out, nil
}

func (s *Storage) ListClients(ctx context.Context) ([]domain.Client, error) {
	filter := partitionFilter(clientPartition)
	ents, err := listEntities[clientEntity](ctx, s.clientTable, &aztables.ListEntitiesOptions{Filter: &filter})
	if err != nil {
		return nil, err
	}
	clients := make([]domain.Client, len(ents))
	for i, e := range ents {
		clients[i] = e.client()
	}
	sort.SliceStable(clients, func(i, j int) bool {
		return clients[i].CreatedAt.After(clients[j].CreatedAt)
	})
	return clients, nil
}

func (s *Storage) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	resp, err := s.clientTable.GetEntity(ctx, clientPartition, id, nil)
	if err != nil {
		if isStatus(err, 404) {
			return nil, nil
		}
		return nil, err
	}
	var ent clientEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return nil, err
	}
	c := ent.client()
	return &c, nil
}

func (s *Storage) InsertClient(ctx context.Context, nc domain.NewClient) (domain.Client, error) {
	ent := newClientEntity(uuid.NewString(), nc, s.now())
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.Client{}, err
	}
	if _, err := s.clientTable.AddEntity(ctx, payload, nil); err != nil {
		return domain.Client{}, err
	}
	return ent.client(), nil
}

// DeleteClient removes the client's tasks and briefing before the client row
// itself, so a failure never leaves tasks without a client.
func (s *Storage) DeleteClient(ctx context.Context, id string) error {
	c, err := s.GetClient(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
	}

	filter := partitionFilter(id)
	tasks, err := listEntities[aztables.Entity](ctx, s.taskTable, &aztables.ListEntitiesOptions{Filter: &filter})
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if err := s.deleteTasks(ctx, tasks); err != nil {
		return err
	}
	if _, err := s.briefingTable.DeleteEntity(ctx, id, briefingRowKey, nil); err != nil && !isStatus(err, 404) {
		return fmt.Errorf("delete briefing: %w", err)
	}
	if _, err := s.clientTable.DeleteEntity(ctx, clientPartition, id, nil); err != nil {
		if isStatus(err, 404) {
			return fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Storage) deleteTasks(ctx context.Context, keys []aztables.Entity) error {
	et := azcore.ETagAny
	actions := make([]aztables.TransactionAction, 0, len(keys))
	for _, k := range keys {
		payload, err := json.Marshal(aztables.Entity{PartitionKey: k.PartitionKey, RowKey: k.RowKey})
		if err != nil {
			return err
		}
		actions = append(actions, aztables.TransactionAction{ActionType: aztables.TransactionTypeDelete, Entity: payload, IfMatch: &et})
	}
	for start := 0; start < len(actions); start += maxBatch {
		end := min(start+maxBatch, len(actions))
		if _, err := s.taskTable.SubmitTransaction(ctx, actions[start:end], nil); err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
	}
	return nil
}

func (s *Storage) ListTemplates(ctx context.Context) ([]domain.TaskTemplate, error) {
	ents, err := listEntities[templateEntity](ctx, s.templateTable, nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TaskTemplate, len(ents))
	for i, e := range ents {
		out[i] = e.template()
	}
	return out, nil
}

// InsertTasks adds the tasks in entity group transactions, one partition per
// client. Transactions cannot span more than maxBatch rows; when a later
// batch fails the rows of earlier batches are deleted again.
func (s *Storage) InsertTasks(ctx context.Context, tasks []domain.ChecklistTask) error {
	now := s.now()
	byClient := map[string][]aztables.TransactionAction{}
	var order []string
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		payload, err := json.Marshal(newTaskEntity(t, now))
		if err != nil {
			return err
		}
		if _, ok := byClient[t.ClientID]; !ok {
			order = append(order, t.ClientID)
		}
		byClient[t.ClientID] = append(byClient[t.ClientID], aztables.TransactionAction{ActionType: aztables.TransactionTypeAdd, Entity: payload})
	}

	var done []aztables.Entity
	for _, clientID := range order {
		actions := byClient[clientID]
		for start := 0; start < len(actions); start += maxBatch {
			end := min(start+maxBatch, len(actions))
			if _, err := s.taskTable.SubmitTransaction(ctx, actions[start:end], nil); err != nil {
				if cleanupErr := s.deleteTasks(ctx, done); cleanupErr != nil {
					return errors.Join(err, cleanupErr)
				}
				return err
			}
			for _, a := range actions[start:end] {
				var k aztables.Entity
				if err := json.Unmarshal(a.Entity, &k); err == nil {
					done = append(done, k)
				}
			}
		}
	}
	return nil
}

func (s *Storage) ListTasks(ctx context.Context, clientID string) ([]domain.ChecklistTask, error) {
	filter := partitionFilter(clientID)
	ents, err := listEntities[taskEntity](ctx, s.taskTable, &aztables.ListEntitiesOptions{Filter: &filter})
	if err != nil {
		return nil, err
	}
	out := make([]domain.ChecklistTask, len(ents))
	for i, e := range ents {
		out[i] = e.task()
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SectionOrder != out[j].SectionOrder {
			return out[i].SectionOrder < out[j].SectionOrder
		}
		return out[i].TaskOrder < out[j].TaskOrder
	})
	return out, nil
}

func (s *Storage) ListTaskStates(ctx context.Context) ([]domain.TaskState, error) {
	sel := "PartitionKey,RowKey,ChecklistType,IsCompleted"
	ents, err := listEntities[taskEntity](ctx, s.taskTable, &aztables.ListEntitiesOptions{Select: &sel})
	if err != nil {
		return nil, err
	}
	out := make([]domain.TaskState, len(ents))
	for i, e := range ents {
		out[i] = e.task().State()
	}
	return out, nil
}

func (s *Storage) SetTaskCompleted(ctx context.Context, key domain.TaskKey, done bool) error {
	payload, err := json.Marshal(taskUpdate{
		Entity:        aztables.Entity{PartitionKey: key.ClientID, RowKey: key.ID},
		IsCompleted:   done,
		UpdatedAt:     s.now().UnixNano(),
		UpdatedAtType: edmInt64,
	})
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	if _, err := s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge}); err != nil {
		if isStatus(err, 404) {
			return fmt.Errorf("task %s: %w", key.ID, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Storage) getBriefingEntity(ctx context.Context, clientID string) (*briefingEntity, azcore.ETag, error) {
	resp, err := s.briefingTable.GetEntity(ctx, clientID, briefingRowKey, nil)
	if err != nil {
		if isStatus(err, 404) {
			return nil, "", nil
		}
		return nil, "", err
	}
	var ent briefingEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return nil, "", err
	}
	return &ent, resp.ETag, nil
}

func (s *Storage) GetBriefing(ctx context.Context, clientID string) (*domain.Briefing, error) {
	ent, _, err := s.getBriefingEntity(ctx, clientID)
	if err != nil || ent == nil {
		return nil, err
	}
	b, err := ent.briefing()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Storage) InsertBriefing(ctx context.Context, clientID string, data domain.BriefingData) (domain.Briefing, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return domain.Briefing{}, err
	}
	ts := s.now().UnixNano()
	ent := briefingEntity{
		Entity:        aztables.Entity{PartitionKey: clientID, RowKey: briefingRowKey},
		BriefingID:    uuid.NewString(),
		Data:          string(raw),
		CreatedAt:     ts,
		CreatedAtType: edmInt64,
		UpdatedAt:     ts,
		UpdatedAtType: edmInt64,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.Briefing{}, err
	}
	if _, err := s.briefingTable.AddEntity(ctx, payload, nil); err != nil {
		if isStatus(err, 409) {
			return domain.Briefing{}, domain.ErrBriefingExists
		}
		return domain.Briefing{}, err
	}
	return domain.Briefing{
		ID:        ent.BriefingID,
		ClientID:  clientID,
		Data:      data.Clone(),
		CreatedAt: fromNanos(ts),
		UpdatedAt: fromNanos(ts),
	}, nil
}

func (s *Storage) UpdateBriefing(ctx context.Context, clientID, id string, data domain.BriefingData) error {
	ent, etag, err := s.getBriefingEntity(ctx, clientID)
	if err != nil {
		return err
	}
	if ent == nil || ent.BriefingID != id {
		return fmt.Errorf("briefing %s: %w", id, domain.ErrNotFound)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(briefingUpdate{
		Entity:        aztables.Entity{PartitionKey: clientID, RowKey: briefingRowKey},
		Data:          string(raw),
		UpdatedAt:     s.now().UnixNano(),
		UpdatedAtType: edmInt64,
	})
	if err != nil {
		return err
	}
	_, err = s.briefingTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &etag, UpdateMode: aztables.UpdateModeMerge})
	return err
}
