// Package memory is an in-process store for tests and local runs. It keeps
// the guarantees of the persistent backends: deleting a client removes its
// tasks and briefing, task inserts are all or nothing, and a client has at
// most one briefing.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nataliagff23/checklist-clientes/domain"
)

// Operation names accepted by Fail.
const (
	OpListClients      = "ListClients"
	OpGetClient        = "GetClient"
	OpInsertClient     = "InsertClient"
	OpDeleteClient     = "DeleteClient"
	OpListTemplates    = "ListTemplates"
	OpInsertTasks      = "InsertTasks"
	OpListTasks        = "ListTasks"
	OpListTaskStates   = "ListTaskStates"
	OpSetTaskCompleted = "SetTaskCompleted"
	OpGetBriefing      = "GetBriefing"
	OpInsertBriefing   = "InsertBriefing"
	OpUpdateBriefing   = "UpdateBriefing"
)

type clientRow struct {
	client domain.Client
	seq    uint64
}

type taskRow struct {
	task domain.ChecklistTask
	seq  uint64
}

type briefingRow struct {
	id        string
	clientID  string
	data      []byte
	createdAt time.Time
	updatedAt time.Time
}

// Store implements dashboard.Store in memory.
type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	seq       uint64
	templates []domain.TaskTemplate
	clients   map[string]clientRow
	tasks     map[string]taskRow
	briefings map[string]briefingRow // by client id
	failures  map[string]error
	calls     map[string]int
}

// New returns an empty store seeded with the given template catalog.
func New(templates []domain.TaskTemplate) *Store {
	return &Store{
		now:       time.Now,
		templates: append([]domain.TaskTemplate(nil), templates...),
		clients:   map[string]clientRow{},
		tasks:     map[string]taskRow{},
		briefings: map[string]briefingRow{},
		failures:  map[string]error{},
		calls:     map[string]int{},
	}
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetTemplates replaces the catalog. Existing tasks are not touched.
func (s *Store) SetTemplates(templates []domain.TaskTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append([]domain.TaskTemplate(nil), templates...)
}

// Fail makes every later call of op return err. A nil err clears it.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns how many times op was called.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// SeedBriefing stores a raw document for the client as an older version of
// the form would have written it, and returns its id.
func (s *Store) SeedBriefing(clientID string, raw []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	row := briefingRow{id: uuid.NewString(), clientID: clientID, data: append([]byte(nil), raw...), createdAt: now, updatedAt: now}
	s.briefings[clientID] = row
	return row.id
}

// BriefingCount returns the number of stored briefing documents.
func (s *Store) BriefingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.briefings)
}

// begin records the call and returns the injected failure, if any. Callers
// hold s.mu.
func (s *Store) begin(op string) error {
	s.calls[op]++
	return s.failures[op]
}

func (s *Store) next() uint64 {
	s.seq++
	return s.seq
}

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpListClients); err != nil {
		return nil, err
	}
	rows := make([]clientRow, 0, len(s.clients))
	for _, r := range s.clients {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].client.CreatedAt.Equal(rows[j].client.CreatedAt) {
			return rows[i].client.CreatedAt.After(rows[j].client.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]domain.Client, len(rows))
	for i, r := range rows {
		out[i] = r.client
	}
	return out, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpGetClient); err != nil {
		return nil, err
	}
	r, ok := s.clients[id]
	if !ok {
		return nil, nil
	}
	c := r.client
	return &c, nil
}

func (s *Store) InsertClient(ctx context.Context, nc domain.NewClient) (domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpInsertClient); err != nil {
		return domain.Client{}, err
	}
	now := s.now()
	c := domain.Client{
		ID:                uuid.NewString(),
		BusinessName:      nc.BusinessName,
		LegalName:         nc.LegalName,
		BusinessManagerID: nc.BusinessManagerID,
		AdminEmail:        nc.AdminEmail,
		Website:           nc.Website,
		Industry:          nc.Industry,
		Country:           nc.Country,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.clients[c.ID] = clientRow{client: c, seq: s.next()}
	return c, nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpDeleteClient); err != nil {
		return err
	}
	if _, ok := s.clients[id]; !ok {
		return fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
	}
	delete(s.clients, id)
	for tid, r := range s.tasks {
		if r.task.ClientID == id {
			delete(s.tasks, tid)
		}
	}
	delete(s.briefings, id)
	return nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]domain.TaskTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpListTemplates); err != nil {
		return nil, err
	}
	return append([]domain.TaskTemplate(nil), s.templates...), nil
}

func (s *Store) InsertTasks(ctx context.Context, tasks []domain.ChecklistTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpInsertTasks); err != nil {
		return err
	}
	for _, t := range tasks {
		if _, ok := s.clients[t.ClientID]; !ok {
			return fmt.Errorf("client %s: %w", t.ClientID, domain.ErrNotFound)
		}
	}
	now := s.now()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.CreatedAt, t.UpdatedAt = now, now
		s.tasks[t.ID] = taskRow{task: t, seq: s.next()}
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, clientID string) ([]domain.ChecklistTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpListTasks); err != nil {
		return nil, err
	}
	var rows []taskRow
	for _, r := range s.tasks {
		if r.task.ClientID == clientID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].task, rows[j].task
		if a.SectionOrder != b.SectionOrder {
			return a.SectionOrder < b.SectionOrder
		}
		if a.TaskOrder != b.TaskOrder {
			return a.TaskOrder < b.TaskOrder
		}
		return rows[i].seq < rows[j].seq
	})
	out := make([]domain.ChecklistTask, len(rows))
	for i, r := range rows {
		out[i] = r.task
	}
	return out, nil
}

func (s *Store) ListTaskStates(ctx context.Context) ([]domain.TaskState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpListTaskStates); err != nil {
		return nil, err
	}
	out := make([]domain.TaskState, 0, len(s.tasks))
	for _, r := range s.tasks {
		out = append(out, r.task.State())
	}
	return out, nil
}

func (s *Store) SetTaskCompleted(ctx context.Context, key domain.TaskKey, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpSetTaskCompleted); err != nil {
		return err
	}
	r, ok := s.tasks[key.ID]
	if !ok || (key.ClientID != "" && r.task.ClientID != key.ClientID) {
		return fmt.Errorf("task %s: %w", key.ID, domain.ErrNotFound)
	}
	r.task.IsCompleted = done
	r.task.UpdatedAt = s.now()
	s.tasks[key.ID] = r
	return nil
}

func (s *Store) GetBriefing(ctx context.Context, clientID string) (*domain.Briefing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpGetBriefing); err != nil {
		return nil, err
	}
	r, ok := s.briefings[clientID]
	if !ok {
		return nil, nil
	}
	data, err := domain.MergeBriefing(r.data)
	if err != nil {
		return nil, fmt.Errorf("decode briefing %s: %w", r.id, err)
	}
	return &domain.Briefing{ID: r.id, ClientID: clientID, Data: data, CreatedAt: r.createdAt, UpdatedAt: r.updatedAt}, nil
}

func (s *Store) InsertBriefing(ctx context.Context, clientID string, data domain.BriefingData) (domain.Briefing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpInsertBriefing); err != nil {
		return domain.Briefing{}, err
	}
	if _, ok := s.clients[clientID]; !ok {
		return domain.Briefing{}, fmt.Errorf("client %s: %w", clientID, domain.ErrNotFound)
	}
	if _, ok := s.briefings[clientID]; ok {
		return domain.Briefing{}, domain.ErrBriefingExists
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return domain.Briefing{}, err
	}
	now := s.now()
	row := briefingRow{id: uuid.NewString(), clientID: clientID, data: raw, createdAt: now, updatedAt: now}
	s.briefings[clientID] = row
	return domain.Briefing{ID: row.id, ClientID: clientID, Data: data.Clone(), CreatedAt: now, UpdatedAt: now}, nil
}

func (s *Store) UpdateBriefing(ctx context.Context, clientID, id string, data domain.BriefingData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpUpdateBriefing); err != nil {
		return err
	}
	r, ok := s.briefings[clientID]
	if !ok || r.id != id {
		return fmt.Errorf("briefing %s: %w", id, domain.ErrNotFound)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	r.data = raw
	r.updatedAt = s.now()
	s.briefings[clientID] = r
	return nil
}
