// Package postgres stores the dashboard in PostgreSQL. Foreign keys cascade
// client deletes and client creation runs in a single transaction.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nataliagff23/checklist-clientes/dashboard"
	"github.com/nataliagff23/checklist-clientes/domain"
)

//go:embed schema.sql
var schema string

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Store implements dashboard.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to the database at dsn. A non-empty password overrides the
// one in dsn.
func Open(ctx context.Context, dsn, password string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if password != "" {
		cfg.ConnConfig.Password = password
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewStore(pool), nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ReplaceTemplates makes the stored catalog equal to templates in one
// transaction.
func (s *Store) ReplaceTemplates(ctx context.Context, templates []domain.TaskTemplate) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM task_templates`)
	for _, t := range templates {
		batch.Queue(`INSERT INTO task_templates (checklist_type, section, task_name, task_order, section_order)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (checklist_type, section_order, task_order)
			 DO UPDATE SET section = EXCLUDED.section, task_name = EXCLUDED.task_name`,
			string(t.ChecklistType), t.Section, t.TaskName, t.TaskOrder, t.SectionOrder)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("replace templates: %w", err)
	}
	return tx.Commit(ctx)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const clientColumns = `id, business_name, legal_name, business_manager_id, admin_email, website, industry, country, created_at, updated_at`

func scanClient(row pgx.Row) (domain.Client, error) {
	var c domain.Client
	var legal, manager, email, website, industry, country *string
	err := row.Scan(&c.ID, &c.BusinessName, &legal, &manager, &email, &website, &industry, &country, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Client{}, err
	}
	c.LegalName = deref(legal)
	c.BusinessManagerID = deref(manager)
	c.AdminEmail = deref(email)
	c.Website = deref(website)
	c.Industry = deref(industry)
	c.Country = deref(country)
	return c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	c, err := scanClient(s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	return &c, nil
}

func insertClient(ctx context.Context, q querier, nc domain.NewClient) (domain.Client, error) {
	row := q.QueryRow(ctx,
		`INSERT INTO clients (business_name, legal_name, business_manager_id, admin_email, website, industry, country)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+clientColumns,
		nc.BusinessName, nullable(nc.LegalName), nullable(nc.BusinessManagerID), nullable(nc.AdminEmail),
		nullable(nc.Website), nullable(nc.Industry), nullable(nc.Country))
	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, fmt.Errorf("insert client: %w", err)
	}
	return c, nil
}

func (s *Store) InsertClient(ctx context.Context, nc domain.NewClient) (domain.Client, error) {
	return insertClient(ctx, s.pool, nc)
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete client %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CreateClientWithTasks inserts the client and one task per template in one
// transaction.
func (s *Store) CreateClientWithTasks(ctx context.Context, nc domain.NewClient, instantiate dashboard.InstantiateFunc) (domain.Client, int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Client{}, 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	templates, err := listTemplates(ctx, tx)
	if err != nil {
		return domain.Client{}, 0, err
	}
	c, err := insertClient(ctx, tx, nc)
	if err != nil {
		return domain.Client{}, 0, err
	}
	tasks := instantiate(c.ID, templates)
	if err := insertTasks(ctx, tx, tasks); err != nil {
		return domain.Client{}, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Client{}, 0, fmt.Errorf("commit: %w", err)
	}
	return c, len(tasks), nil
}

func listTemplates(ctx context.Context, q querier) ([]domain.TaskTemplate, error) {
	rows, err := q.Query(ctx,
		`SELECT checklist_type, section, task_name, task_order, section_order
		 FROM task_templates ORDER BY checklist_type, section_order, task_order`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []domain.TaskTemplate
	for rows.Next() {
		var (
			t  domain.TaskTemplate
			ct string
		)
		if err := rows.Scan(&ct, &t.Section, &t.TaskName, &t.TaskOrder, &t.SectionOrder); err != nil {
			return nil, err
		}
		t.ChecklistType = domain.ChecklistType(ct)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListTemplates(ctx context.Context) ([]domain.TaskTemplate, error) {
	return listTemplates(ctx, s.pool)
}

var taskCopyColumns = []string{"id", "client_id", "checklist_type", "section", "task_name", "is_completed", "task_order", "section_order"}

func insertTasks(ctx context.Context, q querier, tasks []domain.ChecklistTask) error {
	rows := make([][]any, len(tasks))
	for i, t := range tasks {
		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		rows[i] = []any{id, t.ClientID, string(t.ChecklistType), t.Section, t.TaskName, t.IsCompleted, t.TaskOrder, t.SectionOrder}
	}
	if _, err := q.CopyFrom(ctx, pgx.Identifier{"checklist_tasks"}, taskCopyColumns, pgx.CopyFromRows(rows)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return fmt.Errorf("insert tasks: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert tasks: %w", err)
	}
	return nil
}

// InsertTasks copies the tasks in one statement, so either all of them are
// stored or none.
func (s *Store) InsertTasks(ctx context.Context, tasks []domain.ChecklistTask) error {
	return insertTasks(ctx, s.pool, tasks)
}

func (s *Store) ListTasks(ctx context.Context, clientID string) ([]domain.ChecklistTask, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, client_id, checklist_type, section, task_name, is_completed, task_order, section_order, created_at, updated_at
		 FROM checklist_tasks WHERE client_id = $1 ORDER BY section_order, task_order`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []domain.ChecklistTask
	for rows.Next() {
		var (
			t  domain.ChecklistTask
			ct string
		)
		if err := rows.Scan(&t.ID, &t.ClientID, &ct, &t.Section, &t.TaskName, &t.IsCompleted, &t.TaskOrder, &t.SectionOrder, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.ChecklistType = domain.ChecklistType(ct)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListTaskStates(ctx context.Context) ([]domain.TaskState, error) {
	rows, err := s.pool.Query(ctx, `SELECT client_id, checklist_type, is_completed FROM checklist_tasks`)
	if err != nil {
		return nil, fmt.Errorf("list task states: %w", err)
	}
	defer rows.Close()

	var out []domain.TaskState
	for rows.Next() {
		var (
			st domain.TaskState
			ct string
		)
		if err := rows.Scan(&st.ClientID, &ct, &st.IsCompleted); err != nil {
			return nil, err
		}
		st.ChecklistType = domain.ChecklistType(ct)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) SetTaskCompleted(ctx context.Context, key domain.TaskKey, done bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE checklist_tasks SET is_completed = $2, updated_at = now()
		 WHERE id = $1 AND ($3 = '' OR client_id = $3)`, key.ID, done, key.ClientID)
	if err != nil {
		return fmt.Errorf("update task %s: %w", key.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update task %s: %w", key.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetBriefing(ctx context.Context, clientID string) (*domain.Briefing, error) {
	var (
		b   domain.Briefing
		raw []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, client_id, data, created_at, updated_at FROM client_briefings WHERE client_id = $1`, clientID).
		Scan(&b.ID, &b.ClientID, &raw, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get briefing: %w", err)
	}
	b.Data, err = domain.MergeBriefing(raw)
	if err != nil {
		return nil, fmt.Errorf("decode briefing %s: %w", b.ID, err)
	}
	return &b, nil
}

func (s *Store) InsertBriefing(ctx context.Context, clientID string, data domain.BriefingData) (domain.Briefing, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return domain.Briefing{}, fmt.Errorf("marshal briefing: %w", err)
	}
	b := domain.Briefing{ClientID: clientID, Data: data.Clone()}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO client_briefings (client_id, data) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`, clientID, raw).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return domain.Briefing{}, domain.ErrBriefingExists
			case foreignKeyViolation:
				return domain.Briefing{}, fmt.Errorf("client %s: %w", clientID, domain.ErrNotFound)
			}
		}
		return domain.Briefing{}, fmt.Errorf("insert briefing: %w", err)
	}
	return b, nil
}

func (s *Store) UpdateBriefing(ctx context.Context, clientID, id string, data domain.BriefingData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal briefing: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE client_briefings SET data = $3, updated_at = now() WHERE id = $1 AND client_id = $2`,
		id, clientID, raw)
	if err != nil {
		return fmt.Errorf("update briefing %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update briefing %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
