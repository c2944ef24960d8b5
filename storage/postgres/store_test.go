package postgres

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/nataliagff23/checklist-clientes/catalog"
	"github.com/nataliagff23/checklist-clientes/dashboard"
	"github.com/nataliagff23/checklist-clientes/domain"
)

// testcontainers-go panics when Docker is missing, so probe for it first.
func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL tests in short mode")
	}
	if !dockerAvailable() {
		t.Skip("Docker not available, skipping PostgreSQL tests")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("checklist"),
		tcpostgres.WithUsername("checklist"),
		tcpostgres.WithPassword("checklist"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	store, err := Open(ctx, dsn, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	templates, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if err := store.ReplaceTemplates(ctx, templates); err != nil {
		t.Fatalf("seed templates: %v", err)
	}
	return store
}

func TestPostgresClientLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	dir := dashboard.NewDirectory(store, nil, nil)

	templates, _ := store.ListTemplates(ctx)
	c, err := dir.Create(ctx, domain.NewClient{BusinessName: "Acme", Country: "MX"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.GetClient(ctx, c.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if got.Country != "MX" || got.Website != "" {
		t.Fatalf("unexpected client: %+v", got)
	}

	tasks, err := store.ListTasks(ctx, c.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != len(templates) {
		t.Fatalf("expected %d tasks, got %d", len(templates), len(tasks))
	}
	if err := store.SetTaskCompleted(ctx, tasks[0].Key(), true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	listing, err := dir.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if listing.ProgressOf(c.ID).For(tasks[0].ChecklistType) == 0 {
		t.Fatalf("progress not updated: %+v", listing.Progress)
	}

	if err := dir.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	states, _ := store.ListTaskStates(ctx)
	if len(states) != 0 {
		t.Fatalf("tasks not cascaded: %d left", len(states))
	}
	if err := store.DeleteClient(ctx, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresBriefingIsUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c, err := store.InsertClient(ctx, domain.NewClient{BusinessName: "Acme"})
	if err != nil {
		t.Fatalf("insert client: %v", err)
	}

	data := domain.DefaultBriefing()
	data.AgencyName = "Acme Seguros"
	b, err := store.InsertBriefing(ctx, c.ID, data)
	if err != nil {
		t.Fatalf("insert briefing: %v", err)
	}
	if _, err := store.InsertBriefing(ctx, c.ID, data); !errors.Is(err, domain.ErrBriefingExists) {
		t.Fatalf("expected ErrBriefingExists, got %v", err)
	}
	if _, err := store.InsertBriefing(ctx, "missing", data); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	data.Licenses = []string{"Vida", "Salud"}
	if err := store.UpdateBriefing(ctx, c.ID, b.ID, data); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.GetBriefing(ctx, c.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if got.ID != b.ID || got.Data.AgencyName != "Acme Seguros" || len(got.Data.Licenses) != 2 {
		t.Fatalf("unexpected briefing: %+v", got)
	}
}

func TestPostgresInsertTasksIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c, _ := store.InsertClient(ctx, domain.NewClient{BusinessName: "Acme"})
	err := store.InsertTasks(ctx, []domain.ChecklistTask{
		{ClientID: c.ID, ChecklistType: domain.ChecklistSetup, Section: "A", TaskName: "ok"},
		{ClientID: "missing", ChecklistType: domain.ChecklistSetup, Section: "A", TaskName: "orphan"},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	tasks, _ := store.ListTasks(ctx, c.ID)
	if len(tasks) != 0 {
		t.Fatalf("partial insert left %d tasks", len(tasks))
	}
}

func TestPostgresReplaceTemplates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	next := []domain.TaskTemplate{
		{ChecklistType: domain.ChecklistSetup, Section: "Accesos", TaskName: "only", SectionOrder: 1, TaskOrder: 1},
	}
	if err := store.ReplaceTemplates(ctx, next); err != nil {
		t.Fatalf("replace: %v", err)
	}
	stored, err := store.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 1 || stored[0].TaskName != "only" {
		t.Fatalf("unexpected catalog: %+v", stored)
	}
}
