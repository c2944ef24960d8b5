package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/nataliagff23/checklist-clientes/domain"
	"github.com/nataliagff23/checklist-clientes/storage/memory"
)

func newLoadedChecklist(t *testing.T, store *memory.Store) *Checklist {
	t.Helper()
	ctx := context.Background()
	c, err := NewDirectory(store, nil, quietLogger()).Create(ctx, domain.NewClient{BusinessName: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cl := NewChecklist(store, nil, quietLogger(), c.ID)
	if err := cl.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	return cl
}

func TestToggleTwiceRestoresState(t *testing.T) {
	ctx := context.Background()
	store := memory.New(testTemplates)
	cl := newLoadedChecklist(t, store)
	id := cl.Tasks()[1].ID

	first, err := cl.Toggle(ctx, id)
	if err != nil || !first.IsCompleted {
		t.Fatalf("first toggle: %+v, %v", first, err)
	}
	second, err := cl.Toggle(ctx, id)
	if err != nil || second.IsCompleted {
		t.Fatalf("second toggle: %+v, %v", second, err)
	}

	stored, _ := store.ListTasks(ctx, cl.ClientID())
	for _, task := range stored {
		if task.ID == id && task.IsCompleted {
			t.Fatalf("store out of sync after two toggles")
		}
	}
}

func TestToggleFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := memory.New(testTemplates)
	cl := newLoadedChecklist(t, store)
	store.Fail(memory.OpSetTaskCompleted, errors.New("write failed"))

	id := cl.Tasks()[0].ID
	if _, err := cl.Toggle(ctx, id); err == nil {
		t.Fatalf("expected error")
	}
	if cl.Tasks()[0].IsCompleted {
		t.Fatalf("local state flipped without confirmation")
	}
	if cl.Progress(domain.ChecklistSetup) != 0 {
		t.Fatalf("progress changed after failed toggle")
	}
}

func TestToggleUnknownTask(t *testing.T) {
	cl := newLoadedChecklist(t, memory.New(testTemplates))
	if _, err := cl.Toggle(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSectionsGroupInOrder(t *testing.T) {
	ctx := context.Background()
	cl := newLoadedChecklist(t, memory.New(testTemplates))
	for _, task := range cl.Tasks() {
		if task.TaskName == "s3" {
			if _, err := cl.Toggle(ctx, task.ID); err != nil {
				t.Fatalf("toggle: %v", err)
			}
		}
	}
	sections := cl.Sections(domain.ChecklistSetup)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Name != "Accesos" || sections[0].Completed != 0 || sections[0].Total != 2 {
		t.Fatalf("unexpected first section: %+v", sections[0])
	}
	if sections[1].Name != "Pixel" || sections[1].Completed != 1 || sections[1].Total != 2 {
		t.Fatalf("unexpected second section: %+v", sections[1])
	}
	if sections[1].Tasks[0].TaskName != "s3" {
		t.Fatalf("tasks out of order: %+v", sections[1].Tasks)
	}
	if done, total := cl.Counts(domain.ChecklistOnboarding); done != 0 || total != 2 {
		t.Fatalf("onboarding counts = %d/%d", done, total)
	}
}
