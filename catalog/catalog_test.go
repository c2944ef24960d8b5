package catalog

import (
	"testing"

	"github.com/nataliagff23/checklist-clientes/domain"
)

func TestDefaultCatalogCoversBothChecklists(t *testing.T) {
	templates, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	counts := map[domain.ChecklistType]int{}
	for _, tpl := range templates {
		counts[tpl.ChecklistType]++
		if tpl.TaskName == "" || tpl.Section == "" {
			t.Fatalf("incomplete template: %#v", tpl)
		}
		if tpl.TaskOrder < 1 || tpl.SectionOrder < 1 {
			t.Fatalf("orders must be 1-based: %#v", tpl)
		}
	}
	if counts[domain.ChecklistSetup] == 0 || counts[domain.ChecklistOnboarding] == 0 {
		t.Fatalf("unexpected counts: %#v", counts)
	}
}

func TestParseAssignsOrders(t *testing.T) {
	templates, err := Parse([]byte(`
checklists:
  - type: setup
    sections:
      - name: A
        tasks: [a1, a2]
      - name: B
        tasks: [b1]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(templates) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(templates))
	}
	last := templates[2]
	if last.Section != "B" || last.SectionOrder != 2 || last.TaskOrder != 1 || last.ChecklistType != domain.ChecklistSetup {
		t.Fatalf("unexpected template: %#v", last)
	}
	if templates[1].TaskOrder != 2 {
		t.Fatalf("unexpected task order: %d", templates[1].TaskOrder)
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	if _, err := Parse([]byte("checklists:\n  - type: briefing\n")); err == nil {
		t.Fatalf("expected error for unknown checklist type")
	}
}

func TestInstantiateCopiesEveryTemplatePending(t *testing.T) {
	templates, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	tasks := Instantiate("client-1", templates)
	if len(tasks) != len(templates) {
		t.Fatalf("expected %d tasks, got %d", len(templates), len(tasks))
	}
	for i, task := range tasks {
		tpl := templates[i]
		if task.ClientID != "client-1" || task.IsCompleted {
			t.Fatalf("unexpected task: %#v", task)
		}
		if task.TaskName != tpl.TaskName || task.Section != tpl.Section ||
			task.TaskOrder != tpl.TaskOrder || task.SectionOrder != tpl.SectionOrder ||
			task.ChecklistType != tpl.ChecklistType {
			t.Fatalf("task %d does not match template: %#v vs %#v", i, task, tpl)
		}
	}
}
