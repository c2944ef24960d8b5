package domain

import (
	"fmt"
	"time"
)

// ChecklistType identifies one of the two checklists tracked per client.
type ChecklistType string

const (
	ChecklistSetup      ChecklistType = "setup_tecnico"
	ChecklistOnboarding ChecklistType = "onboarding"
)

// ChecklistTypes lists the checklist types in display order.
var ChecklistTypes = []ChecklistType{ChecklistSetup, ChecklistOnboarding}

// ParseChecklistType accepts the stored value or the short alias "setup".
func ParseChecklistType(s string) (ChecklistType, error) {
	switch s {
	case string(ChecklistSetup), "setup":
		return ChecklistSetup, nil
	case string(ChecklistOnboarding):
		return ChecklistOnboarding, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChecklistType, s)
}

// TaskTemplate is one entry of the shared template catalog.
type TaskTemplate struct {
	ChecklistType ChecklistType `json:"checklist_type"`
	Section       string        `json:"section"`
	TaskName      string        `json:"task_name"`
	TaskOrder     int           `json:"task_order"`
	SectionOrder  int           `json:"section_order"`
}

// ChecklistTask is a per-client copy of a template. Only IsCompleted changes
// after creation.
type ChecklistTask struct {
	ID            string        `json:"id"`
	ClientID      string        `json:"client_id"`
	ChecklistType ChecklistType `json:"checklist_type"`
	Section       string        `json:"section"`
	TaskName      string        `json:"task_name"`
	IsCompleted   bool          `json:"is_completed"`
	TaskOrder     int           `json:"task_order"`
	SectionOrder  int           `json:"section_order"`
	CreatedAt     time.Time     `json:"created_at,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at,omitempty"`
}

// Key returns the addressing key of the task.
func (t ChecklistTask) Key() TaskKey {
	return TaskKey{ClientID: t.ClientID, ID: t.ID}
}

// TaskKey addresses a single task. ClientID is carried so that partitioned
// backends can reach the row without a scan.
type TaskKey struct {
	ClientID string `json:"client_id"`
	ID       string `json:"id"`
}

// TaskState is the projection of a task used by the multi-client progress
// view.
type TaskState struct {
	ClientID      string        `json:"client_id"`
	ChecklistType ChecklistType `json:"checklist_type"`
	IsCompleted   bool          `json:"is_completed"`
}

// State projects the task onto its progress-relevant fields.
func (t ChecklistTask) State() TaskState {
	return TaskState{ClientID: t.ClientID, ChecklistType: t.ChecklistType, IsCompleted: t.IsCompleted}
}
