package dashboard

import (
	"context"
	"fmt"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/domain"
)

// Section groups the tasks of one checklist section in display order.
type Section struct {
	Name      string                 `json:"name"`
	Order     int                    `json:"order"`
	Tasks     []domain.ChecklistTask `json:"tasks"`
	Completed int                    `json:"completed"`
	Total     int                    `json:"total"`
}

// Checklist is the in-memory mirror of one client's tasks. It reflects only
// states confirmed by the store.
type Checklist struct {
	store    Store
	notifier notifier
	log      *log.Logger
	clientID string

	mu    sync.Mutex
	tasks []domain.ChecklistTask
}

// NewChecklist creates an empty checklist for the client. Call Load to fetch
// its tasks.
func NewChecklist(store Store, events Publisher, logger *log.Logger, clientID string) *Checklist {
	n := newNotifier(events, logger)
	return &Checklist{store: store, notifier: n, log: n.log, clientID: clientID}
}

// ClientID returns the owner of the checklist.
func (c *Checklist) ClientID() string { return c.clientID }

// Load replaces the mirror with the tasks currently stored.
func (c *Checklist) Load(ctx context.Context) error {
	tasks, err := c.store.ListTasks(ctx, c.clientID)
	if err != nil {
		return fmt.Errorf("list tasks of %s: %w", c.clientID, err)
	}
	c.mu.Lock()
	c.tasks = tasks
	c.mu.Unlock()
	return nil
}

// Tasks returns a copy of the mirrored tasks.
func (c *Checklist) Tasks() []domain.ChecklistTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tasks)
}

// Toggle sends the negated state of the task to the store and mirrors it
// locally once the store has accepted it. On failure the mirror is left as
// it was.
func (c *Checklist) Toggle(ctx context.Context, taskID string) (domain.ChecklistTask, error) {
	c.mu.Lock()
	i := c.index(taskID)
	if i < 0 {
		c.mu.Unlock()
		return domain.ChecklistTask{}, fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	task := c.tasks[i]
	c.mu.Unlock()

	next := !task.IsCompleted
	if err := c.store.SetTaskCompleted(ctx, task.Key(), next); err != nil {
		c.log.WithError(err).WithFields(log.Fields{"client": c.clientID, "task": taskID}).Error("toggle task")
		return task, fmt.Errorf("toggle task %s: %w", taskID, err)
	}

	c.mu.Lock()
	// The list may have been reloaded while the write was in flight.
	if i = c.index(taskID); i >= 0 {
		c.tasks[i].IsCompleted = next
		task = c.tasks[i]
	} else {
		task.IsCompleted = next
	}
	c.mu.Unlock()

	c.notifier.publish(ctx, domain.TaskToggled, c.clientID, taskID, domain.TaskToggledEventData{TaskName: task.TaskName, IsCompleted: next})
	return task, nil
}

func (c *Checklist) index(taskID string) int {
	return slices.IndexFunc(c.tasks, func(t domain.ChecklistTask) bool { return t.ID == taskID })
}

// Counts returns the completed and total number of tasks of a checklist.
func (c *Checklist) Counts(t domain.ChecklistType) (completed, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Count(domain.TaskStates(c.tasks), t)
}

// Progress returns the completion percentage of a checklist.
func (c *Checklist) Progress(t domain.ChecklistType) int {
	return domain.Percent(c.Counts(t))
}

// Summary returns both percentages.
func (c *Checklist) Summary() domain.Progress {
	c.mu.Lock()
	states := domain.TaskStates(c.tasks)
	c.mu.Unlock()
	return domain.Progress{
		Setup:      domain.ChecklistProgress(states, domain.ChecklistSetup),
		Onboarding: domain.ChecklistProgress(states, domain.ChecklistOnboarding),
	}
}

// Sections groups the tasks of a checklist by section, in the order the
// sections first appear.
func (c *Checklist) Sections(t domain.ChecklistType) []Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GroupSections(c.tasks, t)
}

// GroupSections groups tasks of type t by section in first-appearance order.
func GroupSections(tasks []domain.ChecklistTask, t domain.ChecklistType) []Section {
	var out []Section
	pos := map[string]int{}
	for _, task := range tasks {
		if task.ChecklistType != t {
			continue
		}
		i, ok := pos[task.Section]
		if !ok {
			i = len(out)
			pos[task.Section] = i
			out = append(out, Section{Name: task.Section, Order: task.SectionOrder})
		}
		s := &out[i]
		s.Tasks = append(s.Tasks, task)
		s.Total++
		if task.IsCompleted {
			s.Completed++
		}
	}
	return out
}
