package domain

import "encoding/json"

// Activity event types published after a write has been confirmed by the
// store.
const (
	ClientCreated = "client.created"
	ClientDeleted = "client.deleted"
	TaskToggled   = "task.toggled"
	BriefingSaved = "briefing.saved"
)

// Event describes a confirmed change to a client's data.
type Event struct {
	Type      string          `json:"type"`
	ClientID  string          `json:"clientId"`
	EntityID  string          `json:"entityId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// TaskToggledEventData is the payload of a task.toggled event.
type TaskToggledEventData struct {
	TaskName    string `json:"taskName"`
	IsCompleted bool   `json:"isCompleted"`
}

// ClientCreatedEventData is the payload of a client.created event.
type ClientCreatedEventData struct {
	BusinessName string `json:"businessName"`
	Tasks        int    `json:"tasks"`
}
