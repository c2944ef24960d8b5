package api

import (
	"encoding/json"

	"github.com/nataliagff23/checklist-clientes/dashboard"
	"github.com/nataliagff23/checklist-clientes/domain"
)

type clientSummary struct {
	domain.Client
	Progress domain.Progress `json:"progress"`
}

type clientsResponse struct {
	Clients []clientSummary `json:"clients"`
}

type linksResponse struct {
	Client   string `json:"client"`
	Briefing string `json:"briefing"`
}

type createClientResponse struct {
	Client domain.Client `json:"client"`
	Links  linksResponse `json:"links"`
}

// checklistResponse is one tab of the client detail view.
type checklistResponse struct {
	Type      domain.ChecklistType `json:"type"`
	Completed int                  `json:"completed"`
	Total     int                  `json:"total"`
	Percent   int                  `json:"percent"`
	Sections  []dashboard.Section  `json:"sections"`
}

type clientDetailResponse struct {
	Client     domain.Client       `json:"client"`
	Progress   domain.Progress     `json:"progress"`
	Checklists []checklistResponse `json:"checklists"`
	Links      linksResponse       `json:"links"`
}

type tasksResponse struct {
	Tasks []domain.ChecklistTask `json:"tasks"`
}

type toggleResponse struct {
	Task     domain.ChecklistTask `json:"task"`
	Progress domain.Progress      `json:"progress"`
}

type briefingResponse struct {
	ID           string              `json:"id,omitempty"`
	ClientID     string              `json:"client_id"`
	BusinessName string              `json:"business_name"`
	Persisted    bool                `json:"persisted"`
	Data         domain.BriefingData `json:"data"`
	Link         string              `json:"link"`
}

// saveBriefingRequest carries the answers to store. Keys absent from Data keep
// their current value.
type saveBriefingRequest struct {
	Data json.RawMessage `json:"data"`
}

// editFieldRequest changes a single briefing field. Toggle flips one option
// of a multi-choice field; otherwise List or Text replaces the value.
type editFieldRequest struct {
	Key    string   `json:"key"`
	Text   *string  `json:"text,omitempty"`
	List   []string `json:"list,omitempty"`
	Toggle *string  `json:"toggle,omitempty"`
}

type schemaResponse struct {
	Sections []string       `json:"sections"`
	Fields   []domain.Field `json:"fields"`
}

type routeResponse struct {
	View     string `json:"view"`
	ClientID string `json:"client_id,omitempty"`
	Fragment string `json:"fragment"`
}
