package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/nataliagff23/checklist-clientes/domain"
)

const (
	edmInt64 = "Edm.Int64"

	clientPartition = "client"
	briefingRowKey  = "briefing"
)

type clientEntity struct {
	aztables.Entity
	BusinessName      string `json:"BusinessName"`
	LegalName         string `json:"LegalName,omitempty"`
	BusinessManagerID string `json:"BusinessManagerId,omitempty"`
	AdminEmail        string `json:"AdminEmail,omitempty"`
	Website           string `json:"Website,omitempty"`
	Industry          string `json:"Industry,omitempty"`
	Country           string `json:"Country,omitempty"`
	CreatedAt         int64  `json:"CreatedAt,string"`
	CreatedAtType     string `json:"CreatedAt@odata.type"`
	UpdatedAt         int64  `json:"UpdatedAt,string"`
	UpdatedAtType     string `json:"UpdatedAt@odata.type"`
}

func newClientEntity(id string, c domain.NewClient, now time.Time) clientEntity {
	ts := now.UnixNano()
	return clientEntity{
		Entity:            aztables.Entity{PartitionKey: clientPartition, RowKey: id},
		BusinessName:      c.BusinessName,
		LegalName:         c.LegalName,
		BusinessManagerID: c.BusinessManagerID,
		AdminEmail:        c.AdminEmail,
		Website:           c.Website,
		Industry:          c.Industry,
		Country:           c.Country,
		CreatedAt:         ts,
		CreatedAtType:     edmInt64,
		UpdatedAt:         ts,
		UpdatedAtType:     edmInt64,
	}
}

func (e clientEntity) client() domain.Client {
	return domain.Client{
		ID:                e.RowKey,
		BusinessName:      e.BusinessName,
		LegalName:         e.LegalName,
		BusinessManagerID: e.BusinessManagerID,
		AdminEmail:        e.AdminEmail,
		Website:           e.Website,
		Industry:          e.Industry,
		Country:           e.Country,
		CreatedAt:         fromNanos(e.CreatedAt),
		UpdatedAt:         fromNanos(e.UpdatedAt),
	}
}

type templateEntity struct {
	aztables.Entity
	Section      string `json:"Section"`
	TaskName     string `json:"TaskName"`
	TaskOrder    int    `json:"TaskOrder"`
	SectionOrder int    `json:"SectionOrder"`
}

// templateRowKey sorts lexically in section then task order.
func templateRowKey(t domain.TaskTemplate) string {
	return fmt.Sprintf("%04d-%04d", t.SectionOrder, t.TaskOrder)
}

func newTemplateEntity(t domain.TaskTemplate) templateEntity {
	return templateEntity{
		Entity:       aztables.Entity{PartitionKey: string(t.ChecklistType), RowKey: templateRowKey(t)},
		Section:      t.Section,
		TaskName:     t.TaskName,
		TaskOrder:    t.TaskOrder,
		SectionOrder: t.SectionOrder,
	}
}

func (e templateEntity) template() domain.TaskTemplate {
	return domain.TaskTemplate{
		ChecklistType: domain.ChecklistType(e.PartitionKey),
		Section:       e.Section,
		TaskName:      e.TaskName,
		TaskOrder:     e.TaskOrder,
		SectionOrder:  e.SectionOrder,
	}
}

type taskEntity struct {
	aztables.Entity
	ChecklistType string `json:"ChecklistType"`
	Section       string `json:"Section"`
	TaskName      string `json:"TaskName"`
	IsCompleted   bool   `json:"IsCompleted"`
	TaskOrder     int    `json:"TaskOrder"`
	SectionOrder  int    `json:"SectionOrder"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type"`
}

type taskUpdate struct {
	aztables.Entity
	IsCompleted   bool   `json:"IsCompleted"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type"`
}

func newTaskEntity(t domain.ChecklistTask, now time.Time) taskEntity {
	ts := now.UnixNano()
	return taskEntity{
		Entity:        aztables.Entity{PartitionKey: t.ClientID, RowKey: t.ID},
		ChecklistType: string(t.ChecklistType),
		Section:       t.Section,
		TaskName:      t.TaskName,
		IsCompleted:   t.IsCompleted,
		TaskOrder:     t.TaskOrder,
		SectionOrder:  t.SectionOrder,
		CreatedAt:     ts,
		CreatedAtType: edmInt64,
		UpdatedAt:     ts,
		UpdatedAtType: edmInt64,
	}
}

func (e taskEntity) task() domain.ChecklistTask {
	return domain.ChecklistTask{
		ID:            e.RowKey,
		ClientID:      e.PartitionKey,
		ChecklistType: domain.ChecklistType(e.ChecklistType),
		Section:       e.Section,
		TaskName:      e.TaskName,
		IsCompleted:   e.IsCompleted,
		TaskOrder:     e.TaskOrder,
		SectionOrder:  e.SectionOrder,
		CreatedAt:     fromNanos(e.CreatedAt),
		UpdatedAt:     fromNanos(e.UpdatedAt),
	}
}

// briefingEntity keeps one document per client: the partition is the client
// id and the row key is fixed, so a second insert conflicts.
type briefingEntity struct {
	aztables.Entity
	BriefingID    string `json:"BriefingId"`
	Data          string `json:"Data"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type"`
}

type briefingUpdate struct {
	aztables.Entity
	Data          string `json:"Data"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type"`
}

func (e briefingEntity) briefing() (domain.Briefing, error) {
	data, err := domain.MergeBriefing([]byte(e.Data))
	if err != nil {
		return domain.Briefing{}, fmt.Errorf("decode briefing %s: %w", e.BriefingID, err)
	}
	return domain.Briefing{
		ID:        e.BriefingID,
		ClientID:  e.PartitionKey,
		Data:      data,
		CreatedAt: fromNanos(e.CreatedAt),
		UpdatedAt: fromNanos(e.UpdatedAt),
	}, nil
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// partitionFilter builds an equality filter on the partition key.
func partitionFilter(pk string) string {
	return "PartitionKey eq '" + strings.ReplaceAll(pk, "'", "''") + "'"
}
