package domain

import (
	"strings"
	"time"
)

// Client is an agency client tracked by the dashboard. Optional fields are
// empty when the underlying column is null.
type Client struct {
	ID                string    `json:"id"`
	BusinessName      string    `json:"business_name"`
	LegalName         string    `json:"legal_name,omitempty"`
	BusinessManagerID string    `json:"business_manager_id,omitempty"`
	AdminEmail        string    `json:"admin_email,omitempty"`
	Website           string    `json:"website,omitempty"`
	Industry          string    `json:"industry,omitempty"`
	Country           string    `json:"country,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewClient carries the fields accepted when a client is created.
type NewClient struct {
	BusinessName      string `json:"business_name"`
	LegalName         string `json:"legal_name,omitempty"`
	BusinessManagerID string `json:"business_manager_id,omitempty"`
	AdminEmail        string `json:"admin_email,omitempty"`
	Website           string `json:"website,omitempty"`
	Industry          string `json:"industry,omitempty"`
	Country           string `json:"country,omitempty"`
}

// Normalize trims every field and checks that a business name is present.
func (n NewClient) Normalize() (NewClient, error) {
	out := NewClient{
		BusinessName:      strings.TrimSpace(n.BusinessName),
		LegalName:         strings.TrimSpace(n.LegalName),
		BusinessManagerID: strings.TrimSpace(n.BusinessManagerID),
		AdminEmail:        strings.TrimSpace(n.AdminEmail),
		Website:           strings.TrimSpace(n.Website),
		Industry:          strings.TrimSpace(n.Industry),
		Country:           strings.TrimSpace(n.Country),
	}
	if out.BusinessName == "" {
		return NewClient{}, ErrBusinessNameRequired
	}
	return out, nil
}
