package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Briefing is the intake document of a client. A client has at most one.
type Briefing struct {
	ID        string       `json:"id"`
	ClientID  string       `json:"client_id"`
	Data      BriefingData `json:"data"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// BriefingData holds the answers of the briefing questionnaire. The JSON keys
// are the stored field keys; keys written by other versions of the form are
// kept in Extra and written back unchanged.
type BriefingData struct {
	// 1. General information
	AgencyName        string
	AgentName         string
	AgentRole         string
	AgentType         string
	Licenses          []string
	SalesStates       string
	YearsOfExperience string
	WebsiteAndSocial  string

	// 2. Goals
	MainGoals          []string
	PriorityClientType []string
	AdsExpectations    []string

	// 3. Audience
	IdealAge        string
	IdealLanguage   string
	IdealLocation   string
	MigrationStatus string
	IncomeLevel     string
	EmploymentType  string
	MainProblems    []string
	Segments        []string

	// 4. Products
	CurrentInsurance string
	StarProduct      string
	ValueProposition string
	Differentiator   string

	// 5. Sales process
	LeadProcess   []string
	ContactTime   string
	FollowUpOwner string
	LeadsPerSale  string

	// 6. Channels and experience
	PreviousChannels []string
	HasInvestedInAds string
	WhatWorked       string
	WhatDidNotWork   string
	BiggestProblem   string

	// 7. Metrics and budget
	HistoricalCPL    string
	CostPerSale      string
	AverageSaleValue string
	ApproximateCLV   string
	MonthlyBudget    string
	WillingToScale   string

	// 8. Content
	ContentTypes      []string
	AvailableMaterial []string
	WillingToRecord   string

	// 9. Expectations
	AgencyExpectations string
	SuccessfulCampaign []string
	ReportFrequency    string

	// 10. Restrictions
	ForbiddenMessages string
	Regulations       string
	DoNotCommunicate  string

	Extra map[string]json.RawMessage
}

// FieldValue is the value of a single briefing field. Text is used by text and
// single-choice fields, List by multi-choice fields.
type FieldValue struct {
	Text string   `json:"text,omitempty"`
	List []string `json:"list,omitempty"`
}

// DefaultBriefing returns the document shape used before anything is stored.
func DefaultBriefing() BriefingData {
	var d BriefingData
	for _, f := range BriefingFields {
		f.assign(&d, f.Default)
	}
	return d
}

// MergeBriefing overlays a stored document on the default shape. Keys present
// in stored override the defaults; keys unknown to the field table are kept.
func MergeBriefing(stored []byte) (BriefingData, error) {
	d := DefaultBriefing()
	if len(stored) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(stored, &d); err != nil {
		return BriefingData{}, err
	}
	return d, nil
}

// Get returns the value of the field with the given key.
func (d *BriefingData) Get(key string) (FieldValue, error) {
	f, ok := FieldByKey(key)
	if !ok {
		return FieldValue{}, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	return f.value(d), nil
}

// Set replaces the value of the field with the given key. Multi-choice fields
// take v.List, the others take v.Text.
func (d *BriefingData) Set(key string, v FieldValue) error {
	f, ok := FieldByKey(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	f.assign(d, v)
	return nil
}

// ToggleOption adds option to a multi-choice field, or removes it when it is
// already selected.
func (d *BriefingData) ToggleOption(key, option string) error {
	f, ok := FieldByKey(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if f.Kind != FieldMulti {
		return fmt.Errorf("field %s is not multi-choice", key)
	}
	list := f.list(d)
	if i := slices.Index(*list, option); i >= 0 {
		*list = slices.Delete(slices.Clone(*list), i, i+1)
		return nil
	}
	*list = append(slices.Clone(*list), option)
	return nil
}

// Visible reports whether the field is shown given the current answers.
func (d *BriefingData) Visible(f Field) bool {
	if f.ShownWhen == nil {
		return true
	}
	v, err := d.Get(f.ShownWhen.Key)
	if err != nil {
		return false
	}
	return v.Text == f.ShownWhen.Equals
}

// Clone returns a deep copy.
func (d BriefingData) Clone() BriefingData {
	out := d
	for _, f := range BriefingFields {
		if f.Kind == FieldMulti {
			l := f.list(&out)
			*l = slices.Clone(*l)
		}
	}
	if d.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = slices.Clone(v)
		}
	}
	return out
}

// MarshalJSON writes every modelled field followed by the preserved keys.
func (d BriefingData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(BriefingFields)+len(d.Extra))
	for k, v := range d.Extra {
		out[k] = v
	}
	for _, f := range BriefingFields {
		if f.Kind == FieldMulti {
			l := *f.list(&d)
			if l == nil {
				l = []string{}
			}
			out[f.Key] = l
			continue
		}
		out[f.Key] = *f.text(&d)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes stored keys over the receiver, leaving fields whose
// keys are absent untouched.
func (d *BriefingData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		f, ok := FieldByKey(key)
		if !ok {
			if d.Extra == nil {
				d.Extra = map[string]json.RawMessage{}
			}
			d.Extra[key] = slices.Clone(val)
			continue
		}
		f.assign(d, storedValue(f, val))
	}
	return nil
}

// storedValue converts a stored value to the field's kind. A string under a
// multi-choice key becomes a one-element list and a list under a text key is
// joined; anything else falls back to the field default.
func storedValue(f Field, val json.RawMessage) FieldValue {
	var v any
	if err := json.Unmarshal(val, &v); err != nil {
		return f.Default
	}
	var list []string
	switch x := v.(type) {
	case string:
		if f.Kind != FieldMulti {
			return FieldValue{Text: x}
		}
		if x != "" {
			list = []string{x}
		}
		return FieldValue{List: list}
	case []any:
		for _, e := range x {
			if s, ok := e.(string); ok {
				list = append(list, s)
			} else if e != nil {
				list = append(list, fmt.Sprint(e))
			}
		}
		if f.Kind == FieldMulti {
			return FieldValue{List: list}
		}
		return FieldValue{Text: strings.Join(list, ", ")}
	}
	return f.Default
}
