package domain

import (
	"errors"
	"testing"
)

func TestNewClientNormalize(t *testing.T) {
	got, err := NewClient{BusinessName: "  Acme ", AdminEmail: " ops@acme.test ", Country: "  "}.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.BusinessName != "Acme" || got.AdminEmail != "ops@acme.test" || got.Country != "" {
		t.Fatalf("unexpected normalized client: %#v", got)
	}
}

func TestNewClientNormalizeRequiresBusinessName(t *testing.T) {
	_, err := NewClient{BusinessName: "   ", Website: "acme.test"}.Normalize()
	if !errors.Is(err, ErrBusinessNameRequired) {
		t.Fatalf("expected ErrBusinessNameRequired, got %v", err)
	}
}

func TestParseChecklistType(t *testing.T) {
	for in, want := range map[string]ChecklistType{
		"setup":         ChecklistSetup,
		"setup_tecnico": ChecklistSetup,
		"onboarding":    ChecklistOnboarding,
	} {
		got, err := ParseChecklistType(in)
		if err != nil || got != want {
			t.Fatalf("ParseChecklistType(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseChecklistType("briefing"); !errors.Is(err, ErrUnknownChecklistType) {
		t.Fatalf("expected ErrUnknownChecklistType, got %v", err)
	}
}
