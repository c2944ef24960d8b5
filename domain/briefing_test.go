package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestDefaultBriefingHasEveryField(t *testing.T) {
	d := DefaultBriefing()
	for _, f := range BriefingFields {
		v, err := d.Get(f.Key)
		if err != nil {
			t.Fatalf("get %s: %v", f.Key, err)
		}
		if f.Kind == FieldMulti {
			if v.List == nil || len(v.List) != 0 {
				t.Fatalf("field %s: expected empty list, got %#v", f.Key, v.List)
			}
			continue
		}
		if v.Text != "" {
			t.Fatalf("field %s: expected empty text, got %q", f.Key, v.Text)
		}
	}
}

func TestFieldTableKeysAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range BriefingFields {
		if seen[f.Key] {
			t.Fatalf("duplicate key %s", f.Key)
		}
		seen[f.Key] = true
		if f.Section < 1 || f.Section > len(BriefingSections) {
			t.Fatalf("field %s has section %d", f.Key, f.Section)
		}
		if (f.Kind == FieldMulti) == (f.list == nil) {
			t.Fatalf("field %s accessor does not match kind %s", f.Key, f.Kind)
		}
	}
}

func TestMergeBriefingKeepsDefaultsAndUnknownKeys(t *testing.T) {
	stored := []byte(`{"nombre_agencia":"Acme Seguros","licencias":["Vida"],"campo_antiguo":"legacy"}`)
	d, err := MergeBriefing(stored)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if d.AgencyName != "Acme Seguros" {
		t.Fatalf("stored value not applied: %q", d.AgencyName)
	}
	if !reflect.DeepEqual(d.Licenses, []string{"Vida"}) {
		t.Fatalf("unexpected licenses: %#v", d.Licenses)
	}
	if d.Segments == nil || len(d.Segments) != 0 {
		t.Fatalf("default list missing for absent key: %#v", d.Segments)
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(out, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["campo_antiguo"] != "legacy" {
		t.Fatalf("unknown key dropped: %#v", raw["campo_antiguo"])
	}
	if _, ok := raw["regulaciones"]; !ok {
		t.Fatalf("default key missing from output")
	}
	if len(raw) != len(BriefingFields)+1 {
		t.Fatalf("expected %d keys, got %d", len(BriefingFields)+1, len(raw))
	}
}

func TestMergeBriefingNullFallsBackToDefault(t *testing.T) {
	d, err := MergeBriefing([]byte(`{"segmentos":null,"diferencial":null}`))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if d.Segments == nil || d.Differentiator != "" {
		t.Fatalf("unexpected values: %#v %q", d.Segments, d.Differentiator)
	}
}

func TestMergeBriefingCoercesStoredKinds(t *testing.T) {
	d, err := MergeBriefing([]byte(`{"licencias":"Vida","nombre_agencia":["Acme","Seguros"],"segmentos":"","producto_estrella":42}`))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !reflect.DeepEqual(d.Licenses, []string{"Vida"}) {
		t.Fatalf("string in multi-choice field: %#v", d.Licenses)
	}
	if d.AgencyName != "Acme, Seguros" {
		t.Fatalf("list in text field: %q", d.AgencyName)
	}
	if d.Segments == nil || len(d.Segments) != 0 {
		t.Fatalf("empty string should give an empty list: %#v", d.Segments)
	}
	if d.StarProduct != "" {
		t.Fatalf("unsupported value should fall back to the default: %q", d.StarProduct)
	}
}

func TestBriefingSetAndToggleOption(t *testing.T) {
	d := DefaultBriefing()
	if err := d.Set("producto_estrella", FieldValue{Text: "IUL"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if d.StarProduct != "IUL" {
		t.Fatalf("set not applied: %q", d.StarProduct)
	}
	if err := d.ToggleOption("segmentos", "Familias"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := d.ToggleOption("segmentos", "Latinos"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := d.ToggleOption("segmentos", "Familias"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !reflect.DeepEqual(d.Segments, []string{"Latinos"}) {
		t.Fatalf("unexpected segments: %#v", d.Segments)
	}
	if err := d.ToggleOption("producto_estrella", "x"); err == nil {
		t.Fatalf("expected toggle on text field to fail")
	}
	if err := d.Set("no_such_field", FieldValue{}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestBriefingCloneIsDeep(t *testing.T) {
	d := DefaultBriefing()
	d.Licenses = []string{"Vida"}
	d.Extra = map[string]json.RawMessage{"k": json.RawMessage(`"v"`)}
	c := d.Clone()
	c.Licenses[0] = "Salud"
	c.Extra["k"][1] = 'x'
	if d.Licenses[0] != "Vida" || string(d.Extra["k"]) != `"v"` {
		t.Fatalf("clone shares storage with original")
	}
}

func TestConditionalFieldsFollowAdsAnswer(t *testing.T) {
	f, ok := FieldByKey("que_funciono")
	if !ok {
		t.Fatalf("field missing")
	}
	d := DefaultBriefing()
	if d.Visible(f) {
		t.Fatalf("expected field hidden by default")
	}
	d.HasInvestedInAds = "Sí"
	if !d.Visible(f) {
		t.Fatalf("expected field visible after answering yes")
	}
}
