package models

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestReference_Constructors(t *testing.T) {
	if !(Reference{}).IsZero() {
		t.Error("zero value should be unset")
	}
	if !ByID(0).IsZero() || !ByName("").IsZero() {
		t.Error("ByID(0) and ByName(\"\") should be unset")
	}
	if id, ok := ByID(7).ID(); !ok || id != 7 {
		t.Errorf("ByID(7).ID() = %d, %v", id, ok)
	}
	if _, ok := ByID(7).Name(); ok {
		t.Error("ByID should not carry a name")
	}
	if name, ok := ByName("Default").Name(); !ok || name != "Default" {
		t.Errorf("ByName.Name() = %q, %v", name, ok)
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		in   string
		want Reference
	}{
		{"12", ByID(12)},
		{" 3 ", ByID(3)},
		{"web-servers", ByName("web-servers")},
		{"12a", ByName("12a")},
		{"", Reference{}},
	}
	for _, tc := range tests {
		if got := ParseReference(tc.in); got != tc.want {
			t.Errorf("ParseReference(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestReference_JSON(t *testing.T) {
	var body struct {
		Org  Reference `json:"organization"`
		Inv  Reference `json:"inventory"`
		None Reference `json:"none"`
	}
	if err := json.Unmarshal([]byte(`{"organization": 4, "inventory": "lab", "none": null}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Org != ByID(4) || body.Inv != ByName("lab") || !body.None.IsZero() {
		t.Errorf("decoded %+v", body)
	}

	out, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"organization":4,"inventory":"lab","none":null}` {
		t.Errorf("marshal = %s", out)
	}

	if err := json.Unmarshal([]byte(`{"organization": 1.5}`), &body); err == nil {
		t.Error("expected error for a fractional id")
	}
}

func TestReference_YAML(t *testing.T) {
	var body struct {
		Org  Reference `yaml:"organization"`
		Inv  Reference `yaml:"inventory"`
		Num  Reference `yaml:"quoted"`
		None Reference `yaml:"none"`
	}
	doc := "organization: 4\ninventory: lab\nquoted: \"12\"\nnone: ~\n"
	if err := yaml.Unmarshal([]byte(doc), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Org != ByID(4) {
		t.Errorf("organization = %v", body.Org)
	}
	if body.Inv != ByName("lab") {
		t.Errorf("inventory = %v", body.Inv)
	}
	// A quoted number is a name, as it would be on the platform.
	if body.Num != ByName("12") {
		t.Errorf("quoted = %v", body.Num)
	}
	if !body.None.IsZero() {
		t.Errorf("none = %v", body.None)
	}

	err := yaml.Unmarshal([]byte("organization: [1, 2]\n"), &body)
	if err == nil || !strings.Contains(err.Error(), "reference") {
		t.Errorf("expected reference error, got %v", err)
	}
}
