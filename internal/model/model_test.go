package model

import (
	"errors"
	"testing"
	"time"
)

func TestKind_IsValid(t *testing.T) {
	for _, tc := range []struct {
		kind Kind
		want bool
	}{
		{KindAgent, true},
		{KindPrompt, true},
		{KindWorkflow, true},
		{KindTool, true},
		{KindModel, true},
		{Kind(""), false},
		{Kind("bogus"), false},
	} {
		if got := tc.kind.IsValid(); got != tc.want {
			t.Errorf("Kind(%q).IsValid() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, tc := range []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"agent", KindAgent, false},
		{"agents", KindAgent, false},
		{"workflows", KindWorkflow, false},
		{"model", KindModel, false},
		{"s", "", true},
		{"widgets", "", true},
		{"", "", true},
	} {
		got, err := ParseKind(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNew_EveryKind(t *testing.T) {
	for _, k := range Kinds() {
		e, err := New(k)
		if err != nil {
			t.Fatalf("New(%q): %v", k, err)
		}
		if e.EntityKind() != k {
			t.Errorf("New(%q).EntityKind() = %q", k, e.EntityKind())
		}
	}
	if _, err := New("bogus"); err == nil {
		t.Error("New(bogus) should fail")
	}
}

func TestDecode_Agent(t *testing.T) {
	data := []byte(`{"id":"a1","version":2,"created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-02T00:00:00Z","name":"Researcher","role":"X","temperature":0.5,"tools":["web_search"]}`)
	e, err := Decode(KindAgent, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	a, ok := e.(*Agent)
	if !ok {
		t.Fatalf("Decode returned %T, want *Agent", e)
	}
	if a.ID != "a1" || a.Version != 2 || a.Role != "X" || a.Temperature != 0.5 {
		t.Fatalf("unexpected agent: %+v", a)
	}
	if len(a.Tools) != 1 || a.Tools[0] != "web_search" {
		t.Fatalf("tools = %v", a.Tools)
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		kind Kind
		data string
	}{
		{"Garbage", KindAgent, `{not json`},
		{"UnknownField", KindTool, `{"id":"t1","provider":"x","surprise":1}`},
		{"MissingID", KindPrompt, `{"template":"hi"}`},
		{"WrongType", KindModel, `{"id":"m1","config":"not-a-map"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.kind, []byte(tc.data))
			if !errors.Is(err, ErrInvalidEntity) {
				t.Fatalf("Decode error = %v, want ErrInvalidEntity", err)
			}
		})
	}
}

func TestContentEqual_IgnoresLifecycleFields(t *testing.T) {
	now := time.Now().UTC()
	a := &Agent{Meta: Meta{ID: "a1", Version: 1, CreatedAt: now, UpdatedAt: now}, Role: "X", Tools: []string{"t"}}
	b := &Agent{Meta: Meta{ID: "a1", Version: 7, CreatedAt: now.Add(time.Hour), UpdatedAt: now.Add(2 * time.Hour)}, Role: "X", Tools: []string{"t"}}
	if !ContentEqual(a, b) {
		t.Error("ContentEqual should ignore version and timestamps")
	}
	b.Role = "Y"
	if ContentEqual(a, b) {
		t.Error("ContentEqual should detect a role change")
	}
	if ContentEqual(a, &Tool{Meta: Meta{ID: "a1"}}) {
		t.Error("ContentEqual should reject different kinds")
	}
}

func TestClone_IsDeep(t *testing.T) {
	orig := &Tool{Meta: Meta{ID: "t1"}, Provider: "p", Config: map[string]any{"k": "v"}}
	c, err := Clone(orig)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	c.(*Tool).Config["k"] = "changed"
	if orig.Config["k"] != "v" {
		t.Fatal("mutating the clone changed the original")
	}
}

func TestNewVersionRecord(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	content := []byte(`{"id":"a1","role":"X"}`)
	rec := NewVersionRecord(KindAgent, "a1", content, 3, "tweak", "", now)
	if rec.ID != "agent:a1@v3" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.CreatedBy != SystemActor {
		t.Errorf("CreatedBy = %q, want %q", rec.CreatedBy, SystemActor)
	}
	if !rec.Verify() {
		t.Error("Verify() = false for a fresh record")
	}
	rec.Content = []byte(`{"id":"a1","role":"Y"}`)
	if rec.Verify() {
		t.Error("Verify() = true after content was altered")
	}
}
