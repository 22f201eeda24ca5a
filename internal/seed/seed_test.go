package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alfredjeanlab/confvault/internal/manager"
	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store/filestore"
)

func newTestManager(t *testing.T) *manager.Manager {
	t.Helper()
	fs, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("filestore.New: %v", err)
	}
	return manager.New(fs, manager.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestDefaultsValid(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range Defaults().Entities() {
		if err := model.Validate(e); err != nil {
			t.Errorf("%s %q: %v", e.EntityKind(), e.Base().ID, err)
		}
		key := string(e.EntityKind()) + "/" + e.Base().ID
		if seen[key] {
			t.Errorf("duplicate default %s", key)
		}
		seen[key] = true
	}
}

func TestDefaultsReferencesResolve(t *testing.T) {
	set := Defaults()
	ids := func(kind model.Kind) map[string]bool {
		out := map[string]bool{}
		for _, e := range set.Entities() {
			if e.EntityKind() == kind {
				out[e.Base().ID] = true
			}
		}
		return out
	}
	models, tools, agents := ids(model.KindModel), ids(model.KindTool), ids(model.KindAgent)

	for _, a := range set.Agents {
		if a.Model != "" && !models[a.Model] {
			t.Errorf("agent %q: unknown model %q", a.ID, a.Model)
		}
		for _, tool := range a.Tools {
			if !tools[tool] {
				t.Errorf("agent %q: unknown tool %q", a.ID, tool)
			}
		}
	}
	for _, w := range set.Workflows {
		for _, s := range w.Steps {
			if s.Agent != nil && !agents[s.Agent.AgentID] {
				t.Errorf("workflow %q step %q: unknown agent %q", w.ID, s.Name, s.Agent.AgentID)
			}
		}
	}
}

func TestEntitiesOrder(t *testing.T) {
	rank := map[model.Kind]int{
		model.KindModel:    0,
		model.KindTool:     1,
		model.KindPrompt:   2,
		model.KindAgent:    3,
		model.KindWorkflow: 4,
	}
	prev := -1
	for _, e := range Defaults().Entities() {
		r := rank[e.EntityKind()]
		if r < prev {
			t.Fatalf("%s %q saved after a later kind", e.EntityKind(), e.Base().ID)
		}
		prev = r
	}
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	seeded, err := Bootstrap(ctx, m)
	if err != nil || !seeded {
		t.Fatalf("Bootstrap = %v, %v", seeded, err)
	}

	tests := []struct {
		kind model.Kind
		want int
	}{
		{model.KindAgent, 3},
		{model.KindPrompt, 3},
		{model.KindWorkflow, 1},
		{model.KindTool, 3},
		{model.KindModel, 2},
	}
	for _, tt := range tests {
		list, err := m.List(ctx, tt.kind)
		if err != nil {
			t.Fatalf("List(%s): %v", tt.kind, err)
		}
		if len(list) != tt.want {
			t.Errorf("List(%s) = %d entities, want %d", tt.kind, len(list), tt.want)
		}
		for _, e := range list {
			hist, err := m.History(ctx, tt.kind, e.Base().ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(hist) != 1 || hist[0].ChangeDescription != Description {
				t.Errorf("%s %q history = %+v", tt.kind, e.Base().ID, hist)
			}
		}
	}

	// Idempotent: a second run writes nothing.
	seeded, err = Bootstrap(ctx, m)
	if err != nil || seeded {
		t.Fatalf("second Bootstrap = %v, %v", seeded, err)
	}
	hist, _ := m.History(ctx, model.KindAgent, "researcher")
	if len(hist) != 1 {
		t.Errorf("researcher has %d versions after second bootstrap", len(hist))
	}
}

func TestBootstrap_SkipsWhenAgentsExist(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	custom := &model.Agent{Meta: model.Meta{ID: "mine"}, Name: "Mine", Role: "helper"}
	if _, err := m.Save(ctx, custom, ""); err != nil {
		t.Fatal(err)
	}

	seeded, err := Bootstrap(ctx, m)
	if err != nil || seeded {
		t.Fatalf("Bootstrap = %v, %v", seeded, err)
	}
	tools, _ := m.List(ctx, model.KindTool)
	if len(tools) != 0 {
		t.Errorf("tools seeded into a non-empty store: %d", len(tools))
	}
}

func TestBootstrap_SkipsAfterAgentsDeleted(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	if seeded, err := Bootstrap(ctx, m); err != nil || !seeded {
		t.Fatalf("first Bootstrap = %v, %v", seeded, err)
	}
	for _, a := range Defaults().Agents {
		if _, err := m.Delete(ctx, model.KindAgent, a.ID); err != nil {
			t.Fatalf("Delete %q: %v", a.ID, err)
		}
	}

	seeded, err := Bootstrap(ctx, m)
	if err != nil || seeded {
		t.Fatalf("Bootstrap after delete = %v, %v", seeded, err)
	}
	agents, _ := m.List(ctx, model.KindAgent)
	if len(agents) != 0 {
		t.Errorf("deleted agents reseeded: %d", len(agents))
	}
	hist, err := m.History(ctx, model.KindTool, Defaults().Tools[0].ID)
	if err != nil || len(hist) != 1 {
		t.Errorf("tool history = %d records, %v; want 1", len(hist), err)
	}
}

func TestApply_StopsOnInvalid(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	set := Set{
		Tools:  []*model.Tool{{Meta: model.Meta{ID: "t1"}, Provider: "builtin"}},
		Agents: []*model.Agent{{Meta: model.Meta{ID: "broken"}}},
	}
	if _, err := Apply(ctx, m, set); err == nil {
		t.Fatal("expected error for agent without role")
	}
	agents, _ := m.List(ctx, model.KindAgent)
	if len(agents) != 0 {
		t.Errorf("invalid agent saved")
	}
}
