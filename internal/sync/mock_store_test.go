package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alfredjeanlab/confvault/internal/model"
)

// mockStore is a minimal in-memory Source and Sink for sync tests.
type mockStore struct {
	entities map[model.Kind]map[string]model.Entity
	versions []*model.VersionRecord
	results  []*model.TestResult
	failList error
}

func newMockStore() *mockStore {
	return &mockStore{entities: make(map[model.Kind]map[string]model.Entity)}
}

func (m *mockStore) ListEntities(_ context.Context, kind model.Kind) ([]model.Entity, error) {
	if m.failList != nil {
		return nil, m.failList
	}
	var out []model.Entity
	for _, e := range m.entities[kind] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Base().ID < out[j].Base().ID })
	return out, nil
}

func (m *mockStore) ListVersions(context.Context) ([]*model.VersionRecord, error) {
	return m.versions, nil
}

func (m *mockStore) ListAllTestResults(context.Context) ([]*model.TestResult, error) {
	return m.results, nil
}

func (m *mockStore) PutEntity(_ context.Context, e model.Entity) error {
	byID := m.entities[e.EntityKind()]
	if byID == nil {
		byID = make(map[string]model.Entity)
		m.entities[e.EntityKind()] = byID
	}
	byID[e.Base().ID] = e
	return nil
}

func (m *mockStore) AppendVersion(_ context.Context, rec *model.VersionRecord) error {
	for _, v := range m.versions {
		if v.ID == rec.ID {
			return fmt.Errorf("duplicate %s", rec.ID)
		}
	}
	m.versions = append(m.versions, rec)
	return nil
}

func (m *mockStore) RecordTestResult(_ context.Context, r *model.TestResult) error {
	m.results = append(m.results, r)
	return nil
}

// seed fills the store with an agent at version 2, a tool at version 1 and
// one test result.
func (m *mockStore) seed(now time.Time) {
	agent := &model.Agent{
		Meta: model.Meta{ID: "researcher", Version: 2, CreatedAt: now, UpdatedAt: now},
		Name: "Researcher", Role: "Research <Specialist>", Temperature: 0.7,
	}
	tool := &model.Tool{
		Meta: model.Meta{ID: "web_search", Version: 1, CreatedAt: now, UpdatedAt: now},
		Name: "Web Search", Provider: "builtin", Enabled: true,
	}
	m.PutEntity(context.Background(), tool)
	m.PutEntity(context.Background(), agent)

	for v := 1; v <= 2; v++ {
		content, _ := model.ContentBytes(agent)
		m.versions = append(m.versions, model.NewVersionRecord(model.KindAgent, "researcher", content, v, "", "", now))
	}
	content, _ := model.ContentBytes(tool)
	m.versions = append(m.versions, model.NewVersionRecord(model.KindTool, "web_search", content, 1, "Initial bootstrap", "", now))

	m.results = append(m.results, &model.TestResult{
		ID: "tr-1", EntityType: model.KindAgent, EntityID: "researcher",
		Input: "ping", Output: "pong", Status: model.TestSuccess, CreatedAt: now,
	})
}
