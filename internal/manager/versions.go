package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/alfredjeanlab/confvault/internal/events"
	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
)

// History returns every recorded version of (kind, id), newest first. It
// still answers after the entity was deleted.
func (m *Manager) History(ctx context.Context, kind model.Kind, id string) ([]*model.VersionRecord, error) {
	m.global.RLock()
	defer m.global.RUnlock()
	return m.store.History(ctx, kind, id)
}

// Version returns the ledger record for one version of (kind, id).
func (m *Manager) Version(ctx context.Context, kind model.Kind, id string, version int) (*model.VersionRecord, error) {
	m.global.RLock()
	defer m.global.RUnlock()
	return m.store.RecordAt(ctx, kind, id, version)
}

// RollbackDescription is the change description recorded by Rollback.
func RollbackDescription(target int) string {
	return fmt.Sprintf("Rollback to version %d", target)
}

// Rollback saves the content of version target as a new version of
// (kind, id). History is never rewritten. It returns false, and changes
// nothing, when target is not in the ledger.
func (m *Manager) Rollback(ctx context.Context, kind model.Kind, id string, target int) (bool, error) {
	m.global.RLock()
	defer m.global.RUnlock()
	unlock := m.keys.lock(kind, id)
	defer unlock()

	rec, err := m.store.RecordAt(ctx, kind, id, target)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("rollback %s %q: %w", kind, id, err)
	}
	e, err := rec.Entity()
	if err != nil {
		return false, fmt.Errorf("rollback %s %q to version %d: %w", kind, id, target, err)
	}

	_, saved, err := m.save(ctx, e, RollbackDescription(target))
	if err != nil {
		return false, err
	}
	m.logger.Info("entity rolled back", "kind", kind, "id", id, "target", target, "version", saved.Version)
	m.publish(ctx, events.TopicEntityRolledBack, events.EntityRolledBack{
		Kind:          kind,
		ID:            id,
		TargetVersion: target,
		Version:       saved.Version,
		Actor:         saved.CreatedBy,
	})
	return true, nil
}

// FieldChange is one top-level field that differs between two versions.
// From or To is nil when the field is absent on that side.
type FieldChange struct {
	Field string          `json:"field"`
	From  json.RawMessage `json:"from,omitempty"`
	To    json.RawMessage `json:"to,omitempty"`
}

// Fields excluded from Diff because every save changes them.
var diffIgnored = map[string]bool{"version": true, "created_at": true, "updated_at": true}

// Diff lists the top-level fields that differ between versions from and to
// of (kind, id), ordered by field name.
func (m *Manager) Diff(ctx context.Context, kind model.Kind, id string, from, to int) ([]FieldChange, error) {
	m.global.RLock()
	defer m.global.RUnlock()

	a, err := m.store.RecordAt(ctx, kind, id, from)
	if err != nil {
		return nil, err
	}
	b, err := m.store.RecordAt(ctx, kind, id, to)
	if err != nil {
		return nil, err
	}
	return diffContent(a.Content, b.Content)
}

func diffContent(from, to []byte) ([]FieldChange, error) {
	var a, b map[string]json.RawMessage
	if err := json.Unmarshal(from, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidEntity, err)
	}
	if err := json.Unmarshal(to, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidEntity, err)
	}

	fields := make(map[string]bool, len(a)+len(b))
	for k := range a {
		fields[k] = true
	}
	for k := range b {
		fields[k] = true
	}
	names := make([]string, 0, len(fields))
	for k := range fields {
		if !diffIgnored[k] {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	var changes []FieldChange
	for _, name := range names {
		av, bv := a[name], b[name]
		if jsonEqual(av, bv) {
			continue
		}
		changes = append(changes, FieldChange{Field: name, From: av, To: bv})
	}
	return changes, nil
}

func jsonEqual(a, b json.RawMessage) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
