package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alfredjeanlab/confvault/internal/events"
	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
)

// Save validates e and stores it as the next version of its (kind, id). The
// caller's version and created_at are ignored: the version comes from the
// ledger and created_at carries over from the current value, or from version
// 1 when the entity was deleted. e is not
// modified; the saved copy is returned.
func (m *Manager) Save(ctx context.Context, e model.Entity, changeDescription string) (model.Entity, error) {
	if err := model.Validate(e); err != nil {
		return nil, err
	}
	kind, id := e.EntityKind(), e.Base().ID

	m.global.RLock()
	defer m.global.RUnlock()
	unlock := m.keys.lock(kind, id)
	defer unlock()

	saved, rec, err := m.save(ctx, e, changeDescription)
	if err != nil {
		return nil, err
	}
	m.publish(ctx, events.TopicEntitySaved, events.EntitySaved{
		Kind:              kind,
		ID:                id,
		Version:           rec.Version,
		ContentHash:       rec.ContentHash,
		Actor:             rec.CreatedBy,
		ChangeDescription: rec.ChangeDescription,
	})
	return saved, nil
}

// save is the single mutation path. The caller holds the key lock.
func (m *Manager) save(ctx context.Context, e model.Entity, changeDescription string) (model.Entity, *model.VersionRecord, error) {
	kind, id := e.EntityKind(), e.Base().ID

	e, err := model.Clone(e)
	if err != nil {
		return nil, nil, err
	}

	current, err := m.store.GetEntity(ctx, kind, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("save %s %q: load current: %w", kind, id, err)
	}
	next, err := m.store.NextVersion(ctx, kind, id)
	if err != nil {
		return nil, nil, fmt.Errorf("save %s %q: next version: %w", kind, id, err)
	}

	now := m.timestamp()
	meta := e.Base()
	if current != nil {
		meta.CreatedAt = current.Base().CreatedAt
		if cv := current.Base().Version; cv+1 != next {
			m.logger.Warn("current value and ledger disagree, using ledger",
				"kind", kind, "id", id, "current_version", cv, "next_version", next)
		}
	} else {
		meta.CreatedAt = m.firstCreatedAt(ctx, kind, id, next, now)
	}
	meta.Version = next
	meta.UpdatedAt = now

	content, err := model.Encode(e)
	if err != nil {
		return nil, nil, fmt.Errorf("save %s %q: %w", kind, id, err)
	}
	rec := model.NewVersionRecord(kind, id, content, next, changeDescription, ActorFrom(ctx), now)

	// The ledger record goes first; it is authoritative if the second
	// write never lands.
	err = m.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.AppendVersion(ctx, rec); err != nil {
			return err
		}
		return tx.PutEntity(ctx, e)
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateVersion) {
			m.logger.Error("ledger sequencing fault", "record", rec.ID, "err", err)
		}
		return nil, nil, fmt.Errorf("save %s %q: %w", kind, id, err)
	}

	m.logger.Debug("entity saved", "kind", kind, "id", id, "version", next, "actor", rec.CreatedBy)
	return e, rec, nil
}

// firstCreatedAt returns the created_at of version 1 when the ledger already
// has history for (kind, id), so a re-save after delete or a rollback keeps
// the original creation time. It falls back to now.
func (m *Manager) firstCreatedAt(ctx context.Context, kind model.Kind, id string, next int, now time.Time) time.Time {
	if next <= 1 {
		return now
	}
	rec, err := m.store.RecordAt(ctx, kind, id, 1)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Warn("read first version", "kind", kind, "id", id, "err", err)
		}
		return now
	}
	first, err := rec.Entity()
	if err != nil || first.Base().CreatedAt.IsZero() {
		m.logger.Warn("decode first version", "kind", kind, "id", id, "err", err)
		return now
	}
	return first.Base().CreatedAt
}

// Load returns the current value of (kind, id).
func (m *Manager) Load(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	m.global.RLock()
	defer m.global.RUnlock()
	return m.store.GetEntity(ctx, kind, id)
}

// List returns every current entity of kind.
func (m *Manager) List(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	m.global.RLock()
	defer m.global.RUnlock()
	return m.store.ListEntities(ctx, kind)
}

// Delete removes the current value of (kind, id) and reports whether it
// existed. The ledger keeps its history.
func (m *Manager) Delete(ctx context.Context, kind model.Kind, id string) (bool, error) {
	m.global.RLock()
	defer m.global.RUnlock()
	unlock := m.keys.lock(kind, id)
	defer unlock()

	removed, err := m.store.RemoveEntity(ctx, kind, id)
	if err != nil {
		return false, fmt.Errorf("delete %s %q: %w", kind, id, err)
	}
	if removed {
		m.logger.Debug("entity deleted", "kind", kind, "id", id)
		m.publish(ctx, events.TopicEntityDeleted, events.EntityDeleted{Kind: kind, ID: id, Actor: ActorFrom(ctx)})
	}
	return removed, nil
}

// Get loads the current value of id as a *Agent, *Prompt, *Workflow, *Tool
// or *Model.
func Get[T model.Entity](ctx context.Context, m *Manager, id string) (T, error) {
	var zero T
	e, err := m.Load(ctx, zero.EntityKind(), id)
	if err != nil {
		return zero, err
	}
	t, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s %q decoded as %T", model.ErrInvalidEntity, zero.EntityKind(), id, e)
	}
	return t, nil
}

// ListOf returns every current entity of T's kind.
func ListOf[T model.Entity](ctx context.Context, m *Manager) ([]T, error) {
	var zero T
	list, err := m.List(ctx, zero.EntityKind())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(list))
	for _, e := range list {
		t, ok := e.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q decoded as %T", model.ErrInvalidEntity, zero.EntityKind(), e.Base().ID, e)
		}
		out = append(out, t)
	}
	return out, nil
}
