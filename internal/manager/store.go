package manager

import (
	"context"
	"fmt"
	"io"

	"github.com/alfredjeanlab/confvault/internal/events"
	"github.com/alfredjeanlab/confvault/internal/idgen"
	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/sync"
)

// Backup copies the whole store to dest. No other operation runs while the
// backup is taken.
func (m *Manager) Backup(ctx context.Context, dest string) error {
	m.global.Lock()
	defer m.global.Unlock()
	if err := m.store.Backup(ctx, dest); err != nil {
		return err
	}
	m.logger.Info("backup complete", "dest", dest)
	return nil
}

// Restore replaces the whole store with the backup at src. The current
// contents are lost; take a Backup first to keep them.
func (m *Manager) Restore(ctx context.Context, src string) error {
	m.global.Lock()
	defer m.global.Unlock()
	if err := m.store.Restore(ctx, src); err != nil {
		return err
	}
	m.logger.Info("restore complete", "src", src)
	m.publish(ctx, events.TopicStoreRestored, events.StoreRestored{Source: src, Actor: ActorFrom(ctx)})
	return nil
}

// RecordTestResult stores r outside the ledger. An empty ID or CreatedAt is
// filled in.
func (m *Manager) RecordTestResult(ctx context.Context, r *model.TestResult) error {
	if r.ID == "" {
		id, err := idgen.TestResultID()
		if err != nil {
			return err
		}
		r.ID = id
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.timestamp()
	}
	if err := model.ValidateTestResult(r); err != nil {
		return err
	}

	m.global.RLock()
	defer m.global.RUnlock()
	if err := m.store.RecordTestResult(ctx, r); err != nil {
		return fmt.Errorf("record test result: %w", err)
	}
	m.publish(ctx, events.TopicTestResultRecorded, events.TestResultRecorded{Result: r})
	return nil
}

// ListTestResults returns the results for (kind, id), newest first. limit
// <= 0 returns all.
func (m *Manager) ListTestResults(ctx context.Context, kind model.Kind, id string, limit int) ([]*model.TestResult, error) {
	m.global.RLock()
	defer m.global.RUnlock()
	return m.store.ListTestResults(ctx, kind, id, limit)
}

// Export writes the whole store as JSONL to w. Restores wait until it
// finishes.
func (m *Manager) Export(ctx context.Context, w io.Writer) error {
	m.global.RLock()
	defer m.global.RUnlock()
	return sync.ExportJSONL(ctx, m.store, w)
}

// Source returns a sync.Source that takes the manager's shared lock per
// call, so no read overlaps a restore.
func (m *Manager) Source() sync.Source {
	return lockedSource{m}
}

type lockedSource struct{ m *Manager }

func (s lockedSource) ListEntities(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	return s.m.List(ctx, kind)
}

func (s lockedSource) ListVersions(ctx context.Context) ([]*model.VersionRecord, error) {
	s.m.global.RLock()
	defer s.m.global.RUnlock()
	return s.m.store.ListVersions(ctx)
}

func (s lockedSource) ListAllTestResults(ctx context.Context) ([]*model.TestResult, error) {
	s.m.global.RLock()
	defer s.m.global.RUnlock()
	return s.m.store.ListAllTestResults(ctx)
}
