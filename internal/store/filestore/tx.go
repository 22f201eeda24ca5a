package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
)

// RunInTransaction calls fn with a txStore that journals an undo action for
// every write. If fn fails, the journal is replayed in reverse so the files
// return to their state before the call.
func (s *FileStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx := &txStore{FileStore: s}
	if err := fn(tx); err != nil {
		if uerr := tx.rollback(); uerr != nil {
			s.logger.Error("filestore rollback incomplete", "err", uerr)
			return errors.Join(err, fmt.Errorf("rollback: %w", uerr))
		}
		return err
	}
	return nil
}

// txStore implements store.Store on top of a FileStore, recording undo
// actions for every mutation.
type txStore struct {
	*FileStore
	undo []func() error
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (t *txStore) rollback() error {
	var errs []error
	for i := len(t.undo) - 1; i >= 0; i-- {
		if err := t.undo[i](); err != nil {
			errs = append(errs, err)
		}
	}
	t.undo = nil
	return errors.Join(errs...)
}

// snapshot captures the current bytes at path and returns an undo action
// that puts them back (or removes path if it did not exist).
func (t *txStore) snapshot(path string) (func() error, error) {
	t.mu.RLock()
	prior, err := os.ReadFile(path)
	t.mu.RUnlock()
	switch {
	case err == nil:
		return func() error {
			t.mu.Lock()
			defer t.mu.Unlock()
			return writeAtomic(path, prior)
		}, nil
	case errors.Is(err, fs.ErrNotExist):
		return func() error { return t.removeIfExists(path) }, nil
	default:
		return nil, store.IOFailure("read", path, err)
	}
}

func (t *txStore) removeIfExists(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (t *txStore) PutEntity(ctx context.Context, e model.Entity) error {
	if err := checkKey(e.EntityKind(), e.Base().ID); err != nil {
		return err
	}
	undo, err := t.snapshot(t.entityPath(e.EntityKind(), e.Base().ID))
	if err != nil {
		return err
	}
	if err := t.FileStore.PutEntity(ctx, e); err != nil {
		return err
	}
	t.undo = append(t.undo, undo)
	return nil
}

func (t *txStore) RemoveEntity(ctx context.Context, kind model.Kind, id string) (bool, error) {
	if err := checkKey(kind, id); err != nil {
		return false, err
	}
	undo, err := t.snapshot(t.entityPath(kind, id))
	if err != nil {
		return false, err
	}
	removed, err := t.FileStore.RemoveEntity(ctx, kind, id)
	if err != nil {
		return false, err
	}
	if removed {
		t.undo = append(t.undo, undo)
	}
	return removed, nil
}

func (t *txStore) AppendVersion(ctx context.Context, rec *model.VersionRecord) error {
	if err := t.FileStore.AppendVersion(ctx, rec); err != nil {
		return err
	}
	path := t.versionPath(rec.EntityType, rec.EntityID, rec.Version)
	t.undo = append(t.undo, func() error { return t.removeIfExists(path) })
	return nil
}

func (t *txStore) RecordTestResult(ctx context.Context, r *model.TestResult) error {
	if err := t.FileStore.RecordTestResult(ctx, r); err != nil {
		return err
	}
	path := t.resultPath(r)
	t.undo = append(t.undo, func() error { return t.removeIfExists(path) })
	return nil
}

// RunInTransaction on a txStore reuses the existing journal (no nesting).
func (t *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}

// Backup is not available inside a transaction.
func (t *txStore) Backup(context.Context, string) error {
	return fmt.Errorf("backup inside a transaction is not supported")
}

// Restore is not available inside a transaction.
func (t *txStore) Restore(context.Context, string) error {
	return fmt.Errorf("restore inside a transaction is not supported")
}

// Close is a no-op for a transaction store; the parent store owns the files.
func (t *txStore) Close() error {
	return nil
}
