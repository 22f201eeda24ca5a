package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
)

// PutEntity writes e as the current value for its (kind, id).
func (s *FileStore) PutEntity(ctx context.Context, e model.Entity) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if err := checkKey(e.EntityKind(), e.Base().ID); err != nil {
		return err
	}
	data, err := model.Encode(e)
	if err != nil {
		return fmt.Errorf("encode %s %q: %w", e.EntityKind(), e.Base().ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.entityPath(e.EntityKind(), e.Base().ID)
	return store.IOFailure("write", path, writeAtomic(path, data))
}

// GetEntity returns the current value for (kind, id).
func (s *FileStore) GetEntity(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if err := checkKey(kind, id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, err := readRecord(s.entityPath(kind, id))
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, id, err)
	}
	return model.Decode(kind, data)
}

// ListEntities returns every current value of kind, ordered by id.
func (s *FileStore) ListEntities(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.root, entitiesDir, string(kind))
	names, err := recordNames(dir)
	if err != nil {
		return nil, err
	}
	entities := make([]model.Entity, 0, len(names))
	for _, name := range names {
		data, err := readRecord(filepath.Join(dir, name))
		if errors.Is(err, store.ErrNotFound) {
			continue // removed between ReadDir and ReadFile
		}
		if err != nil {
			return nil, err
		}
		e, err := model.Decode(kind, data)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", kind, name, err)
		}
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Base().ID < entities[j].Base().ID
	})
	return entities, nil
}

// RemoveEntity deletes the current value for (kind, id). Ledger records are
// untouched.
func (s *FileStore) RemoveEntity(ctx context.Context, kind model.Kind, id string) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	if err := checkKey(kind, id); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.entityPath(kind, id)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, store.IOFailure("remove", path, err)
	}
	return true, nil
}
