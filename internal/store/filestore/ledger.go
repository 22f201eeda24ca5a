package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
)

// AppendVersion writes rec under its (kind, id, version) key. The key must
// be new.
func (s *FileStore) AppendVersion(ctx context.Context, rec *model.VersionRecord) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if err := checkKey(rec.EntityType, rec.EntityID); err != nil {
		return err
	}
	if rec.Version < 1 {
		return fmt.Errorf("append %s: version must be positive, got %d", rec.ID, rec.Version)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode version %s: %w", rec.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.versionPath(rec.EntityType, rec.EntityID, rec.Version)
	if err := createExclusive(path, data); err != nil {
		if errors.Is(err, errExist) {
			return fmt.Errorf("append %s: %w", rec.ID, store.ErrDuplicateVersion)
		}
		return store.IOFailure("append", path, err)
	}
	return nil
}

// History returns every version of (kind, id), newest first.
func (s *FileStore) History(ctx context.Context, kind model.Kind, id string) ([]*model.VersionRecord, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if err := checkKey(kind, id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	recs, err := s.readVersionDir(s.versionDir(kind, id))
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Version > recs[j].Version })
	return recs, nil
}

// NextVersion returns one past the highest recorded version, or 1.
func (s *FileStore) NextVersion(ctx context.Context, kind model.Kind, id string) (int, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	if err := checkKey(kind, id); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	names, err := recordNames(s.versionDir(kind, id))
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, name := range names {
		v, err := versionFromName(name)
		if err != nil {
			return 0, fmt.Errorf("%s %q: %w", kind, id, err)
		}
		if v > highest {
			highest = v
		}
	}
	return highest + 1, nil
}

// RecordAt returns the record for (kind, id, version).
func (s *FileStore) RecordAt(ctx context.Context, kind model.Kind, id string, version int) (*model.VersionRecord, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if err := checkKey(kind, id); err != nil {
		return nil, err
	}
	if version < 1 {
		return nil, fmt.Errorf("%s: %w", model.VersionRecordID(kind, id, version), store.ErrNotFound)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	path := s.versionPath(kind, id, version)
	data, err := readRecord(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", model.VersionRecordID(kind, id, version), err)
	}
	return decodeVersion(path, data)
}

// ListVersions returns every record in the ledger ordered by kind, id and
// version.
func (s *FileStore) ListVersions(ctx context.Context) ([]*model.VersionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*model.VersionRecord
	for _, kind := range model.Kinds() {
		kindDir := filepath.Join(s.root, ledgerDir, string(kind))
		ids, err := subdirs(kindDir)
		if err != nil {
			return nil, err
		}
		for _, escaped := range ids {
			if err := ctxErr(ctx); err != nil {
				return nil, err
			}
			recs, err := s.readVersionDir(filepath.Join(kindDir, escaped))
			if err != nil {
				return nil, err
			}
			all = append(all, recs...)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.EntityType != b.EntityType {
			return a.EntityType < b.EntityType
		}
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		return a.Version < b.Version
	})
	return all, nil
}

func (s *FileStore) readVersionDir(dir string) ([]*model.VersionRecord, error) {
	names, err := recordNames(dir)
	if err != nil {
		return nil, err
	}
	recs := make([]*model.VersionRecord, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := readRecord(path)
		if err != nil {
			return nil, err
		}
		rec, err := decodeVersion(path, data)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func decodeVersion(path string, data []byte) (*model.VersionRecord, error) {
	var rec model.VersionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: version record %s: %v", model.ErrInvalidEntity, path, err)
	}
	return &rec, nil
}

func versionFromName(name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSuffix(name, recordExt))
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: unexpected ledger file %q", model.ErrInvalidEntity, name)
	}
	return v, nil
}
