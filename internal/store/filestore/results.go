package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
)

func (s *FileStore) resultPath(r *model.TestResult) string {
	return filepath.Join(s.resultDir(r.EntityType, r.EntityID),
		fmt.Sprintf("%020d-%s%s", r.CreatedAt.UnixNano(), escapeID(r.ID), recordExt))
}

// RecordTestResult stores r. Results are keyed by timestamp and id.
func (s *FileStore) RecordTestResult(ctx context.Context, r *model.TestResult) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if r.ID == "" {
		return fmt.Errorf("test result: id is required")
	}
	if err := model.ValidateTestResult(r); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode test result %s: %w", r.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.resultPath(r)
	if err := createExclusive(path, data); err != nil {
		if errors.Is(err, errExist) {
			return fmt.Errorf("test result %s: %w", r.ID, store.ErrAlreadyExists)
		}
		return store.IOFailure("write", path, err)
	}
	return nil
}

// ListTestResults returns results for (kind, id), newest first.
func (s *FileStore) ListTestResults(ctx context.Context, kind model.Kind, id string, limit int) ([]*model.TestResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if err := checkKey(kind, id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	results, err := readResultDir(s.resultDir(kind, id))
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	sortResultsNewestFirst(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ListAllTestResults returns every stored result, oldest first.
func (s *FileStore) ListAllTestResults(ctx context.Context) ([]*model.TestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*model.TestResult
	for _, kind := range model.Kinds() {
		kindDir := filepath.Join(s.root, resultsDir, string(kind))
		ids, err := subdirs(kindDir)
		if err != nil {
			return nil, err
		}
		for _, escaped := range ids {
			if err := ctxErr(ctx); err != nil {
				return nil, err
			}
			results, err := readResultDir(filepath.Join(kindDir, escaped))
			if err != nil {
				return nil, err
			}
			all = append(all, results...)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}

func readResultDir(dir string) ([]*model.TestResult, error) {
	names, err := recordNames(dir)
	if err != nil {
		return nil, err
	}
	results := make([]*model.TestResult, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := readRecord(path)
		if err != nil {
			return nil, err
		}
		var r model.TestResult
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("%w: test result %s: %v", model.ErrInvalidEntity, path, err)
		}
		results = append(results, &r)
	}
	return results, nil
}

func sortResultsNewestFirst(results []*model.TestResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID > results[j].ID
	})
}
