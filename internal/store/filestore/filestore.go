// Package filestore implements store.Store on a local directory tree.
//
// Layout under the root directory:
//
//	entities/{kind}/{id}.json                      current values
//	ledger/{kind}/{id}/{version:010d}.json         version records
//	test_results/{kind}/{id}/{nanos}-{rid}.json    invocation test results
//
// Ids are escaped with url.PathEscape. Every file is written to a temporary
// name and moved into place, so readers never observe a partial record.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
)

const (
	entitiesDir = "entities"
	ledgerDir   = "ledger"
	resultsDir  = "test_results"

	recordExt = ".json"
	tempExt   = ".tmp"
)

// errExist is returned by createExclusive when the target already exists.
var errExist = errors.New("file exists")

// FileStore implements store.Store backed by one file per record.
type FileStore struct {
	mu     sync.RWMutex
	root   string
	logger *slog.Logger
}

// Compile-time check that FileStore implements store.Store.
var _ store.Store = (*FileStore)(nil)

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used for backup and restore messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *FileStore) { s.logger = l }
}

// New opens (creating if needed) a store rooted at dir.
func New(dir string, opts ...Option) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore: root directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("filestore: resolve root: %w", err)
	}
	s := &FileStore{root: abs, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	for _, sub := range []string{entitiesDir, ledgerDir, resultsDir} {
		if err := os.MkdirAll(filepath.Join(abs, sub), 0o755); err != nil {
			return nil, store.IOFailure("init", abs, err)
		}
	}
	return s, nil
}

// Root returns the absolute data directory.
func (s *FileStore) Root() string {
	return s.root
}

// Close is a no-op; FileStore holds no open handles between calls.
func (s *FileStore) Close() error {
	return nil
}

func escapeID(id string) string {
	return url.PathEscape(id)
}

func unescapeID(name string) (string, error) {
	return url.PathUnescape(name)
}

func (s *FileStore) entityPath(kind model.Kind, id string) string {
	return filepath.Join(s.root, entitiesDir, string(kind), escapeID(id)+recordExt)
}

func (s *FileStore) versionDir(kind model.Kind, id string) string {
	return filepath.Join(s.root, ledgerDir, string(kind), escapeID(id))
}

func (s *FileStore) versionPath(kind model.Kind, id string, version int) string {
	return filepath.Join(s.versionDir(kind, id), fmt.Sprintf("%010d%s", version, recordExt))
}

func (s *FileStore) resultDir(kind model.Kind, id string) string {
	return filepath.Join(s.root, resultsDir, string(kind), escapeID(id))
}

func checkKey(kind model.Kind, id string) error {
	if !kind.IsValid() {
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	return model.ValidateID(id)
}

// writeTemp writes data to a synced temporary file in dir and returns its
// path. The caller moves it into place or removes it.
func writeTemp(dir string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, "*"+tempExt)
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

// writeAtomic replaces path with data via rename.
func writeAtomic(path string, data []byte) error {
	tmp, err := writeTemp(filepath.Dir(path), data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// createExclusive writes path with data only if it does not exist yet. The
// complete file appears at once because it is hard-linked from a finished
// temporary file.
func createExclusive(path string, data []byte) error {
	tmp, err := writeTemp(filepath.Dir(path), data)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	if err := os.Link(tmp, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errExist
		}
		return err
	}
	return nil
}

// readRecord returns the bytes at path; store.ErrNotFound when absent.
func readRecord(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, store.IOFailure("read", path, err)
	}
	return data, nil
}

// recordNames lists the record files in dir (temporary files excluded).
// A missing directory yields no names.
func recordNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, store.IOFailure("list", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// subdirs lists the directory names in dir. A missing directory yields none.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, store.IOFailure("list", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
