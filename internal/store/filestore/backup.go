package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alfredjeanlab/confvault/internal/store"
)

// Backup copies the data directory to dest. dest must not exist; a partial
// copy is removed on failure.
func (s *FileStore) Backup(ctx context.Context, dest string) error {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("backup: resolve destination: %w", err)
	}
	if abs == s.root || strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return fmt.Errorf("backup: destination %s is inside the store", abs)
	}
	if _, err := os.Lstat(abs); err == nil {
		return fmt.Errorf("backup %s: %w", abs, store.ErrAlreadyExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return store.IOFailure("backup", abs, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := copyTree(ctx, s.root, abs); err != nil {
		os.RemoveAll(abs)
		return store.IOFailure("backup", abs, err)
	}
	s.logger.Info("backup written", "root", s.root, "dest", abs)
	return nil
}

// Restore replaces the data directory with the backup at src. The backup is
// first copied next to the root, then swapped in with two renames, so the
// store is never left half-restored.
func (s *FileStore) Restore(ctx context.Context, src string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("restore: resolve source: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("restore %s: %w", abs, store.ErrNotFound)
		}
		return store.IOFailure("restore", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("restore %s: not a directory", abs)
	}
	if abs == s.root {
		return fmt.Errorf("restore: source is the live store")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, base := filepath.Split(s.root)
	staging, err := os.MkdirTemp(parent, base+".restore-*")
	if err != nil {
		return store.IOFailure("restore", parent, err)
	}
	if err := copyTree(ctx, abs, staging); err != nil {
		os.RemoveAll(staging)
		return store.IOFailure("restore", abs, err)
	}
	for _, sub := range []string{entitiesDir, ledgerDir, resultsDir} {
		if err := os.MkdirAll(filepath.Join(staging, sub), 0o755); err != nil {
			os.RemoveAll(staging)
			return store.IOFailure("restore", staging, err)
		}
	}

	retired, err := os.MkdirTemp(parent, base+".old-*")
	if err != nil {
		os.RemoveAll(staging)
		return store.IOFailure("restore", parent, err)
	}
	// MkdirTemp reserved the name; rename needs it gone.
	os.Remove(retired)
	if err := os.Rename(s.root, retired); err != nil {
		os.RemoveAll(staging)
		return store.IOFailure("restore", s.root, err)
	}
	if err := os.Rename(staging, s.root); err != nil {
		if rerr := os.Rename(retired, s.root); rerr != nil {
			s.logger.Error("restore: could not put the previous store back", "retired", retired, "err", rerr)
		}
		os.RemoveAll(staging)
		return store.IOFailure("restore", s.root, err)
	}
	if err := os.RemoveAll(retired); err != nil {
		s.logger.Warn("restore: could not remove previous store", "path", retired, "err", err)
	}
	s.logger.Info("store restored", "root", s.root, "src", abs)
	return nil
}

// copyTree copies the regular files and directories under src into dst,
// skipping temporary files.
func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case !d.Type().IsRegular(), strings.HasSuffix(d.Name(), tempExt):
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
