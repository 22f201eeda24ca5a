package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
)

func TestBackupRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.AppendVersion(ctx, testRecord(t, model.KindAgent, "a1", 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.PutEntity(ctx, testAgent("a1", "original")); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "backup")
	if err := s.Backup(ctx, dest); err != nil {
		t.Fatalf("Backup: %v", err)
	}

	// Diverge after the backup.
	if err := s.PutEntity(ctx, testAgent("a1", "changed")); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendVersion(ctx, testRecord(t, model.KindAgent, "a1", 2)); err != nil {
		t.Fatal(err)
	}
	if err := s.PutEntity(ctx, testAgent("a2", "new")); err != nil {
		t.Fatal(err)
	}

	if err := s.Restore(ctx, dest); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := s.GetEntity(ctx, model.KindAgent, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.(*model.Agent).Role != "original" {
		t.Errorf("role = %q, want original", got.(*model.Agent).Role)
	}
	if _, err := s.GetEntity(ctx, model.KindAgent, "a2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("a2 should be gone after restore, got %v", err)
	}
	hist, _ := s.History(ctx, model.KindAgent, "a1")
	if len(hist) != 1 {
		t.Errorf("expected 1 version after restore, got %d", len(hist))
	}

	// The backup itself is untouched and can be restored again.
	if _, err := os.Stat(filepath.Join(dest, entitiesDir)); err != nil {
		t.Errorf("backup missing after restore: %v", err)
	}
}

func TestBackup_DestinationExists(t *testing.T) {
	s := newTestStore(t)
	dest := t.TempDir()
	if err := s.Backup(context.Background(), dest); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestBackup_InsideStore(t *testing.T) {
	s := newTestStore(t)
	if err := s.Backup(context.Background(), filepath.Join(s.Root(), "snap")); err == nil {
		t.Fatal("expected error for destination inside store")
	}
}

func TestBackup_SkipsTempFiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	stray := filepath.Join(s.Root(), entitiesDir, "x"+tempExt)
	if err := os.WriteFile(stray, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(t.TempDir(), "b")
	if err := s.Backup(ctx, dest); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dest, entitiesDir, "x"+tempExt)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file copied into backup: %v", err)
	}
}

func TestRestore_MissingSource(t *testing.T) {
	s := newTestStore(t)
	err := s.Restore(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRestore_EmptyBackupDirectory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.PutEntity(ctx, testAgent("a1", "r")); err != nil {
		t.Fatal(err)
	}
	if err := s.Restore(ctx, t.TempDir()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	list, err := s.ListEntities(ctx, model.KindAgent)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty store, got %d agents", len(list))
	}
}
