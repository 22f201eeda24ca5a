package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileDestination(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "store.jsonl")
	dest := NewFileDestination(path)

	for _, data := range []string{"first\n", "second\n"} {
		if err := dest.Write(context.Background(), []byte(data)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(got) != data {
			t.Fatalf("content = %q, want %q", got, data)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}
