package store

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestIOFailure(t *testing.T) {
	if IOFailure("write", "/x", nil) != nil {
		t.Fatal("IOFailure(nil) should be nil")
	}
	err := fmt.Errorf("save: %w", IOFailure("write", "/data/a.json", fs.ErrPermission))
	if !IsIOFailure(err) {
		t.Fatal("IsIOFailure should see through wrapping")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatal("IOError should unwrap to the cause")
	}
	want := "save: storage write /data/a.json: permission denied"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
	if IsIOFailure(ErrNotFound) {
		t.Fatal("ErrNotFound is not an I/O failure")
	}
}
