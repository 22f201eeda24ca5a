package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity, version or backup is absent.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateVersion means a ledger key was written twice. It signals a
	// sequencing bug or an unserialized writer, never bad input.
	ErrDuplicateVersion = errors.New("duplicate version")
	// ErrAlreadyExists is returned when a backup destination is occupied.
	ErrAlreadyExists = errors.New("already exists")
)

// IOError reports a storage medium failure during a store operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IOFailure wraps err in an *IOError. A nil err yields nil.
func IOFailure(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// IsIOFailure reports whether err was caused by the storage medium.
func IsIOFailure(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}
