package store

import (
	"context"

	"github.com/alfredjeanlab/confvault/internal/model"
)

// EntityStore holds the current value of every entity, one record per
// (kind, id). Writes replace the record atomically.
type EntityStore interface {
	PutEntity(ctx context.Context, e model.Entity) error
	GetEntity(ctx context.Context, kind model.Kind, id string) (model.Entity, error) // ErrNotFound when absent
	ListEntities(ctx context.Context, kind model.Kind) ([]model.Entity, error)
	RemoveEntity(ctx context.Context, kind model.Kind, id string) (bool, error)
}

// Ledger is the append-only history of every saved version.
type Ledger interface {
	AppendVersion(ctx context.Context, rec *model.VersionRecord) error // ErrDuplicateVersion on key reuse
	History(ctx context.Context, kind model.Kind, id string) ([]*model.VersionRecord, error) // newest first
	NextVersion(ctx context.Context, kind model.Kind, id string) (int, error)
	RecordAt(ctx context.Context, kind model.Kind, id string, version int) (*model.VersionRecord, error)
	ListVersions(ctx context.Context) ([]*model.VersionRecord, error)
}

// TestResultStore keeps invocation test results outside the ledger.
type TestResultStore interface {
	RecordTestResult(ctx context.Context, r *model.TestResult) error
	ListTestResults(ctx context.Context, kind model.Kind, id string, limit int) ([]*model.TestResult, error) // newest first; limit <= 0 means all
	ListAllTestResults(ctx context.Context) ([]*model.TestResult, error)
}

// Store defines the persistence interface for configuration entities.
type Store interface {
	EntityStore
	Ledger
	TestResultStore

	// RunInTransaction calls fn with a Store whose writes are applied
	// together or not at all.
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Backup copies the whole store to dest, which must not exist.
	Backup(ctx context.Context, dest string) error
	// Restore replaces the whole store with the backup at src.
	Restore(ctx context.Context, src string) error

	Close() error
}
