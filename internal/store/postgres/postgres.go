// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
	"github.com/alfredjeanlab/confvault/internal/sync"
)

// BackupFile is the export written inside a backup directory.
const BackupFile = "store.jsonl"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newWithDB(db, logger), nil
}

func newWithDB(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) PutEntity(ctx context.Context, e model.Entity) error {
	return queryPutEntity(ctx, s.db, e)
}

func (s *PostgresStore) GetEntity(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	return queryGetEntity(ctx, s.db, kind, id)
}

func (s *PostgresStore) ListEntities(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	return queryListEntities(ctx, s.db, kind)
}

func (s *PostgresStore) RemoveEntity(ctx context.Context, kind model.Kind, id string) (bool, error) {
	return queryRemoveEntity(ctx, s.db, kind, id)
}

func (s *PostgresStore) AppendVersion(ctx context.Context, rec *model.VersionRecord) error {
	return queryAppendVersion(ctx, s.db, rec)
}

func (s *PostgresStore) History(ctx context.Context, kind model.Kind, id string) ([]*model.VersionRecord, error) {
	return queryHistory(ctx, s.db, kind, id)
}

func (s *PostgresStore) NextVersion(ctx context.Context, kind model.Kind, id string) (int, error) {
	return queryNextVersion(ctx, s.db, kind, id)
}

func (s *PostgresStore) RecordAt(ctx context.Context, kind model.Kind, id string, version int) (*model.VersionRecord, error) {
	return queryRecordAt(ctx, s.db, kind, id, version)
}

func (s *PostgresStore) ListVersions(ctx context.Context) ([]*model.VersionRecord, error) {
	return queryListVersions(ctx, s.db)
}

func (s *PostgresStore) RecordTestResult(ctx context.Context, r *model.TestResult) error {
	return queryRecordTestResult(ctx, s.db, r)
}

func (s *PostgresStore) ListTestResults(ctx context.Context, kind model.Kind, id string, limit int) ([]*model.TestResult, error) {
	return queryListTestResults(ctx, s.db, kind, id, limit)
}

func (s *PostgresStore) ListAllTestResults(ctx context.Context) ([]*model.TestResult, error) {
	return queryListAllTestResults(ctx, s.db)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Backup writes a JSONL export of every table to dest/store.jsonl. dest
// must not exist.
func (s *PostgresStore) Backup(ctx context.Context, dest string) error {
	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("backup %s: %w", dest, store.ErrAlreadyExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return store.IOFailure("backup", dest, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return store.IOFailure("backup", dest, err)
	}

	path := filepath.Join(dest, BackupFile)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		os.RemoveAll(dest)
		return store.IOFailure("backup", path, err)
	}
	if err := sync.ExportJSONL(ctx, s, f); err != nil {
		f.Close()
		os.RemoveAll(dest)
		return fmt.Errorf("backup: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.RemoveAll(dest)
		return store.IOFailure("backup", path, err)
	}
	if err := f.Close(); err != nil {
		os.RemoveAll(dest)
		return store.IOFailure("backup", path, err)
	}
	s.logger.Info("backup written", "dest", dest)
	return nil
}

// Restore replaces every table with the content of src/store.jsonl in a
// single transaction.
func (s *PostgresStore) Restore(ctx context.Context, src string) error {
	path := filepath.Join(src, BackupFile)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("restore %s: %w", src, store.ErrNotFound)
		}
		return store.IOFailure("restore", path, err)
	}
	defer f.Close()

	snap, err := sync.ImportJSONL(f)
	if err != nil {
		return fmt.Errorf("restore %s: %w", src, err)
	}

	err = s.RunInTransaction(ctx, func(tx store.Store) error {
		if err := queryTruncateAll(ctx, tx.(*txStore).tx); err != nil {
			return err
		}
		return snap.Apply(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("restore %s: %w", src, err)
	}
	s.logger.Info("store restored", "src", src,
		"entities", len(snap.Entities), "versions", len(snap.Versions), "test_results", len(snap.TestResults))
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) PutEntity(ctx context.Context, e model.Entity) error {
	return queryPutEntity(ctx, s.tx, e)
}

func (s *txStore) GetEntity(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	return queryGetEntity(ctx, s.tx, kind, id)
}

func (s *txStore) ListEntities(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	return queryListEntities(ctx, s.tx, kind)
}

func (s *txStore) RemoveEntity(ctx context.Context, kind model.Kind, id string) (bool, error) {
	return queryRemoveEntity(ctx, s.tx, kind, id)
}

func (s *txStore) AppendVersion(ctx context.Context, rec *model.VersionRecord) error {
	return queryAppendVersion(ctx, s.tx, rec)
}

func (s *txStore) History(ctx context.Context, kind model.Kind, id string) ([]*model.VersionRecord, error) {
	return queryHistory(ctx, s.tx, kind, id)
}

func (s *txStore) NextVersion(ctx context.Context, kind model.Kind, id string) (int, error) {
	return queryNextVersion(ctx, s.tx, kind, id)
}

func (s *txStore) RecordAt(ctx context.Context, kind model.Kind, id string, version int) (*model.VersionRecord, error) {
	return queryRecordAt(ctx, s.tx, kind, id, version)
}

func (s *txStore) ListVersions(ctx context.Context) ([]*model.VersionRecord, error) {
	return queryListVersions(ctx, s.tx)
}

func (s *txStore) RecordTestResult(ctx context.Context, r *model.TestResult) error {
	return queryRecordTestResult(ctx, s.tx, r)
}

func (s *txStore) ListTestResults(ctx context.Context, kind model.Kind, id string, limit int) ([]*model.TestResult, error) {
	return queryListTestResults(ctx, s.tx, kind, id, limit)
}

func (s *txStore) ListAllTestResults(ctx context.Context) ([]*model.TestResult, error) {
	return queryListAllTestResults(ctx, s.tx)
}

// RunInTransaction on a txStore just calls fn with itself (no nesting).
func (s *txStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Backup is not available inside a transaction.
func (s *txStore) Backup(context.Context, string) error {
	return fmt.Errorf("backup inside a transaction is not supported")
}

// Restore is not available inside a transaction.
func (s *txStore) Restore(context.Context, string) error {
	return fmt.Errorf("restore inside a transaction is not supported")
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
