package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
)

// versionColumns is the column list used for SELECT statements on entity_versions.
const versionColumns = `id, entity_type, entity_id, version, content, content_hash,
	created_at, created_by, change_description`

// testResultColumns is the column list used for SELECT statements on test_results.
const testResultColumns = `id, entity_type, entity_id, input, output, duration_ns,
	status, error, created_at`

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

func queryPutEntity(ctx context.Context, db executor, e model.Entity) error {
	content, err := model.Encode(e)
	if err != nil {
		return fmt.Errorf("encode %s %q: %w", e.EntityKind(), e.Base().ID, err)
	}
	m := e.Base()
	_, err = db.ExecContext(ctx, `
		INSERT INTO entities (entity_type, entity_id, version, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			version = EXCLUDED.version,
			content = EXCLUDED.content,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`,
		string(e.EntityKind()), m.ID, m.Version, content, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func queryGetEntity(ctx context.Context, db executor, kind model.Kind, id string) (model.Entity, error) {
	row := db.QueryRowContext(ctx,
		`SELECT content FROM entities WHERE entity_type = $1 AND entity_id = $2`,
		string(kind), id)
	e, err := scanEntity(kind, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %q: %w", kind, id, store.ErrNotFound)
	}
	return e, err
}

func queryListEntities(ctx context.Context, db executor, kind model.Kind) ([]model.Entity, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT content FROM entities WHERE entity_type = $1 ORDER BY entity_id`,
		string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []model.Entity
	for rows.Next() {
		e, err := scanEntity(kind, rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func queryRemoveEntity(ctx context.Context, db executor, kind model.Kind, id string) (bool, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM entities WHERE entity_type = $1 AND entity_id = $2`,
		string(kind), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func queryAppendVersion(ctx context.Context, db executor, rec *model.VersionRecord) error {
	if rec.Version < 1 {
		return fmt.Errorf("append %s: version must be positive, got %d", rec.ID, rec.Version)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO entity_versions (
			id, entity_type, entity_id, version, content, content_hash,
			created_at, created_by, change_description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID,
		string(rec.EntityType),
		rec.EntityID,
		rec.Version,
		string(rec.Content),
		rec.ContentHash,
		rec.CreatedAt,
		rec.CreatedBy,
		rec.ChangeDescription,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("append %s: %w", rec.ID, store.ErrDuplicateVersion)
	}
	return err
}

func queryHistory(ctx context.Context, db executor, kind model.Kind, id string) ([]*model.VersionRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+versionColumns+` FROM entity_versions
		WHERE entity_type = $1 AND entity_id = $2 ORDER BY version DESC`,
		string(kind), id)
	if err != nil {
		return nil, err
	}
	return scanVersionRows(rows)
}

func queryNextVersion(ctx context.Context, db executor, kind model.Kind, id string) (int, error) {
	var next int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM entity_versions WHERE entity_type = $1 AND entity_id = $2`,
		string(kind), id).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}

func queryRecordAt(ctx context.Context, db executor, kind model.Kind, id string, version int) (*model.VersionRecord, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM entity_versions
		WHERE entity_type = $1 AND entity_id = $2 AND version = $3`,
		string(kind), id, version)
	rec, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", model.VersionRecordID(kind, id, version), store.ErrNotFound)
	}
	return rec, err
}

func queryListVersions(ctx context.Context, db executor) ([]*model.VersionRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+versionColumns+` FROM entity_versions ORDER BY entity_type, entity_id, version`)
	if err != nil {
		return nil, err
	}
	return scanVersionRows(rows)
}

func queryRecordTestResult(ctx context.Context, db executor, r *model.TestResult) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO test_results (`+testResultColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID,
		string(r.EntityType),
		r.EntityID,
		r.Input,
		r.Output,
		int64(r.Duration),
		string(r.Status),
		r.Error,
		r.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("test result %s: %w", r.ID, store.ErrAlreadyExists)
	}
	return err
}

func queryListTestResults(ctx context.Context, db executor, kind model.Kind, id string, limit int) ([]*model.TestResult, error) {
	query := `SELECT ` + testResultColumns + ` FROM test_results
		WHERE entity_type = $1 AND entity_id = $2 ORDER BY created_at DESC, id DESC`
	args := []any{string(kind), id}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanTestResultRows(rows)
}

func queryListAllTestResults(ctx context.Context, db executor) ([]*model.TestResult, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+testResultColumns+` FROM test_results ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return scanTestResultRows(rows)
}

// queryTruncateAll empties every table. Used by Restore inside its transaction.
func queryTruncateAll(ctx context.Context, db executor) error {
	_, err := db.ExecContext(ctx, `TRUNCATE test_results, entity_versions, entities`)
	return err
}
