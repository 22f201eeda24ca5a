package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/alfredjeanlab/confvault/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEntity scans a single content column and decodes it as kind.
func scanEntity(kind model.Kind, row scannable) (model.Entity, error) {
	var content []byte
	if err := row.Scan(&content); err != nil {
		return nil, err
	}
	return model.Decode(kind, content)
}

// scanVersion scans a single row into a model.VersionRecord.
// The row must contain columns in the order defined by versionColumns.
func scanVersion(row scannable) (*model.VersionRecord, error) {
	var (
		rec     model.VersionRecord
		content string
		desc    sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&rec.EntityType,
		&rec.EntityID,
		&rec.Version,
		&content,
		&rec.ContentHash,
		&rec.CreatedAt,
		&rec.CreatedBy,
		&desc,
	)
	if err != nil {
		return nil, err
	}
	rec.Content = json.RawMessage(content)
	rec.ChangeDescription = desc.String
	return &rec, nil
}

func scanVersionRows(rows *sql.Rows) ([]*model.VersionRecord, error) {
	defer rows.Close()
	var recs []*model.VersionRecord
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// scanTestResult scans a single row into a model.TestResult.
// The row must contain columns in the order defined by testResultColumns.
func scanTestResult(row scannable) (*model.TestResult, error) {
	var (
		r        model.TestResult
		output   sql.NullString
		errText  sql.NullString
		duration int64
	)
	err := row.Scan(
		&r.ID,
		&r.EntityType,
		&r.EntityID,
		&r.Input,
		&output,
		&duration,
		&r.Status,
		&errText,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Output = output.String
	r.Error = errText.String
	r.Duration = time.Duration(duration)
	return &r, nil
}

func scanTestResultRows(rows *sql.Rows) ([]*model.TestResult, error) {
	defer rows.Close()
	var results []*model.TestResult
	for rows.Next() {
		r, err := scanTestResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
