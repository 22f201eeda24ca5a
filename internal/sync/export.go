package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/confvault/internal/model"
)

// FormatVersion is written to the header of every export.
const FormatVersion = "1"

const (
	recordHeader     = "header"
	recordEntity     = "entity"
	recordVersion    = "version"
	recordTestResult = "test_result"
)

// Source is the read side of a store that ExportJSONL needs.
type Source interface {
	ListEntities(ctx context.Context, kind model.Kind) ([]model.Entity, error)
	ListVersions(ctx context.Context) ([]*model.VersionRecord, error)
	ListAllTestResults(ctx context.Context) ([]*model.TestResult, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version         string    `json:"version"`
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	EntityCount     int       `json:"entity_count"`
	VersionCount    int       `json:"version_count"`
	TestResultCount int       `json:"test_result_count"`
}

// record wraps a single JSONL line with a type discriminator. Kind is set
// for entity records so the payload can be decoded into the right type.
type record struct {
	Type string     `json:"type"`
	Kind model.Kind `json:"kind,omitempty"`
	Data any        `json:"data"`
}

// ExportJSONL writes every current entity, ledger record and test result
// from src as JSONL to w. Entities are ordered by kind then id, versions by
// kind, id and version, and test results oldest first.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) error {
	var entities []model.Entity
	for _, kind := range model.Kinds() {
		list, err := src.ListEntities(ctx, kind)
		if err != nil {
			return fmt.Errorf("list %s entities: %w", kind, err)
		}
		entities = append(entities, list...)
	}

	versions, err := src.ListVersions(ctx)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}

	results, err := src.ListAllTestResults(ctx)
	if err != nil {
		return fmt.Errorf("list test results: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:         FormatVersion,
		Type:            recordHeader,
		Timestamp:       time.Now().UTC(),
		EntityCount:     len(entities),
		VersionCount:    len(versions),
		TestResultCount: len(results),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, e := range entities {
		if err := enc.Encode(record{Type: recordEntity, Kind: e.EntityKind(), Data: e}); err != nil {
			return fmt.Errorf("encode %s %s: %w", e.EntityKind(), e.Base().ID, err)
		}
	}

	for _, v := range versions {
		if err := enc.Encode(record{Type: recordVersion, Data: v}); err != nil {
			return fmt.Errorf("encode version %s: %w", v.ID, err)
		}
	}

	for _, r := range results {
		if err := enc.Encode(record{Type: recordTestResult, Data: r}); err != nil {
			return fmt.Errorf("encode test result %s: %w", r.ID, err)
		}
	}

	return nil
}
