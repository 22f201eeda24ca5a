package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/confvault/internal/model"
)

// Snapshot is the decoded content of a JSONL export.
type Snapshot struct {
	Timestamp   time.Time
	Entities    []model.Entity
	Versions    []*model.VersionRecord
	TestResults []*model.TestResult
}

// Sink is the write side of a store that Snapshot.Apply needs.
type Sink interface {
	PutEntity(ctx context.Context, e model.Entity) error
	AppendVersion(ctx context.Context, rec *model.VersionRecord) error
	RecordTestResult(ctx context.Context, r *model.TestResult) error
}

type rawRecord struct {
	Type string          `json:"type"`
	Kind model.Kind      `json:"kind,omitempty"`
	Data json.RawMessage `json:"data"`
}

// ImportJSONL reads an export written by ExportJSONL. The header must come
// first and its counts must match the records that follow. Version records
// whose content no longer matches their hash are rejected.
func ImportJSONL(r io.Reader) (*Snapshot, error) {
	dec := json.NewDecoder(r)

	var h header
	if err := dec.Decode(&h); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("import: empty input")
		}
		return nil, fmt.Errorf("import: decode header: %w", err)
	}
	if h.Type != recordHeader {
		return nil, fmt.Errorf("import: first record is %q, want %q", h.Type, recordHeader)
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("import: unsupported format version %q", h.Version)
	}

	snap := &Snapshot{Timestamp: h.Timestamp}
	for line := 2; ; line++ {
		var rec rawRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("import: record %d: %w", line, err)
		}
		switch rec.Type {
		case recordEntity:
			e, err := model.Decode(rec.Kind, rec.Data)
			if err != nil {
				return nil, fmt.Errorf("import: record %d: %w", line, err)
			}
			snap.Entities = append(snap.Entities, e)
		case recordVersion:
			var v model.VersionRecord
			if err := json.Unmarshal(rec.Data, &v); err != nil {
				return nil, fmt.Errorf("import: record %d: %w", line, err)
			}
			if !v.Verify() {
				return nil, fmt.Errorf("import: version %s: content hash mismatch", v.ID)
			}
			snap.Versions = append(snap.Versions, &v)
		case recordTestResult:
			var tr model.TestResult
			if err := json.Unmarshal(rec.Data, &tr); err != nil {
				return nil, fmt.Errorf("import: record %d: %w", line, err)
			}
			snap.TestResults = append(snap.TestResults, &tr)
		default:
			return nil, fmt.Errorf("import: record %d: unknown type %q", line, rec.Type)
		}
	}

	if len(snap.Entities) != h.EntityCount ||
		len(snap.Versions) != h.VersionCount ||
		len(snap.TestResults) != h.TestResultCount {
		return nil, fmt.Errorf("import: header counts %d/%d/%d do not match records %d/%d/%d",
			h.EntityCount, h.VersionCount, h.TestResultCount,
			len(snap.Entities), len(snap.Versions), len(snap.TestResults))
	}
	return snap, nil
}

// Apply writes the snapshot into dst: ledger records first, then current
// values, then test results.
func (s *Snapshot) Apply(ctx context.Context, dst Sink) error {
	for _, v := range s.Versions {
		if err := dst.AppendVersion(ctx, v); err != nil {
			return fmt.Errorf("apply version %s: %w", v.ID, err)
		}
	}
	for _, e := range s.Entities {
		if err := dst.PutEntity(ctx, e); err != nil {
			return fmt.Errorf("apply %s %s: %w", e.EntityKind(), e.Base().ID, err)
		}
	}
	for _, r := range s.TestResults {
		if err := dst.RecordTestResult(ctx, r); err != nil {
			return fmt.Errorf("apply test result %s: %w", r.ID, err)
		}
	}
	return nil
}
