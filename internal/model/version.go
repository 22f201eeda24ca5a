package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alfredjeanlab/confvault/internal/contenthash"
)

// VersionRecord is an immutable snapshot of an entity at one version.
// (EntityType, EntityID, Version) is unique across the ledger.
type VersionRecord struct {
	ID                string          `json:"id"`
	EntityType        Kind            `json:"entity_type"`
	EntityID          string          `json:"entity_id"`
	Version           int             `json:"version"`
	Content           json.RawMessage `json:"content"`
	ContentHash       string          `json:"content_hash"`
	CreatedAt         time.Time       `json:"created_at"`
	CreatedBy         string          `json:"created_by"`
	ChangeDescription string          `json:"change_description,omitempty"`
}

// VersionRecordID derives the record id for a ledger key.
func VersionRecordID(kind Kind, id string, version int) string {
	return fmt.Sprintf("%s:%s@v%d", kind, id, version)
}

// NewVersionRecord builds a ledger record for content, hashing it.
// An empty actor is recorded as SystemActor.
func NewVersionRecord(kind Kind, id string, content []byte, version int, changeDescription, actor string, now time.Time) *VersionRecord {
	if actor == "" {
		actor = SystemActor
	}
	return &VersionRecord{
		ID:                VersionRecordID(kind, id, version),
		EntityType:        kind,
		EntityID:          id,
		Version:           version,
		Content:           json.RawMessage(content),
		ContentHash:       contenthash.Sum(content),
		CreatedAt:         now,
		CreatedBy:         actor,
		ChangeDescription: changeDescription,
	}
}

// Entity decodes the snapshot content.
func (r *VersionRecord) Entity() (Entity, error) {
	return Decode(r.EntityType, r.Content)
}

// Verify reports whether ContentHash still matches Content.
func (r *VersionRecord) Verify() bool {
	return contenthash.Verify(r.Content, r.ContentHash)
}
