// Package events publishes change notifications for configuration entities.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/confvault/internal/model"
)

// Event topic constants
const (
	TopicEntitySaved        = "confvault.entity.saved"
	TopicEntityDeleted      = "confvault.entity.deleted"
	TopicEntityRolledBack   = "confvault.entity.rolled_back"
	TopicStoreRestored      = "confvault.store.restored"
	TopicTestResultRecorded = "confvault.test_result.recorded"

	// TopicAll matches every confvault topic.
	TopicAll = "confvault.>"
)

// Event types

type EntitySaved struct {
	Kind              model.Kind `json:"kind"`
	ID                string     `json:"id"`
	Version           int        `json:"version"`
	ContentHash       string     `json:"content_hash"`
	Actor             string     `json:"actor"`
	ChangeDescription string     `json:"change_description,omitempty"`
}

type EntityDeleted struct {
	Kind  model.Kind `json:"kind"`
	ID    string     `json:"id"`
	Actor string     `json:"actor"`
}

type EntityRolledBack struct {
	Kind          model.Kind `json:"kind"`
	ID            string     `json:"id"`
	TargetVersion int        `json:"target_version"`
	Version       int        `json:"version"` // the new version created by the rollback
	Actor         string     `json:"actor"`
}

type StoreRestored struct {
	Source string `json:"source"`
	Actor  string `json:"actor"`
}

type TestResultRecorded struct {
	Result *model.TestResult `json:"result"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Message is one event received from the bus.
type Message struct {
	Topic string
	Data  []byte
}

// Decode unmarshals a message into the event type registered for its topic.
func Decode(msg Message) (any, error) {
	var ev any
	switch msg.Topic {
	case TopicEntitySaved:
		ev = &EntitySaved{}
	case TopicEntityDeleted:
		ev = &EntityDeleted{}
	case TopicEntityRolledBack:
		ev = &EntityRolledBack{}
	case TopicStoreRestored:
		ev = &StoreRestored{}
	case TopicTestResultRecorded:
		ev = &TestResultRecorded{}
	default:
		return nil, fmt.Errorf("unknown topic %q", msg.Topic)
	}
	if err := json.Unmarshal(msg.Data, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", msg.Topic, err)
	}
	return ev, nil
}
