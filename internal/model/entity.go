package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEntity is returned when stored or supplied content cannot be
// decoded into an entity of the expected kind.
var ErrInvalidEntity = errors.New("invalid entity")

// SystemActor is recorded as the author of a version when the caller does
// not identify itself.
const SystemActor = "system"

// Meta holds the lifecycle fields shared by every entity kind.
type Meta struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Base returns m itself so embedding types satisfy Entity.
func (m *Meta) Base() *Meta {
	return m
}

// Entity is a versioned configuration object.
type Entity interface {
	EntityKind() Kind
	Base() *Meta
}

// New returns an empty entity of the given kind.
func New(kind Kind) (Entity, error) {
	switch kind {
	case KindAgent:
		return &Agent{}, nil
	case KindPrompt:
		return &Prompt{}, nil
	case KindWorkflow:
		return &Workflow{}, nil
	case KindTool:
		return &Tool{}, nil
	case KindModel:
		return &Model{}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

// Encode serializes an entity to its canonical JSON form.
func Encode(e Entity) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("encode: nil entity")
	}
	return json.Marshal(e)
}

// Decode parses data as an entity of the given kind. Unknown fields are
// rejected so corrupted or mis-filed records surface instead of loading
// half-empty. Numbers inside free-form maps decode as json.Number so integer
// settings keep their exact digits.
func Decode(kind Kind, data []byte) (Entity, error) {
	e, err := New(kind)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(e); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidEntity, kind, err)
	}
	if e.Base().ID == "" {
		return nil, fmt.Errorf("%w: decode %s: missing id", ErrInvalidEntity, kind)
	}
	return e, nil
}

// Clone returns a deep copy of e by round-tripping it through its encoding.
func Clone(e Entity) (Entity, error) {
	data, err := Encode(e)
	if err != nil {
		return nil, err
	}
	return Decode(e.EntityKind(), data)
}

// ContentBytes returns the encoding of e with version and timestamps
// zeroed, i.e. the part of an entity that a caller controls.
func ContentBytes(e Entity) ([]byte, error) {
	c, err := Clone(e)
	if err != nil {
		return nil, err
	}
	m := c.Base()
	m.Version = 0
	m.CreatedAt = time.Time{}
	m.UpdatedAt = time.Time{}
	return Encode(c)
}

// ContentEqual reports whether a and b hold the same content, ignoring
// version and timestamps.
func ContentEqual(a, b Entity) bool {
	if a == nil || b == nil || a.EntityKind() != b.EntityKind() {
		return false
	}
	ab, err := ContentBytes(a)
	if err != nil {
		return false
	}
	bb, err := ContentBytes(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
