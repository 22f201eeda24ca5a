package model

// ModelType classifies what a model is used for.
type ModelType string

const (
	ModelTypeLLM       ModelType = "llm"
	ModelTypeEmbedding ModelType = "embedding"
	ModelTypeImage     ModelType = "image"
	ModelTypeAudio     ModelType = "audio"
)

// IsValid checks whether the model type is a known value.
func (t ModelType) IsValid() bool {
	switch t {
	case ModelTypeLLM, ModelTypeEmbedding, ModelTypeImage, ModelTypeAudio:
		return true
	}
	return false
}

// ModelStatus is the availability of a model.
type ModelStatus string

const (
	ModelStatusActive     ModelStatus = "active"
	ModelStatusInactive   ModelStatus = "inactive"
	ModelStatusDeprecated ModelStatus = "deprecated"
)

// IsValid checks whether the status is a known value.
func (s ModelStatus) IsValid() bool {
	switch s {
	case ModelStatusActive, ModelStatusInactive, ModelStatusDeprecated:
		return true
	}
	return false
}

// Model configures a provider model agents can reference by id.
type Model struct {
	Meta
	Name     string         `json:"name"`
	Provider string         `json:"provider"`
	Type     ModelType      `json:"type"`
	Config   map[string]any `json:"config,omitempty"`
	Status   ModelStatus    `json:"status"`
}

// EntityKind implements Entity.
func (*Model) EntityKind() Kind { return KindModel }
