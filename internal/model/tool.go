package model

// Tool configures an external capability agents can invoke. Config is an
// opaque provider-specific blob.
type Tool struct {
	Meta
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Enabled     bool           `json:"enabled"`
	Provider    string         `json:"provider"`
	Config      map[string]any `json:"config,omitempty"`
}

// EntityKind implements Entity.
func (*Tool) EntityKind() Kind { return KindTool }
