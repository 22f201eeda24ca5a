package model

// Agent configures an LLM agent: its persona, the model it runs on and the
// tools it may call.
type Agent struct {
	Meta
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	Goal            string   `json:"goal,omitempty"`
	Backstory       string   `json:"backstory,omitempty"`
	Model           string   `json:"model,omitempty"` // Model entity id
	MaxIterations   int      `json:"max_iterations,omitempty"`
	Temperature     float64  `json:"temperature"`
	Tools           []string `json:"tools,omitempty"` // Tool entity ids
	AllowDelegation bool     `json:"allow_delegation,omitempty"`
	Verbose         bool     `json:"verbose,omitempty"`
}

// EntityKind implements Entity.
func (*Agent) EntityKind() Kind { return KindAgent }
