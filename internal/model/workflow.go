package model

import "time"

// StepType discriminates the payload carried by a workflow Step.
type StepType string

const (
	StepAgent     StepType = "agent"
	StepTool      StepType = "tool"
	StepPrompt    StepType = "prompt"
	StepCondition StepType = "condition"
)

// IsValid checks whether the step type is a known value.
func (t StepType) IsValid() bool {
	switch t {
	case StepAgent, StepTool, StepPrompt, StepCondition:
		return true
	}
	return false
}

// Step is one entry of a workflow. Exactly one payload pointer is set and it
// must match Type.
type Step struct {
	Name      string         `json:"name"`
	Type      StepType       `json:"type"`
	Agent     *AgentStep     `json:"agent,omitempty"`
	Tool      *ToolStep      `json:"tool,omitempty"`
	Prompt    *PromptStep    `json:"prompt,omitempty"`
	Condition *ConditionStep `json:"condition,omitempty"`
}

// AgentStep hands a task to an agent.
type AgentStep struct {
	AgentID        string `json:"agent_id"`
	Task           string `json:"task"`
	ExpectedOutput string `json:"expected_output,omitempty"`
}

// ToolStep invokes a tool directly.
type ToolStep struct {
	ToolID string         `json:"tool_id"`
	Input  map[string]any `json:"input,omitempty"`
}

// PromptStep renders a prompt with the given variables.
type PromptStep struct {
	PromptID  string            `json:"prompt_id"`
	Variables map[string]string `json:"variables,omitempty"`
}

// ConditionStep branches to another step by name.
type ConditionStep struct {
	Expression string `json:"expression"`
	Then       string `json:"then"`
	Else       string `json:"else,omitempty"`
}

// payloads returns how many payload pointers are set and whether the one
// matching Type is among them.
func (s *Step) payloads() (n int, matching bool) {
	if s.Agent != nil {
		n++
		matching = matching || s.Type == StepAgent
	}
	if s.Tool != nil {
		n++
		matching = matching || s.Type == StepTool
	}
	if s.Prompt != nil {
		n++
		matching = matching || s.Type == StepPrompt
	}
	if s.Condition != nil {
		n++
		matching = matching || s.Type == StepCondition
	}
	return n, matching
}

// WorkflowSettings controls how a workflow is executed.
type WorkflowSettings struct {
	MaxParallel int            `json:"max_parallel,omitempty"`
	Timeout     string         `json:"timeout,omitempty"` // time.ParseDuration format
	StopOnError bool           `json:"stop_on_error,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// TimeoutDuration parses Timeout; zero means no timeout.
func (s WorkflowSettings) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Timeout)
}

// Workflow is an ordered list of steps run by the execution engine.
type Workflow struct {
	Meta
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Steps       []Step           `json:"steps"`
	Settings    WorkflowSettings `json:"settings"`
}

// EntityKind implements Entity.
func (*Workflow) EntityKind() Kind { return KindWorkflow }

// StepByName returns the step with the given name, or nil.
func (w *Workflow) StepByName(name string) *Step {
	for i := range w.Steps {
		if w.Steps[i].Name == name {
			return &w.Steps[i]
		}
	}
	return nil
}
