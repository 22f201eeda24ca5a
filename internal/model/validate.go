package model

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// Id limits keep ids usable as file names. Ids are path-escaped on disk,
// which can triple their length, and most filesystems cap a name at 255
// bytes: MaxEscapedIDLength leaves room for the ".json" suffix.
const (
	MaxIDLength        = 200
	MaxEscapedIDLength = 250

	// resultNamePrefix is the "%020d-" timestamp prefix of test result
	// file names.
	resultNamePrefix = 21
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) result() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ValidateID checks that id can identify an entity.
func ValidateID(id string) error {
	var ve ValidationError
	validateID(&ve, "id", id, MaxEscapedIDLength)
	return ve.result()
}

func validateID(ve *ValidationError, field, id string, maxEscaped int) {
	switch {
	case strings.TrimSpace(id) == "":
		ve.add(field, "is required")
		return
	case id == "." || id == "..":
		ve.add(field, "must not be %q", id)
		return
	case len(id) > MaxIDLength:
		ve.add(field, "must be %d bytes or fewer", MaxIDLength)
		return
	case len(url.PathEscape(id)) > maxEscaped:
		ve.add(field, "must be %d bytes or fewer once escaped, got %d", maxEscaped, len(url.PathEscape(id)))
		return
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			ve.add(field, "must not contain control characters")
			return
		}
	}
}

// Validate checks an entity for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the entity is valid.
func Validate(e Entity) error {
	if e == nil {
		return &ValidationError{Errors: []FieldError{{Field: "entity", Message: "is required"}}}
	}
	var ve ValidationError
	validateID(&ve, "id", e.Base().ID, MaxEscapedIDLength)

	switch v := e.(type) {
	case *Agent:
		validateAgent(&ve, v)
	case *Prompt:
		validatePrompt(&ve, v)
	case *Workflow:
		validateWorkflow(&ve, v)
	case *Tool:
		if strings.TrimSpace(v.Provider) == "" {
			ve.add("provider", "is required")
		}
	case *Model:
		validateModel(&ve, v)
	default:
		ve.add("kind", "unsupported entity type %T", e)
	}
	return ve.result()
}

func validateAgent(ve *ValidationError, a *Agent) {
	if strings.TrimSpace(a.Role) == "" {
		ve.add("role", "is required")
	}
	if a.MaxIterations < 0 {
		ve.add("max_iterations", "must not be negative, got %d", a.MaxIterations)
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		ve.add("temperature", "must be between 0 and 2, got %g", a.Temperature)
	}
	for i, t := range a.Tools {
		if strings.TrimSpace(t) == "" {
			ve.add(fmt.Sprintf("tools[%d]", i), "must not be empty")
		}
	}
}

func validatePrompt(ve *ValidationError, p *Prompt) {
	if strings.TrimSpace(p.Template) == "" {
		ve.add("template", "is required")
	}
	declared := make(map[string]bool, len(p.Variables))
	for i, v := range p.Variables {
		field := fmt.Sprintf("variables[%d]", i)
		switch {
		case !validVariableName(v):
			ve.add(field, "invalid variable name %q", v)
		case declared[v]:
			ve.add(field, "duplicate variable %q", v)
		}
		declared[v] = true
	}
	for _, name := range p.Placeholders() {
		if !declared[name] {
			ve.add("template", "references undeclared variable %q", name)
		}
	}
}

func validateWorkflow(ve *ValidationError, w *Workflow) {
	names := make(map[string]bool, len(w.Steps))
	for i := range w.Steps {
		s := &w.Steps[i]
		field := fmt.Sprintf("steps[%d]", i)
		if strings.TrimSpace(s.Name) == "" {
			ve.add(field+".name", "is required")
		} else if names[s.Name] {
			ve.add(field+".name", "duplicate step name %q", s.Name)
		}
		names[s.Name] = true

		if !s.Type.IsValid() {
			ve.add(field+".type", "invalid value %q", s.Type)
			continue
		}
		n, matching := s.payloads()
		switch {
		case n == 0 || !matching:
			ve.add(field, "missing %s payload", s.Type)
			continue
		case n > 1:
			ve.add(field, "must carry exactly one payload, got %d", n)
			continue
		}
		validateStepPayload(ve, field, s)
	}

	// Branch targets may point forward, so check them once all names are known.
	for i := range w.Steps {
		c := w.Steps[i].Condition
		if w.Steps[i].Type != StepCondition || c == nil {
			continue
		}
		field := fmt.Sprintf("steps[%d].condition", i)
		if c.Then != "" && !names[c.Then] {
			ve.add(field+".then", "unknown step %q", c.Then)
		}
		if c.Else != "" && !names[c.Else] {
			ve.add(field+".else", "unknown step %q", c.Else)
		}
	}

	if w.Settings.MaxParallel < 0 {
		ve.add("settings.max_parallel", "must not be negative, got %d", w.Settings.MaxParallel)
	}
	if _, err := w.Settings.TimeoutDuration(); err != nil {
		ve.add("settings.timeout", "invalid duration %q", w.Settings.Timeout)
	}
}

func validateStepPayload(ve *ValidationError, field string, s *Step) {
	switch s.Type {
	case StepAgent:
		if s.Agent.AgentID == "" {
			ve.add(field+".agent.agent_id", "is required")
		}
		if strings.TrimSpace(s.Agent.Task) == "" {
			ve.add(field+".agent.task", "is required")
		}
	case StepTool:
		if s.Tool.ToolID == "" {
			ve.add(field+".tool.tool_id", "is required")
		}
	case StepPrompt:
		if s.Prompt.PromptID == "" {
			ve.add(field+".prompt.prompt_id", "is required")
		}
	case StepCondition:
		if strings.TrimSpace(s.Condition.Expression) == "" {
			ve.add(field+".condition.expression", "is required")
		}
		if s.Condition.Then == "" {
			ve.add(field+".condition.then", "is required")
		}
	}
}

func validateModel(ve *ValidationError, m *Model) {
	if strings.TrimSpace(m.Provider) == "" {
		ve.add("provider", "is required")
	}
	if !m.Type.IsValid() {
		ve.add("type", "invalid value %q", m.Type)
	}
	if !m.Status.IsValid() {
		ve.add("status", "invalid value %q", m.Status)
	}
}

// ValidateTestResult checks a TestResult for constraint violations.
func ValidateTestResult(r *TestResult) error {
	var ve ValidationError
	if !r.EntityType.IsValid() {
		ve.add("entity_type", "invalid value %q", r.EntityType)
	}
	validateID(&ve, "entity_id", r.EntityID, MaxEscapedIDLength)
	if r.ID != "" {
		validateID(&ve, "id", r.ID, MaxEscapedIDLength-resultNamePrefix)
	}
	if !r.Status.IsValid() {
		ve.add("status", "invalid value %q", r.Status)
	}
	if r.Status == TestError && strings.TrimSpace(r.Error) == "" {
		ve.add("error", "is required when status is error")
	}
	if r.Duration < 0 {
		ve.add("duration", "must not be negative")
	}
	return ve.result()
}
