package model

import (
	"regexp"
	"strings"
)

// placeholderPattern matches {name} placeholders in a prompt template;
// identPattern is the shape of a declared variable name.
var (
	placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	identPattern       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Prompt is a reusable prompt template with declared variables.
type Prompt struct {
	Meta
	Name        string   `json:"name"`
	Template    string   `json:"template"`
	Variables   []string `json:"variables,omitempty"`
	Category    string   `json:"category,omitempty"`
	Channel     string   `json:"channel,omitempty"`
	Description string   `json:"description,omitempty"`
}

// EntityKind implements Entity.
func (*Prompt) EntityKind() Kind { return KindPrompt }

// MissingVariableError is returned by Render when declared variables have no
// value.
type MissingVariableError struct {
	Names []string
}

func (e *MissingVariableError) Error() string {
	return "missing prompt variables: " + strings.Join(e.Names, ", ")
}

// Placeholders returns the distinct placeholder names used by the template,
// in order of first appearance.
func (p *Prompt) Placeholders() []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(p.Template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Render substitutes declared variables into the template. Placeholders for
// undeclared names are left as-is.
func (p *Prompt) Render(vars map[string]string) (string, error) {
	var missing []string
	declared := make(map[string]bool, len(p.Variables))
	for _, v := range p.Variables {
		declared[v] = true
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", &MissingVariableError{Names: missing}
	}
	return placeholderPattern.ReplaceAllStringFunc(p.Template, func(m string) string {
		name := m[1 : len(m)-1]
		if !declared[name] {
			return m
		}
		return vars[name]
	}), nil
}

func validVariableName(name string) bool {
	return identPattern.MatchString(name)
}
