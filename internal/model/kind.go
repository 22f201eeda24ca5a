package model

import "fmt"

// Kind identifies a category of configuration entity.
type Kind string

const (
	KindAgent    Kind = "agent"
	KindPrompt   Kind = "prompt"
	KindWorkflow Kind = "workflow"
	KindTool     Kind = "tool"
	KindModel    Kind = "model"
)

// Kinds returns every entity kind in canonical order.
func Kinds() []Kind {
	return []Kind{KindAgent, KindPrompt, KindWorkflow, KindTool, KindModel}
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks whether the kind is a known value.
func (k Kind) IsValid() bool {
	switch k {
	case KindAgent, KindPrompt, KindWorkflow, KindTool, KindModel:
		return true
	}
	return false
}

// ParseKind converts s to a Kind. Plural forms ("agents") are accepted so
// CLI arguments read naturally.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if k.IsValid() {
		return k, nil
	}
	if n := len(s); n > 1 && s[n-1] == 's' {
		if k = Kind(s[:n-1]); k.IsValid() {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}
