package model

import "time"

// TestStatus is the outcome of an ad-hoc invocation test.
type TestStatus string

const (
	TestSuccess TestStatus = "success"
	TestError   TestStatus = "error"
)

// IsValid checks whether the status is a known value.
func (s TestStatus) IsValid() bool {
	return s == TestSuccess || s == TestError
}

// TestResult records one invocation test run against an entity. Results are
// not versioned.
type TestResult struct {
	ID         string        `json:"id"`
	EntityType Kind          `json:"entity_type"`
	EntityID   string        `json:"entity_id"`
	Input      string        `json:"input"`
	Output     string        `json:"output,omitempty"`
	Duration   time.Duration `json:"duration"`
	Status     TestStatus    `json:"status"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}
