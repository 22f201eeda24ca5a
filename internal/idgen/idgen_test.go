package idgen

import (
	"regexp"
	"strings"
	"testing"
)

func TestTestResultID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^tr-[a-zA-Z0-9]{12}$`)
	for i := 0; i < 100; i++ {
		id, err := TestResultID()
		if err != nil {
			t.Fatalf("TestResultID() error on iteration %d: %v", i, err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("TestResultID() = %q, does not match %s", id, pattern)
		}
	}
}

func TestTestResultID_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := TestResultID()
		if err != nil {
			t.Fatalf("TestResultID() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestWithPrefix(t *testing.T) {
	for _, prefix := range []string{"", "x-", "backup-"} {
		id, err := WithPrefix(prefix)
		if err != nil {
			t.Fatalf("WithPrefix(%q) error: %v", prefix, err)
		}
		if !strings.HasPrefix(id, prefix) || len(id) != len(prefix)+Length {
			t.Errorf("WithPrefix(%q) = %q", prefix, id)
		}
	}
}
