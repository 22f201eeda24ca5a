package main

import (
	"strings"
	"testing"
)

func TestColorizeHelpOutput(t *testing.T) {
	in := "Entities:\n  list        List the current entities\n\nFlags:\n      --format string   file format (default \"json\")\n"
	out := colorizeHelpOutput(in)

	for _, want := range []string{
		"\x1b[38;5;74mEntities:\x1b[0m",
		"  \x1b[38;5;250mlist\x1b[0m  ",
		"--format \x1b[38;5;245mstring\x1b[0m",
		"\x1b[38;5;245m(default \"json\")\x1b[0m",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%q", want, out)
		}
	}
}
