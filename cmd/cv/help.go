package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alfredjeanlab/confvault/internal/ui"
	"github.com/spf13/cobra"
)

// helpRule colors one kind of token in cobra's help text.
type helpRule struct {
	re     *regexp.Regexp
	render func(groups []string) string
}

var helpRules = []helpRule{
	// Section headers such as "Entities:" or "Flags:".
	{
		re:     regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`),
		render: func(g []string) string { return ui.RenderAccent(strings.TrimSpace(g[0])) },
	},
	// Command names: two-space indent, a word, two or more spaces.
	{
		re:     regexp.MustCompile(`(?m)^(  )(\S+)(  )`),
		render: func(g []string) string { return g[1] + ui.RenderCommand(g[2]) + g[3] },
	},
	// Flag value types, e.g. "--format string".
	{
		re:     regexp.MustCompile(`(--?\S+\s+)(string|int|duration|stringArray)\b`),
		render: func(g []string) string { return g[1] + ui.RenderMuted(g[2]) },
	},
	{
		re:     regexp.MustCompile(`\(default [^)]*\)`),
		render: func(g []string) string { return ui.RenderMuted(g[0]) },
	},
}

// colorizedHelpFunc returns a cobra help function that colors the default
// help text when stdout supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, rule := range helpRules {
		s = rule.re.ReplaceAllStringFunc(s, func(match string) string {
			return rule.render(rule.re.FindStringSubmatch(match))
		})
	}
	return s
}
