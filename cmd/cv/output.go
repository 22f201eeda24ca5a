package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/confvault/internal/manager"
	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// entityName returns the display name shared by every kind.
func entityName(e model.Entity) string {
	switch v := e.(type) {
	case *model.Agent:
		return v.Name
	case *model.Prompt:
		return v.Name
	case *model.Workflow:
		return v.Name
	case *model.Tool:
		return v.Name
	case *model.Model:
		return v.Name
	}
	return ""
}

// entitySummary is a one-line description of what distinguishes e.
func entitySummary(e model.Entity) string {
	switch v := e.(type) {
	case *model.Agent:
		return v.Role
	case *model.Prompt:
		return v.Category
	case *model.Workflow:
		return fmt.Sprintf("%d steps", len(v.Steps))
	case *model.Tool:
		if v.Enabled {
			return v.Provider
		}
		return v.Provider + " (disabled)"
	case *model.Model:
		return fmt.Sprintf("%s %s (%s)", v.Provider, v.Type, v.Status)
	}
	return ""
}

func printEntityListTable(w io.Writer, kind model.Kind, entities []model.Entity) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVERSION\tNAME\tDETAIL\tUPDATED")
	for _, e := range entities {
		m := e.Base()
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			m.ID,
			m.Version,
			truncate(entityName(e), 40),
			truncate(entitySummary(e), 40),
			m.UpdatedAt.Local().Format(timeLayout),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d %ss\n", len(entities), kind)
}

// printEntityTable prints the metadata header and the entity body as
// indented JSON.
func printEntityTable(w io.Writer, e model.Entity) error {
	m := e.Base()
	fmt.Fprintf(w, "Kind:        %s\n", e.EntityKind())
	fmt.Fprintf(w, "ID:          %s\n", m.ID)
	if name := entityName(e); name != "" {
		fmt.Fprintf(w, "Name:        %s\n", name)
	}
	fmt.Fprintf(w, "Version:     %d\n", m.Version)
	fmt.Fprintf(w, "Created At:  %s\n", m.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(w, "Updated At:  %s\n", m.UpdatedAt.Local().Format(timeLayout))
	fmt.Fprintln(w)
	return printJSON(w, e)
}

func printHistoryTable(w io.Writer, records []*model.VersionRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tCREATED\tBY\tHASH\tDESCRIPTION")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.Version,
			r.CreatedAt.Local().Format(timeLayout),
			r.CreatedBy,
			r.ContentHash[:min(12, len(r.ContentHash))],
			truncate(r.ChangeDescription, 60),
		)
	}
	tw.Flush()
}

func printDiff(w io.Writer, from, to int, changes []manager.FieldChange) {
	if len(changes) == 0 {
		fmt.Fprintf(w, "No differences between v%d and v%d\n", from, to)
		return
	}
	for _, c := range changes {
		fmt.Fprintln(w, ui.RenderAccent(c.Field+":"))
		if c.From != nil {
			fmt.Fprintln(w, ui.RenderRemoved(fmt.Sprintf("  - v%d %s", from, c.From)))
		}
		if c.To != nil {
			fmt.Fprintln(w, ui.RenderAdded(fmt.Sprintf("  + v%d %s", to, c.To)))
		}
	}
}

func printTestResultsTable(w io.Writer, results []*model.TestResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tDURATION\tCREATED\tINPUT\tOUTPUT")
	for _, r := range results {
		out := r.Output
		if r.Status == model.TestError {
			out = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			ui.RenderTestStatus(r.Status),
			r.Duration.Round(time.Millisecond),
			r.CreatedAt.Local().Format(timeLayout),
			truncate(r.Input, 30),
			truncate(out, 40),
		)
	}
	tw.Flush()
}
