package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/confvault/internal/manager"
	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list [kind]...",
	Short:   "List the current entities of one or more kinds",
	GroupID: "entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := model.Kinds()
		if len(args) > 0 {
			kinds = kinds[:0:0]
			for _, a := range args {
				k, err := model.ParseKind(a)
				if err != nil {
					return err
				}
				kinds = append(kinds, k)
			}
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		all := make(map[model.Kind][]model.Entity, len(kinds))
		for i, k := range kinds {
			list, err := app.Manager.List(ctx, k)
			if err != nil {
				return fmt.Errorf("listing %ss: %w", k, err)
			}
			if jsonOutput {
				all[k] = list
				continue
			}
			if i > 0 {
				fmt.Fprintln(out)
			}
			printEntityListTable(out, k, list)
		}
		if jsonOutput {
			return printJSON(out, all)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:     "show <kind> <id>",
	Short:   "Show the current value of an entity",
	GroupID: "entities",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		e, err := app.Manager.Load(cmd.Context(), kind, args[1])
		if err != nil {
			return fmt.Errorf("getting %s %s: %w", kind, args[1], err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), e)
		}
		return printEntityTable(cmd.OutOrStdout(), e)
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <kind> [id] -f <file>",
	Short: "Save a new version of an entity from a JSON, TOML or YAML file",
	Long: `Save a new version of an entity. The file holds the entity fields;
version and timestamps in it are ignored. An id argument overrides the id in
the file. Use -f - to read JSON from stdin.`,
	GroupID: "entities",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		format, _ := cmd.Flags().GetString("format")
		message, _ := cmd.Flags().GetString("message")

		e, err := readEntityFile(kind, file, format)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		if len(args) == 2 {
			e.Base().ID = args[1]
		}

		saved, err := app.Manager.Save(app.Context(cmd.Context()), e, message)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), saved)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %s version %d\n", kind, saved.Base().ID, saved.Base().Version)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <kind> <id>...",
	Short:   "Delete entities; their version history is kept",
	GroupID: "entities",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		ctx := app.Context(cmd.Context())
		for _, id := range args[1:] {
			removed, err := app.Manager.Delete(ctx, kind, id)
			if err != nil {
				return fmt.Errorf("deleting %s %s: %w", kind, id, err)
			}
			if !removed {
				return fmt.Errorf("deleting %s %s: %w", kind, id, store.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", kind, id)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:     "history <kind> <id>",
	Short:   "List every version of an entity, newest first",
	GroupID: "versions",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		records, err := app.Manager.History(cmd.Context(), kind, args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), records)
		}
		if len(records) == 0 {
			return fmt.Errorf("%s %s: %w", kind, args[1], store.ErrNotFound)
		}
		printHistoryTable(cmd.OutOrStdout(), records)
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:     "diff <kind> <id> <from> <to>",
	Short:   "Show the fields that changed between two versions",
	GroupID: "versions",
	Args:    cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		from, err := parseVersion(args[2])
		if err != nil {
			return err
		}
		to, err := parseVersion(args[3])
		if err != nil {
			return err
		}
		changes, err := app.Manager.Diff(cmd.Context(), kind, args[1], from, to)
		if err != nil {
			return err
		}
		if jsonOutput {
			if changes == nil {
				changes = []manager.FieldChange{}
			}
			return printJSON(cmd.OutOrStdout(), changes)
		}
		printDiff(cmd.OutOrStdout(), from, to, changes)
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:     "rollback <kind> <id> <version>",
	Short:   "Save an earlier version's content as the newest version",
	GroupID: "versions",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		target, err := parseVersion(args[2])
		if err != nil {
			return err
		}
		ctx := app.Context(cmd.Context())
		ok, err := app.Manager.Rollback(ctx, kind, args[1], target)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s %s has no version %d", kind, args[1], target)
		}
		e, err := app.Manager.Load(ctx, kind, args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), e)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %s %s to version %d (now version %d)\n",
			kind, args[1], target, e.Base().Version)
		return nil
	},
}

func parseVersion(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimPrefix(s, "v"))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid version %q", s)
	}
	return v, nil
}

func init() {
	saveCmd.Flags().StringP("file", "f", "", "file holding the entity (- for stdin)")
	saveCmd.Flags().String("format", "", "file format: json, toml or yaml (default from extension)")
	saveCmd.Flags().StringP("message", "m", "", "change description")
	_ = saveCmd.MarkFlagRequired("file")
}
