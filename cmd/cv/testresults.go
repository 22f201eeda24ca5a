package main

import (
	"fmt"

	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:     "test",
	Short:   "Record and list invocation test results",
	GroupID: "entities",
}

var testRecordCmd = &cobra.Command{
	Use:   "record <kind> <id>",
	Short: "Record the result of testing an entity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		errText, _ := cmd.Flags().GetString("error")
		duration, _ := cmd.Flags().GetDuration("duration")

		status := model.TestSuccess
		if errText != "" {
			status = model.TestError
		}
		r := &model.TestResult{
			EntityType: kind,
			EntityID:   args[1],
			Input:      input,
			Output:     output,
			Duration:   duration,
			Status:     status,
			Error:      errText,
		}

		ctx := cmd.Context()
		if _, err := app.Manager.Load(ctx, kind, args[1]); err != nil {
			return fmt.Errorf("getting %s %s: %w", kind, args[1], err)
		}
		if err := app.Manager.RecordTestResult(app.Context(ctx), r); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), r)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s (%s)\n", r.ID, r.Status)
		return nil
	},
}

var testListCmd = &cobra.Command{
	Use:   "list <kind> <id>",
	Short: "List test results for an entity, newest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		results, err := app.Manager.ListTestResults(cmd.Context(), kind, args[1], limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			if results == nil {
				results = []*model.TestResult{}
			}
			return printJSON(cmd.OutOrStdout(), results)
		}
		printTestResultsTable(cmd.OutOrStdout(), results)
		return nil
	},
}

func init() {
	testRecordCmd.Flags().String("input", "", "input sent to the entity")
	testRecordCmd.Flags().String("output", "", "output it produced")
	testRecordCmd.Flags().String("error", "", "error message; marks the result as failed")
	testRecordCmd.Flags().Duration("duration", 0, "how long the invocation took")

	testListCmd.Flags().Int("limit", 20, "maximum number of results (0 for all)")

	testCmd.AddCommand(testRecordCmd)
	testCmd.AddCommand(testListCmd)
}
