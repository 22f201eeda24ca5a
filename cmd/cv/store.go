package main

import (
	"fmt"
	"os"

	"github.com/alfredjeanlab/confvault/internal/seed"
	cvsync "github.com/alfredjeanlab/confvault/internal/sync"
	"github.com/spf13/cobra"
)

// annotationManualBootstrap marks commands that seed the store themselves.
const annotationManualBootstrap = "confvault/manual-bootstrap"

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "Create the store and seed the default configuration",
	GroupID:     "store",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationManualBootstrap: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		seeded, err := seed.Bootstrap(app.Context(cmd.Context()), app.Manager)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, map[string]any{"backend": app.Config.Backend, "seeded": seeded})
		}
		if seeded {
			fmt.Fprintf(out, "Initialized %s store with %d default entities\n",
				app.Config.Backend, len(seed.Defaults().Entities()))
		} else {
			fmt.Fprintf(out, "%s store already initialized\n", app.Config.Backend)
		}
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:     "backup <dir>",
	Short:   "Copy the whole store to a new directory",
	GroupID: "store",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Manager.Backup(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("backup to %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Backed up to %s\n", args[0])
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <dir>",
	Short: "Replace the whole store with a backup",
	Long: `Replace the whole store with a backup taken by cv backup. Everything
saved since the backup is lost.`,
	GroupID:     "store",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationManualBootstrap: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Manager.Restore(app.Context(cmd.Context()), args[0]); err != nil {
			return fmt.Errorf("restore from %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored from %s\n", args[0])
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write the whole store as JSONL",
	GroupID: "store",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" || output == "-" {
			return app.Manager.Export(cmd.Context(), cmd.OutOrStdout())
		}
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		if err := app.Manager.Export(cmd.Context(), f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push a JSONL export to the configured destinations",
	Long: `Push a JSONL export of the store to every configured destination
(CONFVAULT_SYNC_S3_BUCKET, CONFVAULT_SYNC_GIT_REPO, CONFVAULT_SYNC_FILE).
With --watch the export repeats every --interval until interrupted.`,
	GroupID: "store",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval == 0 {
			interval = app.Config.SyncInterval
		}

		ctx := cmd.Context()
		dests, err := app.Destinations(ctx)
		if err != nil {
			return err
		}
		if len(dests) == 0 {
			return fmt.Errorf("no sync destinations configured")
		}
		for _, d := range dests {
			app.Logger.Info("sync destination enabled", "destination", d.Name())
		}

		scheduler := cvsync.NewScheduler(app.Manager.Source(), dests, interval, app.Logger)
		if !watch {
			return scheduler.SyncOnce(ctx)
		}
		if interval <= 0 {
			return fmt.Errorf("--watch needs a positive --interval")
		}
		scheduler.Start(ctx)
		app.Logger.Info("sync scheduler started", "interval", interval)
		<-ctx.Done()
		scheduler.Stop()
		app.Logger.Info("sync scheduler stopped")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	syncCmd.Flags().Bool("watch", false, "keep syncing until interrupted")
	syncCmd.Flags().Duration("interval", 0, "time between syncs with --watch (default CONFVAULT_SYNC_INTERVAL)")
}
