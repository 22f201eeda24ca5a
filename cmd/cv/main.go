package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alfredjeanlab/confvault/internal/ui"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	actor      string

	// app is opened by rootCmd's PersistentPreRunE for every command that
	// touches the store.
	app *App
)

var rootCmd = &cobra.Command{
	Use:           "cv <command>",
	Short:         "Versioned configuration store for agents, prompts, workflows, tools and models",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(actor)
		if err != nil {
			return err
		}
		app = a
		if cmd.Annotations[annotationManualBootstrap] != "" {
			return nil
		}
		return app.Bootstrap(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
			app = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "actor recorded as created_by (default CONFVAULT_ACTOR)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "entities", Title: "Entities:"},
		&cobra.Group{ID: "versions", Title: "Versions:"},
		&cobra.Group{ID: "store", Title: "Store:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Entities
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(testCmd)

	// Versions
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(rollbackCmd)

	// Store
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if !ui.ColorEnabled(os.Stdout) {
		ui.ForceNoColor()
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
