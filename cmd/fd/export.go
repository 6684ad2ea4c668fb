package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/focusdeck/focusdeck/internal/migrate"
	"github.com/focusdeck/focusdeck/internal/schema"
	"github.com/focusdeck/focusdeck/internal/ui"
)

var (
	importDryRun bool
	importBackup string
)

var exportCmd = &cobra.Command{
	Use:     "export <file.jsonl>",
	GroupID: "tasks",
	Short:   "Export tasks to JSONL",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		n, err := migrate.Export(args[0], app.Tasks.List())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass(fmt.Sprintf("Exported %d task(s) to %s", n, args[0])))
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file.jsonl>",
	GroupID: "tasks",
	Short:   "Import tasks from JSONL, merging by id",
	Long: `Import tasks from a JSONL export. Tasks whose id already exists are
skipped; invalid lines are reported and skipped. Use --backup to write
the current collection to a file first, or --dry-run to validate
without changing anything.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		result, err := migrate.Import(migrate.ImportOptions{
			Path:   args[0],
			DryRun: importDryRun,
			Backup: importBackup,
		}, app.Tasks.List())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		for _, msg := range result.Errors {
			fmt.Println(ui.RenderWarn(msg))
		}
		if result.BackupCreated != "" {
			fmt.Println(ui.RenderPass("Backed up current tasks to " + result.BackupCreated))
		}
		if importDryRun {
			fmt.Println(ui.RenderPass(fmt.Sprintf("Dry run: %d task(s) readable, %d problem(s)",
				result.TasksRead, len(result.Errors))))
			return
		}

		err = app.Tasks.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
			s.Tasks = result.Tasks
			return s, nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass(fmt.Sprintf("Imported %d task(s), collection now holds %d",
			result.TasksRead, len(result.Tasks))))
	},
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate without importing")
	importCmd.Flags().StringVar(&importBackup, "backup", "", "back up current tasks to this file first")

	rootCmd.AddCommand(exportCmd, importCmd)
}
