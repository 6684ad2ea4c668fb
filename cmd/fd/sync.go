package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/focusdeck/focusdeck/internal/daemon"
	"github.com/focusdeck/focusdeck/internal/ui"
)

const identityFile = "identity"

// loadIdentity reads the saved user id from the state directory.
// A missing or empty file means guest mode.
func loadIdentity(stateDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(stateDir, identityFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read identity: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func saveIdentity(stateDir, userID string) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	path := filepath.Join(stateDir, identityFile)
	if err := os.WriteFile(path, []byte(userID+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	return nil
}

func clearIdentity(stateDir string) error {
	err := os.Remove(filepath.Join(stateDir, identityFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return nil
}

var loginCmd = &cobra.Command{
	Use:     "login <user-id>",
	GroupID: "sync",
	Short:   "Switch to cloud mode as the given user",
	Long: `Save an identity and switch the engines to cloud mode.

On first login any guest data on this device is migrated to the user's
cloud record, then removed from local storage. If the cloud record
already holds data, it wins and the guest data is discarded.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID := strings.TrimSpace(args[0])
		if userID == "" {
			fmt.Fprintf(os.Stderr, "Error: user id must not be empty\n")
			os.Exit(1)
		}

		dir := stateDir()
		if err := saveIdentity(dir, userID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// openApp sees the saved identity and runs cloud
		// initialization, which performs the guest migration.
		ctx := context.Background()
		app, err := openApp(ctx)
		if err != nil {
			_ = clearIdentity(dir)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		failed := false
		for name, lastErr := range map[string]string{
			"tasks":  app.Tasks.State().LastError,
			"habits": app.Habits.State().LastError,
			"plan":   app.Plans.State().LastError,
		} {
			if lastErr != "" {
				failed = true
				fmt.Println(ui.RenderWarn(fmt.Sprintf("%s: %s", name, lastErr)))
			}
		}

		if failed {
			fmt.Println(ui.RenderWarn("Logged in as " + userID + " with sync errors; run fd refresh to retry"))
			return
		}
		fmt.Println(ui.RenderPass("Logged in as " + userID))
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "sync",
	Short:   "Return to guest mode",
	Long: `Clear the saved identity. Cloud data stays in the record store;
subsequent commands run in guest mode against local storage only.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir := stateDir()
		userID, _ := loadIdentity(dir)
		if userID == "" {
			fmt.Println(ui.Muted.Render("Already in guest mode."))
			return
		}
		if err := clearIdentity(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass("Logged out " + userID + ", back to guest mode"))
	},
}

var refreshCmd = &cobra.Command{
	Use:     "refresh",
	GroupID: "sync",
	Short:   "Re-fetch cloud records",
	Long: `Re-fetch every collection from the cloud record store, replacing the
in-memory state. A no-op in guest mode. If a daemon is running, its
focus signal file is touched so it refreshes too.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		if app.UserID == "" {
			fmt.Println(ui.Muted.Render("Guest mode, nothing to refresh."))
			return
		}

		for name, refresh := range map[string]func(context.Context) error{
			"tasks":  app.Tasks.Refresh,
			"habits": app.Habits.Refresh,
			"plan":   app.Plans.Refresh,
		} {
			if err := refresh(ctx); err != nil {
				fmt.Println(ui.RenderFail(fmt.Sprintf("%s: %v", name, err)))
			} else {
				fmt.Println(ui.RenderPass("Refreshed " + name))
			}
		}

		if err := daemon.Touch(app.StateDir); err != nil {
			fmt.Println(ui.RenderWarn(fmt.Sprintf("could not signal daemon: %v", err)))
		}
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show sync mode and engine health",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		fmt.Println(ui.Title.Render("FocusDeck"))
		fmt.Println(ui.LabelValue("Mode", ui.ModeBadge(string(app.Tasks.Mode()))))
		if app.UserID != "" {
			fmt.Println(ui.LabelValue("User", app.UserID))
			fmt.Println(ui.LabelValue("Store", dbTarget()))
		}
		fmt.Println(ui.LabelValue("State dir", app.StateDir))

		tasks := app.Tasks.List()
		completed := 0
		for _, t := range tasks {
			if t.Completed {
				completed++
			}
		}
		fmt.Println(ui.LabelValue("Tasks", fmt.Sprintf("%d (%d done)", len(tasks), completed)))
		fmt.Println(ui.LabelValue("Habits", len(app.Habits.Habits())))
		if plan := app.Plans.Plan(); plan != nil {
			fmt.Println(ui.LabelValue("Plan", plan.Title))
		}

		for name, snap := range map[string]struct {
			Saving  bool
			LastErr string
		}{
			"tasks":  {app.Tasks.State().Saving, app.Tasks.State().LastError},
			"habits": {app.Habits.State().Saving, app.Habits.State().LastError},
			"plan":   {app.Plans.State().Saving, app.Plans.State().LastError},
		} {
			if snap.Saving {
				fmt.Println(ui.RenderWarn(name + ": save in flight"))
			}
			if snap.LastErr != "" {
				fmt.Println(ui.RenderFail(name + ": " + snap.LastErr))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, refreshCmd, statusCmd)
}
