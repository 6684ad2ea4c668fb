package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/focusdeck/focusdeck/internal/config"
	"github.com/focusdeck/focusdeck/internal/engine"
	"github.com/focusdeck/focusdeck/internal/remote"
	"github.com/focusdeck/focusdeck/internal/schema"
	"github.com/focusdeck/focusdeck/internal/store"
)

var (
	flagStateDir string
	flagDB       string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "fd",
	Short: "FocusDeck: tasks, habits and pomodoros with guest/cloud sync",
	Long: `FocusDeck is a personal productivity tool: a task list with steps,
habit tracking with streaks, pomodoro accounting and a content plan.

Collections live in memory and sync through one of two modes:
  guest  data persists only to the local state directory
  cloud  data persists to a per-user record store (after fd login)

Mutations apply optimistically; if a cloud save fails the change is
rolled back and the error recorded (see fd status).`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStateDir, "state-dir", "", "state directory (default ~/.focusdeck)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "record store target: file path or libsql:// URL")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log engine activity to stderr")

	viper.SetEnvPrefix("FOCUSDECK")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("state_dir", rootCmd.PersistentFlags().Lookup("state-dir"))
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Task Commands:"},
		&cobra.Group{ID: "track", Title: "Habit & Focus Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
	)
}

// stateDir resolves the state directory from flag, env or default.
func stateDir() string {
	if dir := viper.GetString("state_dir"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".focusdeck"
	}
	return filepath.Join(home, ".focusdeck")
}

// dbTarget resolves the record store target from flag, env or default.
func dbTarget() string {
	if target := viper.GetString("db"); target != "" {
		return target
	}
	return filepath.Join(stateDir(), "records.db")
}

// App bundles the initialized engines and their backing services for
// one command invocation.
type App struct {
	StateDir string
	Settings config.Settings
	Local    *store.Local
	Service  *remote.Service
	UserID   string

	Tasks  *engine.Tasks
	Habits *engine.Habits
	Plans  *engine.Plans
}

// openApp wires up the engines. With a saved identity the app opens
// the record store and initializes cloud mode (migrating guest data on
// first login); otherwise everything runs in guest mode and the record
// store is never touched.
func openApp(ctx context.Context) (*App, error) {
	dir := stateDir()

	settings, err := config.Load(config.DefaultPath(dir))
	if err != nil {
		return nil, err
	}

	logger := log.New(io.Discard, "", 0)
	if flagVerbose {
		logger = log.New(os.Stderr, "[fd] ", log.LstdFlags)
	}

	app := &App{
		StateDir: dir,
		Settings: settings,
		Local:    store.NewLocal(dir),
	}
	app.UserID, _ = loadIdentity(dir)

	var (
		taskRemote  engine.Remote[schema.TaskState]
		habitRemote engine.Remote[schema.HabitState]
		planRemote  engine.Remote[schema.PlanState]
	)
	if app.UserID != "" {
		svc, err := remote.Open(dbTarget())
		if err != nil {
			return nil, fmt.Errorf("failed to open record store: %w", err)
		}
		if err := svc.InitSchemaContext(ctx); err != nil {
			_ = svc.Close()
			return nil, err
		}
		app.Service = svc
		taskRemote = remote.NewCollection[schema.TaskState](svc, app.UserID, engine.KindTasks)
		habitRemote = remote.NewCollection[schema.HabitState](svc, app.UserID, engine.KindHabits)
		planRemote = remote.NewCollection[schema.PlanState](svc, app.UserID, engine.KindPlan)
	}

	if app.Tasks, err = engine.NewTasks(taskRemote, app.Local, logger); err != nil {
		return nil, err
	}
	if app.Habits, err = engine.NewHabits(habitRemote, app.Local, logger); err != nil {
		return nil, err
	}
	if app.Plans, err = engine.NewPlans(planRemote, app.Local, logger); err != nil {
		return nil, err
	}

	if app.UserID != "" {
		// Initialization failures leave the engines usable in cloud
		// mode with the error recorded; surface them on fd status.
		_ = app.Tasks.InitializeCloud(ctx)
		_ = app.Habits.InitializeCloud(ctx)
		_ = app.Plans.InitializeCloud(ctx)
	} else {
		app.Tasks.InitializeGuest()
		app.Habits.InitializeGuest()
		app.Plans.InitializeGuest()
	}

	return app, nil
}

// Close releases the record store connection, if any.
func (a *App) Close() {
	if a.Service != nil {
		_ = a.Service.Close()
	}
}

// mustOpenApp opens the app or exits with an error message.
func mustOpenApp(ctx context.Context) *App {
	app, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return app
}
