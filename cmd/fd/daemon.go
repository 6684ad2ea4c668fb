package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/focusdeck/focusdeck/internal/daemon"
	"github.com/focusdeck/focusdeck/internal/dashboard"
	"github.com/focusdeck/focusdeck/internal/ui"
)

var (
	daemonInterval  time.Duration
	daemonDashboard bool
	daemonPort      int
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Run the background refresh daemon",
	Long: `Keep the cloud collections fresh in the background. The daemon
re-fetches every collection on an interval and immediately after a
focus signal (fd refresh touches the signal file). Rapid signal bursts
are debounced into a single refresh pass.

Logs rotate under <state-dir>/logs/daemon.log.

With --dashboard a local WebSocket server also streams collection
snapshots to connected dashboard clients.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		if app.UserID == "" {
			fmt.Fprintf(os.Stderr, "Error: the daemon refreshes cloud records; run fd login first\n")
			os.Exit(1)
		}

		logger := log.New(&lumberjack.Logger{
			Filename:   filepath.Join(app.StateDir, "logs", "daemon.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}, "[daemon] ", log.LstdFlags)

		cfg := daemon.DefaultConfig()
		cfg.RefreshInterval = daemonInterval
		cfg.Logger = logger

		d, err := daemon.NewWithConfig(app.StateDir, map[string]daemon.Refresher{
			"tasks":  app.Tasks,
			"habits": app.Habits,
			"plan":   app.Plans,
		}, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// The dashboard comes up before the blocking Start call so its
		// subscriptions see every refresh the daemon performs.
		var stopDashboard func()
		if daemonDashboard {
			srv := dashboard.NewServer(&dashboard.Config{Port: daemonPort, Logger: logger})
			if err := srv.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			unbind := dashboard.NewHandler(srv, logger).Bind(app.Tasks, app.Habits, app.Plans)
			stopDashboard = func() {
				unbind()
				_ = srv.Stop()
			}
			fmt.Println(ui.RenderPass("Dashboard on http://localhost" + srv.GetAddr()))
		}

		fmt.Println(ui.RenderPass(fmt.Sprintf("Daemon running (refresh every %s), Ctrl+C to stop", daemonInterval)))

		sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()

		// Blocks until the signal context is cancelled; Start shuts the
		// daemon down itself before returning.
		if err := d.Start(sigCtx); err != nil {
			if stopDashboard != nil {
				stopDashboard()
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if stopDashboard != nil {
			stopDashboard()
		}
		fmt.Println(ui.RenderPass("Daemon stopped"))
	},
}

func init() {
	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 5*time.Minute, "background refresh interval")
	daemonCmd.Flags().BoolVar(&daemonDashboard, "dashboard", false, "also serve the live dashboard")
	daemonCmd.Flags().IntVar(&daemonPort, "port", 8977, "dashboard port")
	rootCmd.AddCommand(daemonCmd)
}
