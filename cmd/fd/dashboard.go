package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/focusdeck/focusdeck/internal/dashboard"
	"github.com/focusdeck/focusdeck/internal/ui"
)

var dashboardPort int

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "sync",
	Short:   "Serve the live dashboard",
	Long: `Serve the WebSocket dashboard on its own, without the refresh daemon.
Clients connected to /ws receive collection snapshots after every
change made through this process.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		logger := log.New(os.Stderr, "[dashboard] ", log.LstdFlags)
		srv := dashboard.NewServer(&dashboard.Config{Port: dashboardPort, Logger: logger})
		if err := srv.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		unbind := dashboard.NewHandler(srv, logger).Bind(app.Tasks, app.Habits, app.Plans)
		fmt.Println(ui.RenderPass("Dashboard on http://localhost" + srv.GetAddr()))

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		unbind()
		if err := srv.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass("Dashboard stopped"))
	},
}

func init() {
	dashboardCmd.Flags().IntVar(&dashboardPort, "port", 8977, "port to listen on")
	rootCmd.AddCommand(dashboardCmd)
}
