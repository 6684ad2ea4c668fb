package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/focusdeck/focusdeck/internal/derive"
	"github.com/focusdeck/focusdeck/internal/ui"
)

var pomoTask string

var pomoCmd = &cobra.Command{
	Use:     "pomo",
	GroupID: "track",
	Short:   "Run and account pomodoro timers",
}

var pomoStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run one focus countdown",
	Long: `Run a focus countdown for the configured duration (default 25m).
Remaining time is derived from the wall clock on every tick, so a
suspended laptop does not stretch the timer.

With --task the completed pomodoro is recorded against that task.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		focus := app.Settings.Pomodoro.Focus()
		if pomoTask != "" {
			if _, ok := app.Tasks.Get(pomoTask); !ok {
				fmt.Fprintf(os.Stderr, "Error: task %s not found\n", pomoTask)
				os.Exit(1)
			}
		}

		cd := derive.NewCountdown(time.Now(), focus)
		fmt.Println(ui.RenderAccent(fmt.Sprintf("%s Focus for %s", ui.GlyphPomo, focus)))

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		defer signal.Stop(interrupt)

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-interrupt:
				fmt.Printf("\n%s\n", ui.RenderWarn(fmt.Sprintf("Stopped with %s left", cd.Remaining(time.Now()).Round(time.Second))))
				return
			case now := <-ticker.C:
				remaining := cd.Remaining(now)
				fmt.Printf("\r  %s  ", remaining.Round(time.Second))
				if cd.Done(now) {
					fmt.Printf("\n%s\n", ui.RenderPass("Pomodoro complete"))
					if pomoTask != "" {
						if err := app.Tasks.RecordPomodoro(ctx, pomoTask); err != nil {
							fmt.Fprintf(os.Stderr, "Error: %v\n", err)
							os.Exit(1)
						}
						fmt.Println(ui.RenderPass("Recorded against " + pomoTask))
					}
					return
				}
			}
		}
	},
}

var pomoStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show remaining pomodoros and the estimated finish time",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		tasks := app.Tasks.List()
		remaining := derive.RemainingPomodoros(tasks)
		fmt.Println(ui.LabelValue("Remaining", fmt.Sprintf("%s %d", ui.GlyphPomo, remaining)))
		if remaining > 0 {
			finish := derive.EstimatedFinish(time.Now(), remaining,
				app.Settings.Pomodoro.Focus(), app.Settings.Pomodoro.Break())
			fmt.Println(ui.LabelValue("Done around", finish.Format("15:04")))
		}
	},
}

func init() {
	pomoStartCmd.Flags().StringVar(&pomoTask, "task", "", "record the pomodoro against this task id")

	pomoCmd.AddCommand(pomoStartCmd, pomoStatusCmd)
	rootCmd.AddCommand(pomoCmd)
}
