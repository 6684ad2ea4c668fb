package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/focusdeck/focusdeck/internal/dates"
	"github.com/focusdeck/focusdeck/internal/derive"
	"github.com/focusdeck/focusdeck/internal/ui"
)

var (
	habitPoints int
	habitAt     string
	habitDay    string
	habitUndo   bool
)

var habitCmd = &cobra.Command{
	Use:     "habit",
	GroupID: "track",
	Short:   "Track daily habits and streaks",
}

var habitAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a habit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		points := habitPoints
		if points == 0 {
			points = app.Settings.Habits.DefaultPoints
		}

		id, err := app.Habits.AddHabit(ctx, args[0], points, habitAt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass(fmt.Sprintf("Added habit %s: %s (%d pts)", id, args[0], points)))
	},
}

var habitDoneCmd = &cobra.Command{
	Use:   "done <habit-id>",
	Short: "Record a habit completion for today (or --date)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		day := habitDay
		if day == "" {
			day = dates.Today()
		}

		if habitUndo {
			if err := app.Habits.Uncomplete(ctx, args[0], day); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(ui.RenderPass(fmt.Sprintf("Removed completion of %s on %s", args[0], day)))
			return
		}

		if err := app.Habits.Complete(ctx, args[0], day); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		streak := derive.Streak(app.Habits.CompletedDays(args[0]), time.Now())
		fmt.Println(ui.RenderPass(fmt.Sprintf("Completed %s on %s  %s", args[0], day, ui.Streak(streak))))
	},
}

var habitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits with streaks and today's score",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		habits := app.Habits.Habits()
		if len(habits) == 0 {
			fmt.Println(ui.Muted.Render("No habits. Add one with fd habit add."))
			return
		}

		today := dates.Today()
		now := time.Now()
		state := app.Habits.State().Collection

		for _, h := range habits {
			streak := derive.Streak(app.Habits.CompletedDays(h.ID), now)
			line := fmt.Sprintf("%s %s  %s  %s",
				ui.Checkbox(state.CompletedOn(h.ID, today)),
				ui.Muted.Render(h.ID), h.Name, ui.Streak(streak))
			if h.ScheduledTime != "" {
				line += "  " + ui.Muted.Render("at "+h.ScheduledTime)
			}
			line += "  " + ui.Muted.Render(fmt.Sprintf("%d pts", h.Points))
			fmt.Println(line)
		}

		completions := make([]derive.Completion, len(state.Completions))
		for i, c := range state.Completions {
			completions[i] = derive.Completion{Date: c.Date, Points: c.Points}
		}
		score := derive.DailyScore(completions, today)
		fmt.Println(ui.LabelValue("Today", fmt.Sprintf("%d points", score)))
	},
}

var habitStreakCmd = &cobra.Command{
	Use:   "streak <habit-id>",
	Short: "Show a habit's current streak",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		found := false
		for _, h := range app.Habits.Habits() {
			if h.ID == args[0] {
				found = true
				break
			}
		}
		if !found {
			fmt.Fprintf(os.Stderr, "Error: habit %s not found\n", args[0])
			os.Exit(1)
		}

		streak := derive.Streak(app.Habits.CompletedDays(args[0]), time.Now())
		fmt.Println(ui.Streak(streak))
	},
}

var habitRmCmd = &cobra.Command{
	Use:   "rm <habit-id>",
	Short: "Remove a habit (its completion history is kept)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		if err := app.Habits.RemoveHabit(ctx, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass("Removed habit " + args[0]))
	},
}

var habitAtCmd = &cobra.Command{
	Use:   "at <habit-id> [HH:MM]",
	Short: "Set or clear a habit's daily time slot",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		clock := ""
		if len(args) == 2 {
			clock = args[1]
		}
		if err := app.Habits.Schedule(ctx, args[0], clock); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if clock == "" {
			fmt.Println(ui.RenderPass("Cleared time slot for " + args[0]))
		} else {
			fmt.Println(ui.RenderPass(fmt.Sprintf("Scheduled %s at %s", args[0], clock)))
		}
	},
}

func init() {
	habitAddCmd.Flags().IntVar(&habitPoints, "points", 0, "points per completion (default from config)")
	habitAddCmd.Flags().StringVar(&habitAt, "at", "", "daily time slot, HH:MM")
	habitDoneCmd.Flags().StringVar(&habitDay, "date", "", "day to record, 2006-01-02 (default today)")
	habitDoneCmd.Flags().BoolVar(&habitUndo, "undo", false, "remove the completion instead")

	habitCmd.AddCommand(habitAddCmd, habitDoneCmd, habitListCmd, habitStreakCmd, habitRmCmd, habitAtCmd)
	rootCmd.AddCommand(habitCmd)
}
