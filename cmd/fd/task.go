package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/focusdeck/focusdeck/internal/dates"
	"github.com/focusdeck/focusdeck/internal/derive"
	"github.com/focusdeck/focusdeck/internal/schema"
	"github.com/focusdeck/focusdeck/internal/ui"
)

var (
	addWhen     string
	addEstimate int
	addNote     string
	addLabels   []string
	listAll     bool
)

var addCmd = &cobra.Command{
	Use:     "add [title]",
	GroupID: "tasks",
	Short:   "Add a task",
	Long: `Add a task to the list. With no arguments an interactive form opens.

Scheduling accepts natural language:
  fd add "Write report" --when "tomorrow 9am"
  fd add "Ship release" --when "next friday"`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		title := strings.Join(args, " ")
		when := addWhen
		if title == "" {
			if err := runAddForm(&title, &when, &addNote, &addEstimate); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		task := schema.Task{
			Title:              title,
			Note:               addNote,
			Labels:             addLabels,
			EstimatedPomodoros: addEstimate,
		}
		if when != "" {
			date, clock, err := dates.ParseWhen(when, time.Now())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			task.ScheduledDate = date
			task.ScheduledTime = clock
		}

		id, err := app.Tasks.Add(ctx, task)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		msg := fmt.Sprintf("Added %s: %s", id, title)
		if task.ScheduledDate != "" {
			msg += " (" + task.ScheduledDate
			if task.ScheduledTime != "" {
				msg += " " + task.ScheduledTime
			}
			msg += ")"
		}
		fmt.Println(ui.RenderPass(msg))
	},
}

// runAddForm collects task fields interactively.
func runAddForm(title, when, note *string, estimate *int) error {
	estimateStr := ""
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}).
				Value(title),
			huh.NewInput().
				Title("When").
				Description("e.g. \"tomorrow 9am\", empty for unscheduled").
				Value(when),
			huh.NewInput().
				Title("Estimated pomodoros").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					n, err := strconv.Atoi(s)
					if err != nil || n < 0 {
						return fmt.Errorf("enter a non-negative number")
					}
					return nil
				}).
				Value(&estimateStr),
			huh.NewText().
				Title("Note").
				Value(note),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("form cancelled: %w", err)
	}
	if estimateStr != "" {
		*estimate, _ = strconv.Atoi(estimateStr)
	}
	return nil
}

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "tasks",
	Short:   "List tasks",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		tasks := app.Tasks.List()
		if len(tasks) == 0 {
			fmt.Println(ui.Muted.Render("No tasks. Add one with fd add."))
			return
		}

		selected := app.Tasks.State().Collection.SelectedID
		shown := 0
		for _, t := range tasks {
			if t.Completed && !listAll {
				continue
			}
			shown++

			marker := " "
			if t.ID == selected {
				marker = ui.Header.Render(ui.GlyphSelect)
			}
			line := fmt.Sprintf("%s %s %s  %s", marker, ui.Checkbox(t.Completed), ui.Muted.Render(t.ID), t.Title)
			if t.ScheduledDate != "" {
				sched := t.ScheduledDate
				if t.ScheduledTime != "" {
					sched += " " + t.ScheduledTime
				}
				line += "  " + ui.Muted.Render(sched)
			}
			if t.EstimatedPomodoros > 0 || t.CompletedPomodoros > 0 {
				line += "  " + ui.PomoProgress(t.CompletedPomodoros, t.EstimatedPomodoros)
			}
			if len(t.Labels) > 0 {
				line += "  " + ui.Muted.Render("["+strings.Join(t.Labels, ", ")+"]")
			}
			fmt.Println(line)

			for _, s := range t.Steps {
				if s.Text == "" {
					continue
				}
				fmt.Printf("    %s %s %s\n", ui.Muted.Render(ui.GlyphStep), ui.Checkbox(s.Completed), s.Text)
			}
		}

		if shown == 0 {
			fmt.Println(ui.Muted.Render("All tasks complete. See them with fd list --all."))
		}

		if remaining := derive.RemainingPomodoros(tasks); remaining > 0 {
			finish := derive.EstimatedFinish(time.Now(), remaining,
				app.Settings.Pomodoro.Focus(), app.Settings.Pomodoro.Break())
			fmt.Println(ui.Muted.Render(fmt.Sprintf("%d pomodoros remaining, done around %s",
				remaining, finish.Format("15:04"))))
		}
	},
}

var doneCmd = &cobra.Command{
	Use:     "done <task-id> [step-index]",
	GroupID: "tasks",
	Short:   "Complete a task, or toggle one of its steps",
	Args:    cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		id := args[0]
		if len(args) == 2 {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: step index must be a number\n")
				os.Exit(1)
			}
			task, ok := app.Tasks.Get(id)
			if !ok {
				fmt.Fprintf(os.Stderr, "Error: task %s not found\n", id)
				os.Exit(1)
			}
			if idx < 0 || idx >= len(task.Steps) {
				fmt.Fprintf(os.Stderr, "Error: step index %d out of range [0, %d)\n", idx, len(task.Steps))
				os.Exit(1)
			}
			if err := app.Tasks.ToggleStep(ctx, id, task.Steps[idx].ID); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(ui.RenderPass(fmt.Sprintf("Toggled step %d of %s", idx, id)))
			return
		}

		if err := app.Tasks.SetCompleted(ctx, id, true); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass("Completed " + id))
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <task-id>",
	GroupID: "tasks",
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		if err := app.Tasks.Delete(ctx, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass("Deleted " + args[0]))
	},
}

var clearCmd = &cobra.Command{
	Use:     "clear",
	GroupID: "tasks",
	Short:   "Remove all completed tasks",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		before := len(app.Tasks.List())
		if err := app.Tasks.ClearCompleted(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		removed := before - len(app.Tasks.List())
		fmt.Println(ui.RenderPass(fmt.Sprintf("Cleared %d completed task(s)", removed)))
	},
}

var reorderCmd = &cobra.Command{
	Use:     "reorder <task-id> <position>",
	GroupID: "tasks",
	Short:   "Move a task to a new position (0-based)",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		pos, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: position must be a number\n")
			os.Exit(1)
		}
		if err := app.Tasks.Reorder(ctx, args[0], pos); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass(fmt.Sprintf("Moved %s to position %d", args[0], pos)))
	},
}

func init() {
	addCmd.Flags().StringVar(&addWhen, "when", "", "schedule, e.g. \"tomorrow 9am\"")
	addCmd.Flags().IntVar(&addEstimate, "estimate", 0, "estimated pomodoros")
	addCmd.Flags().StringVar(&addNote, "note", "", "task note")
	addCmd.Flags().StringSliceVar(&addLabels, "label", nil, "label (repeatable)")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include completed tasks")

	rootCmd.AddCommand(addCmd, listCmd, doneCmd, rmCmd, clearCmd, reorderCmd)
}
