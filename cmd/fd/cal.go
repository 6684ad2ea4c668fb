package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/focusdeck/focusdeck/internal/dates"
	"github.com/focusdeck/focusdeck/internal/derive"
	"github.com/focusdeck/focusdeck/internal/ui"
)

var calDay string

var calCmd = &cobra.Command{
	Use:     "cal",
	GroupID: "track",
	Short:   "Show the day calendar",
	Long: `Lay out today's scheduled tasks and habits on an hour grid.
Overlapping entries share the row side by side, the same layout the
dashboard uses.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		day := calDay
		if day == "" {
			day = dates.Today()
		}
		if _, err := dates.ParseKey(day); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var items []derive.Item
		for _, t := range app.Tasks.List() {
			if t.Completed {
				continue
			}
			if t.ScheduledDate == day && t.ScheduledTime != "" {
				if h, m, ok := parseClock(t.ScheduledTime); ok {
					items = append(items, derive.Item{ID: t.ID, Label: t.Title, Hour: h, Minute: m})
				}
			}
			for _, s := range t.Steps {
				if s.Completed || s.ScheduledDate != day || s.ScheduledTime == "" {
					continue
				}
				if h, m, ok := parseClock(s.ScheduledTime); ok {
					items = append(items, derive.Item{ID: s.ID, Label: s.Text, Hour: h, Minute: m})
				}
			}
		}
		for _, h := range app.Habits.Habits() {
			if h.ScheduledTime == "" {
				continue
			}
			if hh, mm, ok := parseClock(h.ScheduledTime); ok {
				items = append(items, derive.Item{ID: h.ID, Label: h.Name, Hour: hh, Minute: mm})
			}
		}

		window := derive.Window{
			StartHour: app.Settings.Calendar.StartHour,
			EndHour:   app.Settings.Calendar.EndHour,
		}
		blocks := derive.Layout(items, window)

		fmt.Println(ui.Title.Render(day))
		if len(blocks) == 0 {
			fmt.Println(ui.Muted.Render("Nothing scheduled in the visible window."))
			return
		}

		// One row per hour; blocks are listed on the hour they start,
		// indented by their column so overlaps read left to right.
		byHour := make(map[int][]derive.Block)
		for _, b := range blocks {
			hour := window.StartHour + b.Top/60
			byHour[hour] = append(byHour[hour], b)
		}
		for hour := window.StartHour; hour < window.EndHour; hour++ {
			row := byHour[hour]
			if len(row) == 0 {
				fmt.Println(ui.Muted.Render(fmt.Sprintf("%02d:00", hour)))
				continue
			}
			fmt.Println(ui.Key.Render(fmt.Sprintf("%02d:00", hour)))
			for _, b := range row {
				indent := strings.Repeat("    ", b.Column)
				fmt.Printf("  %s%s %02d:%02d %s  %s\n",
					indent, ui.GlyphCalItem, b.Item.Hour, b.Item.Minute,
					b.Item.Label, ui.Muted.Render(fmt.Sprintf("%.0f%%", b.Width*100)))
			}
		}
	},
}

// parseClock splits an "HH:MM" string into hour and minute.
func parseClock(clock string) (int, int, bool) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

func init() {
	calCmd.Flags().StringVar(&calDay, "date", "", "day to show, 2006-01-02 (default today)")
	rootCmd.AddCommand(calCmd)
}
