package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/focusdeck/focusdeck/internal/schema"
	"github.com/focusdeck/focusdeck/internal/ui"
)

var planCmd = &cobra.Command{
	Use:     "plan",
	GroupID: "track",
	Short:   "Manage the content plan",
	Long: `The plan is a single document: phases containing milestones, each with
optional checklist items, plus a weekly schedule and channel list. Only
one plan exists at a time; import replaces it wholesale.`,
}

var planInitCmd = &cobra.Command{
	Use:   "init <title>",
	Short: "Create the plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		id, err := app.Plans.Create(ctx, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass(fmt.Sprintf("Created plan %s: %s", id, args[0])))
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the plan tree",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		plan := app.Plans.Plan()
		if plan == nil {
			fmt.Println(ui.Muted.Render("No plan. Create one with fd plan init."))
			return
		}

		fmt.Println(ui.Title.Render(plan.Title))
		for _, ph := range plan.Phases {
			fmt.Printf("%s %s  %s\n", ui.Header.Render("Phase"), ph.Title, ui.Muted.Render(ph.ID))
			for _, m := range ph.Milestones {
				fmt.Printf("  %s %s  %s\n", ui.Checkbox(m.Completed), m.Title, ui.Muted.Render(m.ID))
				for _, it := range m.Items {
					fmt.Printf("    %s %s\n", ui.Checkbox(it.Completed), it.Text)
				}
			}
		}

		if len(plan.WeeklyBlocks) > 0 {
			fmt.Println(ui.Header.Render("Weekly"))
			for _, b := range plan.WeeklyBlocks {
				slot := b.Day
				if b.Time != "" {
					slot += " " + b.Time
				}
				fmt.Printf("  %s %s  %s\n", ui.GlyphCalItem, slot, b.Activity)
			}
		}
		if len(plan.Channels) > 0 {
			fmt.Println(ui.Header.Render("Channels"))
			for _, c := range plan.Channels {
				line := "  " + c.Name
				if c.Cadence != "" {
					line += "  " + ui.Muted.Render(c.Cadence)
				}
				fmt.Println(line)
			}
		}
		if len(plan.Pillars) > 0 {
			fmt.Println(ui.Header.Render("Pillars"))
			for _, p := range plan.Pillars {
				line := "  " + p.Name
				if p.Description != "" {
					line += "  " + ui.Muted.Render(p.Description)
				}
				fmt.Println(line)
			}
		}
	},
}

var planPhaseCmd = &cobra.Command{
	Use:   "phase <title>",
	Short: "Add a phase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		id, err := app.Plans.AddPhase(ctx, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass(fmt.Sprintf("Added phase %s: %s", id, args[0])))
	},
}

var planMilestoneCmd = &cobra.Command{
	Use:   "milestone <phase-id> <title>",
	Short: "Add a milestone to a phase",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		id, err := app.Plans.AddMilestone(ctx, args[0], args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass(fmt.Sprintf("Added milestone %s: %s", id, args[1])))
	},
}

var planToggleCmd = &cobra.Command{
	Use:   "toggle <phase-id> <milestone-id> [item-id]",
	Short: "Toggle a milestone or one of its items",
	Args:  cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		var err error
		if len(args) == 3 {
			err = app.Plans.ToggleItem(ctx, args[0], args[1], args[2])
		} else {
			err = app.Plans.ToggleMilestone(ctx, args[0], args[1])
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass("Toggled " + args[len(args)-1]))
	},
}

var planRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Delete the plan",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		if err := app.Plans.Delete(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass("Deleted plan"))
	},
}

// planDoc is the human-editable YAML shape for plan import/export.
// IDs are omitted: import regenerates them, so an exported plan can be
// hand-edited without caring about identity bookkeeping.
type planDoc struct {
	Title  string     `yaml:"title"`
	Phases []phaseDoc `yaml:"phases,omitempty"`
	Weekly []weekDoc  `yaml:"weekly,omitempty"`
}

type phaseDoc struct {
	Title      string         `yaml:"title"`
	Milestones []milestoneDoc `yaml:"milestones,omitempty"`
}

type milestoneDoc struct {
	Title string   `yaml:"title"`
	Done  bool     `yaml:"done,omitempty"`
	Items []string `yaml:"items,omitempty"`
}

type weekDoc struct {
	Day      string `yaml:"day"`
	Time     string `yaml:"time,omitempty"`
	Activity string `yaml:"activity"`
}

var planExportCmd = &cobra.Command{
	Use:   "export <file.yaml>",
	Short: "Export the plan to YAML",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		plan := app.Plans.Plan()
		if plan == nil {
			fmt.Fprintf(os.Stderr, "Error: no plan exists\n")
			os.Exit(1)
		}

		doc := planDoc{Title: plan.Title}
		for _, ph := range plan.Phases {
			pd := phaseDoc{Title: ph.Title}
			for _, m := range ph.Milestones {
				md := milestoneDoc{Title: m.Title, Done: m.Completed}
				for _, it := range m.Items {
					md.Items = append(md.Items, it.Text)
				}
				pd.Milestones = append(pd.Milestones, md)
			}
			doc.Phases = append(doc.Phases, pd)
		}
		for _, b := range plan.WeeklyBlocks {
			doc.Weekly = append(doc.Weekly, weekDoc{Day: b.Day, Time: b.Time, Activity: b.Activity})
		}

		data, err := yaml.Marshal(&doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(args[0], data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass("Exported plan to " + args[0]))
	},
}

var planImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Replace the plan from YAML",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := mustOpenApp(ctx)
		defer app.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		var doc planDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid YAML: %v\n", err)
			os.Exit(1)
		}
		if doc.Title == "" {
			fmt.Fprintf(os.Stderr, "Error: plan title is required\n")
			os.Exit(1)
		}

		plan := docToPlan(&doc)
		if err := app.Plans.Replace(ctx, plan); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(ui.RenderPass(fmt.Sprintf("Imported plan %q: %d phase(s)", doc.Title, len(doc.Phases))))
	},
}

// docToPlan materializes a YAML document as a plan with fresh IDs and
// dense order fields.
func docToPlan(doc *planDoc) *schema.Plan {
	plan := &schema.Plan{
		ID:        schema.NewID(),
		Title:     doc.Title,
		CreatedAt: time.Now(),
	}
	for pi, pd := range doc.Phases {
		phase := schema.Phase{
			ID:    schema.NewID(),
			Title: pd.Title,
			Order: pi,
		}
		for mi, md := range pd.Milestones {
			milestone := schema.Milestone{
				ID:        schema.NewID(),
				Title:     md.Title,
				Completed: md.Done,
				Order:     mi,
			}
			for ii, text := range md.Items {
				milestone.Items = append(milestone.Items, schema.PlanItem{
					ID:    schema.NewID(),
					Text:  text,
					Order: ii,
				})
			}
			phase.Milestones = append(phase.Milestones, milestone)
		}
		plan.Phases = append(plan.Phases, phase)
	}
	for bi, wd := range doc.Weekly {
		plan.WeeklyBlocks = append(plan.WeeklyBlocks, schema.WeeklyBlock{
			ID:       schema.NewID(),
			Day:      wd.Day,
			Time:     wd.Time,
			Activity: wd.Activity,
			Order:    bi,
		})
	}
	return plan
}

func init() {
	planCmd.AddCommand(planInitCmd, planShowCmd, planPhaseCmd, planMilestoneCmd,
		planToggleCmd, planRmCmd, planExportCmd, planImportCmd)
	rootCmd.AddCommand(planCmd)
}
