package engine

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/focusdeck/focusdeck/internal/schema"
	"github.com/focusdeck/focusdeck/internal/store"
)

func newTestPlans(t *testing.T) *Plans {
	t.Helper()

	plans, err := NewPlans(
		&fakeRemote[schema.PlanState]{},
		store.NewLocal(t.TempDir()),
		log.New(io.Discard, "", 0),
	)
	if err != nil {
		t.Fatalf("failed to create plan engine: %v", err)
	}
	plans.InitializeGuest()
	return plans
}

func TestPlansCreate_SinglePlanOnly(t *testing.T) {
	plans := newTestPlans(t)
	ctx := context.Background()

	if plans.Plan() != nil {
		t.Fatal("fresh engine should have no plan")
	}

	id, err := plans.Create(ctx, "Creator roadmap")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	got := plans.Plan()
	if got == nil || got.ID != id || got.Title != "Creator roadmap" {
		t.Fatalf("plan = %+v, want the created plan", got)
	}

	_, err = plans.Create(ctx, "Second plan")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error = %v, want plan-already-exists", err)
	}
}

func TestPlansEdit_RequiresPlan(t *testing.T) {
	plans := newTestPlans(t)
	ctx := context.Background()

	_, err := plans.AddPhase(ctx, "Phase 1")
	if err == nil || !strings.Contains(err.Error(), "no plan exists") {
		t.Errorf("error = %v, want no-plan-exists", err)
	}
	if err := plans.Delete(ctx); err == nil {
		t.Error("deleting a missing plan should fail")
	}
}

func TestPlansPhaseTree(t *testing.T) {
	plans := newTestPlans(t)
	ctx := context.Background()

	if _, err := plans.Create(ctx, "Roadmap"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	p1, err := plans.AddPhase(ctx, "Foundation")
	if err != nil {
		t.Fatalf("add phase failed: %v", err)
	}
	p2, err := plans.AddPhase(ctx, "Growth")
	if err != nil {
		t.Fatalf("add phase failed: %v", err)
	}

	m1, err := plans.AddMilestone(ctx, p1, "First upload")
	if err != nil {
		t.Fatalf("add milestone failed: %v", err)
	}
	if _, err := plans.AddMilestone(ctx, "missing", "orphan"); err == nil {
		t.Error("expected not-found for unknown phase")
	}

	i1, err := plans.AddItem(ctx, p1, m1, "record intro")
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	i2, err := plans.AddItem(ctx, p1, m1, "edit intro")
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	if err := plans.ToggleMilestone(ctx, p1, m1); err != nil {
		t.Fatalf("toggle milestone failed: %v", err)
	}
	if err := plans.ToggleItem(ctx, p1, m1, i1); err != nil {
		t.Fatalf("toggle item failed: %v", err)
	}

	plan := plans.Plan()
	if len(plan.Phases) != 2 {
		t.Fatalf("got %d phases, want 2", len(plan.Phases))
	}
	ms := plan.Phases[0].Milestones[0]
	if !ms.Completed {
		t.Error("milestone should be completed after toggle")
	}
	if !ms.Items[0].Completed || ms.Items[1].Completed {
		t.Error("only the first item should be completed")
	}

	// Removing the middle of each list renumbers densely.
	if err := plans.RemoveItem(ctx, p1, m1, i1); err != nil {
		t.Fatalf("remove item failed: %v", err)
	}
	ms = plans.Plan().Phases[0].Milestones[0]
	if len(ms.Items) != 1 || ms.Items[0].ID != i2 || ms.Items[0].Order != 0 {
		t.Errorf("items after remove = %+v, want only %s at order 0", ms.Items, i2)
	}

	if err := plans.RemovePhase(ctx, p1); err != nil {
		t.Fatalf("remove phase failed: %v", err)
	}
	plan = plans.Plan()
	if len(plan.Phases) != 1 || plan.Phases[0].ID != p2 || plan.Phases[0].Order != 0 {
		t.Errorf("phases after remove = %+v, want only %s at order 0", plan.Phases, p2)
	}
}

func TestPlansReorderPhases(t *testing.T) {
	plans := newTestPlans(t)
	ctx := context.Background()

	if _, err := plans.Create(ctx, "Roadmap"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		id, err := plans.AddPhase(ctx, title)
		if err != nil {
			t.Fatalf("add phase failed: %v", err)
		}
		ids = append(ids, id)
	}

	if err := plans.ReorderPhases(ctx, ids[0], 2); err != nil {
		t.Fatalf("reorder failed: %v", err)
	}
	got := plans.Plan().Phases
	want := []string{"b", "c", "a"}
	for i, title := range want {
		if got[i].Title != title || got[i].Order != i {
			t.Errorf("position %d = %q (order %d), want %q", i, got[i].Title, got[i].Order, title)
		}
	}

	if err := plans.ReorderPhases(ctx, ids[0], 3); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestPlansWeeklyBlocksChannelsPillars(t *testing.T) {
	plans := newTestPlans(t)
	ctx := context.Background()

	if _, err := plans.Create(ctx, "Roadmap"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	b1, err := plans.AddWeeklyBlock(ctx, "Mon", "09:00", "Scripting")
	if err != nil {
		t.Fatalf("add block failed: %v", err)
	}
	if _, err := plans.AddWeeklyBlock(ctx, "Wed", "14:00", "Editing"); err != nil {
		t.Fatalf("add block failed: %v", err)
	}
	if err := plans.RemoveWeeklyBlock(ctx, b1); err != nil {
		t.Fatalf("remove block failed: %v", err)
	}
	blocks := plans.Plan().WeeklyBlocks
	if len(blocks) != 1 || blocks[0].Activity != "Editing" || blocks[0].Order != 0 {
		t.Errorf("blocks = %+v, want only Editing at order 0", blocks)
	}

	if _, err := plans.AddChannel(ctx, "YouTube", "weekly"); err != nil {
		t.Fatalf("add channel failed: %v", err)
	}
	if _, err := plans.AddPillar(ctx, "Tutorials", "hands-on walkthroughs"); err != nil {
		t.Fatalf("add pillar failed: %v", err)
	}
	plan := plans.Plan()
	if len(plan.Channels) != 1 || plan.Channels[0].Name != "YouTube" {
		t.Errorf("channels = %+v", plan.Channels)
	}
	if len(plan.Pillars) != 1 || plan.Pillars[0].Name != "Tutorials" {
		t.Errorf("pillars = %+v", plan.Pillars)
	}
}

func TestPlansReplaceAndDelete(t *testing.T) {
	plans := newTestPlans(t)
	ctx := context.Background()

	if _, err := plans.Create(ctx, "Old plan"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	imported := &schema.Plan{
		ID:        schema.NewID(),
		Title:     "Imported plan",
		CreatedAt: time.Now(),
		Phases: []schema.Phase{
			{ID: schema.NewID(), Title: "Phase 1", Milestones: []schema.Milestone{}},
		},
	}
	if err := plans.Replace(ctx, imported); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if got := plans.Plan(); got.Title != "Imported plan" || len(got.Phases) != 1 {
		t.Errorf("plan after replace = %+v", got)
	}

	if err := plans.Delete(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if plans.Plan() != nil {
		t.Error("plan should be nil after delete")
	}
}
