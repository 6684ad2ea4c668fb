package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/focusdeck/focusdeck/internal/schema"
)

// KindPlan is the record kind and local-storage key for the content plan.
const KindPlan = "plan"

// Plans is the content-plan engine. The collection is a single nullable
// Plan; every nested sibling list keeps a dense order.
type Plans struct {
	*Engine[schema.PlanState]
}

// NewPlans creates the plan engine. remote may be nil for guest-only use.
func NewPlans(remote Remote[schema.PlanState], local LocalStore, logger *log.Logger) (*Plans, error) {
	e, err := New(Config[schema.PlanState]{
		Key:     KindPlan,
		Remote:  remote,
		Local:   local,
		Clone:   schema.PlanState.Clone,
		IsEmpty: schema.PlanState.IsEmpty,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return &Plans{Engine: e}, nil
}

// Plan returns the current plan, or nil if none exists.
func (p *Plans) Plan() *schema.Plan {
	return p.State().Collection.Plan
}

// Create creates the user's plan. Exactly one plan may exist; creating
// a second is an error.
func (p *Plans) Create(ctx context.Context, title string) (string, error) {
	plan := &schema.Plan{ID: schema.NewID(), Title: title, CreatedAt: time.Now()}
	plan.SetDefaults()
	if err := plan.Validate(); err != nil {
		return "", fmt.Errorf("invalid plan: %w", err)
	}

	err := p.Mutate(ctx, func(s schema.PlanState) (schema.PlanState, error) {
		if s.Plan != nil {
			return s, fmt.Errorf("plan already exists")
		}
		s.Plan = plan
		return s, nil
	})
	if err != nil {
		return "", err
	}
	return plan.ID, nil
}

// Replace installs a full plan document, overwriting any existing plan.
// Used by plan import.
func (p *Plans) Replace(ctx context.Context, plan *schema.Plan) error {
	plan.SetDefaults()
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}
	return p.Mutate(ctx, func(s schema.PlanState) (schema.PlanState, error) {
		s.Plan = plan
		return s, nil
	})
}

// Delete removes the plan entirely.
func (p *Plans) Delete(ctx context.Context) error {
	return p.Mutate(ctx, func(s schema.PlanState) (schema.PlanState, error) {
		if s.Plan == nil {
			return s, fmt.Errorf("no plan exists")
		}
		s.Plan = nil
		return s, nil
	})
}

// Rename changes the plan title.
func (p *Plans) Rename(ctx context.Context, title string) error {
	return p.edit(ctx, func(plan *schema.Plan) error {
		if title == "" {
			return fmt.Errorf("title is required")
		}
		plan.Title = title
		return nil
	})
}

// AddPhase appends a phase. Returns the new phase's id.
func (p *Plans) AddPhase(ctx context.Context, title string) (string, error) {
	id := schema.NewID()
	err := p.edit(ctx, func(plan *schema.Plan) error {
		plan.Phases = append(plan.Phases, schema.Phase{
			ID:         id,
			Title:      title,
			Milestones: []schema.Milestone{},
			Order:      len(plan.Phases),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RemovePhase deletes a phase and renumbers the remaining siblings.
func (p *Plans) RemovePhase(ctx context.Context, phaseID string) error {
	return p.edit(ctx, func(plan *schema.Plan) error {
		idx := phaseIndex(plan, phaseID)
		if idx < 0 {
			return fmt.Errorf("phase %s not found", phaseID)
		}
		plan.Phases = append(plan.Phases[:idx], plan.Phases[idx+1:]...)
		schema.RenumberPhases(plan.Phases)
		return nil
	})
}

// ReorderPhases moves a phase to a new position and renumbers densely.
func (p *Plans) ReorderPhases(ctx context.Context, phaseID string, newIndex int) error {
	return p.edit(ctx, func(plan *schema.Plan) error {
		idx := phaseIndex(plan, phaseID)
		if idx < 0 {
			return fmt.Errorf("phase %s not found", phaseID)
		}
		if newIndex < 0 || newIndex >= len(plan.Phases) {
			return fmt.Errorf("index %d out of range [0, %d)", newIndex, len(plan.Phases))
		}
		phase := plan.Phases[idx]
		plan.Phases = append(plan.Phases[:idx], plan.Phases[idx+1:]...)
		plan.Phases = append(plan.Phases[:newIndex], append([]schema.Phase{phase}, plan.Phases[newIndex:]...)...)
		schema.RenumberPhases(plan.Phases)
		return nil
	})
}

// AddMilestone appends a milestone to a phase. Returns the new id.
func (p *Plans) AddMilestone(ctx context.Context, phaseID, title string) (string, error) {
	id := schema.NewID()
	err := p.edit(ctx, func(plan *schema.Plan) error {
		phase := findPhase(plan, phaseID)
		if phase == nil {
			return fmt.Errorf("phase %s not found", phaseID)
		}
		phase.Milestones = append(phase.Milestones, schema.Milestone{
			ID:    id,
			Title: title,
			Items: []schema.PlanItem{},
			Order: len(phase.Milestones),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ToggleMilestone flips a milestone's completed flag.
func (p *Plans) ToggleMilestone(ctx context.Context, phaseID, milestoneID string) error {
	return p.edit(ctx, func(plan *schema.Plan) error {
		m := findMilestone(plan, phaseID, milestoneID)
		if m == nil {
			return fmt.Errorf("milestone %s not found in phase %s", milestoneID, phaseID)
		}
		m.Completed = !m.Completed
		return nil
	})
}

// RemoveMilestone deletes a milestone and renumbers its siblings.
func (p *Plans) RemoveMilestone(ctx context.Context, phaseID, milestoneID string) error {
	return p.edit(ctx, func(plan *schema.Plan) error {
		phase := findPhase(plan, phaseID)
		if phase == nil {
			return fmt.Errorf("phase %s not found", phaseID)
		}
		idx := -1
		for i := range phase.Milestones {
			if phase.Milestones[i].ID == milestoneID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("milestone %s not found in phase %s", milestoneID, phaseID)
		}
		phase.Milestones = append(phase.Milestones[:idx], phase.Milestones[idx+1:]...)
		schema.RenumberMilestones(phase.Milestones)
		return nil
	})
}

// AddItem appends an item to a milestone. Returns the new item's id.
func (p *Plans) AddItem(ctx context.Context, phaseID, milestoneID, text string) (string, error) {
	id := schema.NewID()
	err := p.edit(ctx, func(plan *schema.Plan) error {
		m := findMilestone(plan, phaseID, milestoneID)
		if m == nil {
			return fmt.Errorf("milestone %s not found in phase %s", milestoneID, phaseID)
		}
		m.Items = append(m.Items, schema.PlanItem{ID: id, Text: text, Order: len(m.Items)})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ToggleItem flips an item's completed flag.
func (p *Plans) ToggleItem(ctx context.Context, phaseID, milestoneID, itemID string) error {
	return p.edit(ctx, func(plan *schema.Plan) error {
		m := findMilestone(plan, phaseID, milestoneID)
		if m == nil {
			return fmt.Errorf("milestone %s not found in phase %s", milestoneID, phaseID)
		}
		for i := range m.Items {
			if m.Items[i].ID == itemID {
				m.Items[i].Completed = !m.Items[i].Completed
				return nil
			}
		}
		return fmt.Errorf("item %s not found in milestone %s", itemID, milestoneID)
	})
}

// RemoveItem deletes an item and renumbers its siblings.
func (p *Plans) RemoveItem(ctx context.Context, phaseID, milestoneID, itemID string) error {
	return p.edit(ctx, func(plan *schema.Plan) error {
		m := findMilestone(plan, phaseID, milestoneID)
		if m == nil {
			return fmt.Errorf("milestone %s not found in phase %s", milestoneID, phaseID)
		}
		idx := -1
		for i := range m.Items {
			if m.Items[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("item %s not found in milestone %s", itemID, milestoneID)
		}
		m.Items = append(m.Items[:idx], m.Items[idx+1:]...)
		schema.RenumberItems(m.Items)
		return nil
	})
}

// AddWeeklyBlock appends a recurring weekly slot.
func (p *Plans) AddWeeklyBlock(ctx context.Context, day, clock, activity string) (string, error) {
	id := schema.NewID()
	err := p.edit(ctx, func(plan *schema.Plan) error {
		plan.WeeklyBlocks = append(plan.WeeklyBlocks, schema.WeeklyBlock{
			ID:       id,
			Day:      day,
			Time:     clock,
			Activity: activity,
			Order:    len(plan.WeeklyBlocks),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RemoveWeeklyBlock deletes a weekly slot and renumbers its siblings.
func (p *Plans) RemoveWeeklyBlock(ctx context.Context, blockID string) error {
	return p.edit(ctx, func(plan *schema.Plan) error {
		idx := -1
		for i := range plan.WeeklyBlocks {
			if plan.WeeklyBlocks[i].ID == blockID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("weekly block %s not found", blockID)
		}
		plan.WeeklyBlocks = append(plan.WeeklyBlocks[:idx], plan.WeeklyBlocks[idx+1:]...)
		for i := range plan.WeeklyBlocks {
			plan.WeeklyBlocks[i].Order = i
		}
		return nil
	})
}

// AddChannel appends a publishing channel.
func (p *Plans) AddChannel(ctx context.Context, name, cadence string) (string, error) {
	id := schema.NewID()
	err := p.edit(ctx, func(plan *schema.Plan) error {
		plan.Channels = append(plan.Channels, schema.PlatformChannel{
			ID:      id,
			Name:    name,
			Cadence: cadence,
			Order:   len(plan.Channels),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// AddPillar appends a content pillar.
func (p *Plans) AddPillar(ctx context.Context, name, description string) (string, error) {
	id := schema.NewID()
	err := p.edit(ctx, func(plan *schema.Plan) error {
		plan.Pillars = append(plan.Pillars, schema.ContentPillar{
			ID:          id,
			Name:        name,
			Description: description,
			Order:       len(plan.Pillars),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// edit runs a plan-level edit inside a transactional mutation, failing
// when no plan exists yet.
func (p *Plans) edit(ctx context.Context, fn func(*schema.Plan) error) error {
	return p.Mutate(ctx, func(s schema.PlanState) (schema.PlanState, error) {
		if s.Plan == nil {
			return s, fmt.Errorf("no plan exists")
		}
		if err := fn(s.Plan); err != nil {
			return s, err
		}
		return s, nil
	})
}

func phaseIndex(plan *schema.Plan, phaseID string) int {
	for i := range plan.Phases {
		if plan.Phases[i].ID == phaseID {
			return i
		}
	}
	return -1
}

func findPhase(plan *schema.Plan, phaseID string) *schema.Phase {
	idx := phaseIndex(plan, phaseID)
	if idx < 0 {
		return nil
	}
	return &plan.Phases[idx]
}

func findMilestone(plan *schema.Plan, phaseID, milestoneID string) *schema.Milestone {
	phase := findPhase(plan, phaseID)
	if phase == nil {
		return nil
	}
	for i := range phase.Milestones {
		if phase.Milestones[i].ID == milestoneID {
			return &phase.Milestones[i]
		}
	}
	return nil
}
