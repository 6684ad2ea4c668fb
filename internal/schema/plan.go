package schema

import (
	"fmt"
	"time"
)

// Plan is the content-strategy plan: a nested forest of phases,
// milestones, weekly blocks, channels, pillars and brand nodes.
// Each user has at most one plan; PlanState.Plan is nil until one
// is created.
type Plan struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`

	Phases       []Phase           `json:"phases"`
	WeeklyBlocks []WeeklyBlock     `json:"weeklyBlocks,omitempty"`
	Channels     []PlatformChannel `json:"channels,omitempty"`
	Pillars      []ContentPillar   `json:"pillars,omitempty"`
	Brand        []BrandNode       `json:"brand,omitempty"`
}

// Phase groups milestones within a plan.
type Phase struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Milestones []Milestone `json:"milestones"`
	Order      int         `json:"order"`
}

// Milestone is a checkable goal within a phase, holding ordered items.
type Milestone struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	Items     []PlanItem `json:"items"`
	Order     int        `json:"order"`
}

// PlanItem is a single actionable entry within a milestone.
type PlanItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Order     int    `json:"order"`
}

// WeeklyBlock is a recurring weekly activity slot.
type WeeklyBlock struct {
	ID       string `json:"id"`
	Day      string `json:"day"` // Mon..Sun
	Time     string `json:"time,omitempty"`
	Activity string `json:"activity"`
	Order    int    `json:"order"`
}

// PlatformChannel is a publishing channel with its cadence.
type PlatformChannel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Cadence string `json:"cadence,omitempty"`
	Order   int    `json:"order"`
}

// ContentPillar is a recurring content theme.
type ContentPillar struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
}

// BrandNode is a node in the brand identity tree.
type BrandNode struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Children []BrandNode `json:"children,omitempty"`
	Order    int         `json:"order"`
}

// PlanState is the canonical plan collection held by the sync engine.
// Plan is nil when the user has no plan yet.
type PlanState struct {
	Plan *Plan `json:"plan"`
}

// Validate checks if the Plan has valid field values.
func (p *Plan) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.CreatedAt.IsZero() {
		return fmt.Errorf("createdAt is required")
	}
	for i := range p.Phases {
		ph := &p.Phases[i]
		if ph.ID == "" {
			return fmt.Errorf("phase %d: id is required", i)
		}
		if ph.Title == "" {
			return fmt.Errorf("phase %d: title is required", i)
		}
		for j := range ph.Milestones {
			m := &ph.Milestones[j]
			if m.ID == "" {
				return fmt.Errorf("phase %d milestone %d: id is required", i, j)
			}
		}
	}
	return nil
}

// SetDefaults applies default values for optional fields.
func (p *Plan) SetDefaults() {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Phases == nil {
		p.Phases = []Phase{}
	}
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := *p
	out.Phases = make([]Phase, len(p.Phases))
	for i, ph := range p.Phases {
		cp := ph
		cp.Milestones = make([]Milestone, len(ph.Milestones))
		for j, m := range ph.Milestones {
			cm := m
			cm.Items = append([]PlanItem(nil), m.Items...)
			cp.Milestones[j] = cm
		}
		out.Phases[i] = cp
	}
	out.WeeklyBlocks = append([]WeeklyBlock(nil), p.WeeklyBlocks...)
	out.Channels = append([]PlatformChannel(nil), p.Channels...)
	out.Pillars = append([]ContentPillar(nil), p.Pillars...)
	out.Brand = cloneBrandNodes(p.Brand)
	return &out
}

func cloneBrandNodes(nodes []BrandNode) []BrandNode {
	if nodes == nil {
		return nil
	}
	out := make([]BrandNode, len(nodes))
	for i, n := range nodes {
		cn := n
		cn.Children = cloneBrandNodes(n.Children)
		out[i] = cn
	}
	return out
}

// Clone returns a deep copy of the state.
func (ps PlanState) Clone() PlanState {
	return PlanState{Plan: ps.Plan.Clone()}
}

// IsEmpty reports whether the user has no plan.
func (ps PlanState) IsEmpty() bool {
	return ps.Plan == nil
}

// RenumberPhases rewrites phase Order fields to a dense 0..n-1 sequence.
func RenumberPhases(phases []Phase) {
	for i := range phases {
		phases[i].Order = i
	}
}

// RenumberMilestones rewrites milestone Order fields to a dense sequence.
func RenumberMilestones(ms []Milestone) {
	for i := range ms {
		ms[i].Order = i
	}
}

// RenumberItems rewrites item Order fields to a dense sequence.
func RenumberItems(items []PlanItem) {
	for i := range items {
		items[i].Order = i
	}
}
