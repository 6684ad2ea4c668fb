// Package dashboard event handling: formats engine snapshots as
// dashboard messages.
package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"github.com/focusdeck/focusdeck/internal/derive"
	"github.com/focusdeck/focusdeck/internal/engine"
	"github.com/focusdeck/focusdeck/internal/schema"
)

// TasksData summarizes the task collection for clients.
type TasksData struct {
	Total      int           `json:"total"`
	Completed  int           `json:"completed"`
	SelectedID string        `json:"selectedId,omitempty"`
	Tasks      []schema.Task `json:"tasks"`
}

// HabitsData summarizes the habit collection for clients.
type HabitsData struct {
	Habits     []schema.ScheduledHabit `json:"habits"`
	DailyScore int                     `json:"dailyScore"`
	Today      string                  `json:"today"`
}

// PlanData summarizes the plan for clients.
type PlanData struct {
	Title      string `json:"title,omitempty"`
	Phases     int    `json:"phases"`
	Milestones int    `json:"milestones"`
	Exists     bool   `json:"exists"`
}

// StatsData carries derived statistics and sync status.
type StatsData struct {
	Mode               string `json:"mode"`
	Saving             bool   `json:"saving"`
	LastError          string `json:"lastError,omitempty"`
	RemainingPomodoros int    `json:"remainingPomodoros"`
}

// Handler bridges engine snapshots to the WebSocket server. Its On*
// methods are registered as engine subscribers.
type Handler struct {
	server *Server
	logger *log.Logger
}

// NewHandler creates an event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// Bind subscribes the handler to all three engines and returns a
// function that removes the subscriptions.
func (h *Handler) Bind(tasks *engine.Tasks, habits *engine.Habits, plans *engine.Plans) func() {
	cancels := []func(){
		tasks.Subscribe(h.OnTasks),
		habits.Subscribe(h.OnHabits),
		plans.Subscribe(h.OnPlan),
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// OnTasks handles task collection snapshots.
func (h *Handler) OnTasks(s engine.Snapshot[schema.TaskState]) {
	completed := 0
	for _, t := range s.Collection.Tasks {
		if t.Completed {
			completed++
		}
	}

	h.send(MessageTypeTasks, TasksData{
		Total:      len(s.Collection.Tasks),
		Completed:  completed,
		SelectedID: s.Collection.SelectedID,
		Tasks:      s.Collection.Tasks,
	})

	h.send(MessageTypeStats, StatsData{
		Mode:               string(s.Mode),
		Saving:             s.Saving,
		LastError:          s.LastError,
		RemainingPomodoros: derive.RemainingPomodoros(s.Collection.Tasks),
	})
}

// OnHabits handles habit collection snapshots.
func (h *Handler) OnHabits(s engine.Snapshot[schema.HabitState]) {
	today := time.Now().Format(derive.DayKey)
	completions := make([]derive.Completion, len(s.Collection.Completions))
	for i, c := range s.Collection.Completions {
		completions[i] = derive.Completion{Date: c.Date, Points: c.Points}
	}

	h.send(MessageTypeHabits, HabitsData{
		Habits:     s.Collection.Habits,
		DailyScore: derive.DailyScore(completions, today),
		Today:      today,
	})
}

// OnPlan handles plan snapshots.
func (h *Handler) OnPlan(s engine.Snapshot[schema.PlanState]) {
	data := PlanData{}
	if plan := s.Collection.Plan; plan != nil {
		data.Exists = true
		data.Title = plan.Title
		data.Phases = len(plan.Phases)
		for _, ph := range plan.Phases {
			data.Milestones += len(ph.Milestones)
		}
	}
	h.send(MessageTypePlan, data)
}

// send marshals data and broadcasts it under the given message type.
func (h *Handler) send(typ MessageType, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}
	h.server.Broadcast(Message{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}
