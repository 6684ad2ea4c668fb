package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/focusdeck/focusdeck/internal/engine"
	"github.com/focusdeck/focusdeck/internal/schema"
)

// startTestServer starts a server on an ephemeral port.
func startTestServer(t *testing.T) *Server {
	t.Helper()

	s := NewServer(&Config{Port: 0, Logger: log.New(io.Discard, "", 0)})
	if err := s.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Stop(); err != nil {
			t.Errorf("failed to stop server: %v", err)
		}
	})
	return s
}

// dialTestClient connects a WebSocket client and consumes the welcome
// message so tests see only their own broadcasts.
func dialTestClient(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://%s/ws", s.GetAddr()), nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	var welcome Message
	if err := readMessage(conn, &welcome); err != nil {
		t.Fatalf("failed to read welcome: %v", err)
	}
	if welcome.Type != MessageTypeStats {
		t.Fatalf("welcome type = %s, want stats", welcome.Type)
	}
	return conn
}

func readMessage(conn *websocket.Conn, msg *Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, msg)
}

func TestServer_HealthEndpoint(t *testing.T) {
	s := startTestServer(t)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", s.GetAddr()))
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode health body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestServer_BroadcastReachesClient(t *testing.T) {
	s := startTestServer(t)
	conn := dialTestClient(t, s)

	payload, _ := json.Marshal(TasksData{Total: 3, Completed: 1})
	s.Broadcast(Message{Type: MessageTypeTasks, Data: payload})

	var msg Message
	if err := readMessage(conn, &msg); err != nil {
		t.Fatalf("failed to read broadcast: %v", err)
	}
	if msg.Type != MessageTypeTasks {
		t.Errorf("type = %s, want tasks", msg.Type)
	}
	if msg.Timestamp.IsZero() {
		t.Error("broadcast timestamp should be set")
	}

	var data TasksData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.Total != 3 || data.Completed != 1 {
		t.Errorf("data = %+v, want total 3 completed 1", data)
	}
}

func TestHandler_OnTasksBroadcastsSummaryAndStats(t *testing.T) {
	s := startTestServer(t)
	conn := dialTestClient(t, s)
	h := NewHandler(s, log.New(io.Discard, "", 0))

	h.OnTasks(engine.Snapshot[schema.TaskState]{
		Mode: engine.ModeCloud,
		Collection: schema.TaskState{
			Tasks: []schema.Task{
				{ID: "a", Title: "Done", Completed: true, EstimatedPomodoros: 2, CompletedPomodoros: 2},
				{ID: "b", Title: "Open", EstimatedPomodoros: 4, CompletedPomodoros: 1},
			},
			SelectedID: "b",
		},
	})

	var tasksMsg Message
	if err := readMessage(conn, &tasksMsg); err != nil {
		t.Fatalf("failed to read tasks message: %v", err)
	}
	if tasksMsg.Type != MessageTypeTasks {
		t.Fatalf("first message type = %s, want tasks", tasksMsg.Type)
	}
	var tasks TasksData
	if err := json.Unmarshal(tasksMsg.Data, &tasks); err != nil {
		t.Fatalf("failed to decode tasks data: %v", err)
	}
	if tasks.Total != 2 || tasks.Completed != 1 || tasks.SelectedID != "b" {
		t.Errorf("tasks data = %+v", tasks)
	}

	var statsMsg Message
	if err := readMessage(conn, &statsMsg); err != nil {
		t.Fatalf("failed to read stats message: %v", err)
	}
	if statsMsg.Type != MessageTypeStats {
		t.Fatalf("second message type = %s, want stats", statsMsg.Type)
	}
	var stats StatsData
	if err := json.Unmarshal(statsMsg.Data, &stats); err != nil {
		t.Fatalf("failed to decode stats data: %v", err)
	}
	if stats.Mode != "cloud" {
		t.Errorf("mode = %q, want cloud", stats.Mode)
	}
	// Task b has 3 pomodoros left; task a is complete.
	if stats.RemainingPomodoros != 3 {
		t.Errorf("remainingPomodoros = %d, want 3", stats.RemainingPomodoros)
	}
}

func TestHandler_OnPlan(t *testing.T) {
	s := startTestServer(t)
	conn := dialTestClient(t, s)
	h := NewHandler(s, log.New(io.Discard, "", 0))

	h.OnPlan(engine.Snapshot[schema.PlanState]{
		Collection: schema.PlanState{Plan: &schema.Plan{
			Title: "Roadmap",
			Phases: []schema.Phase{
				{Title: "One", Milestones: []schema.Milestone{{Title: "m1"}, {Title: "m2"}}},
				{Title: "Two", Milestones: []schema.Milestone{{Title: "m3"}}},
			},
		}},
	})

	var msg Message
	if err := readMessage(conn, &msg); err != nil {
		t.Fatalf("failed to read plan message: %v", err)
	}
	var data PlanData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("failed to decode plan data: %v", err)
	}
	if !data.Exists || data.Phases != 2 || data.Milestones != 3 {
		t.Errorf("plan data = %+v, want 2 phases 3 milestones", data)
	}
}

func TestServer_ClientCount(t *testing.T) {
	s := startTestServer(t)

	if s.ClientCount() != 0 {
		t.Errorf("count = %d, want 0", s.ClientCount())
	}
	dialTestClient(t, s)
	if s.ClientCount() != 1 {
		t.Errorf("count = %d, want 1", s.ClientCount())
	}
}
