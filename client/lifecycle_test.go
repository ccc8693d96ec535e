package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"
)

// lifecycleFixture is an in-memory API for lifecycle orchestration tests
type lifecycleFixture struct {
	mu             sync.Mutex
	tickets        []Ticket
	createdSprints []Sprint
	removed        []int64
	added          []int64
	transitions    []int64
	completions    []int64
	failAddAfter   int // fail the Nth add call (1-based); 0 disables
	nextSprintID   int64
}

func (f *lifecycleFixture) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("GET /api/projects/{id}/tickets", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, f.tickets)
	})

	mux.HandleFunc("POST /api/projects/{id}/sprints", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string  `json:"name"`
			Goal *string `json:"goal"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.nextSprintID++
		sp := Sprint{ID: f.nextSprintID, ProjectID: 1, Name: req.Name, Goal: req.Goal, Status: "planning"}
		f.createdSprints = append(f.createdSprints, sp)
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, sp)
	})

	mux.HandleFunc("DELETE /api/sprints/{id}/tickets/{ticketId}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.ParseInt(r.PathValue("ticketId"), 10, 64)
		f.removed = append(f.removed, id)
		writeJSON(w, Ticket{ID: id, Status: "todo", Version: 2})
	})

	mux.HandleFunc("POST /api/sprints/{id}/tickets", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TicketID int64 `json:"ticket_id"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failAddAfter > 0 && len(f.added)+1 >= f.failAddAfter {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, map[string]string{"error": "boom", "code": "internal_error"})
			return
		}
		f.added = append(f.added, req.TicketID)
		writeJSON(w, Ticket{ID: req.TicketID, Status: "todo", Version: 3})
	})

	mux.HandleFunc("POST /api/tickets/{id}/transition", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		f.transitions = append(f.transitions, id)
		writeJSON(w, Ticket{ID: id, Status: "backlog", Version: 3})
	})

	mux.HandleFunc("POST /api/sprints/{id}/complete", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		f.completions = append(f.completions, id)
		writeJSON(w, map[string]interface{}{
			"sprint":      Sprint{ID: id, ProjectID: 1, Status: "completed"},
			"moved_count": 0,
		})
	})

	return httptest.NewServer(mux)
}

func sprintTicket(id int64, sprintID int64, status string) Ticket {
	sid := sprintID
	return Ticket{ID: id, Number: id, Title: "T", Status: status, SprintID: &sid, Version: 1}
}

func TestCompleteSprintRollover(t *testing.T) {
	f := &lifecycleFixture{
		nextSprintID: 100,
		tickets: []Ticket{
			sprintTicket(1, 10, "done"),
			sprintTicket(2, 10, "in_progress"),
			sprintTicket(3, 10, "todo"),
			sprintTicket(4, 99, "todo"), // different sprint, untouched
		},
	}
	srv := f.server(t)
	defer srv.Close()

	logger := zaptest.NewLogger(t)
	lc := NewLifecycle(NewClient(srv.URL, "tok", logger), logger)

	goal := "ship it"
	sprint := &Sprint{ID: 10, ProjectID: 1, Name: "Sprint 4", Goal: &goal, Status: "active"}

	report, err := lc.CompleteSprint(context.Background(), sprint, DispositionRollover)
	if err != nil {
		t.Fatalf("rollover failed: %v", err)
	}

	if !report.Completed {
		t.Error("report should be marked completed")
	}
	if len(report.Moved) != 2 {
		t.Errorf("got %d moved tickets, want 2", len(report.Moved))
	}
	if len(report.Detached) != 0 {
		t.Errorf("got %d detached tickets, want 0", len(report.Detached))
	}

	if report.NextSprint == nil {
		t.Fatal("rollover should create a next sprint")
	}
	if report.NextSprint.Name != "Sprint 5" {
		t.Errorf("got next sprint name %q, want %q", report.NextSprint.Name, "Sprint 5")
	}
	if report.NextSprint.Goal == nil || *report.NextSprint.Goal != goal {
		t.Error("goal should be copied to the rollover sprint")
	}

	// Completed ticket 1 stays; tickets 2 and 3 moved; ticket 4 untouched
	if len(f.removed) != 2 || len(f.added) != 2 {
		t.Errorf("got %d removes / %d adds, want 2/2", len(f.removed), len(f.added))
	}
	if len(f.completions) != 1 || f.completions[0] != 10 {
		t.Errorf("completion call mismatch: %v", f.completions)
	}
}

func TestCompleteSprintRolloverPartialFailure(t *testing.T) {
	f := &lifecycleFixture{
		nextSprintID: 100,
		failAddAfter: 2, // second add call fails
		tickets: []Ticket{
			sprintTicket(2, 10, "in_progress"),
			sprintTicket(3, 10, "todo"),
		},
	}
	srv := f.server(t)
	defer srv.Close()

	logger := zaptest.NewLogger(t)
	lc := NewLifecycle(NewClient(srv.URL, "tok", logger), logger)

	sprint := &Sprint{ID: 10, ProjectID: 1, Name: "Sprint 1", Status: "active"}

	report, err := lc.CompleteSprint(context.Background(), sprint, DispositionRollover)
	if err == nil {
		t.Fatal("expected error from failed add")
	}

	// The first ticket made it over; the second is stranded detached
	if len(report.Moved) != 1 {
		t.Errorf("got %d moved, want 1", len(report.Moved))
	}
	if len(report.Detached) != 1 {
		t.Errorf("got %d detached, want 1", len(report.Detached))
	}
	if report.Completed {
		t.Error("report must not be marked completed")
	}

	// The completion call must never have been issued
	if len(f.completions) != 0 {
		t.Errorf("completion should not run after a per-ticket failure, got %v", f.completions)
	}
}

func TestCompleteSprintBacklog(t *testing.T) {
	f := &lifecycleFixture{
		nextSprintID: 100,
		tickets: []Ticket{
			sprintTicket(1, 10, "done"),
			sprintTicket(2, 10, "review"),
		},
	}
	srv := f.server(t)
	defer srv.Close()

	logger := zaptest.NewLogger(t)
	lc := NewLifecycle(NewClient(srv.URL, "tok", logger), logger)

	sprint := &Sprint{ID: 10, ProjectID: 1, Name: "Sprint 1", Status: "active"}

	report, err := lc.CompleteSprint(context.Background(), sprint, DispositionBacklog)
	if err != nil {
		t.Fatalf("backlog disposition failed: %v", err)
	}

	if len(f.removed) != 1 || f.removed[0] != 2 {
		t.Errorf("removes mismatch: %v", f.removed)
	}
	if len(f.transitions) != 1 || f.transitions[0] != 2 {
		t.Errorf("status resets mismatch: %v", f.transitions)
	}
	if report.NextSprint != nil {
		t.Error("backlog disposition should not create a sprint")
	}
	if len(f.completions) != 1 {
		t.Error("sprint should be completed")
	}
}

func TestCompleteSprintKeep(t *testing.T) {
	f := &lifecycleFixture{
		nextSprintID: 100,
		tickets: []Ticket{
			sprintTicket(1, 10, "in_progress"),
			sprintTicket(2, 10, "blocked"),
		},
	}
	srv := f.server(t)
	defer srv.Close()

	logger := zaptest.NewLogger(t)
	lc := NewLifecycle(NewClient(srv.URL, "tok", logger), logger)

	sprint := &Sprint{ID: 10, ProjectID: 1, Name: "Sprint 1", Status: "active"}

	report, err := lc.CompleteSprint(context.Background(), sprint, DispositionKeep)
	if err != nil {
		t.Fatalf("keep disposition failed: %v", err)
	}

	// No per-ticket mutation of any kind
	if len(f.removed) != 0 || len(f.added) != 0 || len(f.transitions) != 0 {
		t.Error("keep disposition must not touch tickets")
	}
	if len(f.completions) != 1 {
		t.Error("sprint should be completed")
	}
	if len(report.Moved) != 0 {
		t.Errorf("got %d moved, want 0", len(report.Moved))
	}
}

func TestCompleteSprintRejectsNonActive(t *testing.T) {
	logger := zaptest.NewLogger(t)
	lc := NewLifecycle(NewClient("http://unused", "tok", logger), logger)

	sprint := &Sprint{ID: 10, ProjectID: 1, Name: "Sprint 1", Status: "completed"}
	if _, err := lc.CompleteSprint(context.Background(), sprint, DispositionKeep); err == nil {
		t.Fatal("completing a completed sprint should fail")
	}
}
