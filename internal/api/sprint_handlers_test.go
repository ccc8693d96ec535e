package api

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func (ts *TestServer) ticketState(t *testing.T, ticketID int64) (status string, sprintID *int64, version int64) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := ts.DB.QueryRowContext(ctx,
		`SELECT status, sprint_id, version FROM tickets WHERE id = ?`, ticketID,
	).Scan(&status, &sprintID, &version)
	if err != nil {
		t.Fatalf("Failed to read ticket state: %v", err)
	}
	return status, sprintID, version
}

func (ts *TestServer) sprintState(t *testing.T, sprintID int64) (status string, completedPoints *int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := ts.DB.QueryRowContext(ctx,
		`SELECT status, completed_points FROM sprints WHERE id = ?`, sprintID,
	).Scan(&status, &completedPoints)
	if err != nil {
		t.Fatalf("Failed to read sprint state: %v", err)
	}
	return status, completedPoints
}

func intPtr(n int) *int { return &n }

func TestStartSprint(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "start@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")
	sprintID := ts.CreateTestSprint(t, projectID, "Sprint 1", "planning")

	rec, req := ts.MakeAuthRequest(t, "POST", "/api/sprints/1/start",
		StartSprintRequest{StartDate: "2026-09-01", EndDate: "2026-09-14"},
		userID, map[string]string{"id": "1"})
	ts.HandleStartSprint(rec, req)
	AssertStatusCode(t, rec.Code, http.StatusOK)

	var sprint Sprint
	DecodeJSON(t, rec, &sprint)
	if sprint.Status != "active" {
		t.Errorf("got status %q, want active", sprint.Status)
	}
	if sprint.StartDate == nil || *sprint.StartDate != "2026-09-01" {
		t.Errorf("start date not recorded: %v", sprint.StartDate)
	}

	_ = sprintID
}

func TestStartSprintRejectsSecondActive(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "single@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")
	ts.CreateTestSprint(t, projectID, "Sprint 1", "active")
	second := ts.CreateTestSprint(t, projectID, "Sprint 2", "planning")

	rec, req := ts.MakeAuthRequest(t, "POST", "/api/sprints/2/start",
		StartSprintRequest{StartDate: "2026-09-01", EndDate: "2026-09-14"},
		userID, map[string]string{"id": "2"})
	ts.HandleStartSprint(rec, req)
	AssertError(t, rec, http.StatusConflict, "active sprint", "active_sprint_exists")

	status, _ := ts.sprintState(t, second)
	if status != "planning" {
		t.Errorf("sprint should remain planning, got %q", status)
	}
}

func TestSprintStateMachineIsOneWay(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "oneway@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")

	// Completing a planning sprint skips active: rejected
	ts.CreateTestSprint(t, projectID, "Sprint 1", "planning")
	rec, req := ts.MakeAuthRequest(t, "POST", "/api/sprints/1/complete",
		CompleteSprintRequest{Disposition: "keep"},
		userID, map[string]string{"id": "1"})
	ts.HandleCompleteSprint(rec, req)
	AssertError(t, rec, http.StatusConflict, "active sprint", "invalid_state")

	// Starting a completed sprint: rejected
	ts.CreateTestSprint(t, projectID, "Sprint 2", "completed")
	rec, req = ts.MakeAuthRequest(t, "POST", "/api/sprints/2/start",
		StartSprintRequest{StartDate: "2026-09-01", EndDate: "2026-09-14"},
		userID, map[string]string{"id": "2"})
	ts.HandleStartSprint(rec, req)
	AssertError(t, rec, http.StatusConflict, "planning sprint", "invalid_state")

	// Completing a completed sprint again: rejected
	rec, req = ts.MakeAuthRequest(t, "POST", "/api/sprints/2/complete",
		CompleteSprintRequest{Disposition: "keep"},
		userID, map[string]string{"id": "2"})
	ts.HandleCompleteSprint(rec, req)
	AssertError(t, rec, http.StatusConflict, "active sprint", "invalid_state")
}

func TestCompleteSprintRollover(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "rollover@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")
	sprintID := ts.CreateTestSprint(t, projectID, "Sprint 4", "active")

	done := ts.CreateTestTicket(t, projectID, userID, "Shipped", "done", intPtr(5))
	open1 := ts.CreateTestTicket(t, projectID, userID, "In flight", "in_progress", intPtr(3))
	open2 := ts.CreateTestTicket(t, projectID, userID, "Not started", "todo", intPtr(2))
	ts.AssignTicketToSprint(t, done, sprintID)
	ts.AssignTicketToSprint(t, open1, sprintID)
	ts.AssignTicketToSprint(t, open2, sprintID)

	rec, req := ts.MakeAuthRequest(t, "POST", "/api/sprints/1/complete",
		CompleteSprintRequest{Disposition: "rollover"},
		userID, map[string]string{"id": "1"})
	ts.HandleCompleteSprint(rec, req)
	AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp CompleteSprintResponse
	DecodeJSON(t, rec, &resp)

	if resp.Sprint.Status != "completed" {
		t.Errorf("got sprint status %q, want completed", resp.Sprint.Status)
	}
	if resp.Sprint.CompletedPoints == nil || *resp.Sprint.CompletedPoints != 5 {
		t.Errorf("completed points = %v, want 5", resp.Sprint.CompletedPoints)
	}
	if resp.MovedCount != 2 {
		t.Errorf("moved count = %d, want 2", resp.MovedCount)
	}

	if resp.NextSprint == nil {
		t.Fatal("rollover should create a next sprint")
	}
	if resp.NextSprint.Name != "Sprint 5" {
		t.Errorf("next sprint name = %q, want Sprint 5", resp.NextSprint.Name)
	}
	if resp.NextSprint.Status != "planning" {
		t.Errorf("next sprint status = %q, want planning", resp.NextSprint.Status)
	}

	// Unfinished tickets moved over with status intact; done ticket stays
	status, sid, _ := ts.ticketState(t, open1)
	if status != "in_progress" {
		t.Errorf("rolled ticket status = %q, want in_progress (unchanged)", status)
	}
	if sid == nil || *sid != resp.NextSprint.ID {
		t.Errorf("rolled ticket sprint = %v, want %d", sid, resp.NextSprint.ID)
	}

	_, doneSprint, _ := ts.ticketState(t, done)
	if doneSprint == nil || *doneSprint != sprintID {
		t.Errorf("done ticket should stay in the completed sprint, got %v", doneSprint)
	}
}

func TestCompleteSprintBacklog(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "backlog@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")
	sprintID := ts.CreateTestSprint(t, projectID, "Sprint 1", "active")

	done := ts.CreateTestTicket(t, projectID, userID, "Shipped", "done", intPtr(8))
	open1 := ts.CreateTestTicket(t, projectID, userID, "Stuck", "blocked", intPtr(3))
	ts.AssignTicketToSprint(t, done, sprintID)
	ts.AssignTicketToSprint(t, open1, sprintID)

	rec, req := ts.MakeAuthRequest(t, "POST", "/api/sprints/1/complete",
		CompleteSprintRequest{Disposition: "backlog"},
		userID, map[string]string{"id": "1"})
	ts.HandleCompleteSprint(rec, req)
	AssertStatusCode(t, rec.Code, http.StatusOK)

	// Unfinished ticket detached and reset to backlog
	status, sid, _ := ts.ticketState(t, open1)
	if status != "backlog" {
		t.Errorf("ticket status = %q, want backlog", status)
	}
	if sid != nil {
		t.Errorf("ticket should be detached, got sprint %d", *sid)
	}

	// Done ticket untouched
	status, sid, _ = ts.ticketState(t, done)
	if status != "done" || sid == nil {
		t.Errorf("done ticket should stay done in the sprint, got %q / %v", status, sid)
	}
}

func TestCompleteSprintKeep(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "keep@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")
	sprintID := ts.CreateTestSprint(t, projectID, "Sprint 1", "active")

	open1 := ts.CreateTestTicket(t, projectID, userID, "Still going", "review", intPtr(3))
	ts.AssignTicketToSprint(t, open1, sprintID)
	_, _, versionBefore := ts.ticketState(t, open1)

	rec, req := ts.MakeAuthRequest(t, "POST", "/api/sprints/1/complete",
		CompleteSprintRequest{Disposition: "keep"},
		userID, map[string]string{"id": "1"})
	ts.HandleCompleteSprint(rec, req)
	AssertStatusCode(t, rec.Code, http.StatusOK)

	// Ticket untouched in every way
	status, sid, versionAfter := ts.ticketState(t, open1)
	if status != "review" {
		t.Errorf("ticket status = %q, want review (unchanged)", status)
	}
	if sid == nil || *sid != sprintID {
		t.Errorf("ticket should remain in the completed sprint, got %v", sid)
	}
	if versionAfter != versionBefore {
		t.Errorf("keep must not bump ticket versions: %d -> %d", versionBefore, versionAfter)
	}

	sprintStatus, _ := ts.sprintState(t, sprintID)
	if sprintStatus != "completed" {
		t.Errorf("sprint status = %q, want completed", sprintStatus)
	}
}

func TestCompleteSprintRejectsUnknownDisposition(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "disp@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")
	ts.CreateTestSprint(t, projectID, "Sprint 1", "active")

	rec, req := ts.MakeAuthRequest(t, "POST", "/api/sprints/1/complete",
		CompleteSprintRequest{Disposition: "archive"},
		userID, map[string]string{"id": "1"})
	ts.HandleCompleteSprint(rec, req)
	AssertError(t, rec, http.StatusBadRequest, "disposition", "invalid_input")
}

func TestSprintStats(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "stats@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")
	sprintID := ts.CreateTestSprint(t, projectID, "Sprint 1", "active")

	for _, tc := range []struct {
		status string
		points *int
	}{
		{"done", intPtr(5)},
		{"done", intPtr(3)},
		{"in_progress", intPtr(8)},
		{"review", intPtr(2)},
		{"todo", intPtr(2)},
		{"todo", nil}, // unestimated
	} {
		id := ts.CreateTestTicket(t, projectID, userID, "T", tc.status, tc.points)
		ts.AssignTicketToSprint(t, id, sprintID)
	}

	rec, req := ts.MakeAuthRequest(t, "GET", "/api/sprints/1/stats", nil,
		userID, map[string]string{"id": "1"})
	ts.HandleSprintStats(rec, req)
	AssertStatusCode(t, rec.Code, http.StatusOK)

	var stats map[string]interface{}
	DecodeJSON(t, rec, &stats)

	if got := stats["total_tickets"].(float64); got != 6 {
		t.Errorf("total_tickets = %v, want 6", got)
	}
	if got := stats["total_points"].(float64); got != 20 {
		t.Errorf("total_points = %v, want 20", got)
	}
	if got := stats["done_points"].(float64); got != 8 {
		t.Errorf("done_points = %v, want 8", got)
	}
	if got := stats["in_progress_points"].(float64); got != 10 {
		t.Errorf("in_progress_points = %v, want 10", got)
	}
	// 8/20 = 40%
	if got := stats["completion_percentage"].(float64); got != 40 {
		t.Errorf("completion_percentage = %v, want 40", got)
	}
}

func TestSprintBurndown(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "burn@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")
	sprintID := ts.CreateTestSprint(t, projectID, "Sprint 1", "active")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := ts.DB.ExecContext(ctx,
		`UPDATE sprints SET start_date = '2026-09-01', end_date = '2026-09-05' WHERE id = ?`, sprintID)
	if err != nil {
		t.Fatalf("Failed to set sprint dates: %v", err)
	}

	id := ts.CreateTestTicket(t, projectID, userID, "Work", "todo", intPtr(10))
	ts.AssignTicketToSprint(t, id, sprintID)

	for _, snap := range []struct {
		day       string
		remaining int
	}{
		{"2026-09-01", 10},
		{"2026-09-02", 7},
	} {
		_, err := ts.DB.ExecContext(ctx,
			`INSERT INTO sprint_snapshots (sprint_id, day, remaining_points) VALUES (?, ?, ?)`,
			sprintID, snap.day, snap.remaining)
		if err != nil {
			t.Fatalf("Failed to insert snapshot: %v", err)
		}
	}

	rec, req := ts.MakeAuthRequest(t, "GET", "/api/sprints/1/burndown", nil,
		userID, map[string]string{"id": "1"})
	ts.HandleSprintBurndown(rec, req)
	AssertStatusCode(t, rec.Code, http.StatusOK)

	var series []map[string]interface{}
	DecodeJSON(t, rec, &series)

	if len(series) != 5 {
		t.Fatalf("got %d points, want 5 (one per day)", len(series))
	}
	if got := series[0]["ideal"].(float64); got != 10 {
		t.Errorf("first ideal = %v, want total points 10", got)
	}
	if got := series[4]["ideal"].(float64); got != 0 {
		t.Errorf("last ideal = %v, want 0", got)
	}
	if got := series[1]["actual"].(float64); got != 7 {
		t.Errorf("day 2 actual = %v, want 7", got)
	}
	if _, hasActual := series[3]["actual"]; hasActual {
		t.Error("days without snapshots should have no actual value")
	}
}

func TestSprintBurndownRequiresDates(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "nodates@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")
	ts.CreateTestSprint(t, projectID, "Sprint 1", "planning")

	rec, req := ts.MakeAuthRequest(t, "GET", "/api/sprints/1/burndown", nil,
		userID, map[string]string{"id": "1"})
	ts.HandleSprintBurndown(rec, req)
	AssertError(t, rec, http.StatusBadRequest, "date range", "invalid_state")
}

func TestStartSprintRejectsBadDates(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "dates@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")
	ts.CreateTestSprint(t, projectID, "Sprint 1", "planning")

	rec, req := ts.MakeAuthRequest(t, "POST", "/api/sprints/1/start",
		StartSprintRequest{StartDate: "2026-09-14", EndDate: "2026-09-01"},
		userID, map[string]string{"id": "1"})
	ts.HandleStartSprint(rec, req)
	AssertError(t, rec, http.StatusBadRequest, "end_date", "invalid_input")
}
