package api

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func (ts *TestServer) completeSprintWithPoints(t *testing.T, projectID int64, name string, points int) {
	t.Helper()

	sprintID := ts.CreateTestSprint(t, projectID, name, "completed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := ts.DB.ExecContext(ctx,
		`UPDATE sprints SET completed_points = ? WHERE id = ?`, points, sprintID)
	if err != nil {
		t.Fatalf("Failed to set completed points: %v", err)
	}
}

func TestGetCapacityFallback(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "fresh@example.com", "password123")
	ts.CreateTestProject(t, userID, "Board")

	rec, req := ts.MakeAuthRequest(t, "GET", "/api/projects/1/capacity", nil,
		userID, map[string]string{"projectId": "1"})
	ts.HandleGetCapacity(rec, req)
	AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp CapacityResponse
	DecodeJSON(t, rec, &resp)

	// No history, nothing stored: fixed fallback
	if resp.Capacity != 40 {
		t.Errorf("capacity = %d, want fallback 40", resp.Capacity)
	}
	if resp.Source != "derived" {
		t.Errorf("source = %q, want derived", resp.Source)
	}
	if resp.AverageVelocity != 0 {
		t.Errorf("average velocity = %d, want 0", resp.AverageVelocity)
	}
}

func TestGetCapacityConfiguredFallback(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()
	ts.config.DefaultCapacity = 55

	userID := ts.CreateTestUser(t, "configured@example.com", "password123")
	ts.CreateTestProject(t, userID, "Board")

	rec, req := ts.MakeAuthRequest(t, "GET", "/api/projects/1/capacity", nil,
		userID, map[string]string{"projectId": "1"})
	ts.HandleGetCapacity(rec, req)
	AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp CapacityResponse
	DecodeJSON(t, rec, &resp)

	// No history: the configured default applies instead of the fixed 40
	if resp.Capacity != 55 {
		t.Errorf("capacity = %d, want configured fallback 55", resp.Capacity)
	}
	if resp.Source != "derived" {
		t.Errorf("source = %q, want derived", resp.Source)
	}
}

func TestGetCapacityDerivedFromVelocity(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "velocity@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")

	ts.completeSprintWithPoints(t, projectID, "Sprint 1", 20)
	ts.completeSprintWithPoints(t, projectID, "Sprint 2", 25)

	rec, req := ts.MakeAuthRequest(t, "GET", "/api/projects/1/capacity", nil,
		userID, map[string]string{"projectId": "1"})
	ts.HandleGetCapacity(rec, req)
	AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp CapacityResponse
	DecodeJSON(t, rec, &resp)

	// (20+25)/2 rounds to 23
	if resp.Capacity != 23 {
		t.Errorf("capacity = %d, want rounded average 23", resp.Capacity)
	}
	if resp.Source != "derived" {
		t.Errorf("source = %q, want derived", resp.Source)
	}
	if resp.AverageVelocity != 23 {
		t.Errorf("average velocity = %d, want 23", resp.AverageVelocity)
	}
}

func TestSetCapacityOverridesDerived(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "stored@example.com", "password123")
	projectID := ts.CreateTestProject(t, userID, "Board")
	ts.completeSprintWithPoints(t, projectID, "Sprint 1", 20)

	rec, req := ts.MakeAuthRequest(t, "PUT", "/api/projects/1/capacity",
		SetCapacityRequest{Capacity: 35},
		userID, map[string]string{"projectId": "1"})
	ts.HandleSetCapacity(rec, req)
	AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp CapacityResponse
	DecodeJSON(t, rec, &resp)
	if resp.Capacity != 35 || resp.Source != "stored" {
		t.Errorf("got %d/%s, want 35/stored", resp.Capacity, resp.Source)
	}

	// stored value wins on reads, velocity still reported
	rec, req = ts.MakeAuthRequest(t, "GET", "/api/projects/1/capacity", nil,
		userID, map[string]string{"projectId": "1"})
	ts.HandleGetCapacity(rec, req)
	AssertStatusCode(t, rec.Code, http.StatusOK)

	DecodeJSON(t, rec, &resp)
	if resp.Capacity != 35 || resp.Source != "stored" {
		t.Errorf("got %d/%s after read-back, want 35/stored", resp.Capacity, resp.Source)
	}
	if resp.AverageVelocity != 20 {
		t.Errorf("average velocity = %d, want 20", resp.AverageVelocity)
	}
}

func TestSetCapacityRejectsNonPositive(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "zero@example.com", "password123")
	ts.CreateTestProject(t, userID, "Board")

	for _, capacity := range []int{0, -5} {
		rec, req := ts.MakeAuthRequest(t, "PUT", "/api/projects/1/capacity",
			SetCapacityRequest{Capacity: capacity},
			userID, map[string]string{"projectId": "1"})
		ts.HandleSetCapacity(rec, req)
		AssertError(t, rec, http.StatusBadRequest, "positive", "invalid_input")
	}
}

func TestSetCapacityUpdatesExisting(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	userID := ts.CreateTestUser(t, "upsert@example.com", "password123")
	ts.CreateTestProject(t, userID, "Board")

	for _, capacity := range []int{30, 45} {
		rec, req := ts.MakeAuthRequest(t, "PUT", "/api/projects/1/capacity",
			SetCapacityRequest{Capacity: capacity},
			userID, map[string]string{"projectId": "1"})
		ts.HandleSetCapacity(rec, req)
		AssertStatusCode(t, rec.Code, http.StatusOK)
	}

	rec, req := ts.MakeAuthRequest(t, "GET", "/api/projects/1/capacity", nil,
		userID, map[string]string{"projectId": "1"})
	ts.HandleGetCapacity(rec, req)

	var resp CapacityResponse
	DecodeJSON(t, rec, &resp)
	if resp.Capacity != 45 {
		t.Errorf("capacity = %d, want latest stored 45", resp.Capacity)
	}
}
