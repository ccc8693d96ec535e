package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sprintdeck/internal/events"
	"sprintdeck/internal/planning"
)

// Sprint dates travel as "YYYY-MM-DD" strings on the wire and in the database.
const dateLayout = "2006-01-02"

// Sprint represents a sprint
type Sprint struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"project_id"`
	Name            string    `json:"name"`
	Goal            *string   `json:"goal,omitempty"`
	Status          string    `json:"status"`
	StartDate       *string   `json:"start_date,omitempty"`
	EndDate         *string   `json:"end_date,omitempty"`
	CompletedPoints *int      `json:"completed_points,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateSprintRequest represents a request to create a sprint
type CreateSprintRequest struct {
	Name string  `json:"name"`
	Goal *string `json:"goal,omitempty"`
}

// UpdateSprintRequest represents a partial sprint update
type UpdateSprintRequest struct {
	Name *string `json:"name,omitempty"`
	Goal *string `json:"goal,omitempty"`
}

// StartSprintRequest carries the dates fixed when a sprint goes active
type StartSprintRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// CompleteSprintRequest selects what happens to unfinished tickets
type CompleteSprintRequest struct {
	Disposition string `json:"disposition"`
}

// CompleteSprintResponse reports the completed sprint and, for a rollover,
// the sprint the unfinished tickets moved into.
type CompleteSprintResponse struct {
	Sprint     *Sprint `json:"sprint"`
	NextSprint *Sprint `json:"next_sprint,omitempty"`
	MovedCount int     `json:"moved_count"`
}

// AddSprintTicketRequest adds one ticket to a sprint
type AddSprintTicketRequest struct {
	TicketID int64 `json:"ticket_id"`
}

const sprintColumns = `id, project_id, name, goal, status, start_date, end_date,
	completed_points, created_at, updated_at`

func scanSprint(row interface{ Scan(...interface{}) error }) (*Sprint, error) {
	var sp Sprint
	err := row.Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.Goal, &sp.Status,
		&sp.StartDate, &sp.EndDate, &sp.CompletedPoints, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *Server) getSprint(ctx context.Context, sprintID int64) (*Sprint, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sprintColumns+` FROM sprints WHERE id = ?`, sprintID)
	return scanSprint(row)
}

// HandleListSprints returns a project's sprints, newest first
func (s *Server) HandleListSprints(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid project ID", "invalid_input")
		return
	}

	hasAccess, err := s.checkProjectAccess(ctx, userID, projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to verify project access", "internal_error")
		return
	}
	if !hasAccess {
		respondError(w, http.StatusForbidden, "access denied", "forbidden")
		return
	}

	query := `SELECT ` + sprintColumns + ` FROM sprints WHERE project_id = ?`
	args := []interface{}{projectID}
	if status := r.URL.Query().Get("status"); status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to fetch sprints", zap.Int64("project_id", projectID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch sprints", "internal_error")
		return
	}
	defer rows.Close()

	sprints := make([]*Sprint, 0)
	for rows.Next() {
		sp, err := scanSprint(rows)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to fetch sprints", "internal_error")
			return
		}
		sprints = append(sprints, sp)
	}
	if err := rows.Err(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch sprints", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, sprints)
}

// HandleCreateSprint creates a sprint in planning state
func (s *Server) HandleCreateSprint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid project ID", "invalid_input")
		return
	}

	hasAccess, err := s.checkProjectAccess(ctx, userID, projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to verify project access", "internal_error")
		return
	}
	if !hasAccess {
		respondError(w, http.StatusForbidden, "access denied", "forbidden")
		return
	}

	var req CreateSprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "sprint name is required", "invalid_input")
		return
	}

	var sprintID int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO sprints (project_id, name, goal, status) VALUES (?, ?, ?, 'planning') RETURNING id`,
		projectID, req.Name, req.Goal,
	).Scan(&sprintID)
	if err != nil {
		s.logger.Error("Failed to create sprint", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create sprint", "internal_error")
		return
	}

	sprint, err := s.getSprint(ctx, sprintID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch created sprint", "internal_error")
		return
	}

	s.publish(projectID, events.TypeSprintUpdated, sprint)
	respondJSON(w, http.StatusCreated, sprint)
}

// HandleGetSprint returns one sprint
func (s *Server) HandleGetSprint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sprint, ok := s.authorizedSprint(ctx, w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sprint)
}

// HandleUpdateSprint edits a sprint's name or goal. Completed sprints are
// immutable.
func (s *Server) HandleUpdateSprint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sprint, ok := s.authorizedSprint(ctx, w, r)
	if !ok {
		return
	}
	if sprint.Status == "completed" {
		respondError(w, http.StatusConflict, "completed sprints cannot be modified", "sprint_completed")
		return
	}

	var req UpdateSprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}
	if req.Name == nil && req.Goal == nil {
		respondError(w, http.StatusBadRequest, "no fields to update", "invalid_input")
		return
	}
	if req.Name != nil && *req.Name == "" {
		respondError(w, http.StatusBadRequest, "sprint name must not be empty", "invalid_input")
		return
	}

	name := sprint.Name
	if req.Name != nil {
		name = *req.Name
	}
	goal := sprint.Goal
	if req.Goal != nil {
		goal = req.Goal
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE sprints SET name = ?, goal = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, goal, sprint.ID,
	)
	if err != nil {
		s.logger.Error("Failed to update sprint", zap.Int64("sprint_id", sprint.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update sprint", "internal_error")
		return
	}

	updated, err := s.getSprint(ctx, sprint.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch updated sprint", "internal_error")
		return
	}

	s.publish(sprint.ProjectID, events.TypeSprintUpdated, updated)
	respondJSON(w, http.StatusOK, updated)
}

// HandleStartSprint moves a sprint from planning to active and fixes its
// dates. Only one sprint per project may be active.
func (s *Server) HandleStartSprint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sprint, ok := s.authorizedSprint(ctx, w, r)
	if !ok {
		return
	}
	if sprint.Status != "planning" {
		respondError(w, http.StatusConflict, "only a planning sprint can be started", "invalid_state")
		return
	}

	var req StartSprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start_date (want YYYY-MM-DD)", "invalid_input")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end_date (want YYYY-MM-DD)", "invalid_input")
		return
	}
	if end.Before(start) {
		respondError(w, http.StatusBadRequest, "end_date must not be before start_date", "invalid_input")
		return
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to start sprint", "internal_error")
		return
	}
	defer tx.Rollback()

	var activeCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sprints WHERE project_id = ? AND status = 'active'`,
		sprint.ProjectID,
	).Scan(&activeCount)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to start sprint", "internal_error")
		return
	}
	if activeCount > 0 {
		respondError(w, http.StatusConflict, "project already has an active sprint", "active_sprint_exists")
		return
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sprints SET status = 'active', start_date = ?, end_date = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'planning'`,
		req.StartDate, req.EndDate, sprint.ID,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to start sprint", "internal_error")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to start sprint", "internal_error")
		return
	}

	updated, err := s.getSprint(ctx, sprint.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch updated sprint", "internal_error")
		return
	}

	s.logger.Info("Sprint started",
		zap.Int64("sprint_id", sprint.ID),
		zap.Int64("project_id", sprint.ProjectID),
	)
	s.publish(sprint.ProjectID, events.TypeSprintUpdated, updated)
	respondJSON(w, http.StatusOK, updated)
}

// HandleCompleteSprint moves an active sprint to completed, records its
// completed points for velocity, and disposes of unfinished tickets in one
// transaction:
//
//	rollover - move them into a new planning sprint named after this one
//	backlog  - detach them and reset their status to backlog
//	keep     - leave them attached with their current status
func (s *Server) HandleCompleteSprint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sprint, ok := s.authorizedSprint(ctx, w, r)
	if !ok {
		return
	}
	if sprint.Status != "active" {
		respondError(w, http.StatusConflict, "only an active sprint can be completed", "invalid_state")
		return
	}

	var req CompleteSprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}
	switch req.Disposition {
	case "rollover", "backlog", "keep":
	default:
		respondError(w, http.StatusBadRequest, "disposition must be rollover, backlog or keep", "invalid_input")
		return
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to complete sprint", "internal_error")
		return
	}
	defer tx.Rollback()

	var donePoints int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(story_points), 0) FROM tickets WHERE sprint_id = ? AND status = 'done'`,
		sprint.ID,
	).Scan(&donePoints)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to complete sprint", "internal_error")
		return
	}

	var nextSprintID int64
	var movedCount int

	switch req.Disposition {
	case "rollover":
		err = tx.QueryRowContext(ctx,
			`INSERT INTO sprints (project_id, name, goal, status) VALUES (?, ?, ?, 'planning') RETURNING id`,
			sprint.ProjectID, planning.NextSprintName(sprint.Name), sprint.Goal,
		).Scan(&nextSprintID)
		if err != nil {
			s.logger.Error("Failed to create rollover sprint", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to complete sprint", "internal_error")
			return
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE tickets SET sprint_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
			 WHERE sprint_id = ? AND status != 'done'`,
			nextSprintID, sprint.ID,
		)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to complete sprint", "internal_error")
			return
		}
		if n, err := res.RowsAffected(); err == nil {
			movedCount = int(n)
		}
	case "backlog":
		res, err := tx.ExecContext(ctx,
			`UPDATE tickets SET sprint_id = NULL, status = 'backlog', version = version + 1,
			        updated_at = CURRENT_TIMESTAMP
			 WHERE sprint_id = ? AND status != 'done'`,
			sprint.ID,
		)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to complete sprint", "internal_error")
			return
		}
		if n, err := res.RowsAffected(); err == nil {
			movedCount = int(n)
		}
	case "keep":
		// unfinished tickets stay put
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sprints SET status = 'completed', completed_points = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'active'`,
		donePoints, sprint.ID,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to complete sprint", "internal_error")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to complete sprint", "internal_error")
		return
	}

	completed, err := s.getSprint(ctx, sprint.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch completed sprint", "internal_error")
		return
	}

	resp := CompleteSprintResponse{Sprint: completed, MovedCount: movedCount}
	if nextSprintID != 0 {
		next, err := s.getSprint(ctx, nextSprintID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to fetch rollover sprint", "internal_error")
			return
		}
		resp.NextSprint = next
	}

	s.logger.Info("Sprint completed",
		zap.Int64("sprint_id", sprint.ID),
		zap.String("disposition", req.Disposition),
		zap.Int("moved", movedCount),
		zap.Int("completed_points", donePoints),
	)
	s.publish(sprint.ProjectID, events.TypeSprintUpdated, completed)
	if resp.NextSprint != nil {
		s.publish(sprint.ProjectID, events.TypeSprintUpdated, resp.NextSprint)
	}
	respondJSON(w, http.StatusOK, resp)
}

// HandleAddSprintTicket moves a ticket into a sprint. The ticket keeps its
// status; a ticket already in another sprint is moved over.
func (s *Server) HandleAddSprintTicket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sprint, ok := s.authorizedSprint(ctx, w, r)
	if !ok {
		return
	}
	if sprint.Status == "completed" {
		respondError(w, http.StatusConflict, "completed sprints cannot be modified", "sprint_completed")
		return
	}

	var req AddSprintTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}

	projectID, err := s.ticketProject(ctx, req.TicketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "ticket not found", "not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to fetch ticket", "internal_error")
		return
	}
	if projectID != sprint.ProjectID {
		respondError(w, http.StatusBadRequest, "ticket belongs to a different project", "invalid_input")
		return
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE tickets SET sprint_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		sprint.ID, req.TicketID,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to add ticket to sprint", "internal_error")
		return
	}

	ticket, err := s.getTicket(ctx, req.TicketID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch updated ticket", "internal_error")
		return
	}

	s.publish(sprint.ProjectID, events.TypeTicketUpdated, ticket)
	respondJSON(w, http.StatusOK, ticket)
}

// HandleRemoveSprintTicket detaches a ticket from a sprint without touching
// its status
func (s *Server) HandleRemoveSprintTicket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sprint, ok := s.authorizedSprint(ctx, w, r)
	if !ok {
		return
	}
	if sprint.Status == "completed" {
		respondError(w, http.StatusConflict, "completed sprints cannot be modified", "sprint_completed")
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "ticketId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid ticket ID", "invalid_input")
		return
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET sprint_id = NULL, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND sprint_id = ?`,
		ticketID, sprint.ID,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to remove ticket from sprint", "internal_error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "ticket not in this sprint", "not_found")
		return
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch updated ticket", "internal_error")
		return
	}

	s.publish(sprint.ProjectID, events.TypeTicketUpdated, ticket)
	respondJSON(w, http.StatusOK, ticket)
}

// HandleSprintStats returns derived counts and points for a sprint
func (s *Server) HandleSprintStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sprint, ok := s.authorizedSprint(ctx, w, r)
	if !ok {
		return
	}

	tallies, err := s.sprintTallies(ctx, sprint.ID)
	if err != nil {
		s.logger.Error("Failed to tally sprint tickets", zap.Int64("sprint_id", sprint.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to compute sprint stats", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, planning.ComputeStats(tallies))
}

// HandleSprintBurndown returns the ideal and actual remaining-points series
// for a started sprint
func (s *Server) HandleSprintBurndown(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sprint, ok := s.authorizedSprint(ctx, w, r)
	if !ok {
		return
	}
	if sprint.StartDate == nil || sprint.EndDate == nil {
		respondError(w, http.StatusBadRequest, "sprint has no date range yet", "invalid_state")
		return
	}

	start, err := time.Parse(dateLayout, *sprint.StartDate)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute burndown", "internal_error")
		return
	}
	end, err := time.Parse(dateLayout, *sprint.EndDate)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute burndown", "internal_error")
		return
	}

	var totalPoints int
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(story_points), 0) FROM tickets WHERE sprint_id = ?`,
		sprint.ID,
	).Scan(&totalPoints)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute burndown", "internal_error")
		return
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT day, remaining_points FROM sprint_snapshots WHERE sprint_id = ? ORDER BY day`,
		sprint.ID,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute burndown", "internal_error")
		return
	}
	defer rows.Close()

	actual := make(map[time.Time]int)
	for rows.Next() {
		var day string
		var remaining int
		if err := rows.Scan(&day, &remaining); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to compute burndown", "internal_error")
			return
		}
		d, err := time.Parse(dateLayout, day)
		if err != nil {
			continue
		}
		actual[d] = remaining
	}
	if err := rows.Err(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute burndown", "internal_error")
		return
	}

	series, err := planning.Burndown(start, end, totalPoints, actual)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_input")
		return
	}

	respondJSON(w, http.StatusOK, series)
}

// sprintTallies loads the (status, points) pairs ComputeStats works from
func (s *Server) sprintTallies(ctx context.Context, sprintID int64) ([]planning.TicketTally, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COALESCE(story_points, 0) FROM tickets WHERE sprint_id = ?`,
		sprintID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tallies := make([]planning.TicketTally, 0)
	for rows.Next() {
		var t planning.TicketTally
		if err := rows.Scan(&t.Status, &t.StoryPoints); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

// authorizedSprint loads the sprint from the URL and checks project access,
// writing the error response itself when something is off.
func (s *Server) authorizedSprint(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Sprint, bool) {
	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return nil, false
	}

	sprintID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sprint ID", "invalid_input")
		return nil, false
	}

	sprint, err := s.getSprint(ctx, sprintID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "sprint not found", "not_found")
			return nil, false
		}
		s.logger.Error("Failed to fetch sprint", zap.Int64("sprint_id", sprintID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch sprint", "internal_error")
		return nil, false
	}

	hasAccess, err := s.checkProjectAccess(ctx, userID, sprint.ProjectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to verify project access", "internal_error")
		return nil, false
	}
	if !hasAccess {
		respondError(w, http.StatusForbidden, "access denied", "forbidden")
		return nil, false
	}

	return sprint, true
}
