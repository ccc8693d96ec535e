package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sprintdeck/internal/events"
)

// Ticket statuses recognized by the board
var validTicketStatuses = map[string]bool{
	"backlog":     true,
	"todo":        true,
	"in_progress": true,
	"review":      true,
	"done":        true,
	"blocked":     true,
}

// Ticket represents a board ticket
type Ticket struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Number      int64     `json:"number"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	StoryPoints *int      `json:"story_points,omitempty"`
	SprintID    *int64    `json:"sprint_id,omitempty"`
	EpicID      *int64    `json:"epic_id,omitempty"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Assignees   []int64   `json:"assignees"`
	Labels      []Label   `json:"labels"`
	CreatedBy   int64     `json:"created_by"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateTicketRequest represents a request to create a ticket
type CreateTicketRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	StoryPoints *int    `json:"story_points,omitempty"`
	SprintID    *int64  `json:"sprint_id,omitempty"`
	EpicID      *int64  `json:"epic_id,omitempty"`
	ParentID    *int64  `json:"parent_id,omitempty"`
	Assignees   []int64 `json:"assignees,omitempty"`
	LabelIDs    []int64 `json:"label_ids,omitempty"`
}

// UpdateTicketRequest represents a partial ticket update
type UpdateTicketRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	StoryPoints *int     `json:"story_points,omitempty"`
	EpicID      *int64   `json:"epic_id,omitempty"`
	ParentID    *int64   `json:"parent_id,omitempty"`
	Assignees   *[]int64 `json:"assignees,omitempty"`
	LabelIDs    *[]int64 `json:"label_ids,omitempty"`
}

// TransitionRequest represents a board drag status change
type TransitionRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

const ticketColumns = `id, project_id, number, title, description, status, story_points,
	sprint_id, epic_id, parent_id, created_by, version, created_at, updated_at`

// scanTicket reads one ticket row
func scanTicket(row interface{ Scan(...interface{}) error }) (*Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.ProjectID, &t.Number, &t.Title, &t.Description, &t.Status,
		&t.StoryPoints, &t.SprintID, &t.EpicID, &t.ParentID, &t.CreatedBy, &t.Version,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Assignees = []int64{}
	t.Labels = []Label{}
	return &t, nil
}

// loadTicketEdges fills assignees (ordered) and labels for a batch of tickets
func (s *Server) loadTicketEdges(ctx context.Context, tickets []*Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	byID := make(map[int64]*Ticket, len(tickets))
	placeholders := ""
	args := make([]interface{}, 0, len(tickets))
	for i, t := range tickets {
		byID[t.ID] = t
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, t.ID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ticket_id, user_id FROM ticket_assignees WHERE ticket_id IN (`+placeholders+`) ORDER BY ticket_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to load assignees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ticketID, userID int64
		if err := rows.Scan(&ticketID, &userID); err != nil {
			return fmt.Errorf("failed to scan assignee: %w", err)
		}
		if t, ok := byID[ticketID]; ok {
			t.Assignees = append(t.Assignees, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	labelRows, err := s.db.QueryContext(ctx,
		`SELECT tl.ticket_id, l.id, l.project_id, l.name, l.color, l.created_at
		 FROM ticket_labels tl JOIN labels l ON l.id = tl.label_id
		 WHERE tl.ticket_id IN (`+placeholders+`) ORDER BY l.name`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to load labels: %w", err)
	}
	defer labelRows.Close()

	for labelRows.Next() {
		var ticketID int64
		var l Label
		if err := labelRows.Scan(&ticketID, &l.ID, &l.ProjectID, &l.Name, &l.Color, &l.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan label: %w", err)
		}
		if t, ok := byID[ticketID]; ok {
			t.Labels = append(t.Labels, l)
		}
	}
	return labelRows.Err()
}

// getTicket fetches a single ticket with its edges loaded
func (s *Server) getTicket(ctx context.Context, ticketID int64) (*Ticket, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, ticketID)
	t, err := scanTicket(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadTicketEdges(ctx, []*Ticket{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// HandleListTickets returns tickets for a project. Optional query filters:
// status, sprint_id, backlog=true (tickets in no sprint).
func (s *Server) HandleListTickets(w http.ResponseWriter, r *http.Request) {
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

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE project_id = ?`
	args := []interface{}{projectID}

	if status := r.URL.Query().Get("status"); status != "" {
		if !validTicketStatuses[status] {
			respondError(w, http.StatusBadRequest, "invalid status filter", "invalid_input")
			return
		}
		query += ` AND status = ?`
		args = append(args, status)
	}
	if sprintStr := r.URL.Query().Get("sprint_id"); sprintStr != "" {
		sprintID, err := strconv.ParseInt(sprintStr, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid sprint_id filter", "invalid_input")
			return
		}
		query += ` AND sprint_id = ?`
		args = append(args, sprintID)
	}
	if r.URL.Query().Get("backlog") == "true" {
		query += ` AND sprint_id IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to fetch tickets",
			zap.Int64("project_id", projectID),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to fetch tickets", "internal_error")
		return
	}
	defer rows.Close()

	tickets := make([]*Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to fetch tickets", "internal_error")
			return
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch tickets", "internal_error")
		return
	}

	if err := s.loadTicketEdges(ctx, tickets); err != nil {
		s.logger.Error("Failed to load ticket edges", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch tickets", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, tickets)
}

// HandleCreateTicket creates a new ticket
func (s *Server) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
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

	var req CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}

	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "ticket title is required", "invalid_input")
		return
	}
	if len(req.Title) > 255 {
		respondError(w, http.StatusBadRequest, "ticket title is too long (max 255 characters)", "invalid_input")
		return
	}

	status := "backlog"
	if req.Status != nil {
		status = *req.Status
	}
	if !validTicketStatuses[status] {
		respondError(w, http.StatusBadRequest, "invalid status", "invalid_input")
		return
	}

	if req.StoryPoints != nil && *req.StoryPoints < 0 {
		respondError(w, http.StatusBadRequest, "story points must be non-negative", "invalid_input")
		return
	}

	if err := validateAssignees(req.Assignees); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_input")
		return
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create ticket", "internal_error")
		return
	}
	defer tx.Rollback()

	// Next per-project ticket number; the UNIQUE index on (project_id, number)
	// prevents duplicates under concurrent creates.
	var nextNumber int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 0) + 1 FROM tickets WHERE project_id = ?`, projectID,
	).Scan(&nextNumber)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get next ticket number", "internal_error")
		return
	}

	var ticketID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO tickets (project_id, number, title, description, status, story_points,
		                      sprint_id, epic_id, parent_id, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		projectID, nextNumber, req.Title, req.Description, status, req.StoryPoints,
		req.SprintID, req.EpicID, req.ParentID, userID,
	).Scan(&ticketID)
	if err != nil {
		s.logger.Error("Failed to insert ticket", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create ticket", "internal_error")
		return
	}

	for i, assignee := range req.Assignees {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ticket_assignees (ticket_id, user_id, position) VALUES (?, ?, ?)`,
			ticketID, assignee, i,
		)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to assign ticket", "internal_error")
			return
		}
	}

	for _, labelID := range req.LabelIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ticket_labels (ticket_id, label_id) VALUES (?, ?)`,
			ticketID, labelID,
		)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to label ticket", "internal_error")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create ticket", "internal_error")
		return
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch created ticket", "internal_error")
		return
	}

	s.publish(projectID, events.TypeTicketCreated, ticket)
	respondJSON(w, http.StatusCreated, ticket)
}

// HandleGetTicketByNumber returns a ticket by its per-project number
func (s *Server) HandleGetTicketByNumber(w http.ResponseWriter, r *http.Request) {
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
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid ticket number", "invalid_input")
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

	row := s.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE project_id = ? AND number = ?`,
		projectID, number,
	)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "ticket not found", "not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to fetch ticket", "internal_error")
		return
	}
	if err := s.loadTicketEdges(ctx, []*Ticket{t}); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch ticket", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// HandleUpdateTicket applies a partial update to a ticket's fields. Every
// successful update bumps the ticket's version stamp.
func (s *Server) HandleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid ticket ID", "invalid_input")
		return
	}

	projectID, err := s.ticketProject(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "ticket not found", "not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to fetch ticket", "internal_error")
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

	var req UpdateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}

	if req.StoryPoints != nil && *req.StoryPoints < 0 {
		respondError(w, http.StatusBadRequest, "story points must be non-negative", "invalid_input")
		return
	}
	if req.Assignees != nil {
		if err := validateAssignees(*req.Assignees); err != nil {
			respondError(w, http.StatusBadRequest, err.Error(), "invalid_input")
			return
		}
	}

	sets := ""
	args := []interface{}{}
	addSet := func(col string, val interface{}) {
		if sets != "" {
			sets += ", "
		}
		sets += col + " = ?"
		args = append(args, val)
	}

	if req.Title != nil {
		if *req.Title == "" {
			respondError(w, http.StatusBadRequest, "ticket title must not be empty", "invalid_input")
			return
		}
		addSet("title", *req.Title)
	}
	if req.Description != nil {
		addSet("description", *req.Description)
	}
	if req.StoryPoints != nil {
		addSet("story_points", *req.StoryPoints)
	}
	if req.EpicID != nil {
		addSet("epic_id", *req.EpicID)
	}
	if req.ParentID != nil {
		addSet("parent_id", *req.ParentID)
	}

	if sets == "" && req.Assignees == nil && req.LabelIDs == nil {
		respondError(w, http.StatusBadRequest, "no fields to update", "invalid_input")
		return
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update ticket", "internal_error")
		return
	}
	defer tx.Rollback()

	if sets != "" {
		sets += ", "
	}
	sets += "version = version + 1, updated_at = CURRENT_TIMESTAMP"
	args = append(args, ticketID)

	if _, err := tx.ExecContext(ctx, `UPDATE tickets SET `+sets+` WHERE id = ?`, args...); err != nil {
		s.logger.Error("Failed to update ticket", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update ticket", "internal_error")
		return
	}

	if req.Assignees != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ticket_assignees WHERE ticket_id = ?`, ticketID); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to update assignees", "internal_error")
			return
		}
		for i, assignee := range *req.Assignees {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ticket_assignees (ticket_id, user_id, position) VALUES (?, ?, ?)`,
				ticketID, assignee, i,
			); err != nil {
				respondError(w, http.StatusInternalServerError, "failed to update assignees", "internal_error")
				return
			}
		}
	}

	if req.LabelIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ticket_labels WHERE ticket_id = ?`, ticketID); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to update labels", "internal_error")
			return
		}
		for _, labelID := range *req.LabelIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ticket_labels (ticket_id, label_id) VALUES (?, ?)`,
				ticketID, labelID,
			); err != nil {
				respondError(w, http.StatusInternalServerError, "failed to update labels", "internal_error")
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update ticket", "internal_error")
		return
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch updated ticket", "internal_error")
		return
	}

	s.publish(projectID, events.TypeTicketUpdated, ticket)
	respondJSON(w, http.StatusOK, ticket)
}

// HandleTransitionTicket applies a board status change. A transition with
// from == to is a no-op and does not bump the version.
func (s *Server) HandleTransitionTicket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid ticket ID", "invalid_input")
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}

	if !validTicketStatuses[req.To] {
		respondError(w, http.StatusBadRequest, "unrecognized target status", "invalid_input")
		return
	}

	projectID, err := s.ticketProject(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "ticket not found", "not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to fetch ticket", "internal_error")
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

	if req.From == req.To {
		ticket, err := s.getTicket(ctx, ticketID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to fetch ticket", "internal_error")
			return
		}
		respondJSON(w, http.StatusOK, ticket)
		return
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		req.To, ticketID,
	)
	if err != nil {
		s.logger.Error("Failed to transition ticket",
			zap.Int64("ticket_id", ticketID),
			zap.String("to", req.To),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to update ticket status", "internal_error")
		return
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch updated ticket", "internal_error")
		return
	}

	s.publish(projectID, events.TypeTicketStatusChanged, ticket)
	respondJSON(w, http.StatusOK, ticket)
}

// HandleDeleteTicket deletes a ticket
func (s *Server) HandleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid ticket ID", "invalid_input")
		return
	}

	projectID, err := s.ticketProject(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "ticket not found", "not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to fetch ticket", "internal_error")
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

	if _, err := s.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, ticketID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete ticket", "internal_error")
		return
	}

	s.publish(projectID, events.TypeTicketDeleted, map[string]int64{"id": ticketID})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Ticket deleted successfully"})
}

// ticketProject returns the owning project of a ticket
func (s *Server) ticketProject(ctx context.Context, ticketID int64) (int64, error) {
	var projectID int64
	err := s.db.QueryRowContext(ctx, `SELECT project_id FROM tickets WHERE id = ?`, ticketID).Scan(&projectID)
	return projectID, err
}

// validateAssignees rejects duplicate assignee ids; order is preserved as given
func validateAssignees(assignees []int64) error {
	seen := make(map[int64]bool, len(assignees))
	for _, id := range assignees {
		if seen[id] {
			return fmt.Errorf("duplicate assignee %d", id)
		}
		seen[id] = true
	}
	return nil
}
