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
)

// Epic represents a grouping of tickets
type Epic struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateEpicRequest represents a request to create an epic
type CreateEpicRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// UpdateEpicRequest represents a partial epic update
type UpdateEpicRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// HandleListEpics returns a project's epics
func (s *Server) HandleListEpics(w http.ResponseWriter, r *http.Request) {
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

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, description, created_at, updated_at
		 FROM epics WHERE project_id = ? ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		s.logger.Error("Failed to fetch epics", zap.Int64("project_id", projectID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch epics", "internal_error")
		return
	}
	defer rows.Close()

	epics := make([]Epic, 0)
	for rows.Next() {
		var e Epic
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Name, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to fetch epics", "internal_error")
			return
		}
		epics = append(epics, e)
	}
	if err := rows.Err(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch epics", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, epics)
}

// HandleCreateEpic creates an epic
func (s *Server) HandleCreateEpic(w http.ResponseWriter, r *http.Request) {
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

	var req CreateEpicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "epic name is required", "invalid_input")
		return
	}

	var epic Epic
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO epics (project_id, name, description) VALUES (?, ?, ?)
		 RETURNING id, project_id, name, description, created_at, updated_at`,
		projectID, req.Name, req.Description,
	).Scan(&epic.ID, &epic.ProjectID, &epic.Name, &epic.Description, &epic.CreatedAt, &epic.UpdatedAt)
	if err != nil {
		s.logger.Error("Failed to create epic", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create epic", "internal_error")
		return
	}

	respondJSON(w, http.StatusCreated, epic)
}

// HandleUpdateEpic edits an epic's name or description
func (s *Server) HandleUpdateEpic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	epicID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid epic ID", "invalid_input")
		return
	}

	var epic Epic
	err = s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, description, created_at, updated_at FROM epics WHERE id = ?`,
		epicID,
	).Scan(&epic.ID, &epic.ProjectID, &epic.Name, &epic.Description, &epic.CreatedAt, &epic.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "epic not found", "not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to fetch epic", "internal_error")
		return
	}

	hasAccess, err := s.checkProjectAccess(ctx, userID, epic.ProjectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to verify project access", "internal_error")
		return
	}
	if !hasAccess {
		respondError(w, http.StatusForbidden, "access denied", "forbidden")
		return
	}

	var req UpdateEpicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}
	if req.Name == nil && req.Description == nil {
		respondError(w, http.StatusBadRequest, "no fields to update", "invalid_input")
		return
	}
	if req.Name != nil {
		if *req.Name == "" {
			respondError(w, http.StatusBadRequest, "epic name must not be empty", "invalid_input")
			return
		}
		epic.Name = *req.Name
	}
	if req.Description != nil {
		epic.Description = req.Description
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE epics SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		epic.Name, epic.Description, epicID,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update epic", "internal_error")
		return
	}

	updated := epic
	err = s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM epics WHERE id = ?`, epicID,
	).Scan(&updated.UpdatedAt)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch updated epic", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// HandleDeleteEpic deletes an epic; tickets keep a dangling epic_id cleared
// by the foreign key's SET NULL.
func (s *Server) HandleDeleteEpic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	epicID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid epic ID", "invalid_input")
		return
	}

	var projectID int64
	err = s.db.QueryRowContext(ctx, `SELECT project_id FROM epics WHERE id = ?`, epicID).Scan(&projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "epic not found", "not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to fetch epic", "internal_error")
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

	if _, err := s.db.ExecContext(ctx, `DELETE FROM epics WHERE id = ?`, epicID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete epic", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Epic deleted successfully"})
}
