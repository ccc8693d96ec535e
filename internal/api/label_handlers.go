package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Label represents a project label
type Label struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateLabelRequest represents a request to create a label
type CreateLabelRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// HandleListLabels returns a project's labels
func (s *Server) HandleListLabels(w http.ResponseWriter, r *http.Request) {
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
		`SELECT id, project_id, name, color, created_at FROM labels WHERE project_id = ? ORDER BY name`,
		projectID,
	)
	if err != nil {
		s.logger.Error("Failed to fetch labels", zap.Int64("project_id", projectID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch labels", "internal_error")
		return
	}
	defer rows.Close()

	labels := make([]Label, 0)
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Name, &l.Color, &l.CreatedAt); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to fetch labels", "internal_error")
			return
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch labels", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, labels)
}

// HandleCreateLabel creates a label
func (s *Server) HandleCreateLabel(w http.ResponseWriter, r *http.Request) {
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

	var req CreateLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "label name is required", "invalid_input")
		return
	}
	if req.Color == "" {
		req.Color = "#6b7280"
	}

	var label Label
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO labels (project_id, name, color) VALUES (?, ?, ?)
		 RETURNING id, project_id, name, color, created_at`,
		projectID, req.Name, req.Color,
	).Scan(&label.ID, &label.ProjectID, &label.Name, &label.Color, &label.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			respondError(w, http.StatusConflict, "a label with this name already exists", "duplicate_label")
			return
		}
		s.logger.Error("Failed to create label", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create label", "internal_error")
		return
	}

	respondJSON(w, http.StatusCreated, label)
}

// UpdateLabelRequest represents a request to rename or recolor a label.
// Nil fields are left unchanged.
type UpdateLabelRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// HandleUpdateLabel renames or recolors a label
func (s *Server) HandleUpdateLabel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	labelID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid label ID", "invalid_input")
		return
	}

	var projectID int64
	err = s.db.QueryRowContext(ctx, `SELECT project_id FROM labels WHERE id = ?`, labelID).Scan(&projectID)
	if err != nil {
		respondError(w, http.StatusNotFound, "label not found", "not_found")
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

	var req UpdateLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}
	if req.Name != nil && *req.Name == "" {
		respondError(w, http.StatusBadRequest, "label name cannot be empty", "invalid_input")
		return
	}

	setClauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if req.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *req.Name)
	}
	if req.Color != nil {
		setClauses = append(setClauses, "color = ?")
		args = append(args, *req.Color)
	}
	if len(setClauses) == 0 {
		respondError(w, http.StatusBadRequest, "no fields to update", "invalid_input")
		return
	}
	args = append(args, labelID)

	var label Label
	err = s.db.QueryRowContext(ctx,
		`UPDATE labels SET `+strings.Join(setClauses, ", ")+` WHERE id = ?
		 RETURNING id, project_id, name, color, created_at`,
		args...,
	).Scan(&label.ID, &label.ProjectID, &label.Name, &label.Color, &label.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			respondError(w, http.StatusConflict, "a label with this name already exists", "duplicate_label")
			return
		}
		s.logger.Error("Failed to update label", zap.Int64("label_id", labelID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update label", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, label)
}

// HandleDeleteLabel deletes a label and its ticket associations
func (s *Server) HandleDeleteLabel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	labelID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid label ID", "invalid_input")
		return
	}

	var projectID int64
	err = s.db.QueryRowContext(ctx, `SELECT project_id FROM labels WHERE id = ?`, labelID).Scan(&projectID)
	if err != nil {
		respondError(w, http.StatusNotFound, "label not found", "not_found")
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

	if _, err := s.db.ExecContext(ctx, `DELETE FROM labels WHERE id = ?`, labelID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete label", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Label deleted successfully"})
}
