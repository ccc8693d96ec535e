package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sprintdeck/internal/planning"
)

// CapacityResponse reports the planning budget for the next sprint. When no
// explicit capacity is stored, the default is derived from historical
// velocity.
type CapacityResponse struct {
	Capacity        int    `json:"capacity"`
	Source          string `json:"source"` // "stored" or "derived"
	AverageVelocity int    `json:"average_velocity"`
}

// SetCapacityRequest stores an explicit capacity preference
type SetCapacityRequest struct {
	Capacity int `json:"capacity"`
}

// HandleGetCapacity returns the project's sprint capacity preference
func (s *Server) HandleGetCapacity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	projectID, ok := s.authorizedProject(ctx, w, r)
	if !ok {
		return
	}

	history, err := s.completedPointsHistory(ctx, projectID)
	if err != nil {
		s.logger.Error("Failed to load velocity history", zap.Int64("project_id", projectID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch capacity", "internal_error")
		return
	}

	resp := CapacityResponse{
		Capacity:        planning.DefaultCapacityWith(history, s.config.DefaultCapacity),
		Source:          "derived",
		AverageVelocity: planning.AverageVelocity(history),
	}

	var stored *int
	err = s.db.QueryRowContext(ctx,
		`SELECT capacity FROM project_settings WHERE project_id = ?`, projectID,
	).Scan(&stored)
	if err == nil && stored != nil {
		resp.Capacity = *stored
		resp.Source = "stored"
	}

	respondJSON(w, http.StatusOK, resp)
}

// HandleSetCapacity stores an explicit capacity preference
func (s *Server) HandleSetCapacity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	projectID, ok := s.authorizedProject(ctx, w, r)
	if !ok {
		return
	}

	var req SetCapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}
	if err := planning.ValidateCapacity(req.Capacity); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_input")
		return
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO project_settings (project_id, capacity) VALUES (?, ?)
		 ON CONFLICT (project_id) DO UPDATE SET capacity = excluded.capacity, updated_at = CURRENT_TIMESTAMP`,
		projectID, req.Capacity,
	)
	if err != nil {
		s.logger.Error("Failed to store capacity", zap.Int64("project_id", projectID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to store capacity", "internal_error")
		return
	}

	history, err := s.completedPointsHistory(ctx, projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch capacity", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, CapacityResponse{
		Capacity:        req.Capacity,
		Source:          "stored",
		AverageVelocity: planning.AverageVelocity(history),
	})
}

// completedPointsHistory returns completed_points of the project's completed
// sprints, oldest first
func (s *Server) completedPointsHistory(ctx context.Context, projectID int64) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(completed_points, 0) FROM sprints
		 WHERE project_id = ? AND status = 'completed' ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]int, 0)
	for rows.Next() {
		var points int
		if err := rows.Scan(&points); err != nil {
			return nil, err
		}
		history = append(history, points)
	}
	return history, rows.Err()
}

// authorizedProject parses the project from the URL and checks membership
func (s *Server) authorizedProject(ctx context.Context, w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return 0, false
	}

	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid project ID", "invalid_input")
		return 0, false
	}

	hasAccess, err := s.checkProjectAccess(ctx, userID, projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to verify project access", "internal_error")
		return 0, false
	}
	if !hasAccess {
		respondError(w, http.StatusForbidden, "access denied", "forbidden")
		return 0, false
	}

	return projectID, true
}
