package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Project is the workspace context every board, sprint, and capacity
// preference is scoped to
type Project struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a URL-safe slug from a project name
func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// HandleListProjects returns all projects the user is a member of
func (s *Server) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.owner_id, p.slug, p.name, p.description, p.created_at, p.updated_at
		 FROM projects p
		 JOIN project_members pm ON pm.project_id = p.id
		 WHERE pm.user_id = ?
		 ORDER BY p.created_at DESC`,
		userID,
	)
	if err != nil {
		s.logger.Error("Failed to fetch projects", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch projects", "internal_error")
		return
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		var p Project
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Slug, &p.Name, &desc, &p.CreatedAt, &p.UpdatedAt); err != nil {
			s.logger.Error("Failed to scan project", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to fetch projects", "internal_error")
			return
		}
		p.Description = desc.String
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch projects", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, projects)
}

// HandleCreateProject creates a new project with the caller as owner
func (s *Server) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "project name is required", "invalid_input")
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}
	if slug == "" {
		respondError(w, http.StatusBadRequest, "project slug is required", "invalid_input")
		return
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create project", "internal_error")
		return
	}
	defer tx.Rollback()

	var p Project
	var desc sql.NullString
	err = tx.QueryRowContext(ctx,
		`INSERT INTO projects (owner_id, slug, name, description) VALUES (?, ?, ?, ?)
		 RETURNING id, owner_id, slug, name, description, created_at, updated_at`,
		userID, slug, req.Name, nullable(req.Description),
	).Scan(&p.ID, &p.OwnerID, &p.Slug, &p.Name, &desc, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			respondError(w, http.StatusConflict, "a project with this slug already exists", "conflict")
			return
		}
		s.logger.Error("Failed to insert project", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create project", "internal_error")
		return
	}
	p.Description = desc.String

	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, role, granted_by) VALUES (?, ?, 'owner', ?)`,
		p.ID, userID, userID,
	)
	if err != nil {
		s.logger.Error("Failed to insert project member", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create project", "internal_error")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create project", "internal_error")
		return
	}

	respondJSON(w, http.StatusCreated, p)
}

// HandleGetProject returns a single project
func (s *Server) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	projectID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
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

	var p Project
	var desc sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, slug, name, description, created_at, updated_at FROM projects WHERE id = ?`,
		projectID,
	).Scan(&p.ID, &p.OwnerID, &p.Slug, &p.Name, &desc, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "project not found", "not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to fetch project", "internal_error")
		return
	}
	p.Description = desc.String

	respondJSON(w, http.StatusOK, p)
}
