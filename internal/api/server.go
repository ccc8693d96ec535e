package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sprintdeck/internal/auth"
	"sprintdeck/internal/config"
	"sprintdeck/internal/db"
	"sprintdeck/internal/events"
)

// Server holds the application dependencies
type Server struct {
	db     *db.DB
	config *config.Config
	logger *zap.Logger
	auth   *auth.Service
	hub    *events.Hub
}

// NewServer creates a new API server
func NewServer(database *db.DB, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		db:     database,
		config: cfg,
		logger: logger,
	}
}

// SetAuthService sets the auth service
func (s *Server) SetAuthService(authService *auth.Service) {
	s.auth = authService
}

// SetEventHub sets the WebSocket event hub
func (s *Server) SetEventHub(hub *events.Hub) {
	s.hub = hub
}

// publish broadcasts an event to a project's room when a hub is attached.
// Handlers call this after their database write commits.
func (s *Server) publish(projectID int64, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(fmt.Sprintf("project:%d", projectID), eventType, payload)
}

// checkProjectAccess verifies a user is a member of a project
func (s *Server) checkProjectAccess(ctx context.Context, userID, projectID int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check project access: %w", err)
	}
	return true, nil
}
