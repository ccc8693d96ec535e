package api

import (
	"net/http"

	"go.uber.org/zap"

	"sprintdeck/internal/version"
)

// HandleVersion reports the running build and the applied schema revision.
func (s *Server) HandleVersion(w http.ResponseWriter, r *http.Request) {
	schemaRev, err := s.db.GetMigrationVersion(r.Context())
	if err != nil {
		s.logger.Warn("Failed to read schema revision", zap.Error(err))
		schemaRev = 0
	}

	respondJSON(w, http.StatusOK, version.Get(s.config.Env, schemaRev))
}
