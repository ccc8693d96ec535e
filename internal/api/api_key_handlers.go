package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sprintdeck/internal/db"
)

// CreateAPIKeyRequest represents a request to mint an API key
type CreateAPIKeyRequest struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// HandleListAPIKeys returns the caller's API keys (without secrets)
func (s *Server) HandleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	keys, err := s.db.GetAPIKeysByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to fetch API keys", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch API keys", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, keys)
}

// HandleCreateAPIKey mints a new API key. The plaintext key appears only in
// this response.
func (s *Server) HandleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	var req CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "key name is required", "invalid_input")
		return
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		respondError(w, http.StatusBadRequest, "expiry must be in the future", "invalid_input")
		return
	}

	key, err := s.db.CreateAPIKey(ctx, userID, req.Name, req.ExpiresAt)
	if err != nil {
		s.logger.Error("Failed to create API key", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create API key", "internal_error")
		return
	}

	respondJSON(w, http.StatusCreated, key)
}

// HandleDeleteAPIKey revokes one of the caller's API keys
func (s *Server) HandleDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	keyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid key ID", "invalid_input")
		return
	}

	if err := s.db.DeleteAPIKey(ctx, keyID, userID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusNotFound, "API key not found", "not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete API key", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "API key deleted successfully"})
}
