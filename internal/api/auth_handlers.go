package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"sprintdeck/internal/auth"
)

// SignupRequest represents a signup request
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// AuthResponse is returned on successful signup or login
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// User represents an account
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleSignup creates a new user account
func (s *Server) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "a valid email is required", "invalid_input")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "password must be at least 8 characters", "invalid_input")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create account", "internal_error")
		return
	}

	var userID int64
	var createdAt time.Time
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?) RETURNING id, created_at`,
		req.Email, hash, nullable(req.Name),
	).Scan(&userID, &createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			respondError(w, http.StatusConflict, "an account with this email already exists", "conflict")
			return
		}
		s.logger.Error("Failed to insert user", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create account", "internal_error")
		return
	}

	token, err := s.auth.GenerateToken(userID, req.Email)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session", "internal_error")
		return
	}

	respondJSON(w, http.StatusCreated, AuthResponse{
		Token: token,
		User:  User{ID: userID, Email: req.Email, Name: req.Name, CreatedAt: createdAt},
	})
}

// HandleLogin authenticates a user and returns a JWT
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var userID int64
	var passwordHash string
	var name sql.NullString
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash, name, created_at FROM users WHERE email = ?`,
		req.Email,
	).Scan(&userID, &passwordHash, &name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "invalid email or password", "unauthorized")
			return
		}
		s.logger.Error("Failed to query user", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to log in", "internal_error")
		return
	}

	if err := auth.CheckPassword(req.Password, passwordHash); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid email or password", "unauthorized")
		return
	}

	// When 2FA is enabled the login requires a valid TOTP code
	secret, enabled, err := s.getTwoFA(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to check 2FA status", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to log in", "internal_error")
		return
	}
	if enabled {
		if req.TOTPCode == "" {
			respondError(w, http.StatusUnauthorized, "2FA code required", "totp_required")
			return
		}
		if !auth.ValidateTOTPCode(req.TOTPCode, secret) {
			respondError(w, http.StatusUnauthorized, "invalid 2FA code", "totp_invalid")
			return
		}
	}

	token, err := s.auth.GenerateToken(userID, req.Email)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{
		Token: token,
		User:  User{ID: userID, Email: req.Email, Name: name.String, CreatedAt: createdAt},
	})
}

// HandleMe returns the authenticated user's profile
func (s *Server) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	var u User
	var name sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = ?`,
		userID,
	).Scan(&u.ID, &u.Email, &name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "user not found", "not_found")
			return
		}
		s.logger.Error("Failed to query user", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch profile", "internal_error")
		return
	}
	u.Name = name.String

	respondJSON(w, http.StatusOK, u)
}

// nullable converts an empty string to a NULL-able value for inserts
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
