package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"sprintdeck/internal/auth"
)

// TwoFAStatusResponse reports whether 2FA is enabled for the caller
type TwoFAStatusResponse struct {
	Enabled bool `json:"enabled"`
}

// TwoFACodeRequest carries a TOTP code for enabling or disabling 2FA
type TwoFACodeRequest struct {
	Code string `json:"code"`
}

// getTwoFA returns the user's TOTP secret and whether 2FA is active. A user
// with no row has 2FA off.
func (s *Server) getTwoFA(ctx context.Context, userID int64) (string, bool, error) {
	var secret string
	var enabled bool
	err := s.db.QueryRowContext(ctx,
		`SELECT secret, enabled FROM twofa_secrets WHERE user_id = ?`, userID,
	).Scan(&secret, &enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return secret, enabled, nil
}

// HandleTwoFAStatus reports the caller's 2FA state
func (s *Server) HandleTwoFAStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	_, enabled, err := s.getTwoFA(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to check 2FA status", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to check 2FA status", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, TwoFAStatusResponse{Enabled: enabled})
}

// HandleTwoFASetup generates a fresh TOTP secret and QR code. The secret is
// stored disabled until verified.
func (s *Server) HandleTwoFASetup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	email, _ := GetUserEmail(r)

	_, enabled, err := s.getTwoFA(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to set up 2FA", "internal_error")
		return
	}
	if enabled {
		respondError(w, http.StatusConflict, "2FA is already enabled", "totp_enabled")
		return
	}

	setup, err := auth.GenerateTOTPSecret("SprintDeck", email)
	if err != nil {
		s.logger.Error("Failed to generate TOTP secret", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to set up 2FA", "internal_error")
		return
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO twofa_secrets (user_id, secret, enabled) VALUES (?, ?, 0)
		 ON CONFLICT (user_id) DO UPDATE SET secret = excluded.secret, enabled = 0`,
		userID, setup.Secret,
	)
	if err != nil {
		s.logger.Error("Failed to store TOTP secret", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to set up 2FA", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, setup)
}

// HandleTwoFAEnable verifies the first code against the pending secret and
// turns 2FA on
func (s *Server) HandleTwoFAEnable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	var req TwoFACodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}

	secret, enabled, err := s.getTwoFA(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to enable 2FA", "internal_error")
		return
	}
	if secret == "" {
		respondError(w, http.StatusBadRequest, "2FA setup has not been started", "totp_not_setup")
		return
	}
	if enabled {
		respondError(w, http.StatusConflict, "2FA is already enabled", "totp_enabled")
		return
	}
	if !auth.ValidateTOTPCode(req.Code, secret) {
		respondError(w, http.StatusUnauthorized, "invalid 2FA code", "totp_invalid")
		return
	}

	_, err = s.db.ExecContext(ctx, `UPDATE twofa_secrets SET enabled = 1 WHERE user_id = ?`, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to enable 2FA", "internal_error")
		return
	}

	s.logger.Info("2FA enabled", zap.Int64("user_id", userID))
	respondJSON(w, http.StatusOK, TwoFAStatusResponse{Enabled: true})
}

// HandleTwoFADisable turns 2FA off after verifying a current code
func (s *Server) HandleTwoFADisable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	var req TwoFACodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}

	secret, enabled, err := s.getTwoFA(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to disable 2FA", "internal_error")
		return
	}
	if !enabled {
		respondError(w, http.StatusBadRequest, "2FA is not enabled", "totp_not_setup")
		return
	}
	if !auth.ValidateTOTPCode(req.Code, secret) {
		respondError(w, http.StatusUnauthorized, "invalid 2FA code", "totp_invalid")
		return
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM twofa_secrets WHERE user_id = ?`, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to disable 2FA", "internal_error")
		return
	}

	s.logger.Info("2FA disabled", zap.Int64("user_id", userID))
	respondJSON(w, http.StatusOK, TwoFAStatusResponse{Enabled: false})
}
