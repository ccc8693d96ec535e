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

	"sprintdeck/internal/events"
)

// Comment represents a ticket comment
type Comment struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	UserID    int64     `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommentRequest represents a request to add a comment
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// HandleListComments returns a ticket's comments, oldest first
func (s *Server) HandleListComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ticketID, _, ok := s.authorizedTicket(ctx, w, r)
	if !ok {
		return
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ticket_id, user_id, body, created_at
		 FROM ticket_comments WHERE ticket_id = ? ORDER BY created_at`,
		ticketID,
	)
	if err != nil {
		s.logger.Error("Failed to fetch comments", zap.Int64("ticket_id", ticketID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch comments", "internal_error")
		return
	}
	defer rows.Close()

	comments := make([]Comment, 0)
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to fetch comments", "internal_error")
			return
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch comments", "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, comments)
}

// HandleCreateComment adds a comment to a ticket
func (s *Server) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ticketID, projectID, ok := s.authorizedTicket(ctx, w, r)
	if !ok {
		return
	}
	userID, _ := GetUserID(r)

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}
	if req.Body == "" {
		respondError(w, http.StatusBadRequest, "comment body is required", "invalid_input")
		return
	}

	var comment Comment
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO ticket_comments (ticket_id, user_id, body) VALUES (?, ?, ?)
		 RETURNING id, ticket_id, user_id, body, created_at`,
		ticketID, userID, req.Body,
	).Scan(&comment.ID, &comment.TicketID, &comment.UserID, &comment.Body, &comment.CreatedAt)
	if err != nil {
		s.logger.Error("Failed to create comment", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create comment", "internal_error")
		return
	}

	s.publish(projectID, events.TypeCommentAdded, comment)
	respondJSON(w, http.StatusCreated, comment)
}

// HandleDeleteComment deletes a comment the caller wrote
func (s *Server) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid comment ID", "invalid_input")
		return
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM ticket_comments WHERE id = ? AND user_id = ?`,
		commentID, userID,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete comment", "internal_error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "comment not found", "not_found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Comment deleted successfully"})
}

// authorizedTicket resolves the ticket in the URL and checks access to its
// project. Returns (ticketID, projectID, ok).
func (s *Server) authorizedTicket(ctx context.Context, w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return 0, 0, false
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid ticket ID", "invalid_input")
		return 0, 0, false
	}

	projectID, err := s.ticketProject(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "ticket not found", "not_found")
			return 0, 0, false
		}
		respondError(w, http.StatusInternalServerError, "failed to fetch ticket", "internal_error")
		return 0, 0, false
	}

	hasAccess, err := s.checkProjectAccess(ctx, userID, projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to verify project access", "internal_error")
		return 0, 0, false
	}
	if !hasAccess {
		respondError(w, http.StatusForbidden, "access denied", "forbidden")
		return 0, 0, false
	}

	return ticketID, projectID, true
}
