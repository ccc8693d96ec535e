package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GlobalSearchRequest represents a global search request
type GlobalSearchRequest struct {
	Query     string   `json:"query"`
	ProjectID *int64   `json:"project_id,omitempty"`
	Types     []string `json:"types,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// SearchTicketResult represents a ticket in global search results
type SearchTicketResult struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
	Number      int64  `json:"number"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Status      string `json:"status"`
}

// SearchEpicResult represents an epic in global search results
type SearchEpicResult struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
	Name        string `json:"name"`
	Snippet     string `json:"snippet"`
}

// GlobalSearchResponse represents the global search response
type GlobalSearchResponse struct {
	Tickets []SearchTicketResult `json:"tickets"`
	Epics   []SearchEpicResult   `json:"epics"`
}

// HandleGlobalSearch performs search across tickets and epics
func (s *Server) HandleGlobalSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := GetUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	var req GlobalSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "invalid_input")
		return
	}
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "query parameter is required", "invalid_input")
		return
	}

	if req.Limit == 0 {
		req.Limit = 10
	}
	if req.Limit > 50 {
		req.Limit = 50
	}

	searchTickets := true
	searchEpics := true
	if len(req.Types) > 0 {
		searchTickets = false
		searchEpics = false
		for _, t := range req.Types {
			switch t {
			case "tickets":
				searchTickets = true
			case "epics":
				searchEpics = true
			}
		}
	}

	s.logger.Debug("Global search request",
		zap.String("query", req.Query),
		zap.Int64("user_id", userID),
	)

	resp := GlobalSearchResponse{
		Tickets: []SearchTicketResult{},
		Epics:   []SearchEpicResult{},
	}

	pattern := "%" + escapeLike(req.Query) + "%"
	projectFilter := ""
	baseArgs := []interface{}{userID, pattern, pattern}
	if req.ProjectID != nil {
		projectFilter = " AND p.id = ?"
		baseArgs = append(baseArgs, *req.ProjectID)
	}

	if searchTickets {
		args := append(append([]interface{}{}, baseArgs...), req.Limit)
		rows, err := s.db.QueryContext(ctx,
			`SELECT t.id, t.project_id, p.name, t.number, t.title, COALESCE(t.description, ''), t.status
			 FROM tickets t
			 JOIN projects p ON p.id = t.project_id
			 JOIN project_members pm ON pm.project_id = p.id AND pm.user_id = ?
			 WHERE (t.title LIKE ? ESCAPE '\' OR t.description LIKE ? ESCAPE '\')`+projectFilter+`
			 ORDER BY t.updated_at DESC LIMIT ?`,
			args...,
		)
		if err != nil {
			s.logger.Error("Failed to search tickets", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to search", "internal_error")
			return
		}
		for rows.Next() {
			var res SearchTicketResult
			var description string
			if err := rows.Scan(&res.ID, &res.ProjectID, &res.ProjectName, &res.Number,
				&res.Title, &description, &res.Status); err != nil {
				rows.Close()
				respondError(w, http.StatusInternalServerError, "failed to search", "internal_error")
				return
			}
			res.Snippet = makeSnippet(description, req.Query)
			resp.Tickets = append(resp.Tickets, res)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to search", "internal_error")
			return
		}
	}

	if searchEpics {
		args := append(append([]interface{}{}, baseArgs...), req.Limit)
		rows, err := s.db.QueryContext(ctx,
			`SELECT e.id, e.project_id, p.name, e.name, COALESCE(e.description, '')
			 FROM epics e
			 JOIN projects p ON p.id = e.project_id
			 JOIN project_members pm ON pm.project_id = p.id AND pm.user_id = ?
			 WHERE (e.name LIKE ? ESCAPE '\' OR e.description LIKE ? ESCAPE '\')`+projectFilter+`
			 ORDER BY e.updated_at DESC LIMIT ?`,
			args...,
		)
		if err != nil {
			s.logger.Error("Failed to search epics", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to search", "internal_error")
			return
		}
		for rows.Next() {
			var res SearchEpicResult
			var description string
			if err := rows.Scan(&res.ID, &res.ProjectID, &res.ProjectName, &res.Name, &description); err != nil {
				rows.Close()
				respondError(w, http.StatusInternalServerError, "failed to search", "internal_error")
				return
			}
			res.Snippet = makeSnippet(description, req.Query)
			resp.Epics = append(resp.Epics, res)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to search", "internal_error")
			return
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// escapeLike escapes LIKE metacharacters in user input
func escapeLike(q string) string {
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, `%`, `\%`)
	q = strings.ReplaceAll(q, `_`, `\_`)
	return q
}

// makeSnippet returns a short window of text around the first match
func makeSnippet(text, query string) string {
	const window = 60
	if text == "" {
		return ""
	}
	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if idx < 0 {
		if len(text) > window*2 {
			return text[:window*2] + "..."
		}
		return text
	}

	start := idx - window
	if start < 0 {
		start = 0
	}
	end := idx + len(query) + window
	if end > len(text) {
		end = len(text)
	}

	snippet := text[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet += "..."
	}
	return snippet
}
