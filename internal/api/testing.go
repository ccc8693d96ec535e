package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap/zaptest"

	"golang.org/x/crypto/bcrypt"

	"sprintdeck/internal/auth"
	"sprintdeck/internal/config"
	"sprintdeck/internal/db"
)

// TestServer holds test server dependencies
type TestServer struct {
	*Server
	DB *db.DB
}

// NewTestServer creates a new test server with in-memory SQLite database
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	// Use fast bcrypt for tests (MinCost=4 vs production Cost=12)
	auth.SetBcryptCost(bcrypt.MinCost)

	logger := zaptest.NewLogger(t)

	cfg := db.Config{
		Driver:         "sqlite",
		DBPath:         ":memory:",
		MigrationsPath: "./../../internal/db/migrations",
	}

	database, err := db.New(cfg, logger)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	testCfg := &config.Config{
		JWTSecret:       "test-secret-key",
		JWTExpiryHours:  24,
		DefaultCapacity: 40,
	}

	server := NewServer(database, testCfg, logger)
	server.SetAuthService(auth.NewService(testCfg.JWTSecret, testCfg.JWTExpiry()))

	return &TestServer{
		Server: server,
		DB:     database,
	}
}

// Close cleans up test server resources
func (ts *TestServer) Close() {
	if ts.DB != nil {
		ts.DB.Close()
	}
}

// CreateTestUser creates a user for testing and returns the user ID
func (ts *TestServer) CreateTestUser(t *testing.T, email, password string) int64 {
	t.Helper()

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var userID int64
	err = ts.DB.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES (?, ?) RETURNING id`,
		email, hashedPassword,
	).Scan(&userID)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID
}

// GenerateTestToken generates a JWT token for testing
func (ts *TestServer) GenerateTestToken(t *testing.T, userID int64, email string) string {
	t.Helper()

	token, err := auth.GenerateToken(userID, email, ts.config.JWTSecret, ts.config.JWTExpiry())
	if err != nil {
		t.Fatalf("Failed to generate test token: %v", err)
	}

	return token
}

// CreateTestProject creates a project and adds the owner as a member
func (ts *TestServer) CreateTestProject(t *testing.T, ownerID int64, name string) int64 {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slug := fmt.Sprintf("%s-%d", slugify(name), time.Now().UnixNano())

	var projectID int64
	err := ts.DB.QueryRowContext(ctx,
		`INSERT INTO projects (owner_id, slug, name, description) VALUES (?, ?, ?, ?) RETURNING id`,
		ownerID, slug, name, "Test project description",
	).Scan(&projectID)
	if err != nil {
		t.Fatalf("Failed to create test project: %v", err)
	}

	_, err = ts.DB.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, role, granted_by) VALUES (?, ?, 'owner', ?)`,
		projectID, ownerID, ownerID,
	)
	if err != nil {
		t.Fatalf("Failed to add project member: %v", err)
	}

	return projectID
}

// CreateTestTicket creates a ticket and returns its ID
func (ts *TestServer) CreateTestTicket(t *testing.T, projectID, createdBy int64, title, status string, points *int) int64 {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var nextNumber int64
	err := ts.DB.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 0) + 1 FROM tickets WHERE project_id = ?`, projectID,
	).Scan(&nextNumber)
	if err != nil {
		t.Fatalf("Failed to get next ticket number: %v", err)
	}

	var ticketID int64
	err = ts.DB.QueryRowContext(ctx,
		`INSERT INTO tickets (project_id, number, title, status, story_points, created_by)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		projectID, nextNumber, title, status, points, createdBy,
	).Scan(&ticketID)
	if err != nil {
		t.Fatalf("Failed to create test ticket: %v", err)
	}

	return ticketID
}

// CreateTestSprint creates a sprint in the given state and returns its ID
func (ts *TestServer) CreateTestSprint(t *testing.T, projectID int64, name, status string) int64 {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var sprintID int64
	err := ts.DB.QueryRowContext(ctx,
		`INSERT INTO sprints (project_id, name, status) VALUES (?, ?, ?) RETURNING id`,
		projectID, name, status,
	).Scan(&sprintID)
	if err != nil {
		t.Fatalf("Failed to create test sprint: %v", err)
	}

	return sprintID
}

// AssignTicketToSprint puts a ticket into a sprint directly
func (ts *TestServer) AssignTicketToSprint(t *testing.T, ticketID, sprintID int64) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := ts.DB.ExecContext(ctx,
		`UPDATE tickets SET sprint_id = ? WHERE id = ?`, sprintID, ticketID,
	)
	if err != nil {
		t.Fatalf("Failed to assign ticket to sprint: %v", err)
	}
}

// AddProjectMember adds a user as a project member with the specified role
func (ts *TestServer) AddProjectMember(t *testing.T, projectID, userID, grantedBy int64, role string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := ts.DB.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, role, granted_by) VALUES (?, ?, ?, ?)`,
		projectID, userID, role, grantedBy,
	)
	if err != nil {
		t.Fatalf("Failed to add project member: %v", err)
	}
}

// MakeRequest is a helper to make HTTP requests in tests
func MakeRequest(t *testing.T, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	var reqBody []byte
	var err error
	if body != nil {
		reqBody, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return httptest.NewRecorder(), req
}

// MakeAuthRequest creates an HTTP request with auth context (UserIDKey) and optional chi URL params
func (ts *TestServer) MakeAuthRequest(t *testing.T, method, path string, body interface{}, userID int64, urlParams map[string]string) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	rec, req := MakeRequest(t, method, path, body, nil)

	ctx := context.WithValue(req.Context(), UserIDKey, userID)

	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range urlParams {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	req = req.WithContext(ctx)
	return rec, req
}

// DecodeJSON decodes a JSON response into the provided interface
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// AssertStatusCode checks if the response status code matches expected
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()

	if got != want {
		t.Errorf("Status code mismatch: got %d, want %d", got, want)
	}
}

// AssertError checks if the error response matches expected error and code
func AssertError(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantErrorContains, wantCodeContains string) {
	t.Helper()

	AssertStatusCode(t, rec.Code, wantCode)

	var errResp ErrorResponse
	DecodeJSON(t, rec, &errResp)

	if wantErrorContains != "" && !contains(errResp.Error, wantErrorContains) {
		t.Errorf("Error message %q does not contain %q", errResp.Error, wantErrorContains)
	}

	if wantCodeContains != "" && !contains(errResp.Code, wantCodeContains) {
		t.Errorf("Error code %q does not contain %q", errResp.Code, wantCodeContains)
	}
}

// contains checks if a string contains a substring
func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || indexOf(s, substr) >= 0)
}

// indexOf returns the index of the first occurrence of substr in s, or -1
func indexOf(s, substr string) int {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
