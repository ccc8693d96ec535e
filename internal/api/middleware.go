package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"sprintdeck/internal/auth"
)

// contextKey keeps request-scoped values from colliding with other packages.
type contextKey string

const (
	// UserIDKey holds the authenticated user's ID in the request context.
	UserIDKey contextKey = "user_id"
	// UserEmailKey holds the authenticated user's email in the request context.
	UserEmailKey contextKey = "user_email"
)

// JWTAuth authenticates requests via the Authorization header. Two schemes
// are accepted: "Bearer <jwt>" and "ApiKey <key>".
func (s *Server) JWTAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, credential, ok := parseAuthHeader(r.Header.Get("Authorization"))
		if !ok {
			respondError(w, http.StatusUnauthorized, "missing or malformed authorization header", "unauthorized")
			return
		}

		userID, email, err := s.authenticate(r.Context(), scheme, credential)
		if err != nil {
			s.logger.Debug("Authentication failed",
				zap.String("scheme", scheme),
				zap.Error(err))
			respondError(w, http.StatusUnauthorized, "invalid or expired credentials", "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, UserEmailKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func parseAuthHeader(header string) (scheme, credential string, ok bool) {
	if header == "" {
		return "", "", false
	}
	scheme, credential, ok = strings.Cut(header, " ")
	if !ok || credential == "" {
		return "", "", false
	}
	return scheme, credential, true
}

// authenticate resolves a credential to a user under the given scheme.
func (s *Server) authenticate(ctx context.Context, scheme, credential string) (int64, string, error) {
	switch scheme {
	case "Bearer":
		claims, err := auth.ValidateToken(credential, s.config.JWTSecret)
		if err != nil {
			return 0, "", err
		}
		return claims.UserID, claims.Email, nil
	case "ApiKey":
		return s.db.GetUserByAPIKey(ctx, credential)
	default:
		return 0, "", errors.New("unsupported authorization scheme")
	}
}

// GetUserID extracts the authenticated user's ID from the request context.
func GetUserID(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(UserIDKey).(int64)
	return userID, ok
}

// GetUserEmail extracts the authenticated user's email from the request context.
func GetUserEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(UserEmailKey).(string)
	return email, ok
}

// Logger emits one structured log line per request.
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// ipLimiter rate-limits by client IP using per-IP token buckets.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cap     float64
	refill  float64 // tokens per second
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newIPLimiter(requestsPerMinute int) *ipLimiter {
	return &ipLimiter{
		buckets: make(map[string]*bucket),
		cap:     float64(requestsPerMinute),
		refill:  float64(requestsPerMinute) / 60.0,
	}
}

// allow refills the caller's bucket for elapsed time, then spends one token
// if available.
func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{tokens: l.cap, last: now}
		l.buckets[ip] = b
	}

	b.tokens += now.Sub(b.last).Seconds() * l.refill
	if b.tokens > l.cap {
		b.tokens = l.cap
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// clientIP prefers proxy headers over the raw remote address.
func clientIP(r *http.Request) string {
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(ip)
	}
	return r.RemoteAddr
}

// RateLimitMiddleware rejects requests beyond requestsPerMinute per client IP.
func RateLimitMiddleware(requestsPerMinute int) func(http.Handler) http.Handler {
	limiter := newIPLimiter(requestsPerMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(clientIP(r)) {
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded", "rate_limit_exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
