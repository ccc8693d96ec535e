package auth

import "time"

// Service binds the JWT signing secret and token lifetime so handlers can
// mint and check tokens without threading config through every call.
type Service struct {
	secret string
	ttl    time.Duration
}

// NewService returns a Service using the given signing secret and token TTL.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: secret, ttl: ttl}
}

// GenerateToken mints a JWT for the user with the service's TTL.
func (s *Service) GenerateToken(userID int64, email string) (string, error) {
	return GenerateToken(userID, email, s.secret, s.ttl)
}

// ValidateToken parses and verifies a JWT, returning its claims.
func (s *Service) ValidateToken(token string) (*Claims, error) {
	return ValidateToken(token, s.secret)
}
