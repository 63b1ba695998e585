package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidToken is returned when a session token cannot be verified.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidHandle is returned when a token is requested for an empty handle.
	ErrInvalidHandle = errors.New("invalid handle")
)

// Service issues and verifies session tokens. It satisfies
// core.CallerResolver, so the hub can turn tokens into user ids.
type Service struct {
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(jwtConfig *JWTConfig) *Service {
	return &Service{jwtConfig: jwtConfig}
}

// IssueToken returns a signed session token for the user.
func (s *Service) IssueToken(userID int64, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" || userID <= 0 {
		return "", ErrInvalidHandle
	}

	token, err := GenerateToken(s.jwtConfig, userID, handle)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := ValidateToken(s.jwtConfig, tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// ResolveCaller returns the user id carried by a valid token.
func (s *Service) ResolveCaller(token string) (int64, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
