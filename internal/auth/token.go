package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// TokenManager verifies the session tokens issued by the helpdesk backend.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims describes the JWT payload. The subject is the user id.
type Claims struct {
	Name  string          `json:"name,omitempty"`
	Email string          `json:"email,omitempty"`
	Role  domain.UserRole `json:"role"`
	jwt.RegisteredClaims
}

var ErrMissingSubject = errors.New("token has no subject")

// GenerateToken signs a token for sess. The backend issues real sessions;
// this is used by local tooling and tests.
func (tm *TokenManager) GenerateToken(sess domain.Session) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Name:  sess.Name,
		Email: sess.Email,
		Role:  sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ParseSession verifies tokenStr and returns the session it describes.
func (tm *TokenManager) ParseSession(tokenStr string) (*domain.Session, error) {
	claims, err := tm.ParseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	return claims.session(tokenStr)
}

// SessionFromTokenUnverified decodes a token without checking its
// signature. The CLI uses it to show who it is acting as; the backend
// still verifies every call.
func SessionFromTokenUnverified(tokenStr string) (*domain.Session, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(tokenStr), claims); err != nil {
		return nil, err
	}
	return claims.session(strings.TrimSpace(tokenStr))
}

func (c *Claims) session(token string) (*domain.Session, error) {
	if c.Subject == "" {
		return nil, ErrMissingSubject
	}
	role := c.Role
	if role == "" {
		role = domain.UserRoleUser
	}
	return &domain.Session{
		UserID: c.Subject,
		Name:   c.Name,
		Email:  c.Email,
		Role:   role,
		Token:  token,
	}, nil
}
