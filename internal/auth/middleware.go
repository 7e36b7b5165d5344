package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-console/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

const sessionKey = "auth_session"

// SessionMiddleware validates bearer tokens and stores the session on the
// request.
type SessionMiddleware struct {
	tokens *TokenManager
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	sess, err := m.tokens.ParseSession(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(sessionKey, sess)
	return c.Next()
}

// SessionFromContext retrieves the authenticated session.
func SessionFromContext(c *fiber.Ctx) (*domain.Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	sess, ok := val.(*domain.Session)
	return sess, ok
}
