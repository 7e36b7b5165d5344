package handlers

import (
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-console/internal/auth"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/search"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

func session(c *fiber.Ctx) (*domain.Session, error) {
	sess, ok := auth.SessionFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("session required")
	}
	return sess, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func queryValues(c *fiber.Ctx) url.Values {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return url.Values{}
	}
	return values
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// parseDate reads a YYYY-MM-DD query parameter. Empty yields the zero time.
func parseDate(c *fiber.Ctx, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(search.DateLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("invalid "+key, map[string]any{
			"fields": map[string]any{key: "date=" + search.DateLayout},
		})
	}
	return t, nil
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}
