package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-console/internal/api/dto"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/service"
)

// UsersHandler serves user administration and preference endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// ListUsers GET /api/users?search=&page=&limit=.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	page, err := h.users.List(c.UserContext(), sess, service.UserQuery{
		Search: c.Query("search"),
		Page:   parseInt(c.Query("page"), 1),
		Limit:  parseInt(c.Query("limit"), 20),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": page.Items, "meta": dto.MetaOf(page)})
}

// GetUser GET /api/users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, user)
}

// DeleteUser DELETE /api/users/:id.
func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetPreferences GET /api/users/:id/notification-preferences.
func (h *UsersHandler) GetPreferences(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	prefs, err := h.users.Preferences(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, prefs)
}

// UpdatePreferences PATCH /api/users/:id/notification-preferences. The
// body is the preference matrix keyed by event type.
func (h *UsersHandler) UpdatePreferences(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var prefs domain.NotificationPreferences
	if err := parseBody(c, &prefs); err != nil {
		return err
	}
	updated, err := h.users.UpdatePreferences(c.UserContext(), sess, c.Params("id"), prefs)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, updated)
}
