package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-console/internal/api/dto"
	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/service"
)

// NotificationsHandler serves in-app notifications, admin fan-out and the
// per-user notice feed.
type NotificationsHandler struct {
	notifications *service.NotificationService
	notices       *service.NoticeService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService, notices *service.NoticeService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications, notices: notices}
}

// ListNotifications GET /api/notifications.
func (h *NotificationsHandler) ListNotifications(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	page, err := h.notifications.List(c.UserContext(), sess, parseInt(c.Query("page"), 1), parseInt(c.Query("limit"), 20))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": page.Items, "meta": dto.MetaOf(page)})
}

// MarkRead PATCH /api/notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarkAllRead PATCH /api/notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkAllRead(c.UserContext(), sess); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Broadcast POST /api/admin/notifications/broadcast.
func (h *NotificationsHandler) Broadcast(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req apiclient.BroadcastRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.notifications.Broadcast(c.UserContext(), sess, req); err != nil {
		return err
	}
	return data(c, http.StatusAccepted, req)
}

// SendToUsers POST /api/admin/notifications/send-to-users.
func (h *NotificationsHandler) SendToUsers(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req apiclient.SendToUsersRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.notifications.SendToUsers(c.UserContext(), sess, req); err != nil {
		return err
	}
	return data(c, http.StatusAccepted, req)
}

// Notices GET /api/notices. Pending notices are removed from the feed
// unless peek=true.
func (h *NotificationsHandler) Notices(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if c.QueryBool("peek") {
		return data(c, http.StatusOK, h.notices.Peek(sess.UserID))
	}
	return data(c, http.StatusOK, h.notices.Drain(sess.UserID))
}
