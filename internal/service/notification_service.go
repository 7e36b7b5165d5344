package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/query"
)

// NotificationService reads the session user's in-app notifications and
// sends admin notifications.
type NotificationService struct {
	deps Dependencies
}

// NewNotificationService creates the service.
func NewNotificationService(deps Dependencies) *NotificationService {
	return &NotificationService{deps: deps.withDefaults()}
}

// List returns one page of notifications.
func (s *NotificationService) List(ctx context.Context, sess *domain.Session, page, limit int) (domain.Page[domain.Notification], error) {
	if err := requireSession(sess); err != nil {
		return domain.Page[domain.Notification]{}, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}
	return query.Fetch(ctx, s.deps.Cache, query.NotificationsKey(sess.UserID, params), func(ctx context.Context) (domain.Page[domain.Notification], error) {
		return s.deps.API.ListNotifications(ctx, sess, params)
	})
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, sess *domain.Session, id string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := s.deps.API.MarkNotificationRead(ctx, sess, id); err != nil {
		return err
	}
	invalidate(ctx, s.deps, query.NotificationsPrefix(sess.UserID))
	return nil
}

// MarkAllRead flags every notification as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, sess *domain.Session) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := s.deps.API.MarkAllNotificationsRead(ctx, sess); err != nil {
		return err
	}
	invalidate(ctx, s.deps, query.NotificationsPrefix(sess.UserID))
	return nil
}

// Broadcast notifies every user. Admin only.
func (s *NotificationService) Broadcast(ctx context.Context, sess *domain.Session, input apiclient.BroadcastRequest) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Message = strings.TrimSpace(input.Message)
	if err := validateInput(input); err != nil {
		return err
	}
	if err := s.deps.API.Broadcast(ctx, sess, input); err != nil {
		s.deps.Notices.Failure(ctx, sess, "broadcast", "", err)
		return err
	}
	invalidate(ctx, s.deps, query.AllNotificationsPrefix)
	s.deps.Notices.Success(ctx, sess, "broadcast", "", "Broadcast sent")
	return nil
}

// SendToUsers notifies the listed users. Admin only.
func (s *NotificationService) SendToUsers(ctx context.Context, sess *domain.Session, input apiclient.SendToUsersRequest) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Message = strings.TrimSpace(input.Message)
	if err := validateInput(input); err != nil {
		return err
	}
	if err := s.deps.API.SendToUsers(ctx, sess, input); err != nil {
		s.deps.Notices.Failure(ctx, sess, "send_to_users", "", err)
		return err
	}
	prefixes := make([]string, len(input.UserIDs))
	for i, id := range input.UserIDs {
		prefixes[i] = query.NotificationsPrefix(id)
	}
	invalidate(ctx, s.deps, prefixes...)
	s.deps.Notices.Success(ctx, sess, "send_to_users", "", "Notification sent")
	return nil
}
