package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// BroadcastRequest is the body of the admin broadcast endpoint.
type BroadcastRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// SendToUsersRequest targets a notification at specific users.
type SendToUsersRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,dive,required"`
	Title   string   `json:"title" validate:"required,max=200"`
	Message string   `json:"message" validate:"required,max=5000"`
}

// ListUsers returns one page of users.
func (c *Client) ListUsers(ctx context.Context, sess *domain.Session, query url.Values) (domain.Page[domain.User], error) {
	env, err := get[[]domain.User](ctx, c, sess, at("/v1/users"), query)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	return toPage(env, intParam(query, "page", 1), intParam(query, "limit", 0)), nil
}

// GetUser fetches one user.
func (c *Client) GetUser(ctx context.Context, sess *domain.Session, id string) (*domain.User, error) {
	env, err := get[*domain.User](ctx, c, sess, at("/v1/users/{id}", id), nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// DeleteUser removes a user account.
func (c *Client) DeleteUser(ctx context.Context, sess *domain.Session, id string) error {
	_, err := c.send(ctx, sess, call{method: http.MethodDelete, to: at("/v1/users/{id}", id)})
	return err
}

// GetPreferences returns a user's notification opt-in matrix.
func (c *Client) GetPreferences(ctx context.Context, sess *domain.Session, userID string) (domain.NotificationPreferences, error) {
	env, err := get[domain.NotificationPreferences](ctx, c, sess, at("/v1/users/{id}/notification-preferences", userID), nil)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return domain.NotificationPreferences{}, nil
	}
	return env.Data, nil
}

// UpdatePreferences replaces rows of the opt-in matrix.
func (c *Client) UpdatePreferences(ctx context.Context, sess *domain.Session, userID string, prefs domain.NotificationPreferences) (domain.NotificationPreferences, error) {
	return write[domain.NotificationPreferences](ctx, c, sess, http.MethodPatch, at("/v1/users/{id}/notification-preferences", userID), prefs)
}

// ListNotifications returns one page of the session user's notifications.
func (c *Client) ListNotifications(ctx context.Context, sess *domain.Session, query url.Values) (domain.Page[domain.Notification], error) {
	env, err := get[[]domain.Notification](ctx, c, sess, at("/v1/notifications"), query)
	if err != nil {
		return domain.Page[domain.Notification]{}, err
	}
	return toPage(env, intParam(query, "page", 1), intParam(query, "limit", 0)), nil
}

// MarkNotificationRead flags one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, sess *domain.Session, id string) error {
	_, err := c.send(ctx, sess, call{method: http.MethodPatch, to: at("/v1/notifications/{id}/read", id)})
	return err
}

// MarkAllNotificationsRead flags every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, sess *domain.Session) error {
	_, err := c.send(ctx, sess, call{method: http.MethodPatch, to: at("/v1/notifications/read-all")})
	return err
}

// Broadcast sends a notification to every user.
func (c *Client) Broadcast(ctx context.Context, sess *domain.Session, req BroadcastRequest) error {
	_, err := c.send(ctx, sess, call{method: http.MethodPost, to: at("/v1/admin/notifications/broadcast"), body: req})
	return err
}

// SendToUsers sends a notification to the listed users.
func (c *Client) SendToUsers(ctx context.Context, sess *domain.Session, req SendToUsersRequest) error {
	_, err := c.send(ctx, sess, call{method: http.MethodPost, to: at("/v1/admin/notifications/send-to-users"), body: req})
	return err
}
