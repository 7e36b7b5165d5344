package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// QueueRequest is the create/update body for queues.
type QueueRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

// CategoryRequest is the create/update body for categories.
type CategoryRequest struct {
	QueueID string `json:"queueId" validate:"required"`
	Name    string `json:"name" validate:"required,max=120"`
}

type queueUsersRequest struct {
	UserIDs []string `json:"userIds"`
}

// ListQueues returns every queue visible to the session.
func (c *Client) ListQueues(ctx context.Context, sess *domain.Session) ([]domain.Queue, error) {
	env, err := get[[]domain.Queue](ctx, c, sess, at("/v1/queues"), nil)
	if err != nil {
		return nil, err
	}
	return nonNil(env.Data), nil
}

// GetQueue fetches one queue.
func (c *Client) GetQueue(ctx context.Context, sess *domain.Session, id string) (*domain.Queue, error) {
	env, err := get[*domain.Queue](ctx, c, sess, at("/v1/queues/{id}", id), nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateQueue creates a queue.
func (c *Client) CreateQueue(ctx context.Context, sess *domain.Session, req QueueRequest) (*domain.Queue, error) {
	return write[*domain.Queue](ctx, c, sess, http.MethodPost, at("/v1/queues"), req)
}

// UpdateQueue renames or re-describes a queue.
func (c *Client) UpdateQueue(ctx context.Context, sess *domain.Session, id string, req QueueRequest) (*domain.Queue, error) {
	return write[*domain.Queue](ctx, c, sess, http.MethodPatch, at("/v1/queues/{id}", id), req)
}

// DeleteQueue removes a queue.
func (c *Client) DeleteQueue(ctx context.Context, sess *domain.Session, id string) error {
	_, err := c.send(ctx, sess, call{method: http.MethodDelete, to: at("/v1/queues/{id}", id)})
	return err
}

// ListQueueUsers returns the users eligible to handle the queue's tickets.
func (c *Client) ListQueueUsers(ctx context.Context, sess *domain.Session, queueID string) ([]domain.User, error) {
	env, err := get[[]domain.User](ctx, c, sess, at("/v1/queues/{id}/users", queueID), nil)
	if err != nil {
		return nil, err
	}
	return nonNil(env.Data), nil
}

// AddQueueUsers grants users access to a queue.
func (c *Client) AddQueueUsers(ctx context.Context, sess *domain.Session, queueID string, userIDs []string) error {
	_, err := c.send(ctx, sess, call{
		method: http.MethodPost,
		to:     at("/v1/queues/{id}/users", queueID),
		body:   queueUsersRequest{UserIDs: userIDs},
	})
	return err
}

// RemoveQueueUser revokes a user's access to a queue.
func (c *Client) RemoveQueueUser(ctx context.Context, sess *domain.Session, queueID, userID string) error {
	_, err := c.send(ctx, sess, call{
		method: http.MethodDelete,
		to:     at("/v1/queues/{id}/users/{userId}", queueID, userID),
	})
	return err
}

// ListCategories returns the categories scoped to a queue.
func (c *Client) ListCategories(ctx context.Context, sess *domain.Session, queueID string) ([]domain.Category, error) {
	env, err := get[[]domain.Category](ctx, c, sess, at("/v1/categories"), url.Values{"queueId": {queueID}})
	if err != nil {
		return nil, err
	}
	return nonNil(env.Data), nil
}

// CreateCategory creates a category inside a queue.
func (c *Client) CreateCategory(ctx context.Context, sess *domain.Session, req CategoryRequest) (*domain.Category, error) {
	return write[*domain.Category](ctx, c, sess, http.MethodPost, at("/v1/categories"), req)
}

// UpdateCategory renames a category.
func (c *Client) UpdateCategory(ctx context.Context, sess *domain.Session, id string, req CategoryRequest) (*domain.Category, error) {
	return write[*domain.Category](ctx, c, sess, http.MethodPatch, at("/v1/categories/{id}", id), req)
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, sess *domain.Session, id string) error {
	_, err := c.send(ctx, sess, call{method: http.MethodDelete, to: at("/v1/categories/{id}", id)})
	return err
}
