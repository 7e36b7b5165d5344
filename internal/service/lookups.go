package service

import (
	"context"

	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/query"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

func queueUsers(ctx context.Context, deps Dependencies, sess *domain.Session, queueID string) ([]domain.User, error) {
	return query.Fetch(ctx, deps.Cache, query.QueueUsersKey(queueID, cacheUser(sess)), func(ctx context.Context) ([]domain.User, error) {
		return deps.API.ListQueueUsers(ctx, sess, queueID)
	})
}

func categories(ctx context.Context, deps Dependencies, sess *domain.Session, queueID string) ([]domain.Category, error) {
	return query.Fetch(ctx, deps.Cache, query.CategoryListKey(queueID, cacheUser(sess)), func(ctx context.Context) ([]domain.Category, error) {
		return deps.API.ListCategories(ctx, sess, queueID)
	})
}

func queues(ctx context.Context, deps Dependencies, sess *domain.Session) ([]domain.Queue, error) {
	return query.Fetch(ctx, deps.Cache, query.QueueListKey(cacheUser(sess)), func(ctx context.Context) ([]domain.Queue, error) {
		return deps.API.ListQueues(ctx, sess)
	})
}

// requireCategoryInQueue checks that categoryID is one of the queue's
// categories.
func requireCategoryInQueue(ctx context.Context, deps Dependencies, sess *domain.Session, queueID, categoryID string) error {
	cats, err := categories(ctx, deps, sess, queueID)
	if err != nil {
		return err
	}
	for _, c := range cats {
		if c.ID == categoryID {
			return nil
		}
	}
	return fieldError("categoryId", "category does not belong to the queue")
}

// requireQueueUser checks that userID may handle the queue's tickets.
func requireQueueUser(ctx context.Context, deps Dependencies, sess *domain.Session, queueID, userID string) error {
	users, err := queueUsers(ctx, deps, sess, queueID)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID == userID {
			return nil
		}
	}
	return apperrors.NewValidationError("user cannot handle this queue", map[string]any{
		"fields":   map[string]any{"assignedToId": "not an eligible handler"},
		"queue_id": queueID,
	})
}

func cacheUser(sess *domain.Session) string {
	if sess == nil {
		return domain.Anonymous.UserID
	}
	return sess.UserID
}
