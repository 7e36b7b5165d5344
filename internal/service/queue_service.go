package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/query"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

// QueueService manages queues and who may handle them.
type QueueService struct {
	deps Dependencies
}

// NewQueueService creates the service.
func NewQueueService(deps Dependencies) *QueueService {
	return &QueueService{deps: deps.withDefaults()}
}

// List returns the queues visible to the session.
func (s *QueueService) List(ctx context.Context, sess *domain.Session) ([]domain.Queue, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	return queues(ctx, s.deps, sess)
}

// Get returns one queue.
func (s *QueueService) Get(ctx context.Context, sess *domain.Session, id string) (*domain.Queue, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	q, err := s.deps.API.GetQueue(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperrors.NewNotFound("queue", map[string]any{"queue_id": id})
	}
	return q, nil
}

// Create adds a queue. Admin only.
func (s *QueueService) Create(ctx context.Context, sess *domain.Session, input apiclient.QueueRequest) (*domain.Queue, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	q, err := s.deps.API.CreateQueue(ctx, sess, input)
	return q, s.finish(ctx, sess, "create_queue", "Queue created", err)
}

// Update renames a queue. Admin only.
func (s *QueueService) Update(ctx context.Context, sess *domain.Session, id string, input apiclient.QueueRequest) (*domain.Queue, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	q, err := s.deps.API.UpdateQueue(ctx, sess, id, input)
	return q, s.finish(ctx, sess, "update_queue", "Queue updated", err)
}

// Delete removes a queue. Admin only.
func (s *QueueService) Delete(ctx context.Context, sess *domain.Session, id string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	err := s.deps.API.DeleteQueue(ctx, sess, id)
	if err == nil {
		invalidate(ctx, s.deps, query.CategoryListPrefix(id), query.TicketListPrefix)
	}
	return s.finish(ctx, sess, "delete_queue", "Queue deleted", err)
}

// Users returns the queue's eligible handlers.
func (s *QueueService) Users(ctx context.Context, sess *domain.Session, queueID string) ([]domain.User, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	return queueUsers(ctx, s.deps, sess, queueID)
}

// AddUsers grants handlers access to the queue. Admin only.
func (s *QueueService) AddUsers(ctx context.Context, sess *domain.Session, queueID string, userIDs []string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return fieldError("userIds", "at least one user id required")
	}
	err := s.deps.API.AddQueueUsers(ctx, sess, queueID, ids)
	return s.finish(ctx, sess, "add_queue_users", "Queue members added", err)
}

// RemoveUser revokes a handler's access. Admin only.
func (s *QueueService) RemoveUser(ctx context.Context, sess *domain.Session, queueID, userID string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	err := s.deps.API.RemoveQueueUser(ctx, sess, queueID, userID)
	return s.finish(ctx, sess, "remove_queue_user", "Queue member removed", err)
}

func (s *QueueService) finish(ctx context.Context, sess *domain.Session, action, message string, err error) error {
	if err != nil {
		s.deps.Notices.Failure(ctx, sess, action, "", err)
		return err
	}
	invalidate(ctx, s.deps, query.QueuesPrefix, query.AnalyticsPrefix)
	s.deps.Notices.Success(ctx, sess, action, "", message)
	return nil
}

// CategoryService manages the categories inside queues.
type CategoryService struct {
	deps Dependencies
}

// NewCategoryService creates the service.
func NewCategoryService(deps Dependencies) *CategoryService {
	return &CategoryService{deps: deps.withDefaults()}
}

// List returns the queue's categories.
func (s *CategoryService) List(ctx context.Context, sess *domain.Session, queueID string) ([]domain.Category, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if strings.TrimSpace(queueID) == "" {
		return nil, fieldError("queueId", "required")
	}
	return categories(ctx, s.deps, sess, queueID)
}

// Create adds a category to a queue. Admin only.
func (s *CategoryService) Create(ctx context.Context, sess *domain.Session, input apiclient.CategoryRequest) (*domain.Category, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	c, err := s.deps.API.CreateCategory(ctx, sess, input)
	return c, s.finish(ctx, sess, "create_category", "Category created", err)
}

// Update renames a category. Admin only.
func (s *CategoryService) Update(ctx context.Context, sess *domain.Session, id string, input apiclient.CategoryRequest) (*domain.Category, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	c, err := s.deps.API.UpdateCategory(ctx, sess, id, input)
	return c, s.finish(ctx, sess, "update_category", "Category updated", err)
}

// Delete removes a category. Admin only.
func (s *CategoryService) Delete(ctx context.Context, sess *domain.Session, id string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	err := s.deps.API.DeleteCategory(ctx, sess, id)
	return s.finish(ctx, sess, "delete_category", "Category deleted", err)
}

// finish drops every cached category list since an id alone does not name
// the owning queue.
func (s *CategoryService) finish(ctx context.Context, sess *domain.Session, action, message string, err error) error {
	if err != nil {
		s.deps.Notices.Failure(ctx, sess, action, "", err)
		return err
	}
	invalidate(ctx, s.deps, query.CategoriesPrefix)
	s.deps.Notices.Success(ctx, sess, action, "", message)
	return nil
}
