package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/query"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

// UserService lists and removes accounts and edits notification
// preferences.
type UserService struct {
	deps Dependencies
}

// NewUserService creates the service.
func NewUserService(deps Dependencies) *UserService {
	return &UserService{deps: deps.withDefaults()}
}

// UserQuery filters the user list.
type UserQuery struct {
	Search string
	Page   int
	Limit  int
}

func (q UserQuery) values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	page, limit := q.Page, q.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	return v
}

// List returns one page of users.
func (s *UserService) List(ctx context.Context, sess *domain.Session, q UserQuery) (domain.Page[domain.User], error) {
	if err := requireSession(sess); err != nil {
		return domain.Page[domain.User]{}, err
	}
	params := q.values()
	return query.Fetch(ctx, s.deps.Cache, query.UserListKey(sess.UserID, params), func(ctx context.Context) (domain.Page[domain.User], error) {
		return s.deps.API.ListUsers(ctx, sess, params)
	})
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, sess *domain.Session, id string) (*domain.User, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	u, err := s.deps.API.GetUser(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
	}
	return u, nil
}

// Delete removes a user. Cached lists drop the user before the backend
// answers; if the call fails the lists are refetched.
func (s *UserService) Delete(ctx context.Context, sess *domain.Session, id string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if id == sess.UserID {
		return apperrors.NewConflict("you cannot delete your own account", nil)
	}
	if err := query.Patch(ctx, s.deps.Cache, query.UserListPrefix, func(page domain.Page[domain.User]) domain.Page[domain.User] {
		return withoutUser(page, id)
	}); err != nil {
		invalidate(ctx, s.deps, query.UserListPrefix)
	}

	if err := s.deps.API.DeleteUser(ctx, sess, id); err != nil {
		invalidate(ctx, s.deps, query.UserListPrefix)
		s.deps.Notices.Failure(ctx, sess, "delete_user", "", err)
		return err
	}
	invalidate(ctx, s.deps, query.QueuesPrefix, query.AnalyticsPrefix, query.PreferencesPrefix(id))
	s.deps.Notices.Success(ctx, sess, "delete_user", "", "User deleted")
	return nil
}

func withoutUser(page domain.Page[domain.User], id string) domain.Page[domain.User] {
	kept := make([]domain.User, 0, len(page.Items))
	for _, u := range page.Items {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	if removed := len(page.Items) - len(kept); removed > 0 && page.Total >= removed {
		page.Total -= removed
	}
	page.Items = kept
	return page
}

// Preferences returns a user's opt-in matrix with every event type
// present. Users may read their own; admins may read anyone's.
func (s *UserService) Preferences(ctx context.Context, sess *domain.Session, userID string) (domain.NotificationPreferences, error) {
	if err := requireSelfOrAdmin(sess, userID); err != nil {
		return nil, err
	}
	prefs, err := query.Fetch(ctx, s.deps.Cache, query.PreferencesKey(userID, sess.UserID), func(ctx context.Context) (domain.NotificationPreferences, error) {
		return s.deps.API.GetPreferences(ctx, sess, userID)
	})
	if err != nil {
		return nil, err
	}
	return completePreferences(prefs), nil
}

// UpdatePreferences replaces the given rows of the matrix.
func (s *UserService) UpdatePreferences(ctx context.Context, sess *domain.Session, userID string, prefs domain.NotificationPreferences) (domain.NotificationPreferences, error) {
	if err := requireSelfOrAdmin(sess, userID); err != nil {
		return nil, err
	}
	if len(prefs) == 0 {
		return nil, apperrors.NewValidationError("no preferences given", nil)
	}
	known := map[domain.NotificationEventType]bool{}
	for _, t := range domain.NotificationEventTypes {
		known[t] = true
	}
	for event := range prefs {
		if !known[event] {
			return nil, fieldError(string(event), "unknown notification event type")
		}
	}
	updated, err := s.deps.API.UpdatePreferences(ctx, sess, userID, prefs)
	if err != nil {
		s.deps.Notices.Failure(ctx, sess, "update_preferences", "", err)
		return nil, err
	}
	invalidate(ctx, s.deps, query.PreferencesPrefix(userID))
	s.deps.Notices.Success(ctx, sess, "update_preferences", "", "Preferences saved")
	return completePreferences(updated), nil
}

func completePreferences(prefs domain.NotificationPreferences) domain.NotificationPreferences {
	out := make(domain.NotificationPreferences, len(domain.NotificationEventTypes))
	for _, t := range domain.NotificationEventTypes {
		out[t] = prefs.Get(t)
	}
	return out
}

func requireSelfOrAdmin(sess *domain.Session, userID string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if sess.UserID != userID && !sess.IsAdmin() {
		return apperrors.NewForbidden("cannot access another user's preferences")
	}
	return nil
}
