package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-console/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

func userIDs(page domain.Page[domain.User]) []string {
	ids := make([]string, len(page.Items))
	for i, u := range page.Items {
		ids[i] = u.ID
	}
	return ids
}

func TestDeleteUserPatchesCachedListOptimistically(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps)
	ctx := context.Background()

	page, err := svc.List(ctx, admin, UserQuery{})
	require.NoError(t, err)
	require.Equal(t, []string{"A1", "U1", "U2"}, userIDs(page))

	require.NoError(t, svc.Delete(ctx, admin, "U2"))

	page, err = svc.List(ctx, admin, UserQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "U1"}, userIDs(page))
	assert.Equal(t, 2, page.Total)
	assert.Len(t, f.backend.RequestsTo(http.MethodGet, "/v1/users"), 1, "served from the patched cache")
}

func TestDeleteUserFailureRefetches(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps)
	ctx := context.Background()

	_, err := svc.List(ctx, admin, UserQuery{})
	require.NoError(t, err)
	f.backend.Fail(http.MethodDelete, "/v1/users/U2", http.StatusInternalServerError)

	err = svc.Delete(ctx, admin, "U2")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstreamFailed))

	page, err := svc.List(ctx, admin, UserQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "U1", "U2"}, userIDs(page))
	assert.Len(t, f.backend.RequestsTo(http.MethodGet, "/v1/users"), 2)
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps)

	err := svc.Delete(context.Background(), agent, "U2")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	err = svc.Delete(context.Background(), admin, "A1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Empty(t, f.backend.RequestsTo(http.MethodDelete, "/v1/users/U2"))
}

func TestPreferences(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps)
	ctx := context.Background()

	prefs, err := svc.Preferences(ctx, agent, "U1")
	require.NoError(t, err)
	assert.Len(t, prefs, len(domain.NotificationEventTypes))
	assert.True(t, prefs[domain.NotifyTicketAssigned].Email)

	updated, err := svc.UpdatePreferences(ctx, agent, "U1", domain.NotificationPreferences{
		domain.NotifyTicketAssigned: {Email: false, InApp: true},
	})
	require.NoError(t, err)
	assert.False(t, updated[domain.NotifyTicketAssigned].Email)

	prefs, err = svc.Preferences(ctx, agent, "U1")
	require.NoError(t, err)
	assert.False(t, prefs[domain.NotifyTicketAssigned].Email, "update invalidates the cached matrix")

	_, err = svc.UpdatePreferences(ctx, agent, "U1", domain.NotificationPreferences{"ticket_exploded": {}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = svc.Preferences(ctx, agent, "U2")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = svc.Preferences(ctx, admin, "U2")
	assert.NoError(t, err)
}
