package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-console/internal/config"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/observability"
	"github.com/spec-kit/helpdesk-console/internal/testutil"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

var agent = &domain.Session{UserID: "U1", Name: "Ada", Role: domain.UserRoleAgent, Token: "tok-ada"}

func newTestClient(t *testing.T) (*Client, *testutil.Backend, *observability.Metrics) {
	t.Helper()
	backend := testutil.NewBackend(t)
	metrics := observability.NewMetrics()
	client := New(config.BackendConfig{BaseURL: backend.URL, TimeoutSeconds: 5, UserAgent: "test"}, metrics, nil)
	return client, backend, metrics
}

func TestCreateAndGetTicket(t *testing.T) {
	client, backend, metrics := newTestClient(t)
	ctx := context.Background()

	created, err := client.CreateTicket(ctx, agent, CreateTicketRequest{
		QueueID: "Q1", CategoryID: "C1", Title: "VPN down", Priority: domain.TicketPriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpened, created.Status)
	assert.Nil(t, created.AssignedToID)

	got, err := client.GetTicket(ctx, agent, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "VPN down", got.Title)

	reqs := backend.RequestsTo(http.MethodPost, "/v1/tickets")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer tok-ada", reqs[0].Auth)
	assert.Equal(t, "high", reqs[0].Body["priority"])
	assert.NotEmpty(t, metrics.Snapshot().Upstream)
}

func TestListTicketsBareAndWrapped(t *testing.T) {
	for _, bare := range []bool{false, true} {
		client, backend, _ := newTestClient(t)
		backend.Bare = bare
		for _, id := range []string{"T1", "T2", "T3"} {
			backend.SeedTicket(domain.Ticket{ID: id, QueueID: "Q1", Title: "ticket " + id, Status: domain.TicketStatusOpened})
		}

		page, err := client.ListTickets(context.Background(), agent, url.Values{"page": {"1"}, "limit": {"2"}})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 2, page.Limit)
		assert.True(t, page.HasMore(), "bare=%v", bare)
	}
}

func TestStatusRequestBody(t *testing.T) {
	client, backend, _ := newTestClient(t)
	assignee := "U1"
	backend.SeedTicket(domain.Ticket{ID: "T1", Status: domain.TicketStatusInProgress, AssignedToID: &assignee})

	_, err := client.UpdateStatus(context.Background(), agent, "T1", StatusRequest{Status: domain.TicketStatusOpened, ClearAssignment: true})
	require.NoError(t, err)

	reqs := backend.RequestsTo(http.MethodPatch, "/v1/tickets/T1/status")
	require.Len(t, reqs, 1)
	body := reqs[0].Body
	assert.Equal(t, "opened", body["status"])
	assert.Contains(t, body, "assignedToId")
	assert.Nil(t, body["assignedToId"])
	assert.Contains(t, body, "closedAt")
	assert.NotContains(t, body, "closingNotes")

	stored, _ := backend.Ticket("T1")
	assert.Nil(t, stored.AssignedToID)
}

func TestStatusRequestKeepsAssigneeByDefault(t *testing.T) {
	notes := "rebooted"
	closedAt := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	raw, err := StatusRequest{Status: domain.TicketStatusResolved, ClosingNotes: &notes, ClosedAt: &closedAt}.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "assignedToId")
	assert.Contains(t, string(raw), `"closingNotes":"rebooted"`)
}

func TestUpstreamErrorsAreMapped(t *testing.T) {
	client, backend, _ := newTestClient(t)

	_, err := client.GetTicket(context.Background(), agent, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	backend.Fail(http.MethodGet, "/v1/queues", http.StatusInternalServerError)
	_, err = client.ListQueues(context.Background(), agent)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeUpstreamFailed, de.Code)
	assert.Equal(t, http.StatusBadGateway, de.HTTPStatus)
	assert.Equal(t, "injected failure", de.Message)
}

func TestTransportFailure(t *testing.T) {
	client := New(config.BackendConfig{BaseURL: "http://127.0.0.1:1", TimeoutSeconds: 1}, nil, nil)
	err := client.Ping(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstreamUnavailable))
}

func TestUploadAndDeleteDocument(t *testing.T) {
	client, backend, _ := newTestClient(t)
	backend.SeedTicket(domain.Ticket{ID: "T1", Status: domain.TicketStatusOpened})
	ctx := context.Background()

	doc, err := client.UploadDocument(ctx, agent, "T1", "log.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "log.txt", doc.FileName)
	assert.Equal(t, int64(5), doc.Size)

	docs, err := client.ListDocuments(ctx, agent, "T1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, client.DeleteDocument(ctx, agent, "T1", doc.ID))
	docs, err = client.ListDocuments(ctx, agent, "T1")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestQueuesCategoriesAndPreferences(t *testing.T) {
	client, backend, _ := newTestClient(t)
	backend.SeedUser("U1", "Ada", domain.UserRoleAgent)
	backend.SeedQueue("Q1", "Network", []string{"U1"}, "C1", "C2")
	ctx := context.Background()

	users, err := client.ListQueueUsers(ctx, agent, "Q1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ada", users[0].Name)

	cats, err := client.ListCategories(ctx, agent, "Q1")
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	prefs, err := client.UpdatePreferences(ctx, agent, "U1", domain.NotificationPreferences{
		domain.NotifyTicketAssigned: {Email: false, InApp: true},
	})
	require.NoError(t, err)
	assert.False(t, prefs.Get(domain.NotifyTicketAssigned).Email)
	assert.True(t, prefs.Get(domain.NotifyBroadcast).Email)
}

func TestAtFillsRoute(t *testing.T) {
	ep := at("/v1/tickets/{id}/documents/{documentId}", " T1 ", "a/b")
	assert.Equal(t, "/v1/tickets/T1/documents/a%2Fb", ep.path)
	assert.Equal(t, "/v1/tickets/{id}/documents/{documentId}", ep.route)
	assert.Equal(t, "/v1/queues", at("/v1/queues").path)
}

func TestUpstreamMetricsKeyedByRoute(t *testing.T) {
	client, backend, metrics := newTestClient(t)
	ctx := context.Background()
	for _, id := range []string{"T1", "T2", "T3"} {
		backend.SeedTicket(domain.Ticket{ID: id, Status: domain.TicketStatusOpened})
		_, err := client.ListHistory(ctx, agent, id)
		require.NoError(t, err)
	}

	var keys []string
	for _, stat := range metrics.Snapshot().Upstream {
		keys = append(keys, stat.Key)
	}
	assert.Equal(t, []string{"/v1/tickets/{id}/history|GET|200"}, keys)
}
