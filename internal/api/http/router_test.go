package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-console/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/auth"
	"github.com/spec-kit/helpdesk-console/internal/clock"
	"github.com/spec-kit/helpdesk-console/internal/config"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/events"
	"github.com/spec-kit/helpdesk-console/internal/observability"
	"github.com/spec-kit/helpdesk-console/internal/query"
	"github.com/spec-kit/helpdesk-console/internal/service"
	"github.com/spec-kit/helpdesk-console/internal/testutil"
)

var now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type server struct {
	app        *fiber.App
	backend    *testutil.Backend
	metrics    *observability.Metrics
	agentToken string
	adminToken string
}

func newServer(t *testing.T, checks map[string]handlers.Pinger) *server {
	t.Helper()
	backend := testutil.NewBackend(t)
	backend.SeedUser("U1", "Ada", domain.UserRoleAgent)
	backend.SeedUser("U2", "Grace", domain.UserRoleAgent)
	backend.SeedUser("A1", "Root", domain.UserRoleAdmin)
	backend.SeedQueue("Q1", "Network", []string{"U1", "U2"}, "C1", "C2")

	metrics := observability.NewMetrics()
	fake := clock.Fake(now)
	dispatcher := events.NewInMemoryDispatcher()
	notices := service.NewNoticeService(dispatcher, events.NewNoticeFeed(20), zap.NewNop(), fake)
	notices.RegisterHandlers()
	deps := service.Dependencies{
		API:        apiclient.New(config.BackendConfig{BaseURL: backend.URL, TimeoutSeconds: 5}, metrics, nil),
		Cache:      query.NewClient(query.NewMemoryStore(fake), time.Minute, nil),
		Dispatcher: dispatcher,
		Notices:    notices,
		Clock:      fake,
		Logger:     zap.NewNop(),
	}
	tickets := service.NewTicketService(deps)
	tokens := auth.NewTokenManager("test-secret", 5)

	app := NewApp("test", zap.NewNop(), metrics, 5*time.Second, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk-console", "test", checks, metrics),
		Tickets:        handlers.NewTicketsHandler(tickets, 20),
		Board:          handlers.NewBoardHandler(service.NewBoardService(deps, tickets), service.NewTimelineService(deps, tickets)),
		Analytics:      handlers.NewAnalyticsHandler(service.NewAnalyticsService(deps)),
		Queues:         handlers.NewQueuesHandler(service.NewQueueService(deps), service.NewCategoryService(deps)),
		Users:          handlers.NewUsersHandler(service.NewUserService(deps)),
		Notifications:  handlers.NewNotificationsHandler(service.NewNotificationService(deps), notices),
		AuthMiddleware: auth.NewSessionMiddleware(tokens),
		PublicTickets:  true,
	})

	agentToken, _, err := tokens.GenerateToken(domain.Session{UserID: "U1", Name: "Ada", Role: domain.UserRoleAgent})
	require.NoError(t, err)
	adminToken, _, err := tokens.GenerateToken(domain.Session{UserID: "A1", Name: "Root", Role: domain.UserRoleAdmin})
	require.NoError(t, err)
	return &server{app: app, backend: backend, metrics: metrics, agentToken: agentToken, adminToken: adminToken}
}

func (s *server) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *server) send(t *testing.T, req *nethttp.Request, token string) (int, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	envelope, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error envelope: %v", body)
	return envelope
}

func dataOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	payload, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data: %v", body)
	return payload
}

func TestHealthProbes(t *testing.T) {
	s := newServer(t, map[string]handlers.Pinger{
		"backend": pingFunc(func(context.Context) error { return nil }),
		"redis":   pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	status, body := s.do(t, nethttp.MethodGet, "/health/live", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, nethttp.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, nethttp.StatusServiceUnavailable, status)
	details := errorOf(t, body)["details"].(map[string]any)
	assert.Equal(t, "ok", details["backend"])
	assert.Equal(t, "connection refused", details["redis"])
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	s := newServer(t, nil)

	status, body := s.do(t, nethttp.MethodGet, "/api/tickets", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorOf(t, body)["code"])

	status, body = s.do(t, nethttp.MethodGet, "/api/nothing-here", s.agentToken, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorOf(t, body)["code"])
}

func TestCreateAndListTickets(t *testing.T) {
	s := newServer(t, nil)

	status, body := s.do(t, nethttp.MethodPost, "/api/tickets", s.agentToken, map[string]any{
		"queueId": "Q1", "categoryId": "C1", "title": "VPN down", "priority": "high",
	})
	require.Equal(t, nethttp.StatusCreated, status, body)
	created := dataOf(t, body)
	assert.Equal(t, "opened", created["status"])
	assert.Nil(t, created["assignedToId"])

	status, body = s.do(t, nethttp.MethodGet, "/api/tickets?queueId=Q1&status=opened", s.agentToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, body["data"], 1)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["page"])

	status, body = s.do(t, nethttp.MethodGet, "/api/tickets/"+created["id"].(string), s.agentToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	detail := dataOf(t, body)
	assert.Equal(t, "VPN down", detail["title"])
	assert.NotNil(t, detail["history"])

	status, body = s.do(t, nethttp.MethodGet, "/api/notices", s.agentToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.NotEmpty(t, body["data"])
}

func TestCreateTicketValidation(t *testing.T) {
	s := newServer(t, nil)

	status, body := s.do(t, nethttp.MethodPost, "/api/tickets", s.agentToken, map[string]any{"queueId": "Q1"})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	envelope := errorOf(t, body)
	assert.Equal(t, "VALIDATION_FAILED", envelope["code"])
	fields := envelope["details"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "categoryId")

	status, _ = s.do(t, nethttp.MethodGet, "/api/tickets?status=bogus", s.agentToken, nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
}

func TestPublicTicketSubmission(t *testing.T) {
	s := newServer(t, nil)

	status, body := s.do(t, nethttp.MethodPost, "/api/public/tickets", "", map[string]any{
		"queueId": "Q1", "categoryId": "C2", "title": "Printer jam", "name": "Visitor", "email": "visitor@example.com",
	})
	require.Equal(t, nethttp.StatusCreated, status, body)
	assert.Equal(t, "opened", dataOf(t, body)["status"])
	assert.Len(t, s.backend.RequestsTo(nethttp.MethodPost, "/v1/tickets/public"), 1)
}

func TestTransitionPromptsForAssignee(t *testing.T) {
	s := newServer(t, nil)
	s.backend.SeedTicket(domain.Ticket{ID: "T1", QueueID: "Q1", CategoryID: "C1", Status: domain.TicketStatusOpened, CreatedAt: now})

	status, body := s.do(t, nethttp.MethodPost, "/api/tickets/T1/transition", s.agentToken, map[string]any{"status": "in-progress"})
	assert.Equal(t, nethttp.StatusConflict, status)
	envelope := errorOf(t, body)
	assert.Equal(t, "ASSIGNEE_REQUIRED", envelope["code"])
	prompt := envelope["details"].(map[string]any)["prompt"].(map[string]any)
	assert.Equal(t, "assignee", prompt["kind"])
	assert.Len(t, prompt["candidates"], 2)
	assert.Empty(t, s.backend.RequestsTo(nethttp.MethodPatch, "/v1/tickets/T1/status"))

	status, body = s.do(t, nethttp.MethodPost, "/api/tickets/T1/transition", s.agentToken, map[string]any{
		"status": "in-progress", "assigneeId": "U2",
	})
	require.Equal(t, nethttp.StatusOK, status, body)
	ticket := dataOf(t, body)
	assert.Equal(t, "in-progress", ticket["status"])
	assert.Equal(t, "U2", ticket["assignedToId"])
}

func TestTransitionPartialFailure(t *testing.T) {
	s := newServer(t, nil)
	s.backend.SeedTicket(domain.Ticket{ID: "T1", QueueID: "Q1", CategoryID: "C1", Status: domain.TicketStatusOpened, CreatedAt: now})
	s.backend.Fail(nethttp.MethodPatch, "/v1/tickets/T1/status", nethttp.StatusInternalServerError)

	status, body := s.do(t, nethttp.MethodPost, "/api/tickets/T1/transition", s.agentToken, map[string]any{
		"status": "in-progress", "assigneeId": "U1",
	})
	assert.Equal(t, nethttp.StatusBadGateway, status)
	envelope := errorOf(t, body)
	assert.Equal(t, "PARTIAL_FAILURE", envelope["code"])
	details := envelope["details"].(map[string]any)
	assert.Equal(t, []any{"assign"}, details["completed"])
	assert.Equal(t, "status:in-progress", details["failed"])
	assert.Equal(t, "U1", details["ticket"].(map[string]any)["assignedToId"])
}

func TestBoardMoveClosingNotesPrompt(t *testing.T) {
	s := newServer(t, nil)
	s.backend.SeedTicket(domain.Ticket{ID: "T1", QueueID: "Q1", CategoryID: "C1", Status: domain.TicketStatusInProgress, AssignedToID: strPtr("U1"), CreatedAt: now})

	status, body := s.do(t, nethttp.MethodGet, "/api/queues/Q1/board", s.agentToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, dataOf(t, body)["columns"], 3)

	move := map[string]any{"ticketId": "T1", "source": "in-progress", "destination": "resolved"}
	status, body = s.do(t, nethttp.MethodPost, "/api/queues/Q1/board/moves", s.agentToken, move)
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "CLOSING_NOTES_REQUIRED", errorOf(t, body)["code"])
	assert.Empty(t, s.backend.RequestsTo(nethttp.MethodPatch, "/v1/tickets/T1/status"))

	move["closingNotes"] = "replaced the switch"
	status, body = s.do(t, nethttp.MethodPost, "/api/queues/Q1/board/moves", s.agentToken, move)
	require.Equal(t, nethttp.StatusOK, status, body)
	ticket := dataOf(t, body)
	assert.Equal(t, "resolved", ticket["status"])
	assert.NotNil(t, ticket["closedAt"])
}

func TestTimelineRejectsBadWeek(t *testing.T) {
	s := newServer(t, nil)

	status, body := s.do(t, nethttp.MethodGet, "/api/queues/Q1/timeline?weekStart=03/02/2026", s.agentToken, nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorOf(t, body)["code"])

	status, body = s.do(t, nethttp.MethodGet, "/api/queues/Q1/timeline?weekStart=2026-03-02", s.agentToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, dataOf(t, body)["days"], 7)
}

func TestUploadDocument(t *testing.T) {
	s := newServer(t, nil)
	s.backend.SeedTicket(domain.Ticket{ID: "T1", QueueID: "Q1", CategoryID: "C1", Status: domain.TicketStatusOpened, CreatedAt: now})

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "trace.log")
	require.NoError(t, err)
	_, err = part.Write([]byte("packet loss"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(nethttp.MethodPost, "/api/tickets/T1/documents", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	status, body := s.send(t, req, s.agentToken)
	require.Equal(t, nethttp.StatusCreated, status, body)
	assert.Equal(t, "trace.log", dataOf(t, body)["fileName"])

	status, _ = s.do(t, nethttp.MethodPost, "/api/tickets/T1/documents", s.agentToken, map[string]any{})
	assert.Equal(t, nethttp.StatusBadRequest, status)
}

func TestAdminRoutes(t *testing.T) {
	s := newServer(t, nil)
	payload := map[string]any{"title": "Maintenance", "message": "VPN restarts at 22:00"}

	status, body := s.do(t, nethttp.MethodPost, "/api/admin/notifications/broadcast", s.agentToken, payload)
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorOf(t, body)["code"])

	status, body = s.do(t, nethttp.MethodPost, "/api/admin/notifications/broadcast", s.adminToken, payload)
	require.Equal(t, nethttp.StatusAccepted, status)
	assert.Equal(t, "Maintenance", dataOf(t, body)["title"])
	assert.Len(t, s.backend.RequestsTo(nethttp.MethodPost, "/v1/admin/notifications/broadcast"), 1)

	payload["userIds"] = []string{"U1"}
	status, body = s.do(t, nethttp.MethodPost, "/api/admin/notifications/send-to-users", s.adminToken, payload)
	require.Equal(t, nethttp.StatusAccepted, status)
	assert.Equal(t, []any{"U1"}, dataOf(t, body)["userIds"])
	assert.Len(t, s.backend.RequestsTo(nethttp.MethodPost, "/v1/admin/notifications/send-to-users"), 1)
}

func TestMetricsCountRequestsAndErrors(t *testing.T) {
	s := newServer(t, nil)
	s.do(t, nethttp.MethodGet, "/api/tickets", "", nil)
	s.do(t, nethttp.MethodGet, "/health/live", "", nil)

	status, body := s.do(t, nethttp.MethodGet, "/metrics", "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.NotEmpty(t, body["requests"])
	assert.NotEmpty(t, body["errors"])
}

func TestPanicIsRendered(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	app.Get("/boom", func(*fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusInternalServerError, resp.StatusCode)

	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body["error"]["code"])
}

func strPtr(s string) *string { return &s }
