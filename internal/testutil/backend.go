// Package testutil provides an in-memory stand-in for the helpdesk REST
// backend. Tests point an apiclient at Backend.URL and inspect
// Backend.Requests to assert which calls were issued.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// Request is one call received by the fake backend.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
	Auth   string
}

type failure struct {
	method string
	path   string
	status int
}

// Backend is a fake helpdesk backend served over httptest.
type Backend struct {
	URL string

	// Bare makes responses unwrapped JSON values instead of {"data":..}.
	Bare bool
	// Now stamps created records.
	Now time.Time

	mu            sync.Mutex
	server        *httptest.Server
	requests      []Request
	failures      []failure
	seq           int
	tickets       map[string]*domain.Ticket
	history       map[string][]domain.HistoryItem
	documents     map[string][]domain.Document
	queues        map[string]*domain.Queue
	categories    map[string]*domain.Category
	users         map[string]*domain.User
	prefs         map[string]domain.NotificationPreferences
	notifications map[string]*domain.Notification
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		Now:           time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		tickets:       map[string]*domain.Ticket{},
		history:       map[string][]domain.HistoryItem{},
		documents:     map[string][]domain.Document{},
		queues:        map[string]*domain.Queue{},
		categories:    map[string]*domain.Category{},
		users:         map[string]*domain.User{},
		prefs:         map[string]domain.NotificationPreferences{},
		notifications: map[string]*domain.Notification{},
	}
	b.server = httptest.NewServer(b.routes())
	b.URL = b.server.URL
	t.Cleanup(b.server.Close)
	return b
}

// SeedQueue stores a queue with the given eligible users and categories.
func (b *Backend) SeedQueue(id, name string, userIDs []string, categoryIDs ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[id] = &domain.Queue{ID: id, Name: name, UserIDs: append([]string{}, userIDs...)}
	for _, cid := range categoryIDs {
		b.categories[cid] = &domain.Category{ID: cid, QueueID: id, Name: "Category " + cid}
	}
}

// SeedUser stores a user.
func (b *Backend) SeedUser(id, name string, role domain.UserRole) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[id] = &domain.User{ID: id, Name: name, Email: strings.ToLower(name) + "@example.com", Role: role}
}

// SeedTicket stores a copy of ticket.
func (b *Backend) SeedTicket(ticket domain.Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickets[ticket.ID] = &ticket
}

// SeedNotification stores a notification.
func (b *Backend) SeedNotification(n domain.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications[n.ID] = &n
}

// Ticket returns a copy of the stored ticket.
func (b *Backend) Ticket(id string) (domain.Ticket, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tickets[id]
	if !ok {
		return domain.Ticket{}, false
	}
	return *t, true
}

// History returns the stored history of a ticket.
func (b *Backend) History(ticketID string) []domain.HistoryItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.HistoryItem{}, b.history[ticketID]...)
}

// Requests returns every call received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request{}, b.requests...)
}

// RequestsTo returns calls matching method and path exactly.
func (b *Backend) RequestsTo(method, path string) []Request {
	var matched []Request
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			matched = append(matched, r)
		}
	}
	return matched
}

// Fail makes the next call matching method and path answer with status.
func (b *Backend) Fail(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, failure{method: method, path: path, status: status})
}

// nextID mints an id no seeded or created record uses. It must be called
// with b.mu held.
func (b *Backend) nextID(prefix string) string {
	for {
		b.seq++
		id := fmt.Sprintf("%s%d", prefix, b.seq)
		if !b.taken(id) {
			return id
		}
	}
}

func (b *Backend) taken(id string) bool {
	if b.tickets[id] != nil || b.queues[id] != nil || b.categories[id] != nil ||
		b.users[id] != nil || b.notifications[id] != nil {
		return true
	}
	for _, items := range b.history {
		for _, item := range items {
			if item.ID == id {
				return true
			}
		}
	}
	for _, docs := range b.documents {
		for _, doc := range docs {
			if doc.ID == id {
				return true
			}
		}
	}
	return false
}

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, r *http.Request) { b.reply(w, http.StatusOK, map[string]string{"status": "ok"}) })

	mux.HandleFunc("GET /v1/tickets", b.listTickets)
	mux.HandleFunc("POST /v1/tickets", b.createTicket)
	mux.HandleFunc("POST /v1/tickets/public", b.createTicket)
	mux.HandleFunc("GET /v1/tickets/analytics/tickets", b.analyticsTickets)
	mux.HandleFunc("GET /v1/tickets/{id}", b.getTicket)
	mux.HandleFunc("PATCH /v1/tickets/{id}", b.updateTicket)
	mux.HandleFunc("DELETE /v1/tickets/{id}", b.deleteTicket)
	mux.HandleFunc("PATCH /v1/tickets/{id}/assign", b.assignTicket)
	mux.HandleFunc("PATCH /v1/tickets/{id}/status", b.statusTicket)
	mux.HandleFunc("GET /v1/tickets/{id}/history", b.listHistory)
	mux.HandleFunc("POST /v1/tickets/{id}/history", b.addHistory)
	mux.HandleFunc("GET /v1/tickets/{id}/documents", b.listDocuments)
	mux.HandleFunc("POST /v1/tickets/{id}/documents", b.uploadDocument)
	mux.HandleFunc("DELETE /v1/tickets/{id}/documents/{doc}", b.deleteDocument)

	mux.HandleFunc("GET /v1/queues", b.listQueues)
	mux.HandleFunc("POST /v1/queues", b.createQueue)
	mux.HandleFunc("GET /v1/queues/{id}", b.getQueue)
	mux.HandleFunc("PATCH /v1/queues/{id}", b.updateQueue)
	mux.HandleFunc("DELETE /v1/queues/{id}", b.deleteQueue)
	mux.HandleFunc("GET /v1/queues/{id}/users", b.listQueueUsers)
	mux.HandleFunc("POST /v1/queues/{id}/users", b.addQueueUsers)
	mux.HandleFunc("DELETE /v1/queues/{id}/users/{user}", b.removeQueueUser)

	mux.HandleFunc("GET /v1/categories", b.listCategories)
	mux.HandleFunc("POST /v1/categories", b.createCategory)
	mux.HandleFunc("PATCH /v1/categories/{id}", b.updateCategory)
	mux.HandleFunc("DELETE /v1/categories/{id}", b.deleteCategory)

	mux.HandleFunc("GET /v1/users", b.listUsers)
	mux.HandleFunc("GET /v1/users/{id}", b.getUser)
	mux.HandleFunc("DELETE /v1/users/{id}", b.deleteUser)
	mux.HandleFunc("GET /v1/users/{id}/notification-preferences", b.getPrefs)
	mux.HandleFunc("PATCH /v1/users/{id}/notification-preferences", b.updatePrefs)

	mux.HandleFunc("GET /v1/notifications", b.listNotifications)
	mux.HandleFunc("PATCH /v1/notifications/read-all", b.readAll)
	mux.HandleFunc("PATCH /v1/notifications/{id}/read", b.readOne)
	mux.HandleFunc("POST /v1/admin/notifications/broadcast", b.accepted)
	mux.HandleFunc("POST /v1/admin/notifications/send-to-users", b.accepted)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if status, failed := b.takeFailure(r); failed {
			b.reply(w, status, map[string]any{"message": "injected failure"})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (b *Backend) record(r *http.Request) {
	req := Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Auth: r.Header.Get("Authorization")}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &req.Body)
		r.Body = io.NopCloser(strings.NewReader(string(raw)))
	}
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
}

func (b *Backend) takeFailure(r *http.Request) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, f := range b.failures {
		if f.method == r.Method && f.path == r.URL.Path {
			b.failures = append(b.failures[:i], b.failures[i+1:]...)
			return f.status, true
		}
	}
	return 0, false
}

func (b *Backend) reply(w http.ResponseWriter, status int, data any) {
	b.replyPage(w, status, data, nil)
}

func (b *Backend) replyPage(w http.ResponseWriter, status int, data any, meta map[string]int) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if b.Bare || status >= 400 {
		_ = json.NewEncoder(w).Encode(data)
		return
	}
	body := map[string]any{"data": data}
	if meta != nil {
		body["meta"] = meta
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (b *Backend) notFound(w http.ResponseWriter, what string) {
	b.reply(w, http.StatusNotFound, map[string]any{"message": what + " not found"})
}

func decodeBody(r *http.Request, into any) error {
	return json.NewDecoder(r.Body).Decode(into)
}

func paginate[T any](items []T, query url.Values) ([]T, map[string]int) {
	page, _ := strconv.Atoi(query.Get("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return append([]T{}, items[start:end]...), map[string]int{"page": page, "limit": limit, "total": total}
}

func (b *Backend) sortedTickets() []domain.Ticket {
	items := make([]domain.Ticket, 0, len(b.tickets))
	for _, t := range b.tickets {
		items = append(items, *t)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func matchTicket(t domain.Ticket, q url.Values) bool {
	if v := q.Get("queueId"); v != "" && t.QueueID != v {
		return false
	}
	if v := q.Get("categoryId"); v != "" && t.CategoryID != v {
		return false
	}
	if v := q.Get("status"); v != "" && !containsCSV(v, string(t.Status)) {
		return false
	}
	if v := q.Get("priority"); v != "" && !containsCSV(v, string(t.Priority)) {
		return false
	}
	if v := q.Get("assignedToId"); v != "" && (t.AssignedToID == nil || *t.AssignedToID != v) {
		return false
	}
	if q.Get("unassigned") == "true" && t.AssignedToID != nil {
		return false
	}
	if q.Get("hasDocuments") == "true" && len(t.DocumentIDs) == 0 {
		return false
	}
	if v := strings.ToLower(q.Get("search")); v != "" &&
		!strings.Contains(strings.ToLower(t.Title), v) && !strings.Contains(strings.ToLower(t.Details), v) {
		return false
	}
	return true
}

func containsCSV(csv, value string) bool {
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == value {
			return true
		}
	}
	return false
}

func (b *Backend) listTickets(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	var matched []domain.Ticket
	for _, t := range b.sortedTickets() {
		if matchTicket(t, r.URL.Query()) {
			matched = append(matched, t)
		}
	}
	b.mu.Unlock()
	items, meta := paginate(matched, r.URL.Query())
	b.replyPage(w, http.StatusOK, items, meta)
}

func (b *Backend) analyticsTickets(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	var matched []domain.Ticket
	for _, t := range b.sortedTickets() {
		if v := r.URL.Query().Get("queueId"); v != "" && t.QueueID != v {
			continue
		}
		matched = append(matched, t)
	}
	b.mu.Unlock()
	b.reply(w, http.StatusOK, matched)
}

func (b *Backend) createTicket(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QueueID    string                `json:"queueId"`
		CategoryID string                `json:"categoryId"`
		Title      string                `json:"title"`
		Details    string                `json:"details"`
		Priority   domain.TicketPriority `json:"priority"`
	}
	if err := decodeBody(r, &body); err != nil || body.Title == "" {
		b.reply(w, http.StatusBadRequest, map[string]any{"message": "invalid ticket"})
		return
	}
	b.mu.Lock()
	ticket := &domain.Ticket{
		ID:          b.nextID("T"),
		QueueID:     body.QueueID,
		CategoryID:  body.CategoryID,
		Title:       body.Title,
		Details:     body.Details,
		Priority:    body.Priority,
		Status:      domain.TicketStatusOpened,
		CreatedByID: "anonymous",
		DocumentIDs: []string{},
		CreatedAt:   b.Now,
	}
	b.tickets[ticket.ID] = ticket
	b.appendHistory(ticket.ID, domain.HistoryCreated, "", nil)
	out := *ticket
	b.mu.Unlock()
	b.reply(w, http.StatusCreated, out)
}

func (b *Backend) getTicket(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	t, ok := b.tickets[r.PathValue("id")]
	var out domain.Ticket
	if ok {
		out = *t
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "ticket")
		return
	}
	b.reply(w, http.StatusOK, out)
}

func (b *Backend) updateTicket(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title      *string                `json:"title"`
		Details    *string                `json:"details"`
		Priority   *domain.TicketPriority `json:"priority"`
		QueueID    *string                `json:"queueId"`
		CategoryID *string                `json:"categoryId"`
	}
	_ = decodeBody(r, &body)
	b.mu.Lock()
	t, ok := b.tickets[r.PathValue("id")]
	if ok {
		if body.Title != nil {
			t.Title = *body.Title
		}
		if body.Details != nil {
			t.Details = *body.Details
		}
		if body.Priority != nil {
			t.Priority = *body.Priority
			b.appendHistory(t.ID, domain.HistoryPriorityChanged, string(*body.Priority), nil)
		}
		if body.QueueID != nil {
			t.QueueID = *body.QueueID
		}
		if body.CategoryID != nil {
			t.CategoryID = *body.CategoryID
		}
	}
	var out domain.Ticket
	if ok {
		out = *t
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "ticket")
		return
	}
	b.reply(w, http.StatusOK, out)
}

func (b *Backend) deleteTicket(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	_, ok := b.tickets[r.PathValue("id")]
	delete(b.tickets, r.PathValue("id"))
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "ticket")
		return
	}
	b.reply(w, http.StatusNoContent, nil)
}

func (b *Backend) assignTicket(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssignedToID *string `json:"assignedToId"`
	}
	_ = decodeBody(r, &body)
	b.mu.Lock()
	t, ok := b.tickets[r.PathValue("id")]
	var out domain.Ticket
	if ok {
		t.AssignedToID = body.AssignedToID
		if body.AssignedToID == nil {
			b.appendHistory(t.ID, domain.HistoryUnassigned, "", nil)
		} else {
			b.appendHistory(t.ID, domain.HistoryAssigned, *body.AssignedToID, nil)
		}
		out = *t
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "ticket")
		return
	}
	b.reply(w, http.StatusOK, out)
}

func (b *Backend) statusTicket(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	_ = decodeBody(r, &body)
	b.mu.Lock()
	t, ok := b.tickets[r.PathValue("id")]
	var out domain.Ticket
	if ok {
		var status domain.TicketStatus
		_ = json.Unmarshal(body["status"], &status)
		t.Status = status
		if raw, present := body["closingNotes"]; present {
			var notes string
			_ = json.Unmarshal(raw, &notes)
			t.ClosingNotes = &notes
		}
		if raw, present := body["closedAt"]; present {
			var closedAt *time.Time
			_ = json.Unmarshal(raw, &closedAt)
			t.ClosedAt = closedAt
		}
		if raw, present := body["assignedToId"]; present && string(raw) == "null" {
			t.AssignedToID = nil
		}
		b.appendHistory(t.ID, domain.HistoryStatusChanged, string(status), nil)
		out = *t
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "ticket")
		return
	}
	b.reply(w, http.StatusOK, out)
}

// appendHistory must be called with b.mu held.
func (b *Backend) appendHistory(ticketID string, kind domain.HistoryItemType, content string, documentID *string) domain.HistoryItem {
	item := domain.HistoryItem{
		ID:         b.nextID("H"),
		TicketID:   ticketID,
		Type:       kind,
		Content:    content,
		DocumentID: documentID,
		CreatedAt:  b.Now.Add(time.Duration(b.seq) * time.Second),
	}
	b.history[ticketID] = append(b.history[ticketID], item)
	return item
}

func (b *Backend) listHistory(w http.ResponseWriter, r *http.Request) {
	b.reply(w, http.StatusOK, b.History(r.PathValue("id")))
}

func (b *Backend) addHistory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type       domain.HistoryItemType `json:"type"`
		Content    string                 `json:"content"`
		DocumentID *string                `json:"documentId"`
	}
	_ = decodeBody(r, &body)
	b.mu.Lock()
	_, ok := b.tickets[r.PathValue("id")]
	var item domain.HistoryItem
	if ok {
		item = b.appendHistory(r.PathValue("id"), body.Type, body.Content, body.DocumentID)
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "ticket")
		return
	}
	b.reply(w, http.StatusCreated, item)
}

func (b *Backend) listDocuments(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	docs := append([]domain.Document{}, b.documents[r.PathValue("id")]...)
	b.mu.Unlock()
	b.reply(w, http.StatusOK, docs)
}

func (b *Backend) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		b.reply(w, http.StatusBadRequest, map[string]any{"message": "file required"})
		return
	}
	defer file.Close()
	content, _ := io.ReadAll(file)
	b.mu.Lock()
	t, ok := b.tickets[r.PathValue("id")]
	var doc domain.Document
	if ok {
		doc = domain.Document{
			ID:        b.nextID("D"),
			TicketID:  t.ID,
			FileName:  header.Filename,
			MimeType:  header.Header.Get("Content-Type"),
			Size:      int64(len(content)),
			CreatedAt: b.Now,
		}
		b.documents[t.ID] = append(b.documents[t.ID], doc)
		t.DocumentIDs = append(t.DocumentIDs, doc.ID)
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "ticket")
		return
	}
	b.reply(w, http.StatusCreated, doc)
}

func (b *Backend) deleteDocument(w http.ResponseWriter, r *http.Request) {
	ticketID, docID := r.PathValue("id"), r.PathValue("doc")
	b.mu.Lock()
	found := false
	docs := b.documents[ticketID][:0]
	for _, d := range b.documents[ticketID] {
		if d.ID == docID {
			found = true
			continue
		}
		docs = append(docs, d)
	}
	b.documents[ticketID] = docs
	if t, ok := b.tickets[ticketID]; ok {
		ids := t.DocumentIDs[:0]
		for _, id := range t.DocumentIDs {
			if id != docID {
				ids = append(ids, id)
			}
		}
		t.DocumentIDs = ids
	}
	b.mu.Unlock()
	if !found {
		b.notFound(w, "document")
		return
	}
	b.reply(w, http.StatusNoContent, nil)
}

func (b *Backend) listQueues(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	items := make([]domain.Queue, 0, len(b.queues))
	for _, q := range b.queues {
		items = append(items, *q)
	}
	b.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	b.reply(w, http.StatusOK, items)
}

func (b *Backend) createQueue(w http.ResponseWriter, r *http.Request) {
	var body domain.Queue
	_ = decodeBody(r, &body)
	b.mu.Lock()
	body.ID = b.nextID("Q")
	body.UserIDs = []string{}
	b.queues[body.ID] = &body
	b.mu.Unlock()
	b.reply(w, http.StatusCreated, body)
}

func (b *Backend) getQueue(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	q, ok := b.queues[r.PathValue("id")]
	var out domain.Queue
	if ok {
		out = *q
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "queue")
		return
	}
	b.reply(w, http.StatusOK, out)
}

func (b *Backend) updateQueue(w http.ResponseWriter, r *http.Request) {
	var body domain.Queue
	_ = decodeBody(r, &body)
	b.mu.Lock()
	q, ok := b.queues[r.PathValue("id")]
	var out domain.Queue
	if ok {
		if body.Name != "" {
			q.Name = body.Name
		}
		q.Description = body.Description
		out = *q
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "queue")
		return
	}
	b.reply(w, http.StatusOK, out)
}

func (b *Backend) deleteQueue(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delete(b.queues, r.PathValue("id"))
	b.mu.Unlock()
	b.reply(w, http.StatusNoContent, nil)
}

func (b *Backend) listQueueUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	q, ok := b.queues[r.PathValue("id")]
	var users []domain.User
	if ok {
		for _, id := range q.UserIDs {
			if u, exists := b.users[id]; exists {
				users = append(users, *u)
			}
		}
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "queue")
		return
	}
	b.reply(w, http.StatusOK, users)
}

func (b *Backend) addQueueUsers(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserIDs []string `json:"userIds"`
	}
	_ = decodeBody(r, &body)
	b.mu.Lock()
	q, ok := b.queues[r.PathValue("id")]
	if ok {
		for _, id := range body.UserIDs {
			if !q.HasUser(id) {
				q.UserIDs = append(q.UserIDs, id)
			}
		}
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "queue")
		return
	}
	b.reply(w, http.StatusNoContent, nil)
}

func (b *Backend) removeQueueUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	if q, ok := b.queues[r.PathValue("id")]; ok {
		ids := q.UserIDs[:0]
		for _, id := range q.UserIDs {
			if id != r.PathValue("user") {
				ids = append(ids, id)
			}
		}
		q.UserIDs = ids
	}
	b.mu.Unlock()
	b.reply(w, http.StatusNoContent, nil)
}

func (b *Backend) listCategories(w http.ResponseWriter, r *http.Request) {
	queueID := r.URL.Query().Get("queueId")
	b.mu.Lock()
	var items []domain.Category
	for _, c := range b.categories {
		if queueID == "" || c.QueueID == queueID {
			items = append(items, *c)
		}
	}
	b.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	b.reply(w, http.StatusOK, items)
}

func (b *Backend) createCategory(w http.ResponseWriter, r *http.Request) {
	var body domain.Category
	_ = decodeBody(r, &body)
	b.mu.Lock()
	body.ID = b.nextID("C")
	b.categories[body.ID] = &body
	b.mu.Unlock()
	b.reply(w, http.StatusCreated, body)
}

func (b *Backend) updateCategory(w http.ResponseWriter, r *http.Request) {
	var body domain.Category
	_ = decodeBody(r, &body)
	b.mu.Lock()
	c, ok := b.categories[r.PathValue("id")]
	var out domain.Category
	if ok {
		c.Name = body.Name
		out = *c
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "category")
		return
	}
	b.reply(w, http.StatusOK, out)
}

func (b *Backend) deleteCategory(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delete(b.categories, r.PathValue("id"))
	b.mu.Unlock()
	b.reply(w, http.StatusNoContent, nil)
}

func (b *Backend) listUsers(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))
	b.mu.Lock()
	var items []domain.User
	for _, u := range b.users {
		if search == "" || strings.Contains(strings.ToLower(u.Name), search) {
			items = append(items, *u)
		}
	}
	b.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	page, meta := paginate(items, r.URL.Query())
	b.replyPage(w, http.StatusOK, page, meta)
}

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	u, ok := b.users[r.PathValue("id")]
	var out domain.User
	if ok {
		out = *u
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "user")
		return
	}
	b.reply(w, http.StatusOK, out)
}

func (b *Backend) deleteUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	_, ok := b.users[r.PathValue("id")]
	delete(b.users, r.PathValue("id"))
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "user")
		return
	}
	b.reply(w, http.StatusNoContent, nil)
}

func (b *Backend) getPrefs(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	prefs := domain.NotificationPreferences{}
	for k, v := range b.prefs[r.PathValue("id")] {
		prefs[k] = v
	}
	b.mu.Unlock()
	b.reply(w, http.StatusOK, prefs)
}

func (b *Backend) updatePrefs(w http.ResponseWriter, r *http.Request) {
	var body domain.NotificationPreferences
	_ = decodeBody(r, &body)
	b.mu.Lock()
	current := b.prefs[r.PathValue("id")]
	if current == nil {
		current = domain.NotificationPreferences{}
		b.prefs[r.PathValue("id")] = current
	}
	for k, v := range body {
		current[k] = v
	}
	out := domain.NotificationPreferences{}
	for k, v := range current {
		out[k] = v
	}
	b.mu.Unlock()
	b.reply(w, http.StatusOK, out)
}

func (b *Backend) listNotifications(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	items := make([]domain.Notification, 0, len(b.notifications))
	for _, n := range b.notifications {
		items = append(items, *n)
	}
	b.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	page, meta := paginate(items, r.URL.Query())
	b.replyPage(w, http.StatusOK, page, meta)
}

func (b *Backend) readOne(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	n, ok := b.notifications[r.PathValue("id")]
	if ok {
		n.Read = true
	}
	b.mu.Unlock()
	if !ok {
		b.notFound(w, "notification")
		return
	}
	b.reply(w, http.StatusNoContent, nil)
}

func (b *Backend) readAll(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	for _, n := range b.notifications {
		n.Read = true
	}
	b.mu.Unlock()
	b.reply(w, http.StatusNoContent, nil)
}

func (b *Backend) accepted(w http.ResponseWriter, r *http.Request) {
	b.reply(w, http.StatusCreated, map[string]any{"queued": true})
}
