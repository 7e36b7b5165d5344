package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// CreateTicketRequest is the body of POST /v1/tickets.
type CreateTicketRequest struct {
	QueueID     string                `json:"queueId" validate:"required"`
	CategoryID  string                `json:"categoryId" validate:"required"`
	Title       string                `json:"title" validate:"required,min=3,max=200"`
	Details     string                `json:"details" validate:"max=10000"`
	Priority    domain.TicketPriority `json:"priority" validate:"required,oneof=high medium low"`
	DocumentIDs []string              `json:"documentIds,omitempty"`
}

// PublicTicketRequest is the body of POST /v1/tickets/public, used by
// submitters without an account.
type PublicTicketRequest struct {
	CreateTicketRequest
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
}

// UpdateTicketRequest patches editable ticket fields. Nil fields are left
// untouched.
type UpdateTicketRequest struct {
	Title      *string                `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Details    *string                `json:"details,omitempty" validate:"omitempty,max=10000"`
	Priority   *domain.TicketPriority `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	QueueID    *string                `json:"queueId,omitempty"`
	CategoryID *string                `json:"categoryId,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (r UpdateTicketRequest) IsEmpty() bool {
	return r.Title == nil && r.Details == nil && r.Priority == nil && r.QueueID == nil && r.CategoryID == nil
}

type assignRequest struct {
	AssignedToID *string `json:"assignedToId"`
}

// StatusRequest is the body of PATCH /v1/tickets/{id}/status.
type StatusRequest struct {
	Status          domain.TicketStatus
	ClosingNotes    *string
	ClosedAt        *time.Time
	ClearAssignment bool
}

// MarshalJSON always sends closedAt so the backend copy keeps the closedAt
// invariant, and sends assignedToId only when clearing it.
func (r StatusRequest) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"status":   r.Status,
		"closedAt": r.ClosedAt,
	}
	if r.ClosingNotes != nil {
		body["closingNotes"] = *r.ClosingNotes
	}
	if r.ClearAssignment {
		body["assignedToId"] = nil
	}
	return json.Marshal(body)
}

// HistoryRequest is the body of POST /v1/tickets/{id}/history.
type HistoryRequest struct {
	Type       domain.HistoryItemType `json:"type"`
	Content    string                 `json:"content,omitempty"`
	DocumentID *string                `json:"documentId,omitempty"`
}

// ListTickets returns one page of tickets matching the filter query.
func (c *Client) ListTickets(ctx context.Context, sess *domain.Session, query url.Values) (domain.Page[domain.Ticket], error) {
	env, err := get[[]domain.Ticket](ctx, c, sess, at("/v1/tickets"), query)
	if err != nil {
		return domain.Page[domain.Ticket]{}, err
	}
	return toPage(env, intParam(query, "page", 1), intParam(query, "limit", 0)), nil
}

// GetTicket fetches a single ticket.
func (c *Client) GetTicket(ctx context.Context, sess *domain.Session, id string) (*domain.Ticket, error) {
	env, err := get[*domain.Ticket](ctx, c, sess, at("/v1/tickets/{id}", id), nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateTicket submits a ticket as the session user.
func (c *Client) CreateTicket(ctx context.Context, sess *domain.Session, req CreateTicketRequest) (*domain.Ticket, error) {
	return write[*domain.Ticket](ctx, c, sess, http.MethodPost, at("/v1/tickets"), req)
}

// CreatePublicTicket submits a ticket without authentication.
func (c *Client) CreatePublicTicket(ctx context.Context, req PublicTicketRequest) (*domain.Ticket, error) {
	return write[*domain.Ticket](ctx, c, nil, http.MethodPost, at("/v1/tickets/public"), req)
}

// UpdateTicket patches editable fields.
func (c *Client) UpdateTicket(ctx context.Context, sess *domain.Session, id string, req UpdateTicketRequest) (*domain.Ticket, error) {
	return write[*domain.Ticket](ctx, c, sess, http.MethodPatch, at("/v1/tickets/{id}", id), req)
}

// AssignTicket sets or, with a nil userID, clears the assignee.
func (c *Client) AssignTicket(ctx context.Context, sess *domain.Session, id string, userID *string) (*domain.Ticket, error) {
	return write[*domain.Ticket](ctx, c, sess, http.MethodPatch, at("/v1/tickets/{id}/assign", id), assignRequest{AssignedToID: userID})
}

// UpdateStatus issues a status transition.
func (c *Client) UpdateStatus(ctx context.Context, sess *domain.Session, id string, req StatusRequest) (*domain.Ticket, error) {
	return write[*domain.Ticket](ctx, c, sess, http.MethodPatch, at("/v1/tickets/{id}/status", id), req)
}

// DeleteTicket removes a ticket.
func (c *Client) DeleteTicket(ctx context.Context, sess *domain.Session, id string) error {
	_, err := c.send(ctx, sess, call{method: http.MethodDelete, to: at("/v1/tickets/{id}", id)})
	return err
}

// ListHistory returns the ticket's audit log, oldest first.
func (c *Client) ListHistory(ctx context.Context, sess *domain.Session, ticketID string) ([]domain.HistoryItem, error) {
	env, err := get[[]domain.HistoryItem](ctx, c, sess, at("/v1/tickets/{id}/history", ticketID), nil)
	if err != nil {
		return nil, err
	}
	return nonNil(env.Data), nil
}

// AddHistory appends a history item.
func (c *Client) AddHistory(ctx context.Context, sess *domain.Session, ticketID string, req HistoryRequest) (*domain.HistoryItem, error) {
	return write[*domain.HistoryItem](ctx, c, sess, http.MethodPost, at("/v1/tickets/{id}/history", ticketID), req)
}

// ListDocuments returns the ticket's attachments.
func (c *Client) ListDocuments(ctx context.Context, sess *domain.Session, ticketID string) ([]domain.Document, error) {
	env, err := get[[]domain.Document](ctx, c, sess, at("/v1/tickets/{id}/documents", ticketID), nil)
	if err != nil {
		return nil, err
	}
	return nonNil(env.Data), nil
}

// UploadDocument streams a file as multipart form field "file".
func (c *Client) UploadDocument(ctx context.Context, sess *domain.Session, ticketID, fileName string, content io.Reader) (*domain.Document, error) {
	body, err := c.send(ctx, sess, call{
		method: http.MethodPost,
		to:     at("/v1/tickets/{id}/documents", ticketID),
		upload: &upload{field: "file", fileName: fileName, reader: content},
	})
	if err != nil {
		return nil, err
	}
	env, err := decodeOrInternal[*domain.Document](body)
	return env.Data, err
}

// DeleteDocument removes an attachment.
func (c *Client) DeleteDocument(ctx context.Context, sess *domain.Session, ticketID, documentID string) error {
	_, err := c.send(ctx, sess, call{
		method: http.MethodDelete,
		to:     at("/v1/tickets/{id}/documents/{documentId}", ticketID, documentID),
	})
	return err
}

// AnalyticsTickets exports every ticket in the query range for client-side
// aggregation.
func (c *Client) AnalyticsTickets(ctx context.Context, sess *domain.Session, query url.Values) ([]domain.Ticket, error) {
	env, err := get[[]domain.Ticket](ctx, c, sess, at("/v1/tickets/analytics/tickets"), query)
	if err != nil {
		return nil, err
	}
	return nonNil(env.Data), nil
}

func intParam(query url.Values, key string, fallback int) int {
	raw := query.Get(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
