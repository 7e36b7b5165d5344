package events

import (
	"time"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketCommented     EventType = "ticket_commented"
	EventDocumentAdded       EventType = "ticket_document_added"
	EventDocumentRemoved     EventType = "ticket_document_removed"
	EventNotice              EventType = "notice"
)

// TicketEventTypes lists every ticket lifecycle event.
var TicketEventTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketDeleted,
	EventTicketAssigned,
	EventTicketStatusChanged,
	EventTicketCommented,
	EventDocumentAdded,
	EventDocumentRemoved,
}

// Actor identifies the session that caused an event.
type Actor struct {
	UserID string          `json:"user_id"`
	Role   domain.UserRole `json:"role,omitempty"`
}

// ActorFrom copies the identifying fields of a session.
func ActorFrom(sess *domain.Session) Actor {
	if sess == nil {
		return Actor{UserID: domain.Anonymous.UserID}
	}
	return Actor{UserID: sess.UserID, Role: sess.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	QueueID    string                `json:"queue_id"`
	CategoryID string                `json:"category_id"`
	Priority   domain.TicketPriority `json:"priority"`
	Title      string                `json:"title"`
}

// TicketUpdatedPayload lists the fields a patch touched.
type TicketUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload. A nil assignee means unassigned.
type TicketAssignedPayload struct {
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	HistoryID   string `json:"history_id"`
	BodyPreview string `json:"body_preview"`
}

// DocumentPayload payload for document add/remove.
type DocumentPayload struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name,omitempty"`
}

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message shown to the user who triggered an
// action. It is the payload of EventNotice.
type Notice struct {
	ID        string      `json:"id"`
	Level     NoticeLevel `json:"level"`
	Action    string      `json:"action"`
	Message   string      `json:"message"`
	TicketID  string      `json:"ticketId,omitempty"`
	UserID    string      `json:"userId"`
	CreatedAt time.Time   `json:"createdAt"`
}
