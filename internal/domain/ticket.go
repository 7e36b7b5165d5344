package domain

import (
	"errors"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpened     TicketStatus = "opened"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists statuses in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpened,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Finished reports whether the status carries a closing timestamp.
func (s TicketStatus) Finished() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates ticket urgency.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityLow    TicketPriority = "low"
)

// TicketPriorities lists priorities from most to least urgent.
var TicketPriorities = []TicketPriority{
	TicketPriorityHigh,
	TicketPriorityMedium,
	TicketPriorityLow,
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities; higher is more urgent, 0 is unknown.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityHigh:
		return 3
	case TicketPriorityMedium:
		return 2
	case TicketPriorityLow:
		return 1
	default:
		return 0
	}
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string         `json:"id"`
	QueueID      string         `json:"queueId"`
	CategoryID   string         `json:"categoryId"`
	Title        string         `json:"title"`
	Details      string         `json:"details"`
	Status       TicketStatus   `json:"status"`
	Priority     TicketPriority `json:"priority"`
	AssignedToID *string        `json:"assignedToId"`
	CreatedByID  string         `json:"createdById"`
	DocumentIDs  []string       `json:"documentIds"`
	CreatedAt    time.Time      `json:"createdAt"`
	ClosedAt     *time.Time     `json:"closedAt"`
	ClosingNotes *string        `json:"closingNotes"`
}

var (
	ErrClosedAtMismatch     = errors.New("closedAt must be set exactly when the ticket is resolved or closed")
	ErrInProgressUnassigned = errors.New("an in-progress ticket must have an assignee")
)

// IsAssigned reports whether the ticket has a handling user.
func (t *Ticket) IsAssigned() bool {
	return t.AssignedToID != nil && *t.AssignedToID != ""
}

// CheckInvariants verifies the lifecycle invariants the workflow maintains.
func (t *Ticket) CheckInvariants() error {
	if t.Status.Finished() != (t.ClosedAt != nil) {
		return ErrClosedAtMismatch
	}
	if t.Status == TicketStatusInProgress && !t.IsAssigned() {
		return ErrInProgressUnassigned
	}
	return nil
}

// HasDocuments reports whether any document is attached.
func (t *Ticket) HasDocuments() bool {
	return len(t.DocumentIDs) > 0
}
