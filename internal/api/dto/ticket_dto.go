package dto

import (
	"github.com/spec-kit/helpdesk-console/internal/board"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/workflow"
)

// PageMeta describes the paging state of a list response.
type PageMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// MetaOf returns the meta block for p.
func MetaOf[T any](p domain.Page[T]) PageMeta {
	return PageMeta{Page: p.Page, Limit: p.Limit, Total: p.Total, HasMore: p.HasMore()}
}

// AssignRequest payload for POST /tickets/:id/assign.
type AssignRequest struct {
	UserID string `json:"userId"`
}

// TransitionRequest payload for POST /tickets/:id/transition. AssigneeID
// and ClosingNotes answer a previous prompt.
type TransitionRequest struct {
	Status          domain.TicketStatus `json:"status"`
	AssigneeID      string              `json:"assigneeId,omitempty"`
	ClosingNotes    string              `json:"closingNotes,omitempty"`
	ClearAssignment bool                `json:"clearAssignment,omitempty"`
}

// Workflow converts the payload into a workflow request. The service
// stamps the time.
func (r TransitionRequest) Workflow() workflow.Request {
	return workflow.Request{
		Target:          r.Status,
		AssigneeID:      r.AssigneeID,
		ClosingNotes:    r.ClosingNotes,
		ClearAssignment: r.ClearAssignment,
	}
}

// CommentRequest payload for POST /tickets/:id/comments.
type CommentRequest struct {
	Body string `json:"body"`
}

// MoveRequest payload for POST /queues/:id/board/moves.
type MoveRequest struct {
	board.MoveEvent
	board.Answers
}

// TicketDetailResponse bundles a ticket with its history and documents.
type TicketDetailResponse struct {
	domain.Ticket
	History   []domain.HistoryItem `json:"history"`
	Documents []domain.Document    `json:"documents"`
}
