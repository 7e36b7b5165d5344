package workflow

import (
	"errors"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// PromptKind names the missing input a surface has to ask for.
type PromptKind string

const (
	PromptAssignee     PromptKind = "assignee"
	PromptClosingNotes PromptKind = "closing_notes"
)

// Prompt is what a surface shows instead of issuing a request: a user
// picker or a closing-notes form. Resubmitting the move with the answer
// completes it.
type Prompt struct {
	Kind         PromptKind          `json:"kind"`
	TicketID     string              `json:"ticketId"`
	Target       domain.TicketStatus `json:"target"`
	PrefillNotes string              `json:"prefillNotes,omitempty"`
	Candidates   []domain.User       `json:"candidates,omitempty"`
}

// PromptFor converts a planning error into a prompt. It returns nil for
// errors that are not missing-input errors.
func PromptFor(ticket domain.Ticket, target domain.TicketStatus, err error) *Prompt {
	switch {
	case errors.Is(err, ErrAssigneeRequired):
		return &Prompt{Kind: PromptAssignee, TicketID: ticket.ID, Target: target}
	case errors.Is(err, ErrClosingNotesRequired):
		p := &Prompt{Kind: PromptClosingNotes, TicketID: ticket.ID, Target: target}
		if ticket.ClosingNotes != nil {
			p.PrefillNotes = *ticket.ClosingNotes
		}
		return p
	}
	return nil
}
