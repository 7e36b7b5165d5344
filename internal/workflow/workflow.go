// Package workflow decides which backend calls move a ticket between
// statuses. It performs no I/O; Run executes a plan through an Executor.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

var (
	ErrAssigneeRequired     = errors.New("an assignee is required before work can start")
	ErrClosingNotesRequired = errors.New("closing notes are required")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrUnassignNotAllowed   = errors.New("only opened tickets can be unassigned")
)

var transitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpened:     {domain.TicketStatusInProgress, domain.TicketStatusResolved},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved, domain.TicketStatusOpened},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusOpened},
	domain.TicketStatusClosed:     {domain.TicketStatusOpened, domain.TicketStatusResolved},
}

// Targets lists the statuses reachable from status.
func Targets(status domain.TicketStatus) []domain.TicketStatus {
	return append([]domain.TicketStatus(nil), transitions[status]...)
}

// Allowed reports whether a ticket may move from one status to another.
func Allowed(from, to domain.TicketStatus) bool {
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Request describes the move the user asked for.
type Request struct {
	Target domain.TicketStatus
	// AssigneeID is the user picked in the assignment prompt, if any.
	AssigneeID string
	// ClosingNotes is the text entered in the closing-notes prompt.
	ClosingNotes string
	// ClearAssignment sends assignedToId null with a move to opened.
	ClearAssignment bool
	Now             time.Time
}

// Step is one backend call of a plan.
type Step interface {
	Name() string
}

// AssignStep sets the ticket's assignee.
type AssignStep struct {
	UserID string
}

func (AssignStep) Name() string { return "assign" }

// StatusStep changes the ticket's status.
type StatusStep struct {
	Status          domain.TicketStatus
	ClosingNotes    *string
	ClosedAt        *time.Time
	ClearAssignment bool
}

func (s StatusStep) Name() string { return "status:" + string(s.Status) }

// Plan is the ordered list of calls that realises a Request. An empty plan
// means nothing has to change.
type Plan struct {
	Steps []Step
}

// Empty reports whether the plan issues no calls.
func (p Plan) Empty() bool { return len(p.Steps) == 0 }

// TransitionError names a move the state machine refuses.
type TransitionError struct {
	From, To domain.TicketStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move ticket from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Build plans the calls needed to move ticket as req describes.
func Build(ticket domain.Ticket, req Request) (Plan, error) {
	if !req.Target.Valid() {
		return Plan{}, &TransitionError{From: ticket.Status, To: req.Target}
	}
	if ticket.Status == req.Target {
		return Plan{}, nil
	}
	if !Allowed(ticket.Status, req.Target) {
		return Plan{}, &TransitionError{From: ticket.Status, To: req.Target}
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	switch req.Target {
	case domain.TicketStatusInProgress:
		var steps []Step
		assignee := strings.TrimSpace(req.AssigneeID)
		switch {
		case assignee != "" && (ticket.AssignedToID == nil || *ticket.AssignedToID != assignee):
			steps = append(steps, AssignStep{UserID: assignee})
		case assignee == "" && !ticket.IsAssigned():
			return Plan{}, ErrAssigneeRequired
		}
		steps = append(steps, StatusStep{Status: domain.TicketStatusInProgress})
		return Plan{Steps: steps}, nil

	case domain.TicketStatusResolved, domain.TicketStatusClosed:
		notes := strings.TrimSpace(req.ClosingNotes)
		if notes == "" {
			return Plan{}, ErrClosingNotesRequired
		}
		return Plan{Steps: []Step{StatusStep{Status: req.Target, ClosingNotes: &notes, ClosedAt: &now}}}, nil

	default:
		return Plan{Steps: []Step{StatusStep{Status: domain.TicketStatusOpened, ClearAssignment: req.ClearAssignment}}}, nil
	}
}

// CanUnassign reports whether the assignee may be removed outright.
func CanUnassign(ticket domain.Ticket) error {
	if ticket.Status != domain.TicketStatusOpened {
		return ErrUnassignNotAllowed
	}
	return nil
}

// Executor performs plan steps against the backend.
type Executor interface {
	Assign(ctx context.Context, ticketID string, step AssignStep) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, ticketID string, step StatusStep) (*domain.Ticket, error)
}

// PartialFailureError reports a plan that stopped after some calls had
// already succeeded. Completed calls are not rolled back.
type PartialFailureError struct {
	Completed []Step
	Failed    Step
	Err       error
}

func (e *PartialFailureError) Error() string {
	names := make([]string, len(e.Completed))
	for i, s := range e.Completed {
		names[i] = s.Name()
	}
	return fmt.Sprintf("%s failed after %s succeeded: %v", e.Failed.Name(), strings.Join(names, ", "), e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// Run issues the plan's steps in order and stops at the first failure. It
// returns the ticket as reported by the last successful call, or nil when
// the plan is empty.
func Run(ctx context.Context, exec Executor, ticketID string, plan Plan) (*domain.Ticket, error) {
	var (
		latest    *domain.Ticket
		completed []Step
	)
	for _, step := range plan.Steps {
		var (
			updated *domain.Ticket
			err     error
		)
		switch s := step.(type) {
		case AssignStep:
			updated, err = exec.Assign(ctx, ticketID, s)
		case StatusStep:
			updated, err = exec.UpdateStatus(ctx, ticketID, s)
		default:
			err = fmt.Errorf("unknown step %T", step)
		}
		if err != nil {
			if len(completed) == 0 {
				return nil, err
			}
			return latest, &PartialFailureError{Completed: completed, Failed: step, Err: err}
		}
		latest = updated
		completed = append(completed, step)
	}
	return latest, nil
}
