package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-console/internal/board"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/search"
	"github.com/spec-kit/helpdesk-console/internal/timeline"
	"github.com/spec-kit/helpdesk-console/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

const (
	collectPageSize = 100
	collectMaxPages = 50
)

// BoardService serves the Kanban board of a queue.
type BoardService struct {
	deps    Dependencies
	tickets *TicketService
}

// NewBoardService creates the service.
func NewBoardService(deps Dependencies, tickets *TicketService) *BoardService {
	return &BoardService{deps: deps.withDefaults(), tickets: tickets}
}

// MoveResult is the outcome of a card move. Prompt is set instead of
// Ticket when the move needs an assignee or closing notes first.
type MoveResult struct {
	Ticket *domain.Ticket   `json:"ticket,omitempty"`
	Prompt *workflow.Prompt `json:"prompt,omitempty"`
}

// Board returns the queue's open work in three columns.
func (s *BoardService) Board(ctx context.Context, sess *domain.Session, queueID string) (board.Board, error) {
	if err := requireSession(sess); err != nil {
		return board.Board{}, err
	}
	tickets, err := collect(ctx, s.tickets, sess, search.Filter{
		QueueID:  queueID,
		Statuses: []domain.TicketStatus{domain.TicketStatusOpened, domain.TicketStatusInProgress, domain.TicketStatusResolved},
	})
	if err != nil {
		return board.Board{}, err
	}
	return board.Build(queueID, tickets), nil
}

// Move applies a card move. A source column that no longer matches the
// ticket's status is reported as a conflict so the board can refresh.
func (s *BoardService) Move(ctx context.Context, sess *domain.Session, queueID string, move board.MoveEvent, answers board.Answers) (MoveResult, error) {
	if err := requireSession(sess); err != nil {
		return MoveResult{}, err
	}
	if err := move.Validate(); err != nil {
		return MoveResult{}, apperrors.NewValidationError(err.Error(), map[string]any{"move": move})
	}
	current, err := s.tickets.fresh(ctx, sess, move.TicketID)
	if err != nil {
		return MoveResult{}, err
	}
	if queueID != "" && current.QueueID != queueID {
		return MoveResult{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": move.TicketID, "queue_id": queueID})
	}
	if board.ColumnID(current.Status) != move.Source {
		return MoveResult{}, apperrors.NewConflict("ticket is no longer in the source column", map[string]any{
			"ticket_id": current.ID,
			"status":    current.Status,
		})
	}
	if move.Noop() {
		return MoveResult{Ticket: current}, nil
	}
	ticket, err := s.tickets.Transition(ctx, sess, move.TicketID, board.Request(move, answers, s.deps.Clock.Now().UTC()))
	if prompt := PromptOf(err); prompt != nil {
		return MoveResult{Prompt: prompt}, nil
	}
	if err != nil {
		return MoveResult{Ticket: ticket}, err
	}
	return MoveResult{Ticket: ticket}, nil
}

// TimelineService serves the weekly timeline of a queue.
type TimelineService struct {
	deps    Dependencies
	tickets *TicketService
}

// NewTimelineService creates the service.
func NewTimelineService(deps Dependencies, tickets *TicketService) *TimelineService {
	return &TimelineService{deps: deps.withDefaults(), tickets: tickets}
}

// Timeline lays out the queue's tickets for the week containing
// weekStart. A zero weekStart means the current week.
func (s *TimelineService) Timeline(ctx context.Context, sess *domain.Session, queueID string, weekStart time.Time) (timeline.Grid, error) {
	if err := requireSession(sess); err != nil {
		return timeline.Grid{}, err
	}
	if weekStart.IsZero() {
		weekStart = s.deps.Clock.Now().UTC()
	}
	weekStart = timeline.WeekOf(weekStart)
	weekEnd := weekStart.AddDate(0, 0, timeline.Days-1)
	tickets, err := collect(ctx, s.tickets, sess, search.Filter{QueueID: queueID, CreatedTo: &weekEnd})
	if err != nil {
		return timeline.Grid{}, err
	}
	return timeline.Build(weekStart, tickets), nil
}

// collect pages through every ticket matching f.
func collect(ctx context.Context, tickets *TicketService, sess *domain.Session, f search.Filter) ([]domain.Ticket, error) {
	var all []domain.Ticket
	for page := 1; page <= collectMaxPages; page++ {
		result, err := tickets.List(ctx, sess, f, page, collectPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Items...)
		if !result.HasMore() {
			break
		}
	}
	return all, nil
}
