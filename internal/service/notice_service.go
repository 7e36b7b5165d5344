package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-console/internal/clock"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/events"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

// NoticeService turns mutation outcomes into notices for the acting user.
// A nil *NoticeService drops every notice.
type NoticeService struct {
	dispatcher events.Dispatcher
	feed       *events.NoticeFeed
	logger     *zap.Logger
	clock      clock.Clock
}

// NewNoticeService creates the service.
func NewNoticeService(dispatcher events.Dispatcher, feed *events.NoticeFeed, logger *zap.Logger, c clock.Clock) *NoticeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = clock.Real()
	}
	if feed == nil {
		feed = events.NewNoticeFeed(events.DefaultFeedSize)
	}
	return &NoticeService{dispatcher: dispatcher, feed: feed, logger: logger, clock: c}
}

// RegisterHandlers subscribes the feed and logger to notices and turns
// ticket events into success notices.
func (n *NoticeService) RegisterHandlers() {
	if n == nil || n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventNotice, n.feed.Handle)
	n.dispatcher.Subscribe(events.EventNotice, n.logNotice)
	for _, eventType := range events.TicketEventTypes {
		n.dispatcher.Subscribe(eventType, n.handleTicketEvent)
	}
}

func (n *NoticeService) logNotice(_ context.Context, event events.Event) error {
	notice, ok := event.Payload.(events.Notice)
	if !ok {
		return nil
	}
	fields := []zap.Field{
		zap.String("action", notice.Action),
		zap.String("user_id", notice.UserID),
		zap.String("ticket_id", notice.TicketID),
	}
	switch notice.Level {
	case events.NoticeError:
		n.logger.Warn(notice.Message, fields...)
	default:
		n.logger.Info(notice.Message, fields...)
	}
	return nil
}

func (n *NoticeService) handleTicketEvent(ctx context.Context, event events.Event) error {
	message, ok := ticketEventMessage(event)
	if !ok {
		return nil
	}
	n.emit(ctx, events.Notice{
		Level:    events.NoticeSuccess,
		Action:   string(event.Type),
		Message:  message,
		TicketID: event.TicketID,
		UserID:   event.Actor.UserID,
	})
	return nil
}

func ticketEventMessage(event events.Event) (string, bool) {
	switch p := event.Payload.(type) {
	case events.TicketCreatedPayload:
		return fmt.Sprintf("Ticket %q created", p.Title), true
	case events.TicketUpdatedPayload:
		return "Ticket updated", true
	case events.TicketStatusChangedPayload:
		return fmt.Sprintf("Ticket moved from %s to %s", p.OldStatus, p.NewStatus), true
	case events.TicketAssignedPayload:
		if p.AssigneeID == nil {
			return "Ticket unassigned", true
		}
		return "Ticket assigned", true
	case events.TicketCommentedPayload:
		return "Comment added", true
	case events.DocumentPayload:
		if event.Type == events.EventDocumentRemoved {
			return fmt.Sprintf("Document %s removed", p.FileName), true
		}
		return fmt.Sprintf("Document %s attached", p.FileName), true
	}
	if event.Type == events.EventTicketDeleted {
		return "Ticket deleted", true
	}
	return "", false
}

// Success records a success notice.
func (n *NoticeService) Success(ctx context.Context, sess *domain.Session, action, ticketID, message string) {
	n.push(ctx, sess, events.NoticeSuccess, action, ticketID, message)
}

// Warn records a warning, used when the main action succeeded but a
// follow-up did not.
func (n *NoticeService) Warn(ctx context.Context, sess *domain.Session, action, ticketID, message string) {
	n.push(ctx, sess, events.NoticeWarning, action, ticketID, message)
}

// Failure records an error notice carrying the error's message.
func (n *NoticeService) Failure(ctx context.Context, sess *domain.Session, action, ticketID string, err error) {
	if err == nil {
		return
	}
	n.push(ctx, sess, events.NoticeError, action, ticketID, apperrors.ToDomainError(err).Message)
}

// Drain returns and clears the user's pending notices.
func (n *NoticeService) Drain(userID string) []events.Notice {
	if n == nil {
		return []events.Notice{}
	}
	return n.feed.Drain(userID)
}

// Peek returns the user's pending notices without clearing them.
func (n *NoticeService) Peek(userID string) []events.Notice {
	if n == nil {
		return []events.Notice{}
	}
	return n.feed.Peek(userID)
}

// Prune evicts notices older than maxAge that nobody drained.
func (n *NoticeService) Prune(maxAge time.Duration) int {
	if n == nil {
		return 0
	}
	return n.feed.Prune(n.clock.Now().UTC().Add(-maxAge))
}

func (n *NoticeService) push(ctx context.Context, sess *domain.Session, level events.NoticeLevel, action, ticketID, message string) {
	if n == nil {
		return
	}
	n.emit(ctx, events.Notice{
		Level:    level,
		Action:   action,
		Message:  message,
		TicketID: ticketID,
		UserID:   events.ActorFrom(sess).UserID,
	})
}

func (n *NoticeService) emit(ctx context.Context, notice events.Notice) {
	notice.ID = uuid.NewString()
	notice.CreatedAt = n.clock.Now().UTC()
	if n.dispatcher == nil {
		n.feed.Push(notice)
		return
	}
	err := n.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventNotice,
		TicketID:  notice.TicketID,
		Actor:     events.Actor{UserID: notice.UserID},
		Timestamp: notice.CreatedAt,
		Payload:   notice,
	})
	if err != nil {
		n.logger.Warn("notice delivery failed", zap.Error(err))
	}
}
