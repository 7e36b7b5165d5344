package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/events"
	"github.com/spec-kit/helpdesk-console/internal/query"
	"github.com/spec-kit/helpdesk-console/internal/search"
	"github.com/spec-kit/helpdesk-console/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

// TicketService contains ticket reads, edits and workflow moves.
type TicketService struct {
	deps Dependencies
}

// NewTicketService creates the service.
func NewTicketService(deps Dependencies) *TicketService {
	return &TicketService{deps: deps.withDefaults()}
}

// CommentInput is the body of a new comment.
type CommentInput struct {
	Body string `json:"body" validate:"required,max=10000"`
}

// List returns one page of tickets matching the filter.
func (s *TicketService) List(ctx context.Context, sess *domain.Session, f search.Filter, page, limit int) (domain.Page[domain.Ticket], error) {
	if err := requireSession(sess); err != nil {
		return domain.Page[domain.Ticket]{}, err
	}
	params := f.Query(page, limit)
	return query.Fetch(ctx, s.deps.Cache, query.TicketListKey(sess.UserID, params), func(ctx context.Context) (domain.Page[domain.Ticket], error) {
		return s.deps.API.ListTickets(ctx, sess, params)
	})
}

// Fetcher adapts List to a search pager.
func (s *TicketService) Fetcher(sess *domain.Session) search.FetchFunc {
	return func(ctx context.Context, f search.Filter, page, limit int) (domain.Page[domain.Ticket], error) {
		return s.List(ctx, sess, f, page, limit)
	}
}

// Get returns a single ticket.
func (s *TicketService) Get(ctx context.Context, sess *domain.Session, id string) (*domain.Ticket, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	ticket, err := query.Fetch(ctx, s.deps.Cache, query.TicketDetailKey(id, sess.UserID), func(ctx context.Context) (*domain.Ticket, error) {
		return s.deps.API.GetTicket(ctx, sess, id)
	})
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return ticket, nil
}

// History returns the ticket's audit log.
func (s *TicketService) History(ctx context.Context, sess *domain.Session, id string) ([]domain.HistoryItem, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	return query.Fetch(ctx, s.deps.Cache, query.TicketHistoryKey(id, sess.UserID), func(ctx context.Context) ([]domain.HistoryItem, error) {
		return s.deps.API.ListHistory(ctx, sess, id)
	})
}

// Documents returns the ticket's attachments.
func (s *TicketService) Documents(ctx context.Context, sess *domain.Session, id string) ([]domain.Document, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	return query.Fetch(ctx, s.deps.Cache, query.TicketDocumentsKey(id, sess.UserID), func(ctx context.Context) ([]domain.Document, error) {
		return s.deps.API.ListDocuments(ctx, sess, id)
	})
}

// Create submits a ticket as the session user. New tickets are opened and
// unassigned; priority defaults to medium.
func (s *TicketService) Create(ctx context.Context, sess *domain.Session, input apiclient.CreateTicketRequest) (*domain.Ticket, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	input = normalizeCreate(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := requireCategoryInQueue(ctx, s.deps, sess, input.QueueID, input.CategoryID); err != nil {
		return nil, err
	}
	ticket, err := s.deps.API.CreateTicket(ctx, sess, input)
	if err != nil {
		s.deps.Notices.Failure(ctx, sess, "create_ticket", "", err)
		return nil, err
	}
	s.created(ctx, sess, ticket)
	return ticket, nil
}

// CreatePublic submits a ticket for a caller without an account.
func (s *TicketService) CreatePublic(ctx context.Context, input apiclient.PublicTicketRequest) (*domain.Ticket, error) {
	input.CreateTicketRequest = normalizeCreate(input.CreateTicketRequest)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := requireCategoryInQueue(ctx, s.deps, nil, input.QueueID, input.CategoryID); err != nil {
		return nil, err
	}
	ticket, err := s.deps.API.CreatePublicTicket(ctx, input)
	if err != nil {
		return nil, err
	}
	s.created(ctx, domain.Anonymous, ticket)
	return ticket, nil
}

func normalizeCreate(input apiclient.CreateTicketRequest) apiclient.CreateTicketRequest {
	input.Title = strings.TrimSpace(input.Title)
	input.Details = strings.TrimSpace(input.Details)
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	return input
}

func (s *TicketService) created(ctx context.Context, sess *domain.Session, ticket *domain.Ticket) {
	invalidate(ctx, s.deps, query.TicketMutation("")...)
	publishEvent(ctx, s.deps, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(sess),
		Payload: events.TicketCreatedPayload{
			QueueID:    ticket.QueueID,
			CategoryID: ticket.CategoryID,
			Priority:   ticket.Priority,
			Title:      ticket.Title,
		},
	})
}

// Update patches editable fields. Moving a ticket to another queue or
// category re-checks that the pair still matches.
func (s *TicketService) Update(ctx context.Context, sess *domain.Session, id string, input apiclient.UpdateTicketRequest) (*domain.Ticket, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if input.IsEmpty() {
		return nil, apperrors.NewValidationError("nothing to update", nil)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.QueueID != nil || input.CategoryID != nil {
		current, err := s.fresh(ctx, sess, id)
		if err != nil {
			return nil, err
		}
		queueID, categoryID := current.QueueID, current.CategoryID
		if input.QueueID != nil {
			queueID = *input.QueueID
		}
		if input.CategoryID != nil {
			categoryID = *input.CategoryID
		}
		if err := requireCategoryInQueue(ctx, s.deps, sess, queueID, categoryID); err != nil {
			return nil, err
		}
	}
	ticket, err := s.deps.API.UpdateTicket(ctx, sess, id, input)
	if err != nil {
		s.deps.Notices.Failure(ctx, sess, "update_ticket", id, err)
		return nil, err
	}
	invalidate(ctx, s.deps, query.TicketMutation(id)...)
	publishEvent(ctx, s.deps, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: id,
		Actor:    events.ActorFrom(sess),
		Payload:  events.TicketUpdatedPayload{Fields: patchedFields(input)},
	})
	return ticket, nil
}

func patchedFields(input apiclient.UpdateTicketRequest) []string {
	var fields []string
	if input.Title != nil {
		fields = append(fields, "title")
	}
	if input.Details != nil {
		fields = append(fields, "details")
	}
	if input.Priority != nil {
		fields = append(fields, "priority")
	}
	if input.QueueID != nil {
		fields = append(fields, "queueId")
	}
	if input.CategoryID != nil {
		fields = append(fields, "categoryId")
	}
	return fields
}

// Delete removes a ticket.
func (s *TicketService) Delete(ctx context.Context, sess *domain.Session, id string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := s.deps.API.DeleteTicket(ctx, sess, id); err != nil {
		s.deps.Notices.Failure(ctx, sess, "delete_ticket", id, err)
		return err
	}
	invalidate(ctx, s.deps, query.TicketMutation(id)...)
	publishEvent(ctx, s.deps, events.Event{Type: events.EventTicketDeleted, TicketID: id, Actor: events.ActorFrom(sess)})
	return nil
}

// Assign sets the handling user without changing the status. The user
// must be one of the queue's handlers.
func (s *TicketService) Assign(ctx context.Context, sess *domain.Session, id, userID string) (*domain.Ticket, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fieldError("assignedToId", "required")
	}
	current, err := s.fresh(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := requireQueueUser(ctx, s.deps, sess, current.QueueID, userID); err != nil {
		return nil, err
	}
	ticket, err := s.deps.API.AssignTicket(ctx, sess, id, &userID)
	if err != nil {
		s.deps.Notices.Failure(ctx, sess, "assign_ticket", id, err)
		return nil, err
	}
	s.afterSteps(ctx, sess, *current, []workflow.Step{workflow.AssignStep{UserID: userID}})
	return ticket, nil
}

// Unassign clears the assignee of an opened ticket. Tickets in other
// states are unassigned by moving them back to opened.
func (s *TicketService) Unassign(ctx context.Context, sess *domain.Session, id string) (*domain.Ticket, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	current, err := s.fresh(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.CanUnassign(*current); err != nil {
		return nil, planError(*current, current.Status, err, nil)
	}
	ticket, err := s.deps.API.AssignTicket(ctx, sess, id, nil)
	if err != nil {
		s.deps.Notices.Failure(ctx, sess, "unassign_ticket", id, err)
		return nil, err
	}
	invalidate(ctx, s.deps, query.TicketMutation(id)...)
	publishEvent(ctx, s.deps, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: id,
		Actor:    events.ActorFrom(sess),
		Payload:  events.TicketAssignedPayload{},
	})
	return ticket, nil
}

// Transition moves a ticket along the workflow. The ticket is re-read from
// the backend first so the plan is built against current state. Missing
// input comes back as an ASSIGNEE_REQUIRED or CLOSING_NOTES_REQUIRED error
// carrying a prompt, and no request is issued. When a later step of the
// plan fails the ticket state after the completed steps is returned along
// with a PARTIAL_FAILURE error.
func (s *TicketService) Transition(ctx context.Context, sess *domain.Session, id string, req workflow.Request) (*domain.Ticket, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	current, err := s.fresh(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if req.Now.IsZero() {
		req.Now = s.deps.Clock.Now().UTC()
	}
	plan, err := workflow.Build(*current, req)
	if err != nil {
		var candidates []domain.User
		if errors.Is(err, workflow.ErrAssigneeRequired) {
			candidates, _ = queueUsers(ctx, s.deps, sess, current.QueueID)
		}
		return nil, planError(*current, req.Target, err, candidates)
	}
	if plan.Empty() {
		return current, nil
	}
	for _, step := range plan.Steps {
		if assign, ok := step.(workflow.AssignStep); ok {
			if err := requireQueueUser(ctx, s.deps, sess, current.QueueID, assign.UserID); err != nil {
				return nil, err
			}
		}
	}

	ticket, err := workflow.Run(ctx, apiExecutor{api: s.deps.API, sess: sess}, id, plan)
	var partial *workflow.PartialFailureError
	switch {
	case errors.As(err, &partial):
		s.afterSteps(ctx, sess, *current, partial.Completed)
		err = partialError(partial, ticket)
		s.deps.Notices.Failure(ctx, sess, "transition_ticket", id, err)
		return ticket, err
	case err != nil:
		s.deps.Notices.Failure(ctx, sess, "transition_ticket", id, err)
		return nil, err
	}
	s.afterSteps(ctx, sess, *current, plan.Steps)
	return ticket, nil
}

// Resolve moves the ticket to resolved with closing notes.
func (s *TicketService) Resolve(ctx context.Context, sess *domain.Session, id, notes string) (*domain.Ticket, error) {
	return s.Transition(ctx, sess, id, workflow.Request{Target: domain.TicketStatusResolved, ClosingNotes: notes})
}

// Close moves a resolved ticket to closed with closing notes.
func (s *TicketService) Close(ctx context.Context, sess *domain.Session, id, notes string) (*domain.Ticket, error) {
	return s.Transition(ctx, sess, id, workflow.Request{Target: domain.TicketStatusClosed, ClosingNotes: notes})
}

// Reopen moves the ticket back to opened. With clearAssignment the
// assignee is removed in the same request.
func (s *TicketService) Reopen(ctx context.Context, sess *domain.Session, id string, clearAssignment bool) (*domain.Ticket, error) {
	return s.Transition(ctx, sess, id, workflow.Request{Target: domain.TicketStatusOpened, ClearAssignment: clearAssignment})
}

// afterSteps invalidates caches and publishes one event per completed
// step.
func (s *TicketService) afterSteps(ctx context.Context, sess *domain.Session, before domain.Ticket, steps []workflow.Step) {
	if len(steps) == 0 {
		return
	}
	invalidate(ctx, s.deps, query.TicketMutation(before.ID)...)
	actor := events.ActorFrom(sess)
	status := before.Status
	for _, step := range steps {
		switch st := step.(type) {
		case workflow.AssignStep:
			userID := st.UserID
			publishEvent(ctx, s.deps, events.Event{
				Type:     events.EventTicketAssigned,
				TicketID: before.ID,
				Actor:    actor,
				Payload:  events.TicketAssignedPayload{AssigneeID: &userID},
			})
		case workflow.StatusStep:
			publishEvent(ctx, s.deps, events.Event{
				Type:     events.EventTicketStatusChanged,
				TicketID: before.ID,
				Actor:    actor,
				Payload:  events.TicketStatusChangedPayload{OldStatus: status, NewStatus: st.Status},
			})
			status = st.Status
		}
	}
}

// AddComment appends a COMMENT history item.
func (s *TicketService) AddComment(ctx context.Context, sess *domain.Session, id string, input CommentInput) (*domain.HistoryItem, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	input.Body = strings.TrimSpace(input.Body)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	item, err := s.deps.API.AddHistory(ctx, sess, id, apiclient.HistoryRequest{Type: domain.HistoryComment, Content: input.Body})
	if err != nil {
		s.deps.Notices.Failure(ctx, sess, "add_comment", id, err)
		return nil, err
	}
	invalidate(ctx, s.deps, query.TicketMutation(id)...)
	publishEvent(ctx, s.deps, events.Event{
		Type:     events.EventTicketCommented,
		TicketID: id,
		Actor:    events.ActorFrom(sess),
		Payload:  events.TicketCommentedPayload{HistoryID: item.ID, BodyPreview: stringPreview(input.Body, 80)},
	})
	return item, nil
}

// AddDocument uploads a file and records a DOCUMENT_ADDED history item
// once the upload succeeded.
func (s *TicketService) AddDocument(ctx context.Context, sess *domain.Session, id, fileName string, content io.Reader) (*domain.Document, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, fieldError("file", "file name required")
	}
	doc, err := s.deps.API.UploadDocument(ctx, sess, id, fileName, content)
	if err != nil {
		s.deps.Notices.Failure(ctx, sess, "add_document", id, err)
		return nil, err
	}
	docID := doc.ID
	s.recordDocument(ctx, sess, id, domain.HistoryDocumentAdded, &docID, doc.FileName)
	publishEvent(ctx, s.deps, events.Event{
		Type:     events.EventDocumentAdded,
		TicketID: id,
		Actor:    events.ActorFrom(sess),
		Payload:  events.DocumentPayload{DocumentID: doc.ID, FileName: doc.FileName},
	})
	return doc, nil
}

// RemoveDocument deletes an attachment and records DOCUMENT_REMOVED.
func (s *TicketService) RemoveDocument(ctx context.Context, sess *domain.Session, id, documentID string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	var fileName string
	if docs, err := s.deps.API.ListDocuments(ctx, sess, id); err == nil {
		for _, d := range docs {
			if d.ID == documentID {
				fileName = d.FileName
			}
		}
	}
	if err := s.deps.API.DeleteDocument(ctx, sess, id, documentID); err != nil {
		s.deps.Notices.Failure(ctx, sess, "remove_document", id, err)
		return err
	}
	s.recordDocument(ctx, sess, id, domain.HistoryDocumentRemoved, &documentID, fileName)
	publishEvent(ctx, s.deps, events.Event{
		Type:     events.EventDocumentRemoved,
		TicketID: id,
		Actor:    events.ActorFrom(sess),
		Payload:  events.DocumentPayload{DocumentID: documentID, FileName: fileName},
	})
	return nil
}

// recordDocument posts the history item for a document change. The file
// operation already happened, so a failure here only warns.
func (s *TicketService) recordDocument(ctx context.Context, sess *domain.Session, id string, kind domain.HistoryItemType, documentID *string, fileName string) {
	_, err := s.deps.API.AddHistory(ctx, sess, id, apiclient.HistoryRequest{Type: kind, Content: fileName, DocumentID: documentID})
	invalidate(ctx, s.deps, query.TicketMutation(id)...)
	if err != nil {
		s.deps.Logger.Warn("document history not recorded",
			zap.String("ticket_id", id),
			zap.String("type", string(kind)),
			zap.Error(err))
		s.deps.Notices.Warn(ctx, sess, "record_document", id, "document saved but history was not updated")
	}
}

// fresh reads the ticket past the cache.
func (s *TicketService) fresh(ctx context.Context, sess *domain.Session, id string) (*domain.Ticket, error) {
	ticket, err := s.deps.API.GetTicket(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return ticket, nil
}

type apiExecutor struct {
	api  *apiclient.Client
	sess *domain.Session
}

func (e apiExecutor) Assign(ctx context.Context, ticketID string, step workflow.AssignStep) (*domain.Ticket, error) {
	userID := step.UserID
	return e.api.AssignTicket(ctx, e.sess, ticketID, &userID)
}

func (e apiExecutor) UpdateStatus(ctx context.Context, ticketID string, step workflow.StatusStep) (*domain.Ticket, error) {
	return e.api.UpdateStatus(ctx, e.sess, ticketID, apiclient.StatusRequest{
		Status:          step.Status,
		ClosingNotes:    step.ClosingNotes,
		ClosedAt:        step.ClosedAt,
		ClearAssignment: step.ClearAssignment,
	})
}
