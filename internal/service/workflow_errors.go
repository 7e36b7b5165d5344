package service

import (
	"errors"
	"net/http"

	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

// planError maps a workflow planning failure onto a DomainError. Missing
// input errors carry the prompt a surface should show.
func planError(ticket domain.Ticket, target domain.TicketStatus, err error, candidates []domain.User) error {
	var transition *workflow.TransitionError
	switch {
	case errors.Is(err, workflow.ErrAssigneeRequired):
		prompt := workflow.PromptFor(ticket, target, err)
		prompt.Candidates = candidates
		return PromptError(prompt, err)
	case errors.Is(err, workflow.ErrClosingNotesRequired):
		return PromptError(workflow.PromptFor(ticket, target, err), err)
	case errors.As(err, &transition):
		return &apperrors.DomainError{
			Code:       apperrors.CodeInvalidTransition,
			Message:    transition.Error(),
			HTTPStatus: http.StatusConflict,
			Details:    map[string]any{"from": transition.From, "to": transition.To},
			Err:        err,
		}
	case errors.Is(err, workflow.ErrUnassignNotAllowed):
		return &apperrors.DomainError{
			Code:       apperrors.CodeInvalidTransition,
			Message:    "only opened tickets can be unassigned",
			HTTPStatus: http.StatusConflict,
			Details:    map[string]any{"status": ticket.Status},
			Err:        err,
		}
	}
	return apperrors.MapError(err)
}

// PromptError is the 409 served in place of a prompt. cause may be nil.
func PromptError(prompt *workflow.Prompt, cause error) error {
	code, message := apperrors.CodeAssigneeRequired, "choose an assignee before starting work"
	if prompt.Kind == workflow.PromptClosingNotes {
		code, message = apperrors.CodeClosingNotesRequired, "closing notes are required"
	}
	return &apperrors.DomainError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"prompt": prompt},
		Err:        cause,
	}
}

// partialError wraps a plan that stopped midway. The ticket reflects the
// completed calls.
func partialError(pf *workflow.PartialFailureError, ticket *domain.Ticket) error {
	completed := make([]string, len(pf.Completed))
	for i, step := range pf.Completed {
		completed[i] = step.Name()
	}
	return &apperrors.DomainError{
		Code:       apperrors.CodePartialFailure,
		Message:    pf.Error(),
		HTTPStatus: http.StatusBadGateway,
		Details: map[string]any{
			"completed": completed,
			"failed":    pf.Failed.Name(),
			"cause":     apperrors.ToDomainError(pf.Err).Message,
			"ticket":    ticket,
		},
		Err: pf,
	}
}

// PromptOf returns the prompt carried by a workflow error, if any.
func PromptOf(err error) *workflow.Prompt {
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		return nil
	}
	prompt, _ := domainErr.Details["prompt"].(*workflow.Prompt)
	return prompt
}
