package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/helpdesk-console/internal/api/dto"
	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/search"
	"github.com/spec-kit/helpdesk-console/internal/service"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

// TicketsHandler serves ticket endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	pageSize int
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, pageSize int) *TicketsHandler {
	if pageSize <= 0 {
		pageSize = search.DefaultPageSize
	}
	return &TicketsHandler{tickets: tickets, pageSize: pageSize}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	filter, err := search.ParseFilter(queryValues(c))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	page, err := h.tickets.List(c.UserContext(), sess, filter, parseInt(c.Query("page"), 1), parseInt(c.Query("limit"), h.pageSize))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": page.Items, "meta": dto.MetaOf(page)})
}

// GetTicket GET /api/tickets/:id. History and documents load alongside.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	var (
		ticket *domain.Ticket
		resp   dto.TicketDetailResponse
	)
	g, ctx := errgroup.WithContext(c.UserContext())
	g.Go(func() (err error) {
		ticket, err = h.tickets.Get(ctx, sess, id)
		return err
	})
	g.Go(func() (err error) {
		resp.History, err = h.tickets.History(ctx, sess, id)
		return err
	})
	g.Go(func() (err error) {
		resp.Documents, err = h.tickets.Documents(ctx, sess, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	resp.Ticket = *ticket
	return data(c, http.StatusOK, resp)
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req apiclient.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Create(c.UserContext(), sess, req)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, ticket)
}

// CreatePublicTicket POST /api/public/tickets.
func (h *TicketsHandler) CreatePublicTicket(c *fiber.Ctx) error {
	var req apiclient.PublicTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.CreatePublic(c.UserContext(), req)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, ticket)
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req apiclient.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Update(c.UserContext(), sess, c.Params("id"), req)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, ticket)
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.tickets.Delete(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AssignTicket POST /api/tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Assign(c.UserContext(), sess, c.Params("id"), req.UserID)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, ticket)
}

// UnassignTicket POST /api/tickets/:id/unassign.
func (h *TicketsHandler) UnassignTicket(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Unassign(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, ticket)
}

// TransitionTicket POST /api/tickets/:id/transition. Missing input is
// answered with a 409 carrying the prompt.
func (h *TicketsHandler) TransitionTicket(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if !req.Status.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"fields": map[string]any{"status": "oneof"}})
	}
	ticket, err := h.tickets.Transition(c.UserContext(), sess, c.Params("id"), req.Workflow())
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, ticket)
}

// ListHistory GET /api/tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	items, err := h.tickets.History(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, items)
}

// AddComment POST /api/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := h.tickets.AddComment(c.UserContext(), sess, c.Params("id"), service.CommentInput{Body: req.Body})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, item)
}

// ListDocuments GET /api/tickets/:id/documents.
func (h *TicketsHandler) ListDocuments(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	docs, err := h.tickets.Documents(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, docs)
}

// UploadDocument POST /api/tickets/:id/documents (multipart field "file").
func (h *TicketsHandler) UploadDocument(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", map[string]any{"fields": map[string]any{"file": "required"}})
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	doc, err := h.tickets.AddDocument(c.UserContext(), sess, c.Params("id"), header.Filename, file)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, doc)
}

// RemoveDocument DELETE /api/tickets/:id/documents/:docId.
func (h *TicketsHandler) RemoveDocument(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.tickets.RemoveDocument(c.UserContext(), sess, c.Params("id"), c.Params("docId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
