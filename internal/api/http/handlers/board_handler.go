package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-console/internal/api/dto"
	"github.com/spec-kit/helpdesk-console/internal/service"
)

// BoardHandler serves the queue board and weekly timeline.
type BoardHandler struct {
	boards    *service.BoardService
	timelines *service.TimelineService
}

// NewBoardHandler constructs handler.
func NewBoardHandler(boards *service.BoardService, timelines *service.TimelineService) *BoardHandler {
	return &BoardHandler{boards: boards, timelines: timelines}
}

// GetBoard GET /api/queues/:id/board.
func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	b, err := h.boards.Board(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, b)
}

// MoveTicket POST /api/queues/:id/board/moves. A move that needs an
// assignee or closing notes answers 409 with the prompt; resubmitting with
// the answer completes it.
func (h *BoardHandler) MoveTicket(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.MoveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.boards.Move(c.UserContext(), sess, c.Params("id"), req.MoveEvent, req.Answers)
	if err != nil {
		return err
	}
	if result.Prompt != nil {
		return service.PromptError(result.Prompt, nil)
	}
	return data(c, http.StatusOK, result.Ticket)
}

// GetTimeline GET /api/queues/:id/timeline?weekStart=YYYY-MM-DD.
func (h *BoardHandler) GetTimeline(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	weekStart, err := parseDate(c, "weekStart")
	if err != nil {
		return err
	}
	grid, err := h.timelines.Timeline(c.UserContext(), sess, c.Params("id"), weekStart)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, grid)
}
