package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-console/internal/api/dto"
	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/service"
)

// QueuesHandler serves queue, queue membership and category endpoints.
type QueuesHandler struct {
	queues     *service.QueueService
	categories *service.CategoryService
}

// NewQueuesHandler constructs handler.
func NewQueuesHandler(queues *service.QueueService, categories *service.CategoryService) *QueuesHandler {
	return &QueuesHandler{queues: queues, categories: categories}
}

// ListQueues GET /api/queues.
func (h *QueuesHandler) ListQueues(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	queues, err := h.queues.List(c.UserContext(), sess)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, queues)
}

// GetQueue GET /api/queues/:id.
func (h *QueuesHandler) GetQueue(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	queue, err := h.queues.Get(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, queue)
}

// CreateQueue POST /api/queues.
func (h *QueuesHandler) CreateQueue(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req apiclient.QueueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	queue, err := h.queues.Create(c.UserContext(), sess, req)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, queue)
}

// UpdateQueue PATCH /api/queues/:id.
func (h *QueuesHandler) UpdateQueue(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req apiclient.QueueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	queue, err := h.queues.Update(c.UserContext(), sess, c.Params("id"), req)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, queue)
}

// DeleteQueue DELETE /api/queues/:id.
func (h *QueuesHandler) DeleteQueue(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.queues.Delete(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListQueueUsers GET /api/queues/:id/users.
func (h *QueuesHandler) ListQueueUsers(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	users, err := h.queues.Users(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, users)
}

// AddQueueUsers POST /api/queues/:id/users.
func (h *QueuesHandler) AddQueueUsers(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.QueueUsersRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.queues.AddUsers(c.UserContext(), sess, c.Params("id"), req.UserIDs); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RemoveQueueUser DELETE /api/queues/:id/users/:userId.
func (h *QueuesHandler) RemoveQueueUser(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.queues.RemoveUser(c.UserContext(), sess, c.Params("id"), c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListCategories GET /api/categories?queueId=.
func (h *QueuesHandler) ListCategories(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	cats, err := h.categories.List(c.UserContext(), sess, c.Query("queueId"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, cats)
}

// CreateCategory POST /api/categories.
func (h *QueuesHandler) CreateCategory(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req apiclient.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	cat, err := h.categories.Create(c.UserContext(), sess, req)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, cat)
}

// UpdateCategory PATCH /api/categories/:id.
func (h *QueuesHandler) UpdateCategory(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req apiclient.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	cat, err := h.categories.Update(c.UserContext(), sess, c.Params("id"), req)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, cat)
}

// DeleteCategory DELETE /api/categories/:id.
func (h *QueuesHandler) DeleteCategory(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.categories.Delete(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
