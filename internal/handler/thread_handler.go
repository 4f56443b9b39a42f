package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"donorlink/internal/domain"
	"donorlink/internal/middleware"
	"donorlink/internal/service/thread"
)

type ThreadHandler struct {
	threadService thread.Service
}

func NewThreadHandler(threadService thread.Service) *ThreadHandler {
	return &ThreadHandler{threadService: threadService}
}

// List returns the role-scoped view: every thread with a slot for the
// caller's role, newest activity first.
func (h *ThreadHandler) List(c *fiber.Ctx) error {
	sess := middleware.GetCurrentSession(c)
	if sess == nil {
		return middleware.Unauthorized("Session not found")
	}

	threads := h.threadService.ThreadsForRole(sess.Role, sess.UserID)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"threads": threads,
		"count":   len(threads),
	})
}

func (h *ThreadHandler) Get(c *fiber.Ctx) error {
	sess := middleware.GetCurrentSession(c)
	if sess == nil {
		return middleware.Unauthorized("Session not found")
	}

	t, err := h.threadService.Thread(c.Params("threadId"))
	if err != nil {
		if errors.Is(err, thread.ErrThreadNotFound) {
			return middleware.NotFound("Thread not found")
		}
		return err
	}

	if !t.HasRole(sess.Role) {
		return middleware.Forbidden("Thread is not visible to your role")
	}

	return c.Status(fiber.StatusOK).JSON(t)
}

func (h *ThreadHandler) SendMessage(c *fiber.Ctx) error {
	sess := middleware.GetCurrentSession(c)
	if sess == nil {
		return middleware.Unauthorized("Session not found")
	}

	var input struct {
		Content string `json:"content" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	msg, err := h.threadService.SendMessage(c.Params("threadId"), sess.UserID, sess.DisplayName, sess.Role, input.Content)
	if err != nil {
		switch {
		case errors.Is(err, thread.ErrThreadNotFound):
			return middleware.NotFound("Thread not found")
		case errors.Is(err, thread.ErrEmptyContent):
			return middleware.BadRequest("Message content must not be empty")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// Create seeds a thread between two role parties. Admin-only: threads are
// provisioned externally, never created by sending a message.
func (h *ThreadHandler) Create(c *fiber.Ctx) error {
	var input struct {
		ID           string                             `json:"id,omitempty"`
		Participants map[domain.Role]domain.Participant `json:"participants" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	t, err := h.threadService.CreateThread(input.ID, input.Participants)
	if err != nil {
		switch {
		case errors.Is(err, thread.ErrInvalidParticipants):
			return middleware.BadRequest("A thread needs exactly two distinct role parties")
		case errors.Is(err, thread.ErrThreadExists):
			return middleware.Conflict("Thread already exists")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(t)
}
