package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"donorlink/internal/domain"
	"donorlink/internal/middleware"
	"donorlink/internal/service/notification"
)

type NotificationHandler struct {
	notifService notification.Service
}

func NewNotificationHandler(notifService notification.Service) *NotificationHandler {
	return &NotificationHandler{notifService: notifService}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	role := middleware.GetCurrentRole(c)
	if role == "" {
		return middleware.Unauthorized("Session not found")
	}

	unreadOnly := c.Query("unread_only") == "true"
	params := getPaginationParams(c)

	result, err := h.notifService.List(c.Context(), role, unreadOnly, params)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	role := middleware.GetCurrentRole(c)
	if role == "" {
		return middleware.Unauthorized("Session not found")
	}

	count, err := h.notifService.GetUnreadCount(c.Context(), role)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": count,
	})
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.BadRequest("Invalid notification ID")
	}

	if err := h.notifService.MarkAsRead(c.Context(), notifID); err != nil {
		return err
	}

	return c.Status(fiber.StatusNoContent).SendString("")
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	role := middleware.GetCurrentRole(c)
	if role == "" {
		return middleware.Unauthorized("Session not found")
	}

	if err := h.notifService.MarkAllAsRead(c.Context(), role); err != nil {
		return err
	}

	return c.Status(fiber.StatusNoContent).SendString("")
}

// Create simulates the server-push path that delivers alerts to a role.
func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	var input domain.CreateNotificationInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	if input.Title == "" || input.Message == "" {
		return middleware.BadRequest("Title and message are required")
	}

	notif, err := h.notifService.Create(c.Context(), input)
	if err != nil {
		if errors.Is(err, notification.ErrInvalidTargetRole) {
			return middleware.BadRequest("Unknown target role")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(notif)
}

func getPaginationParams(c *fiber.Ctx) domain.PaginationParams {
	params := domain.DefaultPagination()
	if page, err := strconv.Atoi(c.Query("page", "1")); err == nil && page > 0 {
		params.Page = page
	}
	if pageSize, err := strconv.Atoi(c.Query("page_size", "20")); err == nil && pageSize > 0 && pageSize <= 100 {
		params.PageSize = pageSize
	}
	return params
}
