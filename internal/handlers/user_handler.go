package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/user-registry/internal/dto"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/services"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.userService.List(c.UserContext())
	if err != nil {
		return respondError(c, "list_users", "Failed to fetch users", err)
	}
	return c.JSON(users)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.userService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "get_user", "Failed to fetch user", err)
	}
	return c.JSON(user)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	user, err := h.userService.Create(c.UserContext(), req.Input())
	if err != nil {
		return respondError(c, "create_user", "Failed to create user", err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	user, err := h.userService.Update(c.UserContext(), c.Params("id"), req.Input())
	if err != nil {
		return respondError(c, "update_user", "Failed to update user", err)
	}
	return c.JSON(user)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := h.userService.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "delete_user", "Failed to delete user", err)
	}
	return c.JSON(dto.DeleteResponse{
		Message: "User deleted successfully",
		ID:      id,
	})
}

// respondError maps a service error onto its status and body. Anything
// that is not a caller error is logged, reported and answered with
// serverMessage only.
func respondError(c *fiber.Ctx, action, serverMessage string, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Error:   "Validation failed",
			Details: verr.Violations,
		})
	case errors.Is(err, services.ErrInvalidIdentifier):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid user ID"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "User not found"})
	case errors.Is(err, services.ErrEmailConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "Email already exists"})
	}

	slog.Error(serverMessage,
		"action", action,
		"error", err.Error(),
		"request_id", requestID(c),
		"method", c.Method(),
		"path", c.Path(),
	)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("action", action)
			hub.CaptureException(err)
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: serverMessage})
}

func requestID(c *fiber.Ctx) string {
	if id := c.Locals("requestid"); id != nil {
		return fmt.Sprint(id)
	}
	return ""
}
