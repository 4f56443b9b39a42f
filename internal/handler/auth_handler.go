package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"donorlink/internal/config"
	"donorlink/internal/domain"
	"donorlink/internal/middleware"
	"donorlink/internal/service/auth"
)

type AuthHandler struct {
	authService auth.Service
	cfg         *config.Config
}

func NewAuthHandler(authService auth.Service, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input domain.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	result, err := h.authService.Register(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			return middleware.BadRequest("Email and password are required")
		case errors.Is(err, auth.ErrInvalidRole):
			return middleware.BadRequest("Unknown role")
		case errors.Is(err, auth.ErrRegistrationRejected):
			return middleware.Conflict("Registration rejected")
		}
		return err
	}

	resp := fiber.Map{
		"email":      result.Email,
		"expires_at": result.ExpiresAt,
		"message":    "Registration received. Check your email for the verification code.",
	}
	// The code is echoed outside production so the flow can be exercised
	// without a mail channel.
	if !h.cfg.IsProduction() {
		resp["otp"] = result.OTP
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var input struct {
		Code string `json:"code" validate:"required,len=6"`
	}
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	if input.Code == "" {
		return middleware.BadRequest("Verification code is required")
	}

	result, err := h.authService.VerifyOTP(c.Context(), input.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrOTPMismatch):
			return middleware.BadRequest("Verification code does not match")
		case errors.Is(err, auth.ErrOTPExpired):
			return middleware.Gone("Verification code has expired, please register again")
		case errors.Is(err, auth.ErrNoPendingRegistration):
			return middleware.NotFound("No registration is pending verification")
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input domain.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	result, err := h.authService.Login(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			return middleware.BadRequest("Email and password are required")
		case errors.Is(err, auth.ErrInvalidRole):
			return middleware.BadRequest("Unknown role")
		case errors.Is(err, auth.ErrInvalidCredentials):
			return middleware.Unauthorized("Invalid email or password")
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.Context()); err != nil {
		return err
	}
	return c.Status(fiber.StatusNoContent).SendString("")
}

// Session reports the hydrated state machine so clients can resume where
// they left off after a restart.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	state := h.authService.State()
	resp := fiber.Map{"state": state}

	if sess := h.authService.CurrentSession(); sess != nil {
		resp["session"] = sess
		resp["redirect_to"] = sess.Role.DashboardPath()
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var input domain.UpdateSessionInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	sess, err := h.authService.UpdateUser(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNotAuthenticated):
			return middleware.Unauthorized("Not authenticated")
		case errors.Is(err, auth.ErrInvalidInput):
			return middleware.BadRequest("Invalid email address")
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(sess)
}
