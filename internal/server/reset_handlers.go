package server

import (
	"blogpose/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RequestPasswordReset handles POST /api/auth/resetpassword. The response
// is the same whether or not the address belongs to an account.
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required"))
	}

	if err := s.resetService.RequestReset(c.UserContext(), req.Email); err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "If that email address is registered, a reset link has been sent",
	})
}

// ResetPassword handles POST /api/auth/resetpassword/:token.
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.resetService.ResetPassword(c.UserContext(), c.Params("token"), req.Password, req.ConfirmPassword); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Your password has been updated. You can now log in.",
	})
}
