package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"invoiceapi/internal/service"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /register.
func Register(authSvc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		_, err := authSvc.Register(c.UserContext(), req.Username, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrDuplicateIdentity):
				return writeError(c, fiber.StatusBadRequest, "DUPLICATE_IDENTITY", "username or email already in use")
			case errors.Is(err, service.ErrFieldsRequired):
				return writeError(c, fiber.StatusBadRequest, "FIELDS_REQUIRED", "username, email and password are required")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "user created"})
	}
}

// Login handles POST /login.
func Login(authSvc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		res, err := authSvc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_CREDENTIALS", "invalid email or password")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}
