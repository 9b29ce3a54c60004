package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"invoiceapi/internal/http/middleware"
	"invoiceapi/internal/service"
	"invoiceapi/internal/upload"
)

// callerID extracts the verified user id stored by middleware.RequireAuth.
func callerID(c *fiber.Ctx) string {
	if v, ok := c.Locals(middleware.UserIDLocalKey).(string); ok {
		return v
	}
	return ""
}

// UploadInvoice handles POST /upload (multipart/form-data, field name: file).
func UploadInvoice(invSvc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := callerID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization required")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		inv, err := invSvc.Upload(c.UserContext(), userID, fh)
		if err != nil {
			if errors.Is(err, upload.ErrValidation) {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			}
			// Extraction and persistence failures stay generic for the caller.
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "file could not be processed")
		}
		return c.JSON(inv)
	}
}

// ListInvoices handles GET /invoices: the caller's records, newest first.
func ListInvoices(invSvc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := callerID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization required")
		}

		items, err := invSvc.ListByOwner(c.UserContext(), userID)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(items)
	}
}
