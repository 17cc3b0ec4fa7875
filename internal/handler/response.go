package handler

import (
	"errors"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/middleware"
	"go-shop-inventory/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps the service error taxonomy onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var (
		ve  *apperr.ValidationError
		nf  *apperr.NotFoundError
		ise *apperr.InsufficientStockError
		ite *apperr.InvalidTransitionError
		iwe *apperr.InventoryWriteError
		re  *apperr.ReportingError
	)
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error(), "fields": ve.Fields})
	case errors.As(err, &nf):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": nf.Error()})
	case errors.As(err, &ise):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     ise.Error(),
			"color":     ise.Color,
			"size":      ise.Size,
			"available": ise.Available,
			"requested": ise.Requested,
		})
	case errors.As(err, &ite):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ite.Error(), "from": ite.From, "to": ite.To})
	case errors.As(err, &iwe):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write inventory"})
	case errors.As(err, &re):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build " + re.Report + " report"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// parseIDParam reads a uuid path parameter.
func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// parseOptionalUUID reads a uuid query parameter; an empty value is nil.
func parseOptionalUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func getUserID(c *fiber.Ctx) uuid.UUID {
	raw, _ := c.Locals(middleware.LocalUserID).(string)
	id, _ := uuid.Parse(raw)
	return id
}

func getUserRole(c *fiber.Ctx) string {
	role, _ := c.Locals(middleware.LocalUserRole).(string)
	return role
}

func isAdmin(c *fiber.Ctx) bool {
	role := getUserRole(c)
	return role == model.RoleAdmin || role == model.RoleSuperAdmin
}

// actor names the caller in audit fields and ledger entries.
func actor(c *fiber.Ctx) string {
	if email, ok := c.Locals(middleware.LocalUserEmail).(string); ok && email != "" {
		return email
	}
	if id, ok := c.Locals(middleware.LocalUserID).(string); ok && id != "" {
		return id
	}
	return "system"
}
