package handler

import (
	"time"

	"go-shop-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	inventory service.InventoryService
	reports   service.ReportService
	loc       *time.Location
}

func NewInventoryHandler(inv service.InventoryService, reports service.ReportService, loc *time.Location) *InventoryHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &InventoryHandler{inventory: inv, reports: reports, loc: loc}
}

// GetStock lists current per-cell stock.
// GET /api/v1/products/inventory/stock?category&lowStock&page&limit
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	category, err := parseOptionalUUID(c, "category")
	if err != nil {
		return badRequest(c, "Invalid category ID")
	}
	report, err := h.reports.CurrentStock(c.UserContext(), service.StockQuery{
		CategoryID: category,
		LowStock:   c.QueryBool("lowStock", false),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", service.DefaultPageSize),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// GetSummary aggregates one calendar month of ledger movement.
// GET /api/v1/products/inventory/summary?month&year&categoryId
func (h *InventoryHandler) GetSummary(c *fiber.Ctx) error {
	category, err := parseOptionalUUID(c, "categoryId")
	if err != nil {
		return badRequest(c, "Invalid category ID")
	}
	now := time.Now().In(h.loc)
	summary, err := h.reports.MonthlySummary(c.UserContext(), service.SummaryQuery{
		Month:      c.QueryInt("month", int(now.Month())),
		Year:       c.QueryInt("year", now.Year()),
		CategoryID: category,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// POST /api/v1/products/inventory/:id/restock
func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}
	var req service.RestockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	result, err := h.inventory.Restock(c.UserContext(), id, req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock restocked", "data": result})
}

// POST /api/v1/products/inventory/:id/adjust
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}
	var req service.AdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	result, err := h.inventory.Adjust(c.UserContext(), id, req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock adjusted", "data": result})
}

// GET /api/v1/products/inventory/:id/history?startDate&endDate&color&size
func (h *InventoryHandler) GetHistory(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}
	start, err := service.ParseDateBound(c.Query("startDate"), h.loc, false)
	if err != nil {
		return badRequest(c, "Invalid startDate, use YYYY-MM-DD or RFC3339")
	}
	end, err := service.ParseDateBound(c.Query("endDate"), h.loc, true)
	if err != nil {
		return badRequest(c, "Invalid endDate, use YYYY-MM-DD or RFC3339")
	}

	history, err := h.inventory.History(c.UserContext(), id, service.HistoryQuery{
		StartDate: start,
		EndDate:   end,
		Color:     c.Query("color"),
		Size:      c.Query("size"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(history)
}
