package handler

import (
	"go-shop-inventory/internal/middleware"
	"go-shop-inventory/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles everything mounted under /api/v1.
type Handlers struct {
	Auth      *AuthHandler
	Product   *ProductHandler
	Inventory *InventoryHandler
	Dashboard *DashboardHandler
	Order     *OrderHandler
	Health    fiber.Handler
}

// RegisterRoutes mounts the API on app. auth guards every non-public route.
func RegisterRoutes(app *fiber.App, h Handlers, auth middleware.Authenticator) {
	api := app.Group("/api/v1")
	if h.Health != nil {
		api.Get("/healthz", h.Health)
	}

	// ============ PUBLIC ROUTES ============
	authGroup := api.Group("/auth")
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/reset-password", h.Auth.ResetPassword)
	authGroup.Post("/validate-token", h.Auth.ValidateToken)

	requireAuth := middleware.RequireAuth(auth)
	adminOnly := middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin)

	// Inventory back office, registered before /products/:id so the literal segment wins
	inv := api.Group("/products/inventory", requireAuth, adminOnly)
	inv.Get("/stock", h.Inventory.GetStock)
	inv.Get("/summary", h.Inventory.GetSummary)
	inv.Get("/movement", h.Dashboard.GetStockMovement)
	inv.Post("/:id/restock", h.Inventory.Restock)
	inv.Post("/:id/adjust", h.Inventory.Adjust)
	inv.Get("/:id/history", h.Inventory.GetHistory)

	api.Get("/products", h.Product.GetProducts)
	api.Get("/products/:id", h.Product.GetProduct)
	api.Get("/categories", h.Product.GetCategories)

	// ============ PROTECTED ROUTES ============
	api.Post("/products", requireAuth, adminOnly, h.Product.CreateProduct)
	api.Put("/products/:id", requireAuth, adminOnly, h.Product.UpdateProduct)
	api.Delete("/products/:id", requireAuth, adminOnly, h.Product.DeleteProduct)
	api.Post("/categories", requireAuth, adminOnly, h.Product.CreateCategory)

	orders := api.Group("/orders", requireAuth)
	orders.Post("/", h.Order.CreateOrder)
	orders.Get("/", h.Order.GetOrders)
	orders.Get("/:id", h.Order.GetOrder)
	orders.Put("/:id/status", adminOnly, h.Order.UpdateStatus)
}
