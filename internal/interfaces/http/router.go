package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/POS-api/internal/application/alerts"
	"github.com/jhoicas/POS-api/internal/application/inventory"
	"github.com/jhoicas/POS-api/internal/application/returns"
	"github.com/jhoicas/POS-api/internal/application/sales"
)

// Roles con permiso para decidir sobre devoluciones.
var returnApproverRoles = []string{"supervisor", "admin"}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CreateSale      *sales.CreateSaleUseCase
	SaleLifecycle   *sales.LifecycleUseCase
	SaleQuery       *sales.QueryUseCase
	CreateReturn    *returns.CreateReturnUseCase
	ReturnLifecycle *returns.LifecycleUseCase
	ReturnQuery     *returns.QueryUseCase
	AlertQuery      *alerts.QueryUseCase
	MovementsQuery  *inventory.MovementsQueryUseCase
	Replenishment   *inventory.ReplenishmentUseCase
	Admission       AdmissionStatsProvider
	JWTSecret       string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Sales
	saleHandler := NewSaleHandler(deps.CreateSale, deps.SaleLifecycle, deps.SaleQuery, deps.ReturnQuery)
	salesGroup := protected.Group("/sales")
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Patch("/:id/status", saleHandler.UpdateStatus)
	salesGroup.Get("/:id/returns", saleHandler.ListReturns)

	// Returns: el cambio de estado queda para supervisor/admin
	returnHandler := NewReturnHandler(deps.CreateReturn, deps.ReturnLifecycle, deps.ReturnQuery)
	returnsGroup := protected.Group("/returns")
	returnsGroup.Post("/", returnHandler.Create)
	returnsGroup.Get("/:id", returnHandler.GetByID)
	returnsGroup.Patch("/:id/status", RequireRole(returnApproverRoles...), returnHandler.UpdateStatus)

	// Alerts
	alertHandler := NewAlertHandler(deps.AlertQuery)
	protected.Get("/alerts", alertHandler.ListOpen)

	// Inventory
	inventoryHandler := NewInventoryHandler(deps.MovementsQuery, deps.Replenishment)
	protected.Get("/products/:id/movements", inventoryHandler.ListMovements)
	protected.Get("/inventory/replenishment-list", inventoryHandler.GetReplenishmentList)

	// Admission
	if deps.Admission != nil {
		admissionHandler := NewAdmissionHandler(deps.Admission)
		protected.Get("/admission/stats", admissionHandler.Stats)
	}
}
