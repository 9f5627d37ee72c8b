package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger          *inventory.StockLedger
	Movements       *inventory.MovementRecorder
	Transfers       *inventory.TransferCoordinator
	Deductions      *inventory.ServiceDeductionEngine
	Alerts          *inventory.AlertEngine
	SupplierUC      *usecase.SupplierUseCase
	ServiceProducts *usecase.ServiceProductUseCase
	JWTSecret       string
	JWTIssuer       string
	Log             zerolog.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token con tenant_id.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	// Inventory
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Movements, deps.Transfers, deps.Deductions, deps.Log)
	inv.Post("/movements", inventoryHandler.CreateMovement)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Get("/movements/:id", inventoryHandler.GetMovement)
	inv.Get("/transactions", inventoryHandler.ListTransactions)
	inv.Get("/transactions/:id", inventoryHandler.GetTransaction)
	inv.Get("/stock/:productId", inventoryHandler.GetStock)
	inv.Post("/transfers", inventoryHandler.CreateTransfer)
	inv.Get("/transfers", inventoryHandler.ListTransfers)
	inv.Get("/transfers/:id", inventoryHandler.GetTransfer)
	inv.Post("/deductions", inventoryHandler.DeductForService)

	// Alerts (summary antes de :id)
	alertHandler := NewAlertHandler(deps.Alerts, deps.Log)
	inv.Post("/alerts", alertHandler.Create)
	inv.Get("/alerts", alertHandler.List)
	inv.Get("/alerts/summary", alertHandler.Summary)
	inv.Get("/alerts/:id", alertHandler.Get)
	inv.Post("/alerts/:id/acknowledge", alertHandler.Acknowledge)

	// Suppliers
	suppliers := protected.Group("/suppliers")
	supplierHandler := NewSupplierHandler(deps.SupplierUC, deps.Log)
	suppliers.Post("/", supplierHandler.Create)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Get("/:id", supplierHandler.GetByID)

	// Lista de materiales por servicio
	services := protected.Group("/services")
	serviceProductHandler := NewServiceProductHandler(deps.ServiceProducts, deps.Log)
	services.Post("/:serviceId/products", serviceProductHandler.Add)
	services.Get("/:serviceId/products", serviceProductHandler.List)
}
