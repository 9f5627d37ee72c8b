package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// HeaderIdempotencyKey header opcional para deducciones repetibles sin doble descuento.
const HeaderIdempotencyKey = "Idempotency-Key"

// InventoryHandler maneja movimientos, traslados, deducciones y consultas del ledger (protegido).
type InventoryHandler struct {
	ledger     *inventory.StockLedger
	movements  *inventory.MovementRecorder
	transfers  *inventory.TransferCoordinator
	deductions *inventory.ServiceDeductionEngine
	log        zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	ledger *inventory.StockLedger,
	movements *inventory.MovementRecorder,
	transfers *inventory.TransferCoordinator,
	deductions *inventory.ServiceDeductionEngine,
	log zerolog.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		ledger:     ledger,
		movements:  movements,
		transfers:  transfers,
		deductions: deductions,
		log:        log,
	}
}

// CreateMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Entrada (in) o salida (out) manual. Genera una transacción del ledger y reevalúa alertas.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateMovementRequest  true  "product_id, quantity, type, reason; unit_cost solo en entradas"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) CreateMovement(c *fiber.Ctx) error {
	var in dto.CreateMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.movements.CreateInventoryMovement(c.UserContext(), GetTenantID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query     string  false  "Filtrar por producto"
// @Param        type        query     string  false  "in | out"
// @Param        limit       query     int     false  "Máximo 100"
// @Param        offset      query     int     false  "Desplazamiento"
// @Success      200         {object}  dto.MovementListResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	filter := repository.MovementFilter{
		ProductID: c.Query("product_id"),
		Type:      c.Query("type"),
	}
	out, err := h.movements.GetInventoryMovements(c.UserContext(), GetTenantID(c), filter, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetMovement godoc
// @Summary      Obtener movimiento
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	out, err := h.movements.GetInventoryMovementByID(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListTransactions godoc
// @Summary      Listar transacciones del ledger
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id        query     string  false  "Filtrar por producto"
// @Param        transaction_type  query     string  false  "movement_in | movement_out | transfer_out | transfer_in | deduction"  Enums(movement_in, movement_out, transfer_out, transfer_in, deduction)
// @Param        limit             query     int     false  "Máximo 100"
// @Param        offset            query     int     false  "Desplazamiento"
// @Success      200               {object}  dto.TransactionListResponse
// @Failure      400               {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [get]
func (h *InventoryHandler) ListTransactions(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	filter := repository.TransactionFilter{
		ProductID:       c.Query("product_id"),
		TransactionType: c.Query("transaction_type"),
	}
	out, err := h.ledger.GetInventoryTransactions(c.UserContext(), GetTenantID(c), filter, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetTransaction godoc
// @Summary      Obtener transacción del ledger
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions/{id} [get]
func (h *InventoryHandler) GetTransaction(c *fiber.Ctx) error {
	out, err := h.ledger.GetInventoryTransactionByID(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetStock godoc
// @Summary      Saldo de un producto
// @Description  Saldo materializado, suma del ledger y costo promedio ponderado.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path      string  true  "ID del producto"
// @Success      200        {object}  dto.StockLevelResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{productId} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.ledger.GetStockLevel(c.UserContext(), GetTenantID(c), c.Params("productId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// CreateTransfer godoc
// @Summary      Trasladar stock entre ubicaciones
// @Description  Crea el traslado y lo ejecuta. Si falla queda cancelled sin transacciones.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTransferRequest  true  "product_id, from_location_id, to_location_id, quantity, reason"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) CreateTransfer(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.transfers.CreateInventoryTransfer(c.UserContext(), GetTenantID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListTransfers godoc
// @Summary      Listar traslados
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query     string  false  "Filtrar por producto"
// @Param        status      query     string  false  "pending | in_progress | completed | cancelled"
// @Param        limit       query     int     false  "Máximo 100"
// @Param        offset      query     int     false  "Desplazamiento"
// @Success      200         {object}  dto.TransferListResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [get]
func (h *InventoryHandler) ListTransfers(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	filter := repository.TransferFilter{
		ProductID: c.Query("product_id"),
		Status:    c.Query("status"),
	}
	out, err := h.transfers.GetInventoryTransfers(c.UserContext(), GetTenantID(c), filter, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetTransfer godoc
// @Summary      Obtener traslado
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers/{id} [get]
func (h *InventoryHandler) GetTransfer(c *fiber.Ctx) error {
	out, err := h.transfers.GetInventoryTransferByID(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// DeductForService godoc
// @Summary      Descontar inventario de un servicio completado
// @Description  Todo o nada. Sin products usa la lista de materiales del servicio.
// @Description  Con Idempotency-Key, repetir la clave devuelve 409 DUPLICATE_REQUEST.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                 false  "Clave de idempotencia"
// @Param        body             body      dto.DeductionRequest   true   "service_id y products opcionales"
// @Success      200              {object}  dto.DeductionResponse
// @Failure      400              {object}  dto.ErrorResponse
// @Failure      404              {object}  dto.ErrorResponse
// @Failure      409              {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/deductions [post]
func (h *InventoryHandler) DeductForService(c *fiber.Ctx) error {
	var in dto.DeductionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
	out, err := h.deductions.DeductInventoryForService(c.UserContext(), GetTenantID(c), GetUserID(c), key, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
