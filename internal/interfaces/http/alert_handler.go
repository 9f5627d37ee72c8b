package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// AlertHandler alertas de stock (protegido).
type AlertHandler struct {
	alerts *inventory.AlertEngine
	log    zerolog.Logger
}

// NewAlertHandler construye el handler.
func NewAlertHandler(alerts *inventory.AlertEngine, log zerolog.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, log: log}
}

// Create godoc
// @Summary      Crear alerta manual
// @Description  Si ya existe una alerta abierta del mismo tipo para el producto se actualiza (200); si no, se crea (201).
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateAlertRequest  true  "product_id, alert_type, message opcional"
// @Success      201   {object}  dto.AlertResponse
// @Success      200   {object}  dto.AlertResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts [post]
func (h *AlertHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAlertRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, created, err := h.alerts.CreateInventoryAlert(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(out)
}

// List godoc
// @Summary      Listar alertas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        product_id       query     string  false  "Filtrar por producto"
// @Param        alert_type       query     string  false  "low_stock | out_of_stock | reorder_point"
// @Param        is_acknowledged  query     bool    false  "Filtrar por reconocidas"
// @Param        limit            query     int     false  "Máximo 100"
// @Param        offset           query     int     false  "Desplazamiento"
// @Success      200              {object}  dto.AlertListResponse
// @Failure      400              {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	filter := repository.AlertFilter{
		ProductID: c.Query("product_id"),
		AlertType: c.Query("alert_type"),
	}
	if raw := c.Query("is_acknowledged"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return writeError(c, h.log, domain.NewValidationError("is_acknowledged", "debe ser true o false"))
		}
		filter.IsAcknowledged = &v
	}
	out, err := h.alerts.GetInventoryAlerts(c.UserContext(), GetTenantID(c), filter, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen de alertas abiertas por tipo
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.AlertSummaryResponse
// @Router       /api/inventory/alerts/summary [get]
func (h *AlertHandler) Summary(c *fiber.Ctx) error {
	out, err := h.alerts.GetAlertSummary(c.UserContext(), GetTenantID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener alerta
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la alerta"
// @Success      200  {object}  dto.AlertResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts/{id} [get]
func (h *AlertHandler) Get(c *fiber.Ctx) error {
	out, err := h.alerts.GetInventoryAlertByID(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Acknowledge godoc
// @Summary      Reconocer alerta
// @Description  Idempotente: una alerta ya reconocida conserva quién y cuándo la reconoció.
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                       true  "ID de la alerta"
// @Param        body  body      dto.AcknowledgeAlertRequest  true  "acknowledged_by y notas opcionales"
// @Success      200   {object}  dto.AlertResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts/{id}/acknowledge [post]
func (h *AlertHandler) Acknowledge(c *fiber.Ctx) error {
	var in dto.AcknowledgeAlertRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.alerts.AcknowledgeInventoryAlert(c.UserContext(), GetTenantID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
