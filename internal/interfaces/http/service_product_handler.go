package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
)

// ServiceProductHandler lista de materiales de cada servicio (protegido).
type ServiceProductHandler struct {
	uc  *usecase.ServiceProductUseCase
	log zerolog.Logger
}

// NewServiceProductHandler construye el handler.
func NewServiceProductHandler(uc *usecase.ServiceProductUseCase, log zerolog.Logger) *ServiceProductHandler {
	return &ServiceProductHandler{uc: uc, log: log}
}

// Add godoc
// @Summary      Vincular producto a un servicio
// @Tags         services
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        serviceId  path      string                        true  "ID del servicio"
// @Param        body       body      dto.AddServiceProductRequest  true  "product_id, quantity, optional"
// @Success      201        {object}  dto.ServiceProductResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Failure      409        {object}  dto.ErrorResponse
// @Router       /api/services/{serviceId}/products [post]
func (h *ServiceProductHandler) Add(c *fiber.Ctx) error {
	var in dto.AddServiceProductRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Add(c.UserContext(), GetTenantID(c), c.Params("serviceId"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Productos vinculados a un servicio
// @Tags         services
// @Security     Bearer
// @Produce      json
// @Param        serviceId  path      string  true  "ID del servicio"
// @Success      200        {object}  dto.ServiceProductListResponse
// @Router       /api/services/{serviceId}/products [get]
func (h *ServiceProductHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetTenantID(c), c.Params("serviceId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
