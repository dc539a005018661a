package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/application/returns"
	"github.com/jhoicas/POS-api/internal/application/sales"
)

// SaleHandler maneja las peticiones HTTP de ventas (protegido).
type SaleHandler struct {
	create    *sales.CreateSaleUseCase
	lifecycle *sales.LifecycleUseCase
	query     *sales.QueryUseCase
	returnsQ  *returns.QueryUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(create *sales.CreateSaleUseCase, lifecycle *sales.LifecycleUseCase, query *sales.QueryUseCase, returnsQ *returns.QueryUseCase) *SaleHandler {
	return &SaleHandler{create: create, lifecycle: lifecycle, query: query, returnsQ: returnsQ}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Crea la venta en estado PENDING con precios congelados y promociones vigentes aplicadas. No mueve stock.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "items: product_id, qty, unit_price (opcional)"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.create.CreateSale(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.query.GetSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de la venta
// @Description  COMPLETED descuenta stock; COMPLETED -> CANCELLED lo restituye. Repetir el estado actual no tiene efecto.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la venta"
// @Param        body  body  dto.UpdateSaleStatusRequest  true  "status destino"
// @Success      200   {object}  dto.SaleTransitionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/status [patch]
func (h *SaleHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateSaleStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.lifecycle.TransitionStatus(c.UserContext(), c.Params("id"), in.Status, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListReturns godoc
// @Summary      Devoluciones de una venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {array}   dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/returns [get]
func (h *SaleHandler) ListReturns(c *fiber.Ctx) error {
	out, err := h.returnsQ.ListBySale(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
