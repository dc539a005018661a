package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/application/returns"
)

// ReturnHandler maneja las peticiones HTTP de devoluciones (protegido).
type ReturnHandler struct {
	create    *returns.CreateReturnUseCase
	lifecycle *returns.LifecycleUseCase
	query     *returns.QueryUseCase
}

// NewReturnHandler construye el handler.
func NewReturnHandler(create *returns.CreateReturnUseCase, lifecycle *returns.LifecycleUseCase, query *returns.QueryUseCase) *ReturnHandler {
	return &ReturnHandler{create: create, lifecycle: lifecycle, query: query}
}

// Create godoc
// @Summary      Registrar devolución
// @Description  La venta debe estar COMPLETED; cada línea no puede superar lo vendido menos lo ya devuelto.
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReturnRequest  true  "sale_id, reason, items"
// @Success      201   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/returns [post]
func (h *ReturnHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.create.CreateReturn(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener devolución
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.query.GetReturn(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de la devolución (supervisor/admin)
// @Description  APPROVED con restore_stock=true repone inventario; COMPLETED ajusta la venta y repone si aún no se hizo.
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID de la devolución"
// @Param        body  body  dto.UpdateReturnStatusRequest  true  "status, restore_stock"
// @Success      200   {object}  dto.ReturnTransitionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/returns/{id}/status [patch]
func (h *ReturnHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateReturnStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.lifecycle.TransitionStatus(c.UserContext(), c.Params("id"), in.Status, in.RestoreStock, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
