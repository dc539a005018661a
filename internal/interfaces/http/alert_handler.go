package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/POS-api/internal/application/alerts"
	"github.com/jhoicas/POS-api/internal/application/dto"
)

// AlertHandler expone las alertas de stock abiertas.
type AlertHandler struct {
	query *alerts.QueryUseCase
}

// NewAlertHandler construye el handler.
func NewAlertHandler(query *alerts.QueryUseCase) *AlertHandler {
	return &AlertHandler{query: query}
}

// ListOpen godoc
// @Summary      Alertas de stock abiertas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 20)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {array}   dto.StockAlertResponse
// @Router       /api/alerts [get]
func (h *AlertHandler) ListOpen(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros de paginación inválidos"})
	}
	out, err := h.query.ListOpen(c.UserContext(), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
