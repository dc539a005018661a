package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/POS-api/pkg/admission"
)

// AdmissionStatsProvider fuente de los contadores del controlador de admisión.
type AdmissionStatsProvider interface {
	Stats() admission.Stats
}

// AdmissionHandler expone el estado del controlador de admisión.
type AdmissionHandler struct {
	stats AdmissionStatsProvider
}

// NewAdmissionHandler construye el handler.
func NewAdmissionHandler(stats AdmissionStatsProvider) *AdmissionHandler {
	return &AdmissionHandler{stats: stats}
}

// Stats godoc
// @Summary      Estado del controlador de admisión
// @Tags         admission
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  admission.Stats
// @Router       /api/admission/stats [get]
func (h *AdmissionHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.stats.Stats())
}
