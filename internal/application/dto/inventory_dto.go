package dto

import (
	"time"

	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockMovementResponse movimiento del kardex en GET /api/products/:id/movements.
type StockMovementResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"` // con signo: negativo = salida
	StockAfter  decimal.Decimal `json:"stock_after"`
	ReferenceID string          `json:"reference_id"`
	CreatedBy   string          `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewStockMovementResponse mapea la entidad a la respuesta.
func NewStockMovementResponse(m *entity.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		Type:        m.Type,
		Quantity:    m.Quantity,
		StockAfter:  m.StockAfter,
		ReferenceID: m.ReferenceID,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
}

// StockAlertResponse alerta abierta para la pantalla de alertas (polling).
type StockAlertResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	Type         string          `json:"type"`
	Priority     string          `json:"priority"`
	Status       string          `json:"status"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewStockAlertResponse mapea la entidad a la respuesta.
func NewStockAlertResponse(a *entity.StockAlert) StockAlertResponse {
	return StockAlertResponse{
		ID:           a.ID,
		ProductID:    a.ProductID,
		Type:         a.TypeCode,
		Priority:     a.PriorityCode,
		Status:       a.Status,
		CurrentStock: a.CurrentStock,
		MinStock:     a.MinStock,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un producto con alerta abierta.
type ReplenishmentSuggestionDTO struct {
	ProductID           string          `json:"product_id"`
	SKU                 string          `json:"sku"`
	ProductName         string          `json:"product_name"`
	AlertType           string          `json:"alert_type"`
	AlertPriority       string          `json:"alert_priority"`
	CurrentStock        decimal.Decimal `json:"current_stock"`
	MinStock            decimal.Decimal `json:"min_stock"`
	IdealStock          decimal.Decimal `json:"ideal_stock"`           // MinStock * 1.5
	SuggestedOrderQty   decimal.Decimal `json:"suggested_order_qty"`   // IdealStock - CurrentStock
	UnitPrice           decimal.Decimal `json:"unit_price"`            // precio de lista vigente
	EstimatedOrderValue decimal.Decimal `json:"estimated_order_value"` // SuggestedOrderQty * UnitPrice
	Priority            int             `json:"priority"`              // 1 = más urgente
}
