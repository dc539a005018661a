package dto

import (
	"time"

	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	Items []SaleItemRequest `json:"items"`
}

// SaleItemRequest línea del carrito. Si UnitPrice va vacío se congela el precio del producto.
type SaleItemRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// UpdateSaleStatusRequest body para PATCH /api/sales/:id/status.
type UpdateSaleStatusRequest struct {
	Status string `json:"status"`
}

// SaleResponse venta en respuestas.
type SaleResponse struct {
	ID            string             `json:"id"`
	Status        string             `json:"status"`
	Items         []SaleItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	DiscountTotal decimal.Decimal    `json:"discount_total"`
	Discounts     []AppliedPromotion `json:"discounts,omitempty"`
	Total         decimal.Decimal    `json:"total"`
	TotalReturned decimal.Decimal    `json:"total_returned"`
	AdjustedTotal decimal.Decimal    `json:"adjusted_total"`
	CreatedBy     string             `json:"created_by,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// SaleItemResponse línea de venta en respuestas.
type SaleItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	LineNo      int             `json:"line_no"`
	Quantity    decimal.Decimal `json:"qty"`
	OriginalQty decimal.Decimal `json:"original_qty"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"line_total"` // Price * Quantity vigente
}

// AppliedPromotion descuento aportado por una promoción en el checkout.
type AppliedPromotion struct {
	PromotionID string          `json:"promotion_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// SaleTransitionResponse respuesta de PATCH /api/sales/:id/status.
type SaleTransitionResponse struct {
	Sale            SaleResponse `json:"sale"`
	StockAdjustment string       `json:"_stockAdjustment"` // stock_decremented | stock_restored | none
	Transition      string       `json:"transition"`       // "PREV -> NEW"
}

// NewSaleResponse mapea la entidad a la respuesta.
func NewSaleResponse(s *entity.Sale) SaleResponse {
	out := SaleResponse{
		ID:            s.ID,
		Status:        s.Status.String(),
		Items:         make([]SaleItemResponse, 0, len(s.Items)),
		Subtotal:      s.Subtotal,
		DiscountTotal: s.DiscountTotal,
		Total:         s.Total,
		TotalReturned: s.TotalReturned,
		AdjustedTotal: s.AdjustedTotal,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, SaleItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			LineNo:      it.LineNo,
			Quantity:    it.Qty,
			OriginalQty: it.OriginalQty,
			Price:       it.Price,
			LineTotal:   it.Price.Mul(it.Qty),
		})
	}
	return out
}
