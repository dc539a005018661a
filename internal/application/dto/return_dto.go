package dto

import (
	"time"

	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateReturnRequest body para POST /api/returns.
type CreateReturnRequest struct {
	SaleID string              `json:"sale_id"`
	Reason string              `json:"reason"`
	Items  []ReturnItemRequest `json:"items"`
}

// ReturnItemRequest línea a devolver, referida a la línea de venta.
// ProductID es opcional; si viene debe coincidir con el producto de la línea.
type ReturnItemRequest struct {
	SaleItemID  string          `json:"sale_item_id"`
	ProductID   string          `json:"product_id,omitempty"`
	QtyReturned decimal.Decimal `json:"qty_returned"`
}

// UpdateReturnStatusRequest body para PATCH /api/returns/:id/status.
type UpdateReturnStatusRequest struct {
	Status       string `json:"status"`
	RestoreStock bool   `json:"restore_stock"`
}

// ReturnResponse devolución en respuestas.
type ReturnResponse struct {
	ID               string               `json:"id"`
	SaleID           string               `json:"sale_id"`
	Status           string               `json:"status"`
	Reason           string               `json:"reason,omitempty"`
	Items            []ReturnItemResponse `json:"items"`
	TotalRefund      decimal.Decimal      `json:"total_refund"`
	ItemsCount       int                  `json:"items_count"`
	StockRestoration string               `json:"stock_restoration"`
	ProcessedAt      *time.Time           `json:"processed_at,omitempty"`
	ProcessedBy      string               `json:"processed_by,omitempty"`
	CreatedBy        string               `json:"created_by,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// ReturnItemResponse línea devuelta.
type ReturnItemResponse struct {
	ID           string          `json:"id"`
	SaleItemID   string          `json:"sale_item_id"`
	ProductID    string          `json:"product_id"`
	LineNo       int             `json:"line_no"`
	QtyReturned  decimal.Decimal `json:"qty_returned"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// ReturnTransitionResponse respuesta de PATCH /api/returns/:id/status.
type ReturnTransitionResponse struct {
	Return          ReturnResponse `json:"return"`
	SaleAdjustment  string         `json:"_saleAdjustment"`  // sale_updated | none
	StockAdjustment string         `json:"_stockAdjustment"` // stock_restored | none
	Transition      string         `json:"transition"`
}

// NewReturnResponse mapea la entidad a la respuesta.
func NewReturnResponse(r *entity.Return) ReturnResponse {
	out := ReturnResponse{
		ID:               r.ID,
		SaleID:           r.SaleID,
		Status:           r.Status.String(),
		Reason:           r.Reason,
		Items:            make([]ReturnItemResponse, 0, len(r.Items)),
		TotalRefund:      r.TotalRefund,
		ItemsCount:       r.ItemsCount,
		StockRestoration: string(r.StockRestoration),
		ProcessedAt:      r.ProcessedAt,
		ProcessedBy:      r.ProcessedBy,
		CreatedBy:        r.CreatedBy,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, ReturnItemResponse{
			ID:           it.ID,
			SaleItemID:   it.SaleItemID,
			ProductID:    it.ProductID,
			LineNo:       it.LineNo,
			QtyReturned:  it.QtyReturned,
			RefundAmount: it.RefundAmount,
		})
	}
	return out
}
