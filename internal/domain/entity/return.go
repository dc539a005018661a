package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReturnStatus estado de una devolución.
type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "PENDING"
	ReturnStatusApproved  ReturnStatus = "APPROVED"
	ReturnStatusRejected  ReturnStatus = "REJECTED"  // terminal
	ReturnStatusCompleted ReturnStatus = "COMPLETED" // terminal: ventas y stock conciliados
)

// ParseReturnStatus normaliza el nombre recibido y valida que exista.
func ParseReturnStatus(s string) (ReturnStatus, bool) {
	status := ReturnStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusRejected, ReturnStatusCompleted:
		return status, true
	}
	return "", false
}

func (s ReturnStatus) String() string { return string(s) }

// IsTerminal indica si la devolución ya no admite cambios.
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusCompleted || s == ReturnStatusRejected
}

// CanTransitionTo verifica la tabla de transiciones.
// APPROVED -> APPROVED es un reingreso válido (p. ej. para restituir stock después).
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	switch s {
	case ReturnStatusPending:
		return target == ReturnStatusApproved || target == ReturnStatusRejected || target == ReturnStatusCompleted
	case ReturnStatusApproved:
		return target == ReturnStatusApproved || target == ReturnStatusCompleted
	}
	return false
}

// StockRestoration registra si el stock de la devolución ya fue reintegrado.
type StockRestoration string

const (
	StockRestorationNone     StockRestoration = "none"
	StockRestorationRestored StockRestoration = "stock_restored"
)

// Return devolución sobre una venta completada.
type Return struct {
	ID               string
	SaleID           string
	Status           ReturnStatus
	Reason           string
	Items            []ReturnItem
	TotalRefund      decimal.Decimal // fijo desde la creación
	ItemsCount       int
	StockRestoration StockRestoration
	ProcessedAt      *time.Time
	ProcessedBy      string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReturnItem línea devuelta. RefundAmount = precio de la línea de venta * QtyReturned.
type ReturnItem struct {
	ID           string
	ReturnID     string
	SaleItemID   string
	ProductID    string
	LineNo       int
	QtyReturned  decimal.Decimal
	RefundAmount decimal.Decimal
}

// QuantitiesByProduct agrupa las cantidades devueltas por producto.
func (r *Return) QuantitiesByProduct() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(r.Items))
	for _, it := range r.Items {
		out[it.ProductID] = out[it.ProductID].Add(it.QtyReturned)
	}
	return out
}

// StockAdjustment describe el efecto de una transición sobre el stock.
type StockAdjustment string

const (
	StockAdjustmentNone        StockAdjustment = "none"
	StockAdjustmentDecremented StockAdjustment = "stock_decremented"
	StockAdjustmentRestored    StockAdjustment = "stock_restored"
)

// SaleAdjustment describe el efecto de una transición de devolución sobre la venta.
type SaleAdjustment string

const (
	SaleAdjustmentNone    SaleAdjustment = "none"
	SaleAdjustmentUpdated SaleAdjustment = "sale_updated"
)
