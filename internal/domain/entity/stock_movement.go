package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento que generan los ciclos de vida.
const (
	MovementTypeSaleOut      = "SALE_OUT"       // venta completada
	MovementTypeSaleCancelIn = "SALE_CANCEL_IN" // reverso por cancelación
	MovementTypeReturnIn     = "RETURN_IN"      // reingreso por devolución
)

// StockMovement registro de kardex: un renglón por producto y por transición.
type StockMovement struct {
	ID          string
	ProductID   string
	Type        string
	Quantity    decimal.Decimal // positivo entrada, negativo salida
	StockAfter  decimal.Decimal
	ReferenceID string // venta o devolución que originó el movimiento
	CreatedBy   string
	CreatedAt   time.Time
}
