package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un artículo del catálogo con su contador único de existencias.
// Stock solo lo modifican los ciclos de vida de ventas y devoluciones.
type Product struct {
	ID        string
	SKU       string
	Name      string
	Price     decimal.Decimal // precio de lista vigente
	Stock     decimal.Decimal
	MinStock  decimal.Decimal // umbral para alertas de stock
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockLevel foto del stock de un producto tras un ajuste (entrada del recalculador de alertas).
type StockLevel struct {
	ProductID string
	Stock     decimal.Decimal
	MinStock  decimal.Decimal
}
