package inventory

import (
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Bandas de severidad sobre la razón stock / mínimo.
var (
	bandHigh   = decimal.NewFromFloat(0.25)
	bandMedium = decimal.NewFromFloat(0.5)
)

// Severity resultado de clasificar el stock de un producto.
type Severity struct {
	Healthy      bool
	TypeCode     string
	PriorityCode string
}

// ClassifyStock determina si el producto está sano o qué alerta le corresponde (servicio de dominio).
// Sano: stock >= mínimo. Stock en cero (o negativo) => OUT_OF_STOCK/CRITICAL, aunque el mínimo sea 0.
func ClassifyStock(stock, minStock decimal.Decimal) Severity {
	if stock.GreaterThanOrEqual(minStock) {
		return Severity{Healthy: true}
	}
	if !stock.IsPositive() || !minStock.IsPositive() {
		return Severity{TypeCode: entity.AlertTypeOutOfStock, PriorityCode: entity.AlertPriorityCritical}
	}
	ratio := stock.Div(minStock)
	switch {
	case ratio.LessThanOrEqual(bandHigh):
		return Severity{TypeCode: entity.AlertTypeLowStock, PriorityCode: entity.AlertPriorityHigh}
	case ratio.LessThanOrEqual(bandMedium):
		return Severity{TypeCode: entity.AlertTypeLowStock, PriorityCode: entity.AlertPriorityMedium}
	default:
		return Severity{TypeCode: entity.AlertTypeLowStock, PriorityCode: entity.AlertPriorityLow}
	}
}
