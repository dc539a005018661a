package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de alerta.
const (
	AlertStatusOpen     = "OPEN"
	AlertStatusResolved = "RESOLVED"
)

// Códigos de tipo de alerta (tabla de referencia alert_types).
const (
	AlertTypeOutOfStock = "OUT_OF_STOCK"
	AlertTypeLowStock   = "LOW_STOCK"
)

// Códigos de prioridad (tabla de referencia alert_priorities), de mayor a menor.
const (
	AlertPriorityCritical = "CRITICAL"
	AlertPriorityHigh     = "HIGH"
	AlertPriorityMedium   = "MEDIUM"
	AlertPriorityLow      = "LOW"
)

// StockAlert alerta derivada del stock actual de un producto frente a su mínimo.
type StockAlert struct {
	ID           string
	ProductID    string
	TypeID       int
	PriorityID   int
	TypeCode     string
	PriorityCode string
	Status       string
	CurrentStock decimal.Decimal
	MinStock     decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
}

// AlertCatalog identificadores de las tablas de referencia, indexados por código.
type AlertCatalog struct {
	Types      map[string]int
	Priorities map[string]int
}
