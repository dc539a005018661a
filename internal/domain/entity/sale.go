package entity

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus estado de una venta (enumeración cerrada).
type SaleStatus string

// Estados de venta. Solo COMPLETED y CANCELLED tienen efecto sobre el stock.
const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusOnHold    SaleStatus = "ON_HOLD" // venta en espera (carrito retenido en caja)
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

// saleTransitions tabla explícita de transiciones permitidas.
// Entre estados sin efecto de stock se permite moverse libremente.
// COMPLETED solo sale a CANCELLED: volver a PENDING y completar de nuevo descontaría el stock dos veces.
var saleTransitions = map[SaleStatus][]SaleStatus{
	SaleStatusPending:   {SaleStatusOnHold, SaleStatusCompleted, SaleStatusCancelled},
	SaleStatusOnHold:    {SaleStatusPending, SaleStatusCompleted, SaleStatusCancelled},
	SaleStatusCompleted: {SaleStatusCancelled},
	SaleStatusCancelled: {},
}

// ParseSaleStatus normaliza el nombre recibido y valida que exista.
func ParseSaleStatus(s string) (SaleStatus, bool) {
	status := SaleStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", false
	}
	return status, true
}

// IsValid indica si el estado pertenece al catálogo.
func (s SaleStatus) IsValid() bool {
	_, ok := saleTransitions[s]
	return ok
}

func (s SaleStatus) String() string { return string(s) }

// CanTransitionTo indica si la transición s -> target está permitida.
// Repetir el estado actual siempre se permite (operación idempotente).
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	if s == target {
		return s.IsValid()
	}
	for _, allowed := range saleTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Sale cabecera de una venta con sus líneas y totales ajustados por devoluciones.
type Sale struct {
	ID            string
	Status        SaleStatus
	Items         []SaleItem
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	Total         decimal.Decimal // inmutable desde la creación
	TotalReturned decimal.Decimal // suma de reembolsos de devoluciones completadas
	AdjustedTotal decimal.Decimal // Total - TotalReturned
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SaleItem línea de venta. Price queda congelado al momento de la venta.
type SaleItem struct {
	ID          string
	SaleID      string
	ProductID   string
	LineNo      int
	Qty         decimal.Decimal // cantidad vendida menos devoluciones completadas
	OriginalQty decimal.Decimal // cantidad vendida originalmente
	Price       decimal.Decimal
}

// FindItem busca una línea por ID.
func (s *Sale) FindItem(id string) *SaleItem {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i]
		}
	}
	return nil
}

// QuantitiesByProduct agrupa las cantidades vigentes de las líneas por producto.
func (s *Sale) QuantitiesByProduct() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.Items))
	for _, it := range s.Items {
		out[it.ProductID] = out[it.ProductID].Add(it.Qty)
	}
	return out
}

// ApplyRefund acumula un reembolso y recalcula AdjustedTotal.
func (s *Sale) ApplyRefund(amount decimal.Decimal) {
	s.TotalReturned = s.TotalReturned.Add(amount)
	s.AdjustedTotal = s.Total.Sub(s.TotalReturned)
}

// Transition arma el texto "PREV -> NEW" usado para observabilidad.
func Transition(prev, next string) string {
	return prev + " -> " + next
}

// SortedProductIDs devuelve las llaves ordenadas (orden estable de bloqueo de filas).
func SortedProductIDs(m map[string]decimal.Decimal) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
