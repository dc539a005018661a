package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// maxReplenishmentAlerts tope de alertas abiertas consideradas en una lista.
const maxReplenishmentAlerts = 500

var (
	idealFactor  = decimal.NewFromFloat(1.5)
	priorityRank = map[string]int{
		entity.AlertPriorityCritical: 0,
		entity.AlertPriorityHigh:     1,
		entity.AlertPriorityMedium:   2,
		entity.AlertPriorityLow:      3,
	}
)

// ReplenishmentUseCase genera la lista de reposición a partir de las alertas de stock abiertas.
type ReplenishmentUseCase struct {
	alertRepo   repository.StockAlertRepository
	productRepo repository.ProductRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(
	alertRepo repository.StockAlertRepository,
	productRepo repository.ProductRepository,
) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		alertRepo:   alertRepo,
		productRepo: productRepo,
	}
}

// GenerateReplenishmentList devuelve los productos con alerta abierta, la cantidad sugerida
// de pedido (llevar el stock a 1.5 veces el mínimo) y un ranking por prioridad de la alerta.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	// 1. Alertas abiertas
	alerts, err := uc.alertRepo.ListOpen(ctx, maxReplenishmentAlerts, 0)
	if err != nil {
		return nil, err
	}
	if len(alerts) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	// 2. Productos, para nombre, SKU y stock vigente
	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		ids = append(ids, a.ProductID)
	}
	products, err := uc.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// 3. Construir los DTOs
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(alerts))
	for _, a := range alerts {
		p, ok := products[a.ProductID]
		if !ok {
			continue
		}
		idealStock := p.MinStock.Mul(idealFactor)
		suggestedQty := idealStock.Sub(p.Stock)
		if suggestedQty.LessThanOrEqual(decimal.Zero) {
			suggestedQty = decimal.Zero
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:           p.ID,
			SKU:                 p.SKU,
			ProductName:         p.Name,
			AlertType:           a.TypeCode,
			AlertPriority:       a.PriorityCode,
			CurrentStock:        p.Stock,
			MinStock:            p.MinStock,
			IdealStock:          idealStock,
			SuggestedOrderQty:   suggestedQty,
			UnitPrice:           p.Price,
			EstimatedOrderValue: suggestedQty.Mul(p.Price).Round(2),
		})
	}

	// 4. Ordenar: prioridad de la alerta y luego mayor déficit absoluto
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if ra, rb := priorityRank[a.AlertPriority], priorityRank[b.AlertPriority]; ra != rb {
			return ra < rb
		}
		return a.MinStock.Sub(a.CurrentStock).GreaterThan(b.MinStock.Sub(b.CurrentStock))
	})

	// 5. Asignar prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}

	return suggestions, nil
}
