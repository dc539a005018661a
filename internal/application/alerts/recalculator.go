package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/inventory"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/rs/zerolog"
)

// CatalogProvider entrega los IDs de las tablas de referencia de alertas (normalmente cacheados).
type CatalogProvider interface {
	Catalog(ctx context.Context) (*entity.AlertCatalog, error)
}

// Recalculator recalcula en lote las alertas de stock de los productos tocados por una transición.
// Es función del estado actual: invocarlo dos veces con el mismo lote deja el mismo contenido.
type Recalculator struct {
	catalog CatalogProvider
	log     zerolog.Logger
	now     func() time.Time
}

// NewRecalculator construye el recalculador con el catálogo inyectado.
func NewRecalculator(catalog CatalogProvider, log zerolog.Logger) *Recalculator {
	return &Recalculator{catalog: catalog, log: log, now: time.Now}
}

// Recalculate resuelve las alertas de los productos sanos con una sola sentencia y, para los
// demás, actualiza la alerta abierta más reciente o inserta una nueva.
// Debe llamarse con el repositorio atado a la transacción en curso.
func (r *Recalculator) Recalculate(ctx context.Context, repo repository.StockAlertRepository, levels []entity.StockLevel) error {
	if len(levels) == 0 {
		return nil
	}
	now := r.now()

	// Si un producto aparece dos veces gana el último nivel.
	byProduct := make(map[string]entity.StockLevel, len(levels))
	order := make([]string, 0, len(levels))
	for _, l := range levels {
		if _, seen := byProduct[l.ProductID]; !seen {
			order = append(order, l.ProductID)
		}
		byProduct[l.ProductID] = l
	}

	var healthy, unhealthy []string
	severities := make(map[string]inventory.Severity, len(order))
	for _, id := range order {
		l := byProduct[id]
		sev := inventory.ClassifyStock(l.Stock, l.MinStock)
		if sev.Healthy {
			healthy = append(healthy, id)
			continue
		}
		severities[id] = sev
		unhealthy = append(unhealthy, id)
	}

	var resolved int64
	if len(healthy) > 0 {
		n, err := repo.ResolveOpen(ctx, healthy, now)
		if err != nil {
			return fmt.Errorf("resolver alertas: %w", err)
		}
		resolved = n
	}
	if len(unhealthy) == 0 {
		r.log.Debug().Int64("resolved", resolved).Msg("alertas recalculadas")
		return nil
	}

	catalog, err := r.catalog.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("catálogo de alertas: %w", err)
	}

	open, err := repo.ListOpenByProducts(ctx, unhealthy)
	if err != nil {
		return fmt.Errorf("listar alertas abiertas: %w", err)
	}
	latest := make(map[string]*entity.StockAlert, len(open))
	for _, a := range open {
		if _, ok := latest[a.ProductID]; !ok {
			latest[a.ProductID] = a // vienen ordenadas de la más reciente a la más antigua
		}
	}

	var toUpdate, toInsert []*entity.StockAlert
	for _, id := range unhealthy {
		l := byProduct[id]
		sev := severities[id]
		typeID, ok := catalog.Types[sev.TypeCode]
		if !ok {
			return fmt.Errorf("catálogo de alertas sin tipo %s", sev.TypeCode)
		}
		priorityID, ok := catalog.Priorities[sev.PriorityCode]
		if !ok {
			return fmt.Errorf("catálogo de alertas sin prioridad %s", sev.PriorityCode)
		}
		if a, ok := latest[id]; ok {
			a.TypeID, a.TypeCode = typeID, sev.TypeCode
			a.PriorityID, a.PriorityCode = priorityID, sev.PriorityCode
			a.CurrentStock = l.Stock
			a.MinStock = l.MinStock
			a.UpdatedAt = now
			toUpdate = append(toUpdate, a)
			continue
		}
		toInsert = append(toInsert, &entity.StockAlert{
			ID:           uuid.New().String(),
			ProductID:    id,
			TypeID:       typeID,
			PriorityID:   priorityID,
			TypeCode:     sev.TypeCode,
			PriorityCode: sev.PriorityCode,
			Status:       entity.AlertStatusOpen,
			CurrentStock: l.Stock,
			MinStock:     l.MinStock,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if len(toUpdate) > 0 {
		if err := repo.UpdateBatch(ctx, toUpdate); err != nil {
			return fmt.Errorf("actualizar alertas: %w", err)
		}
	}
	if len(toInsert) > 0 {
		if err := repo.InsertBatch(ctx, toInsert); err != nil {
			return fmt.Errorf("insertar alertas: %w", err)
		}
	}

	r.log.Debug().
		Int64("resolved", resolved).
		Int("updated", len(toUpdate)).
		Int("created", len(toInsert)).
		Msg("alertas recalculadas")
	return nil
}
