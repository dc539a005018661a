package repository

import (
	"context"
	"time"

	"github.com/jhoicas/POS-api/internal/domain/entity"
)

// StockAlertRepository define el puerto de persistencia para alertas de stock.
type StockAlertRepository interface {
	// ResolveOpen marca como resueltas, en una sola sentencia, las alertas abiertas de los productos.
	ResolveOpen(ctx context.Context, productIDs []string, at time.Time) (int64, error)
	// ListOpenByProducts devuelve las alertas abiertas del lote, más recientes primero.
	ListOpenByProducts(ctx context.Context, productIDs []string) ([]*entity.StockAlert, error)
	UpdateBatch(ctx context.Context, alerts []*entity.StockAlert) error
	InsertBatch(ctx context.Context, alerts []*entity.StockAlert) error
	ListOpen(ctx context.Context, limit, offset int) ([]*entity.StockAlert, error)
}

// AlertCatalogRepository lee las tablas de referencia de tipos y prioridades de alerta.
type AlertCatalogRepository interface {
	LoadCatalog(ctx context.Context) (*entity.AlertCatalog, error)
}
