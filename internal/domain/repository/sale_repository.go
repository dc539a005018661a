package repository

import (
	"context"
	"time"

	"github.com/jhoicas/POS-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas y sus líneas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetForUpdate obtiene la venta bloqueando su fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	UpdateStatus(ctx context.Context, id string, status entity.SaleStatus, at time.Time) error
	UpdateTotals(ctx context.Context, sale *entity.Sale) error
	UpdateItemQty(ctx context.Context, item *entity.SaleItem) error
}
