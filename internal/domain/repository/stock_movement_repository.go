package repository

import (
	"context"

	"github.com/jhoicas/POS-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia para el kardex de movimientos.
type StockMovementRepository interface {
	CreateBatch(ctx context.Context, movements []*entity.StockMovement) error
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error)
}
