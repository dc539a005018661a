package repository

import (
	"context"

	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto de persistencia para productos y su contador de stock (DIP).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	// AdjustStock suma cada delta (positivo o negativo) al stock del producto, una
	// actualización por producto, y devuelve el stock resultante. Producto inexistente => domain.ErrNotFound.
	AdjustStock(ctx context.Context, deltas map[string]decimal.Decimal) ([]entity.StockLevel, error)
}
