package repository

import (
	"context"

	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ReturnRepository define el puerto de persistencia para devoluciones.
type ReturnRepository interface {
	Create(ctx context.Context, ret *entity.Return) error
	GetByID(ctx context.Context, id string) (*entity.Return, error)
	// GetForUpdate obtiene la devolución bloqueando su fila.
	GetForUpdate(ctx context.Context, id string) (*entity.Return, error)
	ListBySale(ctx context.Context, saleID string) ([]*entity.Return, error)
	// Update persiste estado, restitución de stock y datos de procesamiento.
	Update(ctx context.Context, ret *entity.Return) error
	// ReturnedQtyBySaleItem suma qty_returned por línea de venta, excluyendo devoluciones rechazadas.
	ReturnedQtyBySaleItem(ctx context.Context, saleID string) (map[string]decimal.Decimal, error)
	// CountOpenBySale cuenta devoluciones no terminales de la venta.
	CountOpenBySale(ctx context.Context, saleID string) (int, error)
}
