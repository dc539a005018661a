package inventory

import (
	"context"

	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
)

// AlertRecalculator recalcula alertas dentro de la transacción del caller.
type AlertRecalculator interface {
	Recalculate(ctx context.Context, repo repository.StockAlertRepository, levels []entity.StockLevel) error
}
