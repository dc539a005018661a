package returns

import (
	"context"

	"github.com/jhoicas/POS-api/internal/application/inventory"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción de BD, con repositorios atados a esa tx.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error
}

// Gate acota cuántas transiciones críticas corren a la vez.
type Gate interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// StockLedger reintegra stock dentro de la transacción del caller.
type StockLedger interface {
	ApplyInTx(ctx context.Context, repos repository.TxRepositories, adj inventory.Adjustment) ([]entity.StockLevel, error)
}
