package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Adjustment ajuste de stock agrupado por producto que origina una transición de ciclo de vida.
type Adjustment struct {
	Deltas       map[string]decimal.Decimal // productID -> delta (negativo = salida)
	MovementType string
	ReferenceID  string // venta o devolución
	UserID       string
	At           time.Time
}

// StockLedger aplica ajustes de stock usando los repositorios del caller (misma transacción):
// una actualización por producto, un movimiento de kardex por producto y el recálculo de alertas en lote.
// Si retorna error el caller debe hacer rollback.
type StockLedger struct {
	alerts AlertRecalculator
	log    zerolog.Logger
}

// NewStockLedger construye el ledger.
func NewStockLedger(alerts AlertRecalculator, log zerolog.Logger) *StockLedger {
	return &StockLedger{alerts: alerts, log: log}
}

// ApplyInTx ajusta el stock, registra los movimientos y recalcula alertas de los productos tocados.
func (l *StockLedger) ApplyInTx(ctx context.Context, repos repository.TxRepositories, adj Adjustment) ([]entity.StockLevel, error) {
	deltas := make(map[string]decimal.Decimal, len(adj.Deltas))
	for id, d := range adj.Deltas {
		if !d.IsZero() {
			deltas[id] = d
		}
	}
	if len(deltas) == 0 {
		return nil, nil
	}

	levels, err := repos.Products.AdjustStock(ctx, deltas)
	if err != nil {
		return nil, err
	}

	at := adj.At
	if at.IsZero() {
		at = time.Now()
	}
	movements := make([]*entity.StockMovement, 0, len(levels))
	for _, lvl := range levels {
		movements = append(movements, &entity.StockMovement{
			ID:          uuid.New().String(),
			ProductID:   lvl.ProductID,
			Type:        adj.MovementType,
			Quantity:    deltas[lvl.ProductID],
			StockAfter:  lvl.Stock,
			ReferenceID: adj.ReferenceID,
			CreatedBy:   adj.UserID,
			CreatedAt:   at,
		})
	}
	if err := repos.Movements.CreateBatch(ctx, movements); err != nil {
		return nil, fmt.Errorf("registrar movimientos: %w", err)
	}

	if err := l.alerts.Recalculate(ctx, repos.Alerts, levels); err != nil {
		return nil, err
	}

	l.log.Debug().
		Str("reference_id", adj.ReferenceID).
		Str("movement_type", adj.MovementType).
		Int("products", len(levels)).
		Msg("stock ajustado")
	return levels, nil
}
