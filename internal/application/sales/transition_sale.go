package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/application/inventory"
	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LifecycleUseCase aplica transiciones de estado de ventas con su efecto sobre el stock.
// Cada transición pasa por el controlador de admisión y corre en una sola transacción.
type LifecycleUseCase struct {
	gate     Gate
	txRunner TxRunner
	ledger   StockLedger
	log      zerolog.Logger
	now      func() time.Time
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(gate Gate, txRunner TxRunner, ledger StockLedger, log zerolog.Logger) *LifecycleUseCase {
	return &LifecycleUseCase{gate: gate, txRunner: txRunner, ledger: ledger, log: log, now: time.Now}
}

// TransitionStatus cambia el estado de la venta.
//   - PENDING/ON_HOLD -> COMPLETED: descuenta el stock agrupado por producto (una vez).
//   - COMPLETED -> CANCELLED: reintegra las cantidades vigentes de las líneas.
//   - Cualquier otra transición permitida solo cambia el estado.
//
// Repetir el estado actual no tiene efecto. Estado desconocido => domain.ErrInvalidTarget.
func (uc *LifecycleUseCase) TransitionStatus(ctx context.Context, saleID, target, userID string) (*dto.SaleTransitionResponse, error) {
	if saleID == "" {
		return nil, domain.ErrInvalidInput
	}
	next, ok := entity.ParseSaleStatus(target)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTarget, target)
	}

	var (
		sale       *entity.Sale
		prev       entity.SaleStatus
		adjustment = entity.StockAdjustmentNone
	)
	err := uc.gate.Run(ctx, func(ctx context.Context) error {
		return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
			var err error
			sale, err = repos.Sales.GetForUpdate(ctx, saleID)
			if err != nil {
				return err
			}
			if sale == nil {
				return fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleID)
			}
			prev = sale.Status
			adjustment = entity.StockAdjustmentNone
			if prev == next {
				return nil
			}
			if !prev.CanTransitionTo(next) {
				return fmt.Errorf("%w: %s", domain.ErrInvalidTransition, entity.Transition(prev.String(), next.String()))
			}

			now := uc.now()
			wasCompleted := prev == entity.SaleStatusCompleted
			switch {
			case !wasCompleted && next == entity.SaleStatusCompleted:
				if err := uc.applyStock(ctx, repos, sale, userID, now, true); err != nil {
					return err
				}
				adjustment = entity.StockAdjustmentDecremented
			case wasCompleted && next == entity.SaleStatusCancelled:
				// Una devolución abierta podría haber restituido stock sin reducir las líneas.
				open, err := repos.Returns.CountOpenBySale(ctx, sale.ID)
				if err != nil {
					return err
				}
				if open > 0 {
					return fmt.Errorf("%w: la venta %s tiene %d devoluciones abiertas", domain.ErrInvalidPrecondition, sale.ID, open)
				}
				if err := uc.applyStock(ctx, repos, sale, userID, now, false); err != nil {
					return err
				}
				adjustment = entity.StockAdjustmentRestored
			}

			if err := repos.Sales.UpdateStatus(ctx, sale.ID, next, now); err != nil {
				return err
			}
			sale.Status = next
			sale.UpdatedAt = now
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	transition := entity.Transition(prev.String(), next.String())
	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("transition", transition).
		Str("stock_adjustment", string(adjustment)).
		Str("user_id", userID).
		Msg("transición de venta")

	return &dto.SaleTransitionResponse{
		Sale:            dto.NewSaleResponse(sale),
		StockAdjustment: string(adjustment),
		Transition:      transition,
	}, nil
}

func (uc *LifecycleUseCase) applyStock(ctx context.Context, repos repository.TxRepositories, sale *entity.Sale, userID string, now time.Time, decrement bool) error {
	qty := sale.QuantitiesByProduct()
	deltas := make(map[string]decimal.Decimal, len(qty))
	movementType := entity.MovementTypeSaleCancelIn
	for id, q := range qty {
		if decrement {
			deltas[id] = q.Neg()
		} else {
			deltas[id] = q
		}
	}
	if decrement {
		movementType = entity.MovementTypeSaleOut
	}
	_, err := uc.ledger.ApplyInTx(ctx, repos, inventory.Adjustment{
		Deltas:       deltas,
		MovementType: movementType,
		ReferenceID:  sale.ID,
		UserID:       userID,
		At:           now,
	})
	return err
}
