package returns

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

// LifecycleUseCase aplica transiciones de estado de devoluciones y concilia venta y stock.
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

// TransitionStatus mueve la devolución al estado destino:
//   - COMPLETED: reduce las líneas de la venta, acumula el reembolso en la venta y reintegra
//     el stock si no se había reintegrado antes.
//   - APPROVED con restoreStock: reintegra el stock (a lo sumo una vez) sin tocar la venta.
//   - REJECTED o APPROVED sin restoreStock: solo estado.
//
// Las devoluciones COMPLETED o REJECTED son inmutables (domain.ErrInvalidTransition).
func (uc *LifecycleUseCase) TransitionStatus(ctx context.Context, returnID, target string, restoreStock bool, userID string) (*dto.ReturnTransitionResponse, error) {
	if returnID == "" {
		return nil, domain.ErrInvalidInput
	}
	next, ok := entity.ParseReturnStatus(target)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTarget, target)
	}

	var (
		ret      *entity.Return
		prev     entity.ReturnStatus
		saleAdj  entity.SaleAdjustment
		stockAdj entity.StockAdjustment
	)
	err := uc.gate.Run(ctx, func(ctx context.Context) error {
		return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
			saleAdj, stockAdj = entity.SaleAdjustmentNone, entity.StockAdjustmentNone

			var err error
			ret, err = repos.Returns.GetForUpdate(ctx, returnID)
			if err != nil {
				return err
			}
			if ret == nil {
				return fmt.Errorf("%w: devolución %s", domain.ErrNotFound, returnID)
			}
			prev = ret.Status
			if prev.IsTerminal() {
				return fmt.Errorf("%w: la devolución %s ya está en %s", domain.ErrInvalidTransition, ret.ID, prev)
			}
			if !prev.CanTransitionTo(next) {
				return fmt.Errorf("%w: %s", domain.ErrInvalidTransition, entity.Transition(prev.String(), next.String()))
			}

			now := uc.now()
			switch next {
			case entity.ReturnStatusCompleted:
				if err := uc.reconcileSale(ctx, repos, ret); err != nil {
					return err
				}
				saleAdj = entity.SaleAdjustmentUpdated
				if ret.StockRestoration != entity.StockRestorationRestored {
					if err := uc.restoreStock(ctx, repos, ret, userID, now); err != nil {
						return err
					}
					stockAdj = entity.StockAdjustmentRestored
				}
				ret.ProcessedAt = &now
				ret.ProcessedBy = userID
			case entity.ReturnStatusApproved:
				if restoreStock && ret.StockRestoration != entity.StockRestorationRestored {
					if err := uc.restoreStock(ctx, repos, ret, userID, now); err != nil {
						return err
					}
					stockAdj = entity.StockAdjustmentRestored
					ret.ProcessedBy = userID
				}
			}

			ret.Status = next
			ret.UpdatedAt = now
			return repos.Returns.Update(ctx, ret)
		})
	})
	if err != nil {
		return nil, err
	}

	transition := entity.Transition(prev.String(), next.String())
	uc.log.Info().
		Str("return_id", ret.ID).
		Str("sale_id", ret.SaleID).
		Str("transition", transition).
		Str("sale_adjustment", string(saleAdj)).
		Str("stock_adjustment", string(stockAdj)).
		Str("user_id", userID).
		Msg("transición de devolución")

	return &dto.ReturnTransitionResponse{
		Return:          dto.NewReturnResponse(ret),
		SaleAdjustment:  string(saleAdj),
		StockAdjustment: string(stockAdj),
		Transition:      transition,
	}, nil
}

// reconcileSale reduce las cantidades vigentes de las líneas y acumula el reembolso en la venta.
func (uc *LifecycleUseCase) reconcileSale(ctx context.Context, repos repository.TxRepositories, ret *entity.Return) error {
	sale, err := repos.Sales.GetForUpdate(ctx, ret.SaleID)
	if err != nil {
		return err
	}
	if sale == nil {
		return fmt.Errorf("%w: venta %s de la devolución %s", domain.ErrNotFound, ret.SaleID, ret.ID)
	}
	for _, it := range ret.Items {
		si := sale.FindItem(it.SaleItemID)
		if si == nil {
			return fmt.Errorf("%w: la línea %s ya no existe en la venta %s", domain.ErrInvalidPrecondition, it.SaleItemID, sale.ID)
		}
		si.Qty = si.Qty.Sub(it.QtyReturned)
		if si.Qty.IsNegative() {
			si.Qty = decimal.Zero
		}
		if err := repos.Sales.UpdateItemQty(ctx, si); err != nil {
			return err
		}
	}
	sale.ApplyRefund(ret.TotalRefund)
	sale.UpdatedAt = uc.now()
	return repos.Sales.UpdateTotals(ctx, sale)
}

func (uc *LifecycleUseCase) restoreStock(ctx context.Context, repos repository.TxRepositories, ret *entity.Return, userID string, now time.Time) error {
	_, err := uc.ledger.ApplyInTx(ctx, repos, inventory.Adjustment{
		Deltas:       ret.QuantitiesByProduct(),
		MovementType: entity.MovementTypeReturnIn,
		ReferenceID:  ret.ID,
		UserID:       userID,
		At:           now,
	})
	if err != nil {
		return err
	}
	ret.StockRestoration = entity.StockRestorationRestored
	return nil
}
