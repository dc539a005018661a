package returns

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CreateReturnUseCase registra una devolución PENDING sobre una venta completada.
// No toca stock ni totales: eso ocurre en las transiciones posteriores.
type CreateReturnUseCase struct {
	gate     Gate
	txRunner TxRunner
	log      zerolog.Logger
	now      func() time.Time
}

// NewCreateReturnUseCase construye el caso de uso.
func NewCreateReturnUseCase(gate Gate, txRunner TxRunner, log zerolog.Logger) *CreateReturnUseCase {
	return &CreateReturnUseCase{gate: gate, txRunner: txRunner, log: log, now: time.Now}
}

type requestedLine struct {
	saleItemID string
	productID  string
	qty        decimal.Decimal
}

// CreateReturn valida cantidades disponibles por línea, calcula reembolsos y persiste la devolución.
// Disponible = cantidad vendida originalmente - lo ya devuelto en devoluciones no rechazadas.
func (uc *CreateReturnUseCase) CreateReturn(ctx context.Context, userID string, in dto.CreateReturnRequest) (*dto.ReturnResponse, error) {
	if in.SaleID == "" || len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: venta y líneas son obligatorias", domain.ErrInvalidInput)
	}

	// Líneas repetidas en el mismo request se suman.
	lines := make([]*requestedLine, 0, len(in.Items))
	byItem := make(map[string]*requestedLine, len(in.Items))
	for _, item := range in.Items {
		if item.SaleItemID == "" || !item.QtyReturned.IsPositive() {
			return nil, fmt.Errorf("%w: línea de venta y cantidad positiva son obligatorias", domain.ErrInvalidInput)
		}
		if l, ok := byItem[item.SaleItemID]; ok {
			if item.ProductID != "" && l.productID != "" && item.ProductID != l.productID {
				return nil, fmt.Errorf("%w: productos distintos para la línea %s", domain.ErrInvalidInput, item.SaleItemID)
			}
			if l.productID == "" {
				l.productID = item.ProductID
			}
			l.qty = l.qty.Add(item.QtyReturned)
			continue
		}
		l := &requestedLine{saleItemID: item.SaleItemID, productID: item.ProductID, qty: item.QtyReturned}
		byItem[item.SaleItemID] = l
		lines = append(lines, l)
	}

	now := uc.now()
	var ret *entity.Return
	err := uc.gate.Run(ctx, func(ctx context.Context) error {
		return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
			// Bloquear la venta serializa la validación de disponibles entre devoluciones concurrentes.
			sale, err := repos.Sales.GetForUpdate(ctx, in.SaleID)
			if err != nil {
				return err
			}
			if sale == nil {
				return fmt.Errorf("%w: venta %s", domain.ErrNotFound, in.SaleID)
			}
			if sale.Status != entity.SaleStatusCompleted {
				return fmt.Errorf("%w: la venta %s está en %s, solo se devuelven ventas completadas",
					domain.ErrInvalidPrecondition, sale.ID, sale.Status)
			}

			returned, err := repos.Returns.ReturnedQtyBySaleItem(ctx, sale.ID)
			if err != nil {
				return err
			}

			ret = &entity.Return{
				ID:               uuid.New().String(),
				SaleID:           sale.ID,
				Status:           entity.ReturnStatusPending,
				Reason:           in.Reason,
				Items:            make([]entity.ReturnItem, 0, len(lines)),
				TotalRefund:      decimal.Zero,
				StockRestoration: entity.StockRestorationNone,
				CreatedBy:        userID,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			for i, l := range lines {
				si := sale.FindItem(l.saleItemID)
				if si == nil {
					return fmt.Errorf("%w: la línea %s no pertenece a la venta %s", domain.ErrInvalidInput, l.saleItemID, sale.ID)
				}
				if l.productID != "" && l.productID != si.ProductID {
					return fmt.Errorf("%w: la línea %s corresponde al producto %s, no a %s",
						domain.ErrInvalidInput, si.ID, si.ProductID, l.productID)
				}
				available := si.OriginalQty.Sub(returned[si.ID])
				if available.IsNegative() {
					available = decimal.Zero
				}
				if l.qty.GreaterThan(available) {
					return &domain.InsufficientQuantityError{
						ProductID:  si.ProductID,
						SaleItemID: si.ID,
						Requested:  l.qty,
						Available:  available,
					}
				}
				// Reembolso calculado una sola vez con el precio congelado de la línea.
				refund := si.Price.Mul(l.qty).Round(2)
				ret.Items = append(ret.Items, entity.ReturnItem{
					ID:           uuid.New().String(),
					ReturnID:     ret.ID,
					SaleItemID:   si.ID,
					ProductID:    si.ProductID,
					LineNo:       i + 1,
					QtyReturned:  l.qty,
					RefundAmount: refund,
				})
				ret.TotalRefund = ret.TotalRefund.Add(refund)
			}
			ret.ItemsCount = len(ret.Items)

			return repos.Returns.Create(ctx, ret)
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("return_id", ret.ID).
		Str("sale_id", ret.SaleID).
		Int("items", ret.ItemsCount).
		Str("total_refund", ret.TotalRefund.String()).
		Msg("devolución creada")

	resp := dto.NewReturnResponse(ret)
	return &resp, nil
}
