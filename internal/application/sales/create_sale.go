package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/promotion"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CreateSaleUseCase registra una venta en PENDING (checkout). No mueve stock: el stock
// se descuenta al completar la venta.
type CreateSaleUseCase struct {
	txRunner TxRunner
	log      zerolog.Logger
	now      func() time.Time
}

// NewCreateSaleUseCase construye el caso de uso.
func NewCreateSaleUseCase(txRunner TxRunner, log zerolog.Logger) *CreateSaleUseCase {
	return &CreateSaleUseCase{txRunner: txRunner, log: log, now: time.Now}
}

// CreateSale congela precios, aplica las promociones vigentes y persiste cabecera y líneas.
func (uc *CreateSaleUseCase) CreateSale(ctx context.Context, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: la venta no tiene líneas", domain.ErrInvalidInput)
	}
	ids := make([]string, 0, len(in.Items))
	for _, item := range in.Items {
		if item.ProductID == "" || !item.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: producto y cantidad positiva son obligatorios", domain.ErrInvalidInput)
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: precio negativo para el producto %s", domain.ErrInvalidInput, item.ProductID)
		}
		ids = append(ids, item.ProductID)
	}

	now := uc.now()
	var sale *entity.Sale
	var discount promotion.Result

	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		products, err := repos.Products.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}

		sale = &entity.Sale{
			ID:        uuid.New().String(),
			Status:    entity.SaleStatusPending,
			Items:     make([]entity.SaleItem, 0, len(in.Items)),
			CreatedBy: userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		cart := make([]promotion.CartItem, 0, len(in.Items))
		subtotal := decimal.Zero
		for i, item := range in.Items {
			product, ok := products[item.ProductID]
			if !ok {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, item.ProductID)
			}
			// Precio congelado al momento de la venta
			price := product.Price
			if item.UnitPrice != nil {
				price = *item.UnitPrice
			}
			sale.Items = append(sale.Items, entity.SaleItem{
				ID:          uuid.New().String(),
				SaleID:      sale.ID,
				ProductID:   product.ID,
				LineNo:      i + 1,
				Qty:         item.Quantity,
				OriginalQty: item.Quantity,
				Price:       price,
			})
			cart = append(cart, promotion.CartItem{ProductID: product.ID, Qty: item.Quantity, UnitPrice: price})
			subtotal = subtotal.Add(item.Quantity.Mul(price))
		}

		promos, err := repos.Promotions.ListActive(ctx, now)
		if err != nil {
			return err
		}
		discount = promotion.ComputeDiscount(promos, cart)

		total := subtotal.Sub(discount.DiscountTotal)
		if total.IsNegative() {
			total = decimal.Zero
		}
		sale.Subtotal = subtotal.Round(2)
		sale.DiscountTotal = discount.DiscountTotal
		sale.Total = total.Round(2)
		sale.TotalReturned = decimal.Zero
		sale.AdjustedTotal = sale.Total

		return repos.Sales.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("sale_id", sale.ID).
		Int("items", len(sale.Items)).
		Str("total", sale.Total.String()).
		Str("discount", sale.DiscountTotal.String()).
		Msg("venta creada")

	resp := dto.NewSaleResponse(sale)
	for _, a := range discount.Breakdown {
		resp.Discounts = append(resp.Discounts, dto.AppliedPromotion{PromotionID: a.PromotionID, Amount: a.Amount})
	}
	return &resp, nil
}
