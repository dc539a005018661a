package inventory

import (
	"context"

	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/repository"
)

// MovementsQueryUseCase consulta el kardex de un producto.
type MovementsQueryUseCase struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
}

// NewMovementsQueryUseCase construye el caso de uso.
func NewMovementsQueryUseCase(productRepo repository.ProductRepository, movementRepo repository.StockMovementRepository) *MovementsQueryUseCase {
	return &MovementsQueryUseCase{productRepo: productRepo, movementRepo: movementRepo}
}

// ListByProduct lista los movimientos del producto, más recientes primero.
func (uc *MovementsQueryUseCase) ListByProduct(ctx context.Context, productID string, page dto.PageRequest) ([]dto.StockMovementResponse, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	page.DefaultPage()
	list, err := uc.movementRepo.ListByProduct(ctx, productID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.NewStockMovementResponse(m))
	}
	return out, nil
}
