package returns

import (
	"context"

	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/repository"
)

// QueryUseCase lecturas de devoluciones.
type QueryUseCase struct {
	returnRepo repository.ReturnRepository
	saleRepo   repository.SaleRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(returnRepo repository.ReturnRepository, saleRepo repository.SaleRepository) *QueryUseCase {
	return &QueryUseCase{returnRepo: returnRepo, saleRepo: saleRepo}
}

// GetReturn devuelve la devolución con sus líneas.
func (uc *QueryUseCase) GetReturn(ctx context.Context, id string) (*dto.ReturnResponse, error) {
	ret, err := uc.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, domain.ErrNotFound
	}
	resp := dto.NewReturnResponse(ret)
	return &resp, nil
}

// ListBySale lista las devoluciones de una venta, más antiguas primero.
func (uc *QueryUseCase) ListBySale(ctx context.Context, saleID string) ([]dto.ReturnResponse, error) {
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.returnRepo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReturnResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.NewReturnResponse(r))
	}
	return out, nil
}
