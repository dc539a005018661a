package alerts

import (
	"context"

	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/domain/repository"
)

// QueryUseCase lectura de alertas abiertas (las consulta periódicamente la pantalla de alertas).
type QueryUseCase struct {
	repo repository.StockAlertRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(repo repository.StockAlertRepository) *QueryUseCase {
	return &QueryUseCase{repo: repo}
}

// ListOpen lista las alertas abiertas con paginación.
func (uc *QueryUseCase) ListOpen(ctx context.Context, page dto.PageRequest) ([]dto.StockAlertResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.ListOpen(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockAlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.NewStockAlertResponse(a))
	}
	return out, nil
}
