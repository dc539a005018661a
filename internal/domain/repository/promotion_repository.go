package repository

import (
	"context"
	"time"

	"github.com/jhoicas/POS-api/internal/domain/promotion"
)

// PromotionRepository lee las promociones vigentes que consume el checkout.
type PromotionRepository interface {
	ListActive(ctx context.Context, at time.Time) ([]promotion.Promotion, error)
}
