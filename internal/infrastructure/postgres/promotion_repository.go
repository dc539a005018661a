package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/POS-api/internal/domain/promotion"
	"github.com/jhoicas/POS-api/internal/domain/repository"
)

var _ repository.PromotionRepository = (*PromotionRepo)(nil)

// PromotionRepo lee promociones vigentes.
type PromotionRepo struct {
	q Querier
}

// NewPromotionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPromotionRepository(q Querier) *PromotionRepo {
	return &PromotionRepo{q: q}
}

// ListActive devuelve las promociones activas en at, en el orden en que se aplican.
func (r *PromotionRepo) ListActive(ctx context.Context, at time.Time) ([]promotion.Promotion, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, kind, value, COALESCE(product_id::text, ''), buy_qty, free_qty, min_subtotal
		FROM promotions
		WHERE active AND starts_at <= $1 AND (ends_at IS NULL OR ends_at > $1)
		ORDER BY apply_order, id`, at)
	if err != nil {
		return nil, wrapErr("list promotions", err)
	}
	defer rows.Close()
	var out []promotion.Promotion
	for rows.Next() {
		var p promotion.Promotion
		var kind string
		if err := rows.Scan(&p.ID, &p.Name, &kind, &p.Value, &p.ProductID, &p.BuyQty, &p.FreeQty, &p.MinSubtotal); err != nil {
			return nil, wrapErr("scan promotion", err)
		}
		p.Kind = promotion.Kind(kind)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list promotions", err)
	}
	return out, nil
}
