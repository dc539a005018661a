package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo kardex sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

var movementColumns = []string{"id", "product_id", "type", "quantity", "stock_after", "reference_id", "created_by", "created_at"}

// CreateBatch inserta los movimientos con COPY (un viaje para todo el lote).
// COPY usa formato binario, por eso los IDs viajan como uuid.UUID y no como texto.
func (r *StockMovementRepo) CreateBatch(ctx context.Context, movements []*entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(movements))
	for _, m := range movements {
		ids, err := parseUUIDs(m.ID, m.ProductID, m.ReferenceID)
		if err != nil {
			return fmt.Errorf("movimiento %s: %w", m.ID, err)
		}
		var createdBy *string
		if m.CreatedBy != "" {
			createdBy = &m.CreatedBy
		}
		rows = append(rows, []any{ids[0], ids[1], m.Type, m.Quantity, m.StockAfter, ids[2], createdBy, m.CreatedAt})
	}
	if _, err := r.q.CopyFrom(ctx, pgx.Identifier{"stock_movements"}, movementColumns, pgx.CopyFromRows(rows)); err != nil {
		return wrapErr("create stock movements", err)
	}
	return nil
}

// ListByProduct lista los movimientos del producto, más recientes primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, type, quantity, stock_after, reference_id, COALESCE(created_by, ''), created_at
		FROM stock_movements WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, wrapErr("list stock movements", err)
	}
	defer rows.Close()
	var out []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.StockAfter, &m.ReferenceID, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, wrapErr("scan stock movement", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list stock movements", err)
	}
	return out, nil
}

func parseUUIDs(values ...string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("uuid inválido %q: %w", v, err)
		}
		out = append(out, id)
	}
	return out, nil
}
