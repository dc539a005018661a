package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

// ReturnRepo implementación sobre PostgreSQL (usable con pool o tx).
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

const returnColumns = `id, sale_id, status, COALESCE(reason, ''), total_refund, items_count, stock_restoration,
	processed_at, COALESCE(processed_by, ''), COALESCE(created_by, ''), created_at, updated_at`

// Create persiste cabecera y líneas en un solo batch.
func (r *ReturnRepo) Create(ctx context.Context, ret *entity.Return) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO returns (id, sale_id, status, reason, total_refund, items_count, stock_restoration,
			processed_at, processed_by, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, $12)`,
		ret.ID, ret.SaleID, string(ret.Status), ret.Reason, ret.TotalRefund, ret.ItemsCount,
		string(ret.StockRestoration), ret.ProcessedAt, ret.ProcessedBy, ret.CreatedBy, ret.CreatedAt, ret.UpdatedAt,
	)
	for _, it := range ret.Items {
		batch.Queue(`
			INSERT INTO return_items (id, return_id, sale_item_id, product_id, line_no, qty_returned, refund_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, ret.ID, it.SaleItemID, it.ProductID, it.LineNo, it.QtyReturned, it.RefundAmount,
		)
	}
	if err := r.q.SendBatch(ctx, batch).Close(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("devolución %s ya existe: %w", ret.ID, err)
		}
		return wrapErr("create return", err)
	}
	return nil
}

// GetByID obtiene la devolución con sus líneas.
func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.Return, error) {
	return r.get(ctx, `SELECT `+returnColumns+` FROM returns WHERE id = $1`, id)
}

// GetForUpdate obtiene la devolución bloqueando su fila.
func (r *ReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.Return, error) {
	return r.get(ctx, `SELECT `+returnColumns+` FROM returns WHERE id = $1 FOR UPDATE`, id)
}

func (r *ReturnRepo) get(ctx context.Context, query, id string) (*entity.Return, error) {
	ret, err := scanReturn(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get return", err)
	}
	items, err := r.items(ctx, []string{ret.ID})
	if err != nil {
		return nil, err
	}
	ret.Items = items[ret.ID]
	return ret, nil
}

// ListBySale lista las devoluciones de la venta en orden de creación.
func (r *ReturnRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.Return, error) {
	rows, err := r.q.Query(ctx, `SELECT `+returnColumns+` FROM returns WHERE sale_id = $1 ORDER BY created_at, id`, saleID)
	if err != nil {
		return nil, wrapErr("list returns", err)
	}
	var list []*entity.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			rows.Close()
			return nil, wrapErr("scan return", err)
		}
		list = append(list, ret)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list returns", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, 0, len(list))
	for _, ret := range list {
		ids = append(ids, ret.ID)
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, ret := range list {
		ret.Items = items[ret.ID]
	}
	return list, nil
}

func (r *ReturnRepo) items(ctx context.Context, returnIDs []string) (map[string][]entity.ReturnItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, return_id, sale_item_id, product_id, line_no, qty_returned, refund_amount
		FROM return_items WHERE return_id = ANY($1) ORDER BY return_id, line_no`, returnIDs)
	if err != nil {
		return nil, wrapErr("list return items", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.ReturnItem, len(returnIDs))
	for rows.Next() {
		var it entity.ReturnItem
		if err := rows.Scan(&it.ID, &it.ReturnID, &it.SaleItemID, &it.ProductID, &it.LineNo, &it.QtyReturned, &it.RefundAmount); err != nil {
			return nil, wrapErr("scan return item", err)
		}
		out[it.ReturnID] = append(out[it.ReturnID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list return items", err)
	}
	return out, nil
}

func scanReturn(row pgx.Row) (*entity.Return, error) {
	var ret entity.Return
	var status, restoration string
	err := row.Scan(
		&ret.ID, &ret.SaleID, &status, &ret.Reason, &ret.TotalRefund, &ret.ItemsCount, &restoration,
		&ret.ProcessedAt, &ret.ProcessedBy, &ret.CreatedBy, &ret.CreatedAt, &ret.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ret.Status = entity.ReturnStatus(status)
	ret.StockRestoration = entity.StockRestoration(restoration)
	return &ret, nil
}

// Update persiste estado, restitución de stock y datos de procesamiento. Las líneas no cambian.
func (r *ReturnRepo) Update(ctx context.Context, ret *entity.Return) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE returns SET status = $2, stock_restoration = $3, processed_at = $4,
			processed_by = NULLIF($5, ''), updated_at = $6
		WHERE id = $1`,
		ret.ID, string(ret.Status), string(ret.StockRestoration), ret.ProcessedAt, ret.ProcessedBy, ret.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update return", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReturnedQtyBySaleItem suma qty_returned por línea de venta sobre devoluciones no rechazadas.
func (r *ReturnRepo) ReturnedQtyBySaleItem(ctx context.Context, saleID string) (map[string]decimal.Decimal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT ri.sale_item_id, COALESCE(SUM(ri.qty_returned), 0)
		FROM return_items ri
		JOIN returns rt ON rt.id = ri.return_id
		WHERE rt.sale_id = $1 AND rt.status <> 'REJECTED'
		GROUP BY ri.sale_item_id`, saleID)
	if err != nil {
		return nil, wrapErr("returned qty", err)
	}
	defer rows.Close()
	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var id string
		var qty decimal.Decimal
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, wrapErr("scan returned qty", err)
		}
		out[id] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("returned qty", err)
	}
	return out, nil
}

// CountOpenBySale cuenta devoluciones PENDING o APPROVED de la venta.
func (r *ReturnRepo) CountOpenBySale(ctx context.Context, saleID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM returns WHERE sale_id = $1 AND status IN ('PENDING', 'APPROVED')`, saleID).Scan(&n)
	if err != nil {
		return 0, wrapErr("count open returns", err)
	}
	return n, nil
}
