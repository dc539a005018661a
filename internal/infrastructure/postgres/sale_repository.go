package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, status, subtotal, discount_total, total, total_returned, adjusted_total,
	COALESCE(created_by, ''), created_at, updated_at`

// Create persiste cabecera y líneas en un solo batch.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO sales (id, status, subtotal, discount_total, total, total_returned, adjusted_total, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)`,
		sale.ID, string(sale.Status), sale.Subtotal, sale.DiscountTotal, sale.Total,
		sale.TotalReturned, sale.AdjustedTotal, sale.CreatedBy, sale.CreatedAt, sale.UpdatedAt,
	)
	for _, it := range sale.Items {
		batch.Queue(`
			INSERT INTO sale_items (id, sale_id, product_id, line_no, qty, original_qty, price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, sale.ID, it.ProductID, it.LineNo, it.Qty, it.OriginalQty, it.Price,
		)
	}
	if err := r.q.SendBatch(ctx, batch).Close(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("venta %s ya existe: %w", sale.ID, err)
		}
		return wrapErr("create sale", err)
	}
	return nil
}

// GetByID obtiene la venta con sus líneas.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate obtiene la venta bloqueando su fila hasta el fin de la transacción.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query, id string) (*entity.Sale, error) {
	var s entity.Sale
	var status string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &status, &s.Subtotal, &s.DiscountTotal, &s.Total, &s.TotalReturned, &s.AdjustedTotal,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get sale", err)
	}
	s.Status = entity.SaleStatus(status)

	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, line_no, qty, original_qty, price
		FROM sale_items WHERE sale_id = $1 ORDER BY line_no`, s.ID)
	if err != nil {
		return nil, wrapErr("list sale items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.LineNo, &it.Qty, &it.OriginalQty, &it.Price); err != nil {
			return nil, wrapErr("scan sale item", err)
		}
		s.Items = append(s.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list sale items", err)
	}
	return &s, nil
}

// UpdateStatus persiste el nuevo estado.
func (r *SaleRepo) UpdateStatus(ctx context.Context, id string, status entity.SaleStatus, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE sales SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return wrapErr("update sale status", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateTotals persiste total_returned y adjusted_total (la tabla tiene CHECK de conciliación).
func (r *SaleRepo) UpdateTotals(ctx context.Context, sale *entity.Sale) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sales SET total_returned = $2, adjusted_total = $3, updated_at = $4
		WHERE id = $1`, sale.ID, sale.TotalReturned, sale.AdjustedTotal, sale.UpdatedAt)
	if err != nil {
		return wrapErr("update sale totals", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateItemQty persiste la cantidad vigente de una línea.
func (r *SaleRepo) UpdateItemQty(ctx context.Context, item *entity.SaleItem) error {
	cmd, err := r.q.Exec(ctx, `UPDATE sale_items SET qty = $2 WHERE id = $1`, item.ID, item.Qty)
	if err != nil {
		return wrapErr("update sale item qty", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
