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

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sku, name, price, stock, min_stock, created_at, updated_at`

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Price, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get product", err)
	}
	return &p, nil
}

// GetByIDs obtiene varios productos en una sola consulta. Los inexistentes no aparecen en el mapa.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, wrapErr("list products", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, wrapErr("scan product", err)
		}
		out[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list products", err)
	}
	return out, nil
}

// AdjustStock envía en un solo batch un UPDATE por producto (stock = stock + delta), en orden
// de ID para que dos transacciones concurrentes bloqueen las filas en el mismo orden.
func (r *ProductRepo) AdjustStock(ctx context.Context, deltas map[string]decimal.Decimal) ([]entity.StockLevel, error) {
	if len(deltas) == 0 {
		return nil, nil
	}
	ids := entity.SortedProductIDs(deltas)
	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(`
			UPDATE products SET stock = stock + $2, updated_at = now()
			WHERE id = $1
			RETURNING id, stock, min_stock`, id, deltas[id])
	}

	br := r.q.SendBatch(ctx, batch)
	levels := make([]entity.StockLevel, 0, len(ids))
	for _, id := range ids {
		var l entity.StockLevel
		if err := br.QueryRow().Scan(&l.ProductID, &l.Stock, &l.MinStock); err != nil {
			_ = br.Close()
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
			}
			return nil, wrapErr("adjust stock", err)
		}
		levels = append(levels, l)
	}
	if err := br.Close(); err != nil {
		return nil, wrapErr("adjust stock", err)
	}
	return levels, nil
}
