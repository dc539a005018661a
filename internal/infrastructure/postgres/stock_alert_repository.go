package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
)

var (
	_ repository.StockAlertRepository   = (*StockAlertRepo)(nil)
	_ repository.AlertCatalogRepository = (*AlertCatalogRepo)(nil)
)

// StockAlertRepo implementación sobre PostgreSQL (usable con pool o tx).
type StockAlertRepo struct {
	q Querier
}

// NewStockAlertRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockAlertRepository(q Querier) *StockAlertRepo {
	return &StockAlertRepo{q: q}
}

const alertSelect = `
	SELECT a.id, a.product_id, a.type_id, a.priority_id, t.code, p.code, a.status,
		a.current_stock, a.min_stock, a.created_at, a.updated_at, a.resolved_at
	FROM stock_alerts a
	JOIN alert_types t ON t.id = a.type_id
	JOIN alert_priorities p ON p.id = a.priority_id`

// ResolveOpen resuelve con una sola sentencia las alertas abiertas de los productos.
func (r *StockAlertRepo) ResolveOpen(ctx context.Context, productIDs []string, at time.Time) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE stock_alerts SET status = $2, resolved_at = $3, updated_at = $3
		WHERE status = $4 AND product_id = ANY($1)`,
		productIDs, entity.AlertStatusResolved, at, entity.AlertStatusOpen)
	if err != nil {
		return 0, wrapErr("resolve alerts", err)
	}
	return cmd.RowsAffected(), nil
}

// ListOpenByProducts devuelve las alertas abiertas del lote, más recientes primero.
func (r *StockAlertRepo) ListOpenByProducts(ctx context.Context, productIDs []string) ([]*entity.StockAlert, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, alertSelect+`
		WHERE a.status = $1 AND a.product_id = ANY($2)
		ORDER BY a.created_at DESC, a.id DESC`, entity.AlertStatusOpen, productIDs)
}

// ListOpen lista alertas abiertas por prioridad (crítica primero) y luego por actualización.
func (r *StockAlertRepo) ListOpen(ctx context.Context, limit, offset int) ([]*entity.StockAlert, error) {
	return r.list(ctx, alertSelect+`
		WHERE a.status = $1
		ORDER BY a.priority_id, a.updated_at DESC
		LIMIT $2 OFFSET $3`, entity.AlertStatusOpen, limit, offset)
}

func (r *StockAlertRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockAlert, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list alerts", err)
	}
	defer rows.Close()
	var out []*entity.StockAlert
	for rows.Next() {
		var a entity.StockAlert
		if err := rows.Scan(
			&a.ID, &a.ProductID, &a.TypeID, &a.PriorityID, &a.TypeCode, &a.PriorityCode, &a.Status,
			&a.CurrentStock, &a.MinStock, &a.CreatedAt, &a.UpdatedAt, &a.ResolvedAt,
		); err != nil {
			return nil, wrapErr("scan alert", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list alerts", err)
	}
	return out, nil
}

// UpdateBatch actualiza severidad y stock de las alertas en un solo viaje.
func (r *StockAlertRepo) UpdateBatch(ctx context.Context, alerts []*entity.StockAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, a := range alerts {
		batch.Queue(`
			UPDATE stock_alerts SET type_id = $2, priority_id = $3, current_stock = $4, min_stock = $5, updated_at = $6
			WHERE id = $1`,
			a.ID, a.TypeID, a.PriorityID, a.CurrentStock, a.MinStock, a.UpdatedAt)
	}
	if err := r.q.SendBatch(ctx, batch).Close(); err != nil {
		return wrapErr("update alerts", err)
	}
	return nil
}

// InsertBatch inserta las alertas nuevas con una sola sentencia multi-fila.
func (r *StockAlertRepo) InsertBatch(ctx context.Context, alerts []*entity.StockAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	query := `INSERT INTO stock_alerts (id, product_id, type_id, priority_id, status, current_stock, min_stock, created_at, updated_at) VALUES `
	args := make([]any, 0, len(alerts)*9)
	for i, a := range alerts {
		if i > 0 {
			query += ", "
		}
		n := i * 9
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9)
		args = append(args, a.ID, a.ProductID, a.TypeID, a.PriorityID, a.Status, a.CurrentStock, a.MinStock, a.CreatedAt, a.UpdatedAt)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return wrapErr("insert alerts", err)
	}
	return nil
}

// AlertCatalogRepo lee las tablas de referencia alert_types y alert_priorities.
type AlertCatalogRepo struct {
	q Querier
}

// NewAlertCatalogRepository construye el adaptador.
func NewAlertCatalogRepository(q Querier) *AlertCatalogRepo {
	return &AlertCatalogRepo{q: q}
}

// LoadCatalog devuelve los IDs de tipos y prioridades indexados por código.
func (r *AlertCatalogRepo) LoadCatalog(ctx context.Context) (*entity.AlertCatalog, error) {
	c := &entity.AlertCatalog{Types: map[string]int{}, Priorities: map[string]int{}}
	if err := r.load(ctx, `SELECT id, code FROM alert_types`, c.Types); err != nil {
		return nil, err
	}
	if err := r.load(ctx, `SELECT id, code FROM alert_priorities`, c.Priorities); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *AlertCatalogRepo) load(ctx context.Context, query string, into map[string]int) error {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return wrapErr("load alert catalog", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		var code string
		if err := rows.Scan(&id, &code); err != nil {
			return wrapErr("scan alert catalog", err)
		}
		into[code] = id
	}
	return wrapErr("load alert catalog", rows.Err())
}
