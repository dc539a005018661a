package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/promotion"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.ProductRepository       = (*productRepo)(nil)
	_ repository.SaleRepository          = (*saleRepo)(nil)
	_ repository.ReturnRepository        = (*returnRepo)(nil)
	_ repository.StockAlertRepository    = (*alertRepo)(nil)
	_ repository.StockMovementRepository = (*movementRepo)(nil)
	_ repository.PromotionRepository     = (*promotionRepo)(nil)
	_ repository.AlertCatalogRepository  = (*Store)(nil)
)

// ── Productos ─────────────────────────────────────────────────────────────────

type productRepo struct{ base }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.with("GetProduct", func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = cloneProduct(p)
		}
		return nil
	})
	return out, err
}

func (r *productRepo) GetByIDs(_ context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	err := r.with("GetProducts", func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				out[id] = cloneProduct(p)
			}
		}
		return nil
	})
	return out, err
}

func (r *productRepo) AdjustStock(_ context.Context, deltas map[string]decimal.Decimal) ([]entity.StockLevel, error) {
	var out []entity.StockLevel
	err := r.with("AdjustStock", func(st *state) error {
		for _, id := range entity.SortedProductIDs(deltas) {
			p, ok := st.products[id]
			if !ok {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
			}
			p.Stock = p.Stock.Add(deltas[id])
			out = append(out, entity.StockLevel{ProductID: id, Stock: p.Stock, MinStock: p.MinStock})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ── Ventas ────────────────────────────────────────────────────────────────────

type saleRepo struct{ base }

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.with("CreateSale", func(st *state) error {
		if _, exists := st.sales[sale.ID]; exists {
			return fmt.Errorf("venta %s ya existe", sale.ID)
		}
		st.sales[sale.ID] = cloneSale(sale)
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.with("GetSale", func(st *state) error {
		if s, ok := st.sales[id]; ok {
			out = cloneSale(s)
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: las transacciones en memoria ya están serializadas.
func (r *saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *saleRepo) UpdateStatus(_ context.Context, id string, status entity.SaleStatus, at time.Time) error {
	return r.with("UpdateSaleStatus", func(st *state) error {
		s, ok := st.sales[id]
		if !ok {
			return domain.ErrNotFound
		}
		s.Status = status
		s.UpdatedAt = at
		return nil
	})
}

func (r *saleRepo) UpdateTotals(_ context.Context, sale *entity.Sale) error {
	return r.with("UpdateSaleTotals", func(st *state) error {
		s, ok := st.sales[sale.ID]
		if !ok {
			return domain.ErrNotFound
		}
		s.TotalReturned = sale.TotalReturned
		s.AdjustedTotal = sale.AdjustedTotal
		s.UpdatedAt = sale.UpdatedAt
		return nil
	})
}

func (r *saleRepo) UpdateItemQty(_ context.Context, item *entity.SaleItem) error {
	return r.with("UpdateSaleItemQty", func(st *state) error {
		s, ok := st.sales[item.SaleID]
		if !ok {
			return domain.ErrNotFound
		}
		it := s.FindItem(item.ID)
		if it == nil {
			return domain.ErrNotFound
		}
		it.Qty = item.Qty
		return nil
	})
}

// ── Devoluciones ──────────────────────────────────────────────────────────────

type returnRepo struct{ base }

func (r *returnRepo) Create(_ context.Context, ret *entity.Return) error {
	return r.with("CreateReturn", func(st *state) error {
		if _, exists := st.returns[ret.ID]; exists {
			return fmt.Errorf("devolución %s ya existe", ret.ID)
		}
		st.returns[ret.ID] = cloneReturn(ret)
		st.returnSeq = append(st.returnSeq, ret.ID)
		return nil
	})
}

func (r *returnRepo) GetByID(_ context.Context, id string) (*entity.Return, error) {
	var out *entity.Return
	err := r.with("GetReturn", func(st *state) error {
		if ret, ok := st.returns[id]; ok {
			out = cloneReturn(ret)
		}
		return nil
	})
	return out, err
}

func (r *returnRepo) GetForUpdate(ctx context.Context, id string) (*entity.Return, error) {
	return r.GetByID(ctx, id)
}

func (r *returnRepo) ListBySale(_ context.Context, saleID string) ([]*entity.Return, error) {
	var out []*entity.Return
	err := r.with("ListReturns", func(st *state) error {
		for _, id := range st.returnSeq {
			if ret := st.returns[id]; ret.SaleID == saleID {
				out = append(out, cloneReturn(ret))
			}
		}
		return nil
	})
	return out, err
}

func (r *returnRepo) Update(_ context.Context, ret *entity.Return) error {
	return r.with("UpdateReturn", func(st *state) error {
		cur, ok := st.returns[ret.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Status = ret.Status
		cur.StockRestoration = ret.StockRestoration
		cur.ProcessedBy = ret.ProcessedBy
		cur.UpdatedAt = ret.UpdatedAt
		cur.ProcessedAt = nil
		if ret.ProcessedAt != nil {
			t := *ret.ProcessedAt
			cur.ProcessedAt = &t
		}
		return nil
	})
}

func (r *returnRepo) ReturnedQtyBySaleItem(_ context.Context, saleID string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	err := r.with("ReturnedQty", func(st *state) error {
		for _, ret := range st.returns {
			if ret.SaleID != saleID || ret.Status == entity.ReturnStatusRejected {
				continue
			}
			for _, it := range ret.Items {
				out[it.SaleItemID] = out[it.SaleItemID].Add(it.QtyReturned)
			}
		}
		return nil
	})
	return out, err
}

func (r *returnRepo) CountOpenBySale(_ context.Context, saleID string) (int, error) {
	n := 0
	err := r.with("CountOpenReturns", func(st *state) error {
		for _, ret := range st.returns {
			if ret.SaleID == saleID && !ret.Status.IsTerminal() {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ── Alertas ───────────────────────────────────────────────────────────────────

type alertRepo struct{ base }

func (r *alertRepo) ResolveOpen(_ context.Context, productIDs []string, at time.Time) (int64, error) {
	var n int64
	err := r.with("ResolveOpen", func(st *state) error {
		ids := toSet(productIDs)
		for _, a := range st.alerts {
			if a.Status != entity.AlertStatusOpen {
				continue
			}
			if _, ok := ids[a.ProductID]; !ok {
				continue
			}
			t := at
			a.Status = entity.AlertStatusResolved
			a.ResolvedAt = &t
			a.UpdatedAt = at
			n++
		}
		return nil
	})
	return n, err
}

func (r *alertRepo) ListOpenByProducts(_ context.Context, productIDs []string) ([]*entity.StockAlert, error) {
	var out []*entity.StockAlert
	err := r.with("ListOpenByProducts", func(st *state) error {
		ids := toSet(productIDs)
		// Recorrido inverso: las más recientes primero.
		for i := len(st.alerts) - 1; i >= 0; i-- {
			a := st.alerts[i]
			if _, ok := ids[a.ProductID]; ok && a.Status == entity.AlertStatusOpen {
				out = append(out, cloneAlert(a))
			}
		}
		return nil
	})
	return out, err
}

func (r *alertRepo) UpdateBatch(_ context.Context, alerts []*entity.StockAlert) error {
	return r.with("UpdateBatch", func(st *state) error {
		byID := make(map[string]*entity.StockAlert, len(st.alerts))
		for _, a := range st.alerts {
			byID[a.ID] = a
		}
		for _, upd := range alerts {
			cur, ok := byID[upd.ID]
			if !ok {
				return fmt.Errorf("%w: alerta %s", domain.ErrNotFound, upd.ID)
			}
			cur.TypeID, cur.TypeCode = upd.TypeID, upd.TypeCode
			cur.PriorityID, cur.PriorityCode = upd.PriorityID, upd.PriorityCode
			cur.CurrentStock = upd.CurrentStock
			cur.MinStock = upd.MinStock
			cur.UpdatedAt = upd.UpdatedAt
		}
		return nil
	})
}

func (r *alertRepo) InsertBatch(_ context.Context, alerts []*entity.StockAlert) error {
	return r.with("InsertBatch", func(st *state) error {
		for _, a := range alerts {
			st.alerts = append(st.alerts, cloneAlert(a))
		}
		return nil
	})
}

func (r *alertRepo) ListOpen(_ context.Context, limit, offset int) ([]*entity.StockAlert, error) {
	var open []*entity.StockAlert
	err := r.with("ListOpen", func(st *state) error {
		for _, a := range st.alerts {
			if a.Status == entity.AlertStatusOpen {
				open = append(open, cloneAlert(a))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(open, func(i, j int) bool {
		if open[i].PriorityID != open[j].PriorityID {
			return open[i].PriorityID < open[j].PriorityID
		}
		return open[i].UpdatedAt.After(open[j].UpdatedAt)
	})
	return page(open, limit, offset), nil
}

// LoadCatalog implementa repository.AlertCatalogRepository.
func (s *Store) LoadCatalog(_ context.Context) (*entity.AlertCatalog, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	if err := s.catalogFail; err != nil {
		s.catalogFail = nil
		return nil, err
	}
	c := entity.AlertCatalog{
		Types:      make(map[string]int, len(s.catalog.Types)),
		Priorities: make(map[string]int, len(s.catalog.Priorities)),
	}
	for k, v := range s.catalog.Types {
		c.Types[k] = v
	}
	for k, v := range s.catalog.Priorities {
		c.Priorities[k] = v
	}
	return &c, nil
}

// ── Kardex ────────────────────────────────────────────────────────────────────

type movementRepo struct{ base }

func (r *movementRepo) CreateBatch(_ context.Context, movements []*entity.StockMovement) error {
	return r.with("CreateBatch", func(st *state) error {
		for _, m := range movements {
			c := *m
			st.movements = append(st.movements, &c)
		}
		return nil
	})
}

func (r *movementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.with("ListMovements", func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			if m := st.movements[i]; m.ProductID == productID {
				c := *m
				out = append(out, &c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page(out, limit, offset), nil
}

// ── Promociones ───────────────────────────────────────────────────────────────

type promotionRepo struct{ base }

// ListActive devuelve todas las promociones sembradas; la vigencia por fecha la resuelve PostgreSQL.
func (r *promotionRepo) ListActive(_ context.Context, _ time.Time) ([]promotion.Promotion, error) {
	var out []promotion.Promotion
	err := r.with("ListPromotions", func(st *state) error {
		out = append(out, st.promotions...)
		return nil
	})
	return out, err
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
