package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/promotion"
	"github.com/jhoicas/POS-api/internal/domain/repository"
)

// Store almacenamiento en memoria con la misma semántica transaccional que PostgreSQL:
// Run trabaja sobre una copia del estado y solo la publica si fn termina sin error.
// Las transacciones se serializan. Solo lo usan los tests; ningún binario lo conecta.
type Store struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error

	// El catálogo tiene su propio lock: se lee desde dentro de Run (recalculador de alertas).
	catalogMu   sync.Mutex
	catalog     entity.AlertCatalog
	catalogFail error
}

type state struct {
	products   map[string]*entity.Product
	sales      map[string]*entity.Sale
	returns    map[string]*entity.Return
	returnSeq  []string // orden de creación
	alerts     []*entity.StockAlert
	movements  []*entity.StockMovement
	promotions []promotion.Promotion
}

// New crea un store vacío con el catálogo de alertas por defecto.
func New() *Store {
	return &Store{
		st: &state{
			products: make(map[string]*entity.Product),
			sales:    make(map[string]*entity.Sale),
			returns:  make(map[string]*entity.Return),
		},
		failures: make(map[string]error),
		catalog:  DefaultCatalog(),
	}
}

// DefaultCatalog mismos IDs que siembra la migración inicial.
func DefaultCatalog() entity.AlertCatalog {
	return entity.AlertCatalog{
		Types: map[string]int{
			entity.AlertTypeOutOfStock: 1,
			entity.AlertTypeLowStock:   2,
		},
		Priorities: map[string]int{
			entity.AlertPriorityCritical: 1,
			entity.AlertPriorityHigh:     2,
			entity.AlertPriorityMedium:   3,
			entity.AlertPriorityLow:      4,
		},
	}
}

// Run ejecuta fn con repositorios atados a una copia del estado. Commit al terminar sin error.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}
	tx := s.st.clone()
	if err := fn(ctx, s.repos(tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}
	s.st = tx
	return nil
}

// Repositories repositorios fuera de transacción (cada llamada toma el lock).
func (s *Store) Repositories() repository.TxRepositories {
	return s.repos(nil)
}

func (s *Store) repos(tx *state) repository.TxRepositories {
	b := base{store: s, tx: tx}
	return repository.TxRepositories{
		Sales:      &saleRepo{b},
		Returns:    &returnRepo{b},
		Products:   &productRepo{b},
		Alerts:     &alertRepo{b},
		Movements:  &movementRepo{b},
		Promotions: &promotionRepo{b},
	}
}

// FailNext hace que la próxima llamada a op ("AdjustStock", "CreateBatch", "InsertBatch", ...) devuelva err.
func (s *Store) FailNext(op string, err error) {
	if op == "LoadCatalog" {
		s.catalogMu.Lock()
		s.catalogFail = err
		s.catalogMu.Unlock()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// base resuelve sobre qué estado opera un repositorio: el de la tx o el publicado.
type base struct {
	store *Store
	tx    *state
}

func (b base) with(op string, fn func(st *state) error) error {
	if b.tx != nil {
		if err := b.store.takeFailure(op); err != nil {
			return err
		}
		return fn(b.tx)
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	if err := b.store.takeFailure(op); err != nil {
		return err
	}
	return fn(b.store.st)
}

// takeFailure se llama con el lock tomado.
func (s *Store) takeFailure(op string) error {
	err, ok := s.failures[op]
	if !ok {
		return nil
	}
	delete(s.failures, op)
	return err
}

func (st *state) clone() *state {
	out := &state{
		products:   make(map[string]*entity.Product, len(st.products)),
		sales:      make(map[string]*entity.Sale, len(st.sales)),
		returns:    make(map[string]*entity.Return, len(st.returns)),
		returnSeq:  append([]string(nil), st.returnSeq...),
		alerts:     make([]*entity.StockAlert, 0, len(st.alerts)),
		movements:  append([]*entity.StockMovement(nil), st.movements...),
		promotions: append([]promotion.Promotion(nil), st.promotions...),
	}
	for id, p := range st.products {
		out.products[id] = cloneProduct(p)
	}
	for id, s := range st.sales {
		out.sales[id] = cloneSale(s)
	}
	for id, r := range st.returns {
		out.returns[id] = cloneReturn(r)
	}
	for _, a := range st.alerts {
		out.alerts = append(out.alerts, cloneAlert(a))
	}
	return out
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func cloneSale(s *entity.Sale) *entity.Sale {
	c := *s
	c.Items = append([]entity.SaleItem(nil), s.Items...)
	return &c
}

func cloneReturn(r *entity.Return) *entity.Return {
	c := *r
	c.Items = append([]entity.ReturnItem(nil), r.Items...)
	if r.ProcessedAt != nil {
		t := *r.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}

func cloneAlert(a *entity.StockAlert) *entity.StockAlert {
	c := *a
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
