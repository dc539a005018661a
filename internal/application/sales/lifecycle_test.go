package sales_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/POS-api/internal/application/alerts"
	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/application/inventory"
	"github.com/jhoicas/POS-api/internal/application/sales"
	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/promotion"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/jhoicas/POS-api/internal/infrastructure/cache"
	"github.com/jhoicas/POS-api/internal/infrastructure/memory"
	"github.com/jhoicas/POS-api/pkg/admission"
)

// peakGate envuelve el controlador de admisión y registra la concurrencia máxima observada.
type peakGate struct {
	inner   *admission.Controller
	current atomic.Int64
	peak    atomic.Int64
}

func (g *peakGate) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return g.inner.Run(ctx, func(ctx context.Context) error {
		n := g.current.Add(1)
		defer g.current.Add(-1)
		for {
			p := g.peak.Load()
			if n <= p || g.peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		return fn(ctx)
	})
}

type fixture struct {
	store     *memory.Store
	gate      *peakGate
	create    *sales.CreateSaleUseCase
	lifecycle *sales.LifecycleUseCase
}

func newFixture(t *testing.T, maxConcurrent int) *fixture {
	t.Helper()
	log := zerolog.Nop()
	store := memory.New()
	catalog := cache.NewAlertCatalogCache(store, cache.NewMemoryCatalogStore(time.Now), time.Minute, log)
	ledger := inventory.NewStockLedger(alerts.NewRecalculator(catalog, log), log)
	gate := &peakGate{inner: admission.New(maxConcurrent)}
	return &fixture{
		store:     store,
		gate:      gate,
		create:    sales.NewCreateSaleUseCase(store, log),
		lifecycle: sales.NewLifecycleUseCase(gate, store, ledger, log),
	}
}

func (f *fixture) seedProducts() {
	f.store.SeedProducts(
		&entity.Product{ID: "A", SKU: "A-1", Name: "Producto A", Price: decimal.NewFromInt(10), Stock: decimal.NewFromInt(50), MinStock: decimal.NewFromInt(5)},
		&entity.Product{ID: "B", SKU: "B-1", Name: "Producto B", Price: decimal.NewFromInt(20), Stock: decimal.NewFromInt(30), MinStock: decimal.NewFromInt(5)},
	)
}

func (f *fixture) stock(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	p, err := f.store.Repositories().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

// saleAB venta {A: 5 @ 10, B: 3 @ 20}.
func (f *fixture) saleAB(t *testing.T) *dto.SaleResponse {
	t.Helper()
	s, err := f.create.CreateSale(context.Background(), "cajero-1", dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: "A", Quantity: decimal.NewFromInt(5)},
			{ProductID: "B", Quantity: decimal.NewFromInt(3)},
		},
	})
	require.NoError(t, err)
	return s
}

func TestCreateSale_PendienteSinMoverStock(t *testing.T) {
	f := newFixture(t, 5)
	f.seedProducts()

	s := f.saleAB(t)
	assert.Equal(t, "PENDING", s.Status)
	assert.True(t, s.Subtotal.Equal(decimal.NewFromInt(110)))
	assert.True(t, s.Total.Equal(decimal.NewFromInt(110)))
	assert.True(t, s.AdjustedTotal.Equal(s.Total))
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(50)))
	assert.Empty(t, f.store.Movements())
}

func TestCreateSale_AplicaPromocionesYPrecioExplicito(t *testing.T) {
	f := newFixture(t, 5)
	f.seedProducts()
	f.store.SeedPromotions(promotion.Promotion{ID: "promo-10", Kind: promotion.KindPercentage, Value: decimal.NewFromInt(10)})

	price := decimal.NewFromInt(8)
	s, err := f.create.CreateSale(context.Background(), "cajero-1", dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{{ProductID: "A", Quantity: decimal.NewFromInt(10), UnitPrice: &price}},
	})
	require.NoError(t, err)
	assert.True(t, s.Subtotal.Equal(decimal.NewFromInt(80)))
	assert.True(t, s.DiscountTotal.Equal(decimal.NewFromInt(8)))
	assert.True(t, s.Total.Equal(decimal.NewFromInt(72)))
	require.Len(t, s.Discounts, 1)
	assert.Equal(t, "promo-10", s.Discounts[0].PromotionID)
	assert.True(t, s.Items[0].Price.Equal(price), "precio congelado desde el request")
}

func TestCreateSale_Validaciones(t *testing.T) {
	f := newFixture(t, 5)
	f.seedProducts()
	ctx := context.Background()

	_, err := f.create.CreateSale(ctx, "u", dto.CreateSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.create.CreateSale(ctx, "u", dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: "A", Quantity: decimal.Zero}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.create.CreateSale(ctx, "u", dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: "Z", Quantity: decimal.NewFromInt(1)}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Escenario 1 y P1: completar descuenta una sola vez aunque se repita la llamada.
func TestTransition_CompletarDescuentaUnaVez(t *testing.T) {
	f := newFixture(t, 5)
	f.seedProducts()
	s := f.saleAB(t)
	ctx := context.Background()

	out, err := f.lifecycle.TransitionStatus(ctx, s.ID, "COMPLETED", "cajero-1")
	require.NoError(t, err)
	assert.Equal(t, "stock_decremented", out.StockAdjustment)
	assert.Equal(t, "PENDING -> COMPLETED", out.Transition)
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(45)))
	assert.True(t, f.stock(t, "B").Equal(decimal.NewFromInt(27)))

	again, err := f.lifecycle.TransitionStatus(ctx, s.ID, "completed", "cajero-1")
	require.NoError(t, err)
	assert.Equal(t, "none", again.StockAdjustment)
	assert.Equal(t, "COMPLETED -> COMPLETED", again.Transition)
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(45)))

	movements := f.store.Movements()
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, entity.MovementTypeSaleOut, m.Type)
		assert.Equal(t, s.ID, m.ReferenceID)
	}
}

// Escenario 2 y P2: cancelar una venta completada restituye el stock original.
func TestTransition_CancelarRestituye(t *testing.T) {
	f := newFixture(t, 5)
	f.seedProducts()
	s := f.saleAB(t)
	ctx := context.Background()

	_, err := f.lifecycle.TransitionStatus(ctx, s.ID, "COMPLETED", "cajero-1")
	require.NoError(t, err)
	out, err := f.lifecycle.TransitionStatus(ctx, s.ID, "CANCELLED", "cajero-1")
	require.NoError(t, err)
	assert.Equal(t, "stock_restored", out.StockAdjustment)
	assert.Equal(t, "CANCELLED", out.Sale.Status)
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(50)))
	assert.True(t, f.stock(t, "B").Equal(decimal.NewFromInt(30)))

	_, err = f.lifecycle.TransitionStatus(ctx, s.ID, "COMPLETED", "cajero-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "CANCELLED es terminal")
}

func TestTransition_EntreEstadosSinEfectoDeStock(t *testing.T) {
	f := newFixture(t, 5)
	f.seedProducts()
	s := f.saleAB(t)
	ctx := context.Background()

	out, err := f.lifecycle.TransitionStatus(ctx, s.ID, "ON_HOLD", "cajero-1")
	require.NoError(t, err)
	assert.Equal(t, "none", out.StockAdjustment)

	out, err = f.lifecycle.TransitionStatus(ctx, s.ID, "CANCELLED", "cajero-1")
	require.NoError(t, err)
	assert.Equal(t, "none", out.StockAdjustment, "cancelar una venta no completada no toca stock")
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(50)))
}

func TestTransition_ErroresDeEntrada(t *testing.T) {
	f := newFixture(t, 5)
	f.seedProducts()
	s := f.saleAB(t)
	ctx := context.Background()

	_, err := f.lifecycle.TransitionStatus(ctx, s.ID, "SHIPPED", "u")
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)

	_, err = f.lifecycle.TransitionStatus(ctx, "no-existe", "COMPLETED", "u")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.lifecycle.TransitionStatus(ctx, s.ID, "COMPLETED", "u")
	require.NoError(t, err)
	_, err = f.lifecycle.TransitionStatus(ctx, s.ID, "PENDING", "u")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_CancelarConDevolucionAbiertaFalla(t *testing.T) {
	f := newFixture(t, 5)
	f.seedProducts()
	s := f.saleAB(t)
	ctx := context.Background()
	_, err := f.lifecycle.TransitionStatus(ctx, s.ID, "COMPLETED", "u")
	require.NoError(t, err)

	err = f.store.Run(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Returns.Create(ctx, &entity.Return{
			ID:               "ret-1",
			SaleID:           s.ID,
			Status:           entity.ReturnStatusPending,
			Items:            []entity.ReturnItem{{ID: "ri-1", ReturnID: "ret-1", SaleItemID: s.Items[0].ID, ProductID: "A", LineNo: 1, QtyReturned: decimal.NewFromInt(1), RefundAmount: decimal.NewFromInt(10)}},
			TotalRefund:      decimal.NewFromInt(10),
			ItemsCount:       1,
			StockRestoration: entity.StockRestorationNone,
		})
	})
	require.NoError(t, err)

	_, err = f.lifecycle.TransitionStatus(ctx, s.ID, "CANCELLED", "u")
	assert.ErrorIs(t, err, domain.ErrInvalidPrecondition)
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(45)), "sin cambios de stock")
}

func TestTransition_FallaAlRegistrarMovimientosHaceRollback(t *testing.T) {
	f := newFixture(t, 5)
	f.seedProducts()
	s := f.saleAB(t)
	ctx := context.Background()

	f.store.FailNext("CreateBatch", fmt.Errorf("%w: conexión perdida", domain.ErrTransientStore))
	_, err := f.lifecycle.TransitionStatus(ctx, s.ID, "COMPLETED", "u")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransientStore))

	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(50)), "el stock no cambia si falla el kardex")
	sale, err := f.store.Repositories().Sales.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusPending, sale.Status)

	_, err = f.lifecycle.TransitionStatus(ctx, s.ID, "COMPLETED", "u")
	require.NoError(t, err, "el reintento posterior funciona")
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(45)))
}

func TestTransition_AbreYResuelveAlertas(t *testing.T) {
	f := newFixture(t, 5)
	f.store.SeedProducts(&entity.Product{ID: "A", SKU: "A-1", Name: "A", Price: decimal.NewFromInt(10), Stock: decimal.NewFromInt(6), MinStock: decimal.NewFromInt(4)})
	ctx := context.Background()
	s, err := f.create.CreateSale(ctx, "u", dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: "A", Quantity: decimal.NewFromInt(6)}}})
	require.NoError(t, err)

	_, err = f.lifecycle.TransitionStatus(ctx, s.ID, "COMPLETED", "u")
	require.NoError(t, err)
	all := f.store.Alerts()
	require.Len(t, all, 1)
	assert.Equal(t, entity.AlertStatusOpen, all[0].Status)
	assert.Equal(t, entity.AlertTypeOutOfStock, all[0].TypeCode)

	_, err = f.lifecycle.TransitionStatus(ctx, s.ID, "CANCELLED", "u")
	require.NoError(t, err)
	all = f.store.Alerts()
	require.Len(t, all, 1)
	assert.Equal(t, entity.AlertStatusResolved, all[0].Status)
	assert.NotNil(t, all[0].ResolvedAt)
}

// Escenario 6 y P6: 20 transiciones concurrentes con capacidad 5.
func TestTransition_ConcurrenciaAcotadaPorAdmision(t *testing.T) {
	const k, capacity = 20, 5
	f := newFixture(t, capacity)
	f.store.SeedProducts(&entity.Product{ID: "A", SKU: "A-1", Name: "A", Price: decimal.NewFromInt(1), Stock: decimal.NewFromInt(100)})
	ctx := context.Background()

	ids := make([]string, 0, k)
	for i := 0; i < k; i++ {
		s, err := f.create.CreateSale(ctx, "u", dto.CreateSaleRequest{Items: []dto.SaleItemRequest{{ProductID: "A", Quantity: decimal.NewFromInt(1)}}})
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, k)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.lifecycle.TransitionStatus(ctx, id, "COMPLETED", "u")
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, f.gate.peak.Load(), int64(capacity))
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(80)))
}
