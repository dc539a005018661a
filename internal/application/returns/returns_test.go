package returns_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/POS-api/internal/application/alerts"
	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/application/inventory"
	"github.com/jhoicas/POS-api/internal/application/returns"
	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/infrastructure/cache"
	"github.com/jhoicas/POS-api/internal/infrastructure/memory"
	"github.com/jhoicas/POS-api/pkg/admission"
)

const saleID = "sale-1"

type fixture struct {
	store     *memory.Store
	create    *returns.CreateReturnUseCase
	lifecycle *returns.LifecycleUseCase
	query     *returns.QueryUseCase
}

// newFixture siembra la venta del escenario 1 ya completada: {A: 5 @ 10, B: 3 @ 20}, total 110.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zerolog.Nop()
	store := memory.New()
	catalog := cache.NewAlertCatalogCache(store, cache.NewMemoryCatalogStore(time.Now), time.Minute, log)
	ledger := inventory.NewStockLedger(alerts.NewRecalculator(catalog, log), log)
	gate := admission.New(admission.DefaultMaxConcurrent)

	store.SeedProducts(
		&entity.Product{ID: "A", SKU: "A-1", Name: "A", Price: decimal.NewFromInt(10), Stock: decimal.NewFromInt(45), MinStock: decimal.NewFromInt(5)},
		&entity.Product{ID: "B", SKU: "B-1", Name: "B", Price: decimal.NewFromInt(20), Stock: decimal.NewFromInt(27), MinStock: decimal.NewFromInt(5)},
	)
	store.SeedSale(&entity.Sale{
		ID:     saleID,
		Status: entity.SaleStatusCompleted,
		Items: []entity.SaleItem{
			{ID: "item-A", SaleID: saleID, ProductID: "A", LineNo: 1, Qty: decimal.NewFromInt(5), OriginalQty: decimal.NewFromInt(5), Price: decimal.NewFromInt(10)},
			{ID: "item-B", SaleID: saleID, ProductID: "B", LineNo: 2, Qty: decimal.NewFromInt(3), OriginalQty: decimal.NewFromInt(3), Price: decimal.NewFromInt(20)},
		},
		Subtotal:      decimal.NewFromInt(110),
		DiscountTotal: decimal.Zero,
		Total:         decimal.NewFromInt(110),
		TotalReturned: decimal.Zero,
		AdjustedTotal: decimal.NewFromInt(110),
	})

	repos := store.Repositories()
	return &fixture{
		store:     store,
		create:    returns.NewCreateReturnUseCase(gate, store, log),
		lifecycle: returns.NewLifecycleUseCase(gate, store, ledger, log),
		query:     returns.NewQueryUseCase(repos.Returns, repos.Sales),
	}
}

func (f *fixture) returnA(t *testing.T, qty int64) *dto.ReturnResponse {
	t.Helper()
	r, err := f.create.CreateReturn(context.Background(), "cajero-1", dto.CreateReturnRequest{
		SaleID: saleID,
		Reason: "producto dañado",
		Items:  []dto.ReturnItemRequest{{SaleItemID: "item-A", QtyReturned: decimal.NewFromInt(qty)}},
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) stock(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	p, err := f.store.Repositories().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) sale(t *testing.T) *entity.Sale {
	t.Helper()
	s, err := f.store.Repositories().Sales.GetByID(context.Background(), saleID)
	require.NoError(t, err)
	return s
}

func TestCreateReturn_CalculaReembolsoSinTocarStock(t *testing.T) {
	f := newFixture(t)
	r := f.returnA(t, 2)

	assert.Equal(t, "PENDING", r.Status)
	assert.Equal(t, "none", r.StockRestoration)
	assert.True(t, r.TotalRefund.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 1, r.ItemsCount)
	require.Len(t, r.Items, 1)
	assert.Equal(t, "A", r.Items[0].ProductID)
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(45)))
}

// Escenario 3 y P4.
func TestCompleteReturn_ConciliaVentaYStock(t *testing.T) {
	f := newFixture(t)
	r := f.returnA(t, 2)

	out, err := f.lifecycle.TransitionStatus(context.Background(), r.ID, "COMPLETED", false, "supervisor-1")
	require.NoError(t, err)
	assert.Equal(t, "sale_updated", out.SaleAdjustment)
	assert.Equal(t, "stock_restored", out.StockAdjustment)
	assert.Equal(t, "PENDING -> COMPLETED", out.Transition)
	assert.NotNil(t, out.Return.ProcessedAt)
	assert.Equal(t, "supervisor-1", out.Return.ProcessedBy)

	s := f.sale(t)
	assert.True(t, s.FindItem("item-A").Qty.Equal(decimal.NewFromInt(3)))
	assert.True(t, s.FindItem("item-A").OriginalQty.Equal(decimal.NewFromInt(5)))
	assert.True(t, s.TotalReturned.Equal(decimal.NewFromInt(20)))
	assert.True(t, s.AdjustedTotal.Equal(decimal.NewFromInt(90)))
	assert.True(t, s.AdjustedTotal.Equal(s.Total.Sub(s.TotalReturned)))
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(47)))

	movements := f.store.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, entity.MovementTypeReturnIn, movements[0].Type)
	assert.Equal(t, r.ID, movements[0].ReferenceID)
}

// Escenario 4 y P3.
func TestCreateReturn_ExcedeDisponibleFallaSinEstadoParcial(t *testing.T) {
	f := newFixture(t)
	r := f.returnA(t, 2)
	_, err := f.lifecycle.TransitionStatus(context.Background(), r.ID, "COMPLETED", false, "supervisor-1")
	require.NoError(t, err)

	_, err = f.create.CreateReturn(context.Background(), "cajero-1", dto.CreateReturnRequest{
		SaleID: saleID,
		Items: []dto.ReturnItemRequest{
			{SaleItemID: "item-B", QtyReturned: decimal.NewFromInt(1)},
			{SaleItemID: "item-A", QtyReturned: decimal.NewFromInt(4)},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientQty)
	var insufficient *domain.InsufficientQuantityError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "A", insufficient.ProductID)
	assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(3)))
	assert.True(t, insufficient.Shortfall().Equal(decimal.NewFromInt(1)))

	list, err := f.query.ListBySale(context.Background(), saleID)
	require.NoError(t, err)
	assert.Len(t, list, 1, "la línea válida de B no quedó persistida")
}

func TestCreateReturn_DevolucionesPendientesCuentanContraDisponible(t *testing.T) {
	f := newFixture(t)
	f.returnA(t, 3)

	_, err := f.create.CreateReturn(context.Background(), "cajero-1", dto.CreateReturnRequest{
		SaleID: saleID,
		Items:  []dto.ReturnItemRequest{{SaleItemID: "item-A", QtyReturned: decimal.NewFromInt(3)}},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientQty)
}

func TestCreateReturn_RechazadasLiberanDisponible(t *testing.T) {
	f := newFixture(t)
	r := f.returnA(t, 5)
	_, err := f.lifecycle.TransitionStatus(context.Background(), r.ID, "REJECTED", false, "supervisor-1")
	require.NoError(t, err)

	again := f.returnA(t, 5)
	assert.True(t, again.TotalRefund.Equal(decimal.NewFromInt(50)))
}

func TestCreateReturn_LineasRepetidasSeSuman(t *testing.T) {
	f := newFixture(t)
	_, err := f.create.CreateReturn(context.Background(), "cajero-1", dto.CreateReturnRequest{
		SaleID: saleID,
		Items: []dto.ReturnItemRequest{
			{SaleItemID: "item-A", QtyReturned: decimal.NewFromInt(3)},
			{SaleItemID: "item-A", QtyReturned: decimal.NewFromInt(3)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientQty, "3 + 3 supera los 5 vendidos")

	r, err := f.create.CreateReturn(context.Background(), "cajero-1", dto.CreateReturnRequest{
		SaleID: saleID,
		Items: []dto.ReturnItemRequest{
			{SaleItemID: "item-A", QtyReturned: decimal.NewFromInt(1)},
			{SaleItemID: "item-A", ProductID: "A", QtyReturned: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)
	require.Len(t, r.Items, 1)
	assert.True(t, r.Items[0].QtyReturned.Equal(decimal.NewFromInt(3)))
}

func TestCreateReturn_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.create.CreateReturn(ctx, "u", dto.CreateReturnRequest{SaleID: saleID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.create.CreateReturn(ctx, "u", dto.CreateReturnRequest{
		SaleID: saleID,
		Items:  []dto.ReturnItemRequest{{SaleItemID: "item-A", ProductID: "B", QtyReturned: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "producto no coincide con la línea")

	_, err = f.create.CreateReturn(ctx, "u", dto.CreateReturnRequest{
		SaleID: saleID,
		Items:  []dto.ReturnItemRequest{{SaleItemID: "otra-linea", QtyReturned: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.create.CreateReturn(ctx, "u", dto.CreateReturnRequest{
		SaleID: "no-existe",
		Items:  []dto.ReturnItemRequest{{SaleItemID: "item-A", QtyReturned: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateReturn_VentaNoCompletada(t *testing.T) {
	f := newFixture(t)
	f.store.SeedSale(&entity.Sale{
		ID:     "pending-sale",
		Status: entity.SaleStatusPending,
		Items:  []entity.SaleItem{{ID: "pi", SaleID: "pending-sale", ProductID: "A", Qty: decimal.NewFromInt(1), OriginalQty: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)}},
	})
	_, err := f.create.CreateReturn(context.Background(), "u", dto.CreateReturnRequest{
		SaleID: "pending-sale",
		Items:  []dto.ReturnItemRequest{{SaleItemID: "pi", QtyReturned: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPrecondition)
}

// Escenario 5 y P5.
func TestTransition_TerminalNoAdmiteCambios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.returnA(t, 2)
	_, err := f.lifecycle.TransitionStatus(ctx, r.ID, "COMPLETED", false, "supervisor-1")
	require.NoError(t, err)
	before := f.sale(t)

	for _, target := range []string{"COMPLETED", "APPROVED", "REJECTED", "PENDING"} {
		_, err = f.lifecycle.TransitionStatus(ctx, r.ID, target, true, "supervisor-1")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, target)
	}
	after := f.sale(t)
	assert.True(t, before.TotalReturned.Equal(after.TotalReturned))
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(47)))

	rej := f.returnA(t, 1)
	_, err = f.lifecycle.TransitionStatus(ctx, rej.ID, "REJECTED", false, "supervisor-1")
	require.NoError(t, err)
	_, err = f.lifecycle.TransitionStatus(ctx, rej.ID, "APPROVED", false, "supervisor-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_AprobarConRestauracionNoAcreditaDosVeces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.returnA(t, 2)

	out, err := f.lifecycle.TransitionStatus(ctx, r.ID, "APPROVED", true, "supervisor-1")
	require.NoError(t, err)
	assert.Equal(t, "stock_restored", out.StockAdjustment)
	assert.Equal(t, "none", out.SaleAdjustment)
	assert.Equal(t, "stock_restored", out.Return.StockRestoration)
	assert.Nil(t, out.Return.ProcessedAt)
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(47)))

	// Reingreso en APPROVED con restore: ya restaurado, no suma de nuevo.
	out, err = f.lifecycle.TransitionStatus(ctx, r.ID, "APPROVED", true, "supervisor-1")
	require.NoError(t, err)
	assert.Equal(t, "none", out.StockAdjustment)

	out, err = f.lifecycle.TransitionStatus(ctx, r.ID, "COMPLETED", false, "supervisor-2")
	require.NoError(t, err)
	assert.Equal(t, "sale_updated", out.SaleAdjustment)
	assert.Equal(t, "none", out.StockAdjustment)
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(47)))
	assert.True(t, f.sale(t).AdjustedTotal.Equal(decimal.NewFromInt(90)))
	assert.Len(t, f.store.Movements(), 1)
}

func TestTransition_AprobarSinRestauracion(t *testing.T) {
	f := newFixture(t)
	r := f.returnA(t, 2)

	out, err := f.lifecycle.TransitionStatus(context.Background(), r.ID, "approved", false, "supervisor-1")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", out.Return.Status)
	assert.Equal(t, "none", out.StockAdjustment)
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(45)))
}

func TestTransition_EstadoDesconocidoYNoEncontrada(t *testing.T) {
	f := newFixture(t)
	r := f.returnA(t, 1)

	_, err := f.lifecycle.TransitionStatus(context.Background(), r.ID, "REFUNDED", false, "u")
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)

	_, err = f.lifecycle.TransitionStatus(context.Background(), "no-existe", "COMPLETED", false, "u")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransition_FallaParcialHaceRollbackCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.returnA(t, 2)

	f.store.FailNext("AdjustStock", fmt.Errorf("%w: statement timeout", domain.ErrTransientStore))
	_, err := f.lifecycle.TransitionStatus(ctx, r.ID, "COMPLETED", false, "supervisor-1")
	require.ErrorIs(t, err, domain.ErrTransientStore)

	s := f.sale(t)
	assert.True(t, s.FindItem("item-A").Qty.Equal(decimal.NewFromInt(5)), "las líneas no quedan reducidas")
	assert.True(t, s.TotalReturned.IsZero())
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(45)))
	got, err := f.query.GetReturn(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", got.Status)

	_, err = f.lifecycle.TransitionStatus(ctx, r.ID, "COMPLETED", false, "supervisor-1")
	require.NoError(t, err)
	assert.True(t, f.stock(t, "A").Equal(decimal.NewFromInt(47)))
}

func TestQuery_ListBySaleYGetReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.returnA(t, 1)
	f.returnA(t, 1)

	list, err := f.query.ListBySale(ctx, saleID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	_, err = f.query.ListBySale(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.query.GetReturn(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
