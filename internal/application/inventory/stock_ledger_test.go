package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/application/inventory"
	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/jhoicas/POS-api/internal/infrastructure/memory"
)

type recordingRecalculator struct {
	calls  [][]entity.StockLevel
	result error
}

func (r *recordingRecalculator) Recalculate(_ context.Context, _ repository.StockAlertRepository, levels []entity.StockLevel) error {
	r.calls = append(r.calls, levels)
	return r.result
}

func d(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func newStore() *memory.Store {
	store := memory.New()
	store.SeedProducts(
		&entity.Product{ID: "A", Name: "Arroz", Price: d(10), Stock: d(50), MinStock: d(5)},
		&entity.Product{ID: "B", Name: "Café", Price: d(20), Stock: d(30), MinStock: d(5)},
	)
	return store
}

func TestApplyInTx_AjustaRegistraYRecalcula(t *testing.T) {
	store := newStore()
	rec := &recordingRecalculator{}
	ledger := inventory.NewStockLedger(rec, zerolog.Nop())
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var levels []entity.StockLevel
	err := store.Run(context.Background(), func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		levels, err = ledger.ApplyInTx(ctx, repos, inventory.Adjustment{
			Deltas:       map[string]decimal.Decimal{"B": d(-3), "A": d(-5)},
			MovementType: entity.MovementTypeSaleOut,
			ReferenceID:  "sale-1",
			UserID:       "cajero-1",
			At:           at,
		})
		return err
	})
	require.NoError(t, err)

	require.Len(t, levels, 2)
	assert.Equal(t, "A", levels[0].ProductID, "orden por ID de producto")
	assert.True(t, levels[0].Stock.Equal(d(45)))
	assert.True(t, levels[1].Stock.Equal(d(27)))

	movs := store.Movements()
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementTypeSaleOut, m.Type)
		assert.Equal(t, "sale-1", m.ReferenceID)
		assert.Equal(t, "cajero-1", m.CreatedBy)
		assert.Equal(t, at, m.CreatedAt)
	}
	assert.True(t, movs[0].Quantity.Equal(d(-5)))
	assert.True(t, movs[0].StockAfter.Equal(d(45)))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, levels, rec.calls[0])
}

func TestApplyInTx_OmiteDeltasCero(t *testing.T) {
	store := newStore()
	rec := &recordingRecalculator{}
	ledger := inventory.NewStockLedger(rec, zerolog.Nop())

	err := store.Run(context.Background(), func(ctx context.Context, repos repository.TxRepositories) error {
		levels, err := ledger.ApplyInTx(ctx, repos, inventory.Adjustment{
			Deltas:       map[string]decimal.Decimal{"A": decimal.Zero, "B": d(2)},
			MovementType: entity.MovementTypeReturnIn,
			ReferenceID:  "ret-1",
		})
		require.Len(t, levels, 1)
		return err
	})
	require.NoError(t, err)
	require.Len(t, store.Movements(), 1)
	assert.Equal(t, "B", store.Movements()[0].ProductID)

	err = store.Run(context.Background(), func(ctx context.Context, repos repository.TxRepositories) error {
		levels, err := ledger.ApplyInTx(ctx, repos, inventory.Adjustment{Deltas: map[string]decimal.Decimal{"A": decimal.Zero}})
		assert.Nil(t, levels)
		return err
	})
	require.NoError(t, err)
	assert.Len(t, rec.calls, 1, "un ajuste vacío no recalcula alertas")
}

func TestApplyInTx_ErrorDelRecalculoRevierte(t *testing.T) {
	store := newStore()
	boom := errors.New("catálogo no disponible")
	ledger := inventory.NewStockLedger(&recordingRecalculator{result: boom}, zerolog.Nop())

	err := store.Run(context.Background(), func(ctx context.Context, repos repository.TxRepositories) error {
		_, err := ledger.ApplyInTx(ctx, repos, inventory.Adjustment{
			Deltas:       map[string]decimal.Decimal{"A": d(-1)},
			MovementType: entity.MovementTypeSaleOut,
			ReferenceID:  "sale-1",
		})
		return err
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.Movements())

	p, err := store.Repositories().Products.GetByID(context.Background(), "A")
	require.NoError(t, err)
	assert.True(t, p.Stock.Equal(d(50)))
}

func TestGenerateReplenishmentList_OrdenaPorPrioridadYSugiereCantidad(t *testing.T) {
	store := memory.New()
	store.SeedProducts(
		&entity.Product{ID: "bajo", SKU: "SKU-1", Name: "Leche", Price: d(4), Stock: d(8), MinStock: d(10)},
		&entity.Product{ID: "agotado", SKU: "SKU-2", Name: "Pan", Price: d(2), Stock: d(0), MinStock: d(4)},
	)
	now := time.Now()
	store.SeedAlert(&entity.StockAlert{ID: "al-1", ProductID: "bajo", TypeID: 2, PriorityID: 4,
		TypeCode: entity.AlertTypeLowStock, PriorityCode: entity.AlertPriorityLow, Status: entity.AlertStatusOpen,
		CurrentStock: d(8), MinStock: d(10), CreatedAt: now, UpdatedAt: now})
	store.SeedAlert(&entity.StockAlert{ID: "al-2", ProductID: "agotado", TypeID: 1, PriorityID: 1,
		TypeCode: entity.AlertTypeOutOfStock, PriorityCode: entity.AlertPriorityCritical, Status: entity.AlertStatusOpen,
		CurrentStock: d(0), MinStock: d(4), CreatedAt: now, UpdatedAt: now})

	repos := store.Repositories()
	list, err := inventory.NewReplenishmentUseCase(repos.Alerts, repos.Products).GenerateReplenishmentList(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "agotado", list[0].ProductID)
	assert.Equal(t, 1, list[0].Priority)
	assert.True(t, list[0].SuggestedOrderQty.Equal(d(6)), "1.5 x 4 - 0")
	assert.True(t, list[0].EstimatedOrderValue.Equal(d(12)))

	assert.Equal(t, "bajo", list[1].ProductID)
	assert.True(t, list[1].SuggestedOrderQty.Equal(d(7)))
}

func TestGenerateReplenishmentList_SinAlertasListaVacia(t *testing.T) {
	store := newStore()
	repos := store.Repositories()
	list, err := inventory.NewReplenishmentUseCase(repos.Alerts, repos.Products).GenerateReplenishmentList(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestListByProduct_Kardex(t *testing.T) {
	store := newStore()
	ledger := inventory.NewStockLedger(&recordingRecalculator{}, zerolog.Nop())
	for _, ref := range []string{"sale-1", "sale-2"} {
		ref := ref
		require.NoError(t, store.Run(context.Background(), func(ctx context.Context, repos repository.TxRepositories) error {
			_, err := ledger.ApplyInTx(ctx, repos, inventory.Adjustment{
				Deltas:       map[string]decimal.Decimal{"A": d(-1)},
				MovementType: entity.MovementTypeSaleOut,
				ReferenceID:  ref,
			})
			return err
		}))
	}

	repos := store.Repositories()
	uc := inventory.NewMovementsQueryUseCase(repos.Products, repos.Movements)
	out, err := uc.ListByProduct(context.Background(), "A", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	_, err = uc.ListByProduct(context.Background(), "no-existe", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.ListByProduct(context.Background(), "", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
