package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/POS-api/internal/application/alerts"
	"github.com/jhoicas/POS-api/internal/application/dto"
	"github.com/jhoicas/POS-api/internal/application/inventory"
	"github.com/jhoicas/POS-api/internal/application/returns"
	"github.com/jhoicas/POS-api/internal/application/sales"
	"github.com/jhoicas/POS-api/internal/infrastructure/cache"
	"github.com/jhoicas/POS-api/internal/infrastructure/migration"
	"github.com/jhoicas/POS-api/internal/infrastructure/postgres"
	"github.com/jhoicas/POS-api/pkg/admission"
	"github.com/jhoicas/POS-api/pkg/config"
)

// Requiere Docker. Se activa con POS_INTEGRATION=1 y se omite con -short.
func setupDB(t *testing.T) (*pgxpool.Pool, config.DBConfig) {
	t.Helper()
	if testing.Short() || os.Getenv("POS_INTEGRATION") == "" {
		t.Skip("integración deshabilitada (POS_INTEGRATION vacío o -short)")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migration.New(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	cfg := config.DBConfig{
		DatabaseURL:      dsn,
		MaxConns:         10,
		MinConns:         1,
		AcquireTimeout:   5 * time.Second,
		StatementTimeout: 5 * time.Second,
		TxTimeout:        15 * time.Second,
	}
	pool, err := postgres.NewPool(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool, cfg
}

type engine struct {
	createSale   *sales.CreateSaleUseCase
	saleLife     *sales.LifecycleUseCase
	createReturn *returns.CreateReturnUseCase
	returnLife   *returns.LifecycleUseCase
	products     *postgres.ProductRepo
	alerts       *postgres.StockAlertRepo
	movements    *postgres.StockMovementRepo
}

func newEngine(pool *pgxpool.Pool, cfg config.DBConfig) engine {
	log := zerolog.Nop()
	txRunner := postgres.NewTxRunner(pool, cfg)
	catalog := cache.NewAlertCatalogCache(postgres.NewAlertCatalogRepository(pool), cache.NewMemoryCatalogStore(time.Now), time.Minute, log)
	ledger := inventory.NewStockLedger(alerts.NewRecalculator(catalog, log), log)
	gate := admission.New(admission.DefaultMaxConcurrent)
	return engine{
		createSale:   sales.NewCreateSaleUseCase(txRunner, log),
		saleLife:     sales.NewLifecycleUseCase(gate, txRunner, ledger, log),
		createReturn: returns.NewCreateReturnUseCase(gate, txRunner, log),
		returnLife:   returns.NewLifecycleUseCase(gate, txRunner, ledger, log),
		products:     postgres.NewProductRepository(pool),
		alerts:       postgres.NewStockAlertRepository(pool),
		movements:    postgres.NewStockMovementRepository(pool),
	}
}

func insertProduct(t *testing.T, pool *pgxpool.Pool, stock, minStock int64) string {
	t.Helper()
	id := uuid.New().String()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, sku, name, price, stock, min_stock) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, "SKU-"+id[:8], "Producto "+id[:8], decimal.NewFromInt(10), decimal.NewFromInt(stock), decimal.NewFromInt(minStock))
	require.NoError(t, err)
	return id
}

func TestIntegration_CompletarConcurrenteNoPierdeActualizaciones(t *testing.T) {
	pool, cfg := setupDB(t)
	e := newEngine(pool, cfg)
	ctx := context.Background()
	productID := insertProduct(t, pool, 20, 5)

	const n = 10
	saleIDs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := e.createSale.CreateSale(ctx, "cajero-1", dto.CreateSaleRequest{
			Items: []dto.SaleItemRequest{{ProductID: productID, Quantity: decimal.NewFromInt(1)}},
		})
		require.NoError(t, err)
		saleIDs = append(saleIDs, s.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, id := range saleIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = e.saleLife.TransitionStatus(ctx, id, "COMPLETED", "cajero-1")
		}(i, id)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	p, err := e.products.GetByID(ctx, productID)
	require.NoError(t, err)
	assert.True(t, p.Stock.Equal(decimal.NewFromInt(10)), "20 - 10 ventas de 1, stock=%s", p.Stock)

	movements, err := e.movements.ListByProduct(ctx, productID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, movements, n)
}

func TestIntegration_DevolucionCompletaAjustaVentaYStock(t *testing.T) {
	pool, cfg := setupDB(t)
	e := newEngine(pool, cfg)
	ctx := context.Background()
	productID := insertProduct(t, pool, 5, 4)

	s, err := e.createSale.CreateSale(ctx, "cajero-1", dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{{ProductID: productID, Quantity: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)
	_, err = e.saleLife.TransitionStatus(ctx, s.ID, "COMPLETED", "cajero-1")
	require.NoError(t, err)

	open, err := e.alerts.ListOpenByProducts(ctx, []string{productID})
	require.NoError(t, err)
	require.Len(t, open, 1, "stock 2 < mínimo 4 abre alerta")

	ret, err := e.createReturn.CreateReturn(ctx, "cajero-1", dto.CreateReturnRequest{
		SaleID: s.ID,
		Items:  []dto.ReturnItemRequest{{SaleItemID: s.Items[0].ID, QtyReturned: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)

	out, err := e.returnLife.TransitionStatus(ctx, ret.ID, "COMPLETED", false, "supervisor-1")
	require.NoError(t, err)
	assert.Equal(t, "sale_updated", out.SaleAdjustment)
	assert.Equal(t, "stock_restored", out.StockAdjustment)

	p, err := e.products.GetByID(ctx, productID)
	require.NoError(t, err)
	assert.True(t, p.Stock.Equal(decimal.NewFromInt(4)))

	open, err = e.alerts.ListOpenByProducts(ctx, []string{productID})
	require.NoError(t, err)
	assert.Empty(t, open, "stock 4 >= mínimo 4 resuelve la alerta")

	// Cancelar la venta ya conciliada devuelve solo lo que quedó vendido.
	_, err = e.saleLife.TransitionStatus(ctx, s.ID, "CANCELLED", "cajero-1")
	require.NoError(t, err)
	p, err = e.products.GetByID(ctx, productID)
	require.NoError(t, err)
	assert.True(t, p.Stock.Equal(decimal.NewFromInt(5)))
}
