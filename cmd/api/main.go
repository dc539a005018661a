package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jhoicas/POS-api/internal/application/alerts"
	"github.com/jhoicas/POS-api/internal/application/inventory"
	"github.com/jhoicas/POS-api/internal/application/returns"
	"github.com/jhoicas/POS-api/internal/application/sales"
	"github.com/jhoicas/POS-api/internal/infrastructure/cache"
	"github.com/jhoicas/POS-api/internal/infrastructure/migration"
	"github.com/jhoicas/POS-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/POS-api/internal/interfaces/http"
	"github.com/jhoicas/POS-api/pkg/admission"
	"github.com/jhoicas/POS-api/pkg/config"
	"github.com/jhoicas/POS-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Int("admission_max", cfg.Admission.MaxConcurrent).
		Msg("iniciando aplicación")

	ctx := context.Background()

	if cfg.DB.AutoMigrate {
		m, err := migration.New(cfg.DB.ConnectionString(), log.Component("migration"))
		if err != nil {
			log.Fatal().Err(err).Msg("preparar migraciones")
		}
		if err := m.Up(); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		_ = m.Close()
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	saleRepo := postgres.NewSaleRepository(pool)
	returnRepo := postgres.NewReturnRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	alertRepo := postgres.NewStockAlertRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	catalogRepo := postgres.NewAlertCatalogRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.DB)

	// Catálogo de alertas: Redis si está configurado, si no caché en proceso.
	var catalogStore cache.CatalogStore = cache.NewMemoryCatalogStore(time.Now)
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		catalogStore = cache.NewRedisCatalogStore(rdb)
	}
	catalog := cache.NewAlertCatalogCache(catalogRepo, catalogStore, cfg.Alerts.CatalogTTL, log.Component("alert_catalog"))

	gate := admission.New(cfg.Admission.MaxConcurrent)
	recalculator := alerts.NewRecalculator(catalog, log.Component("alerts"))
	ledger := inventory.NewStockLedger(recalculator, log.Component("stock_ledger"))

	createSaleUC := sales.NewCreateSaleUseCase(txRunner, log.Component("sales"))
	saleLifecycleUC := sales.NewLifecycleUseCase(gate, txRunner, ledger, log.Component("sales"))
	saleQueryUC := sales.NewQueryUseCase(saleRepo)
	createReturnUC := returns.NewCreateReturnUseCase(gate, txRunner, log.Component("returns"))
	returnLifecycleUC := returns.NewLifecycleUseCase(gate, txRunner, ledger, log.Component("returns"))
	returnQueryUC := returns.NewQueryUseCase(returnRepo, saleRepo)
	alertQueryUC := alerts.NewQueryUseCase(alertRepo)
	movementsUC := inventory.NewMovementsQueryUseCase(productRepo, movementRepo)
	replenishmentUC := inventory.NewReplenishmentUseCase(alertRepo, productRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.DB.TxTimeout + time.Second*5,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.AccessLog(log.Component("http")))

	httpRouter.Router(app, httpRouter.RouterDeps{
		CreateSale:      createSaleUC,
		SaleLifecycle:   saleLifecycleUC,
		SaleQuery:       saleQueryUC,
		CreateReturn:    createReturnUC,
		ReturnLifecycle: returnLifecycleUC,
		ReturnQuery:     returnQueryUC,
		AlertQuery:      alertQueryUC,
		MovementsQuery:  movementsUC,
		Replenishment:   replenishmentUC,
		Admission:       gate,
		JWTSecret:       cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
