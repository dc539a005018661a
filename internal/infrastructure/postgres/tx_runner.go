package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/POS-api/internal/application/returns"
	"github.com/jhoicas/POS-api/internal/application/sales"
	"github.com/jhoicas/POS-api/internal/domain"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/jhoicas/POS-api/pkg/config"
)

// Ensure TxRunner implements sales.TxRunner and returns.TxRunner.
var _ sales.TxRunner = (*TxRunner)(nil)
var _ returns.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con tiempos acotados.
type TxRunner struct {
	pool             *pgxpool.Pool
	acquireTimeout   time.Duration
	statementTimeout time.Duration
	txTimeout        time.Duration
}

// NewTxRunner construye el runner con el pool y los límites de tiempo de la configuración.
func NewTxRunner(pool *pgxpool.Pool, cfg config.DBConfig) *TxRunner {
	return &TxRunner{
		pool:             pool,
		acquireTimeout:   cfg.AcquireTimeout,
		statementTimeout: cfg.StatementTimeout,
		txTimeout:        cfg.TxTimeout,
	}
}

// Run toma una conexión (espera acotada), inicia la transacción, fija statement_timeout local,
// ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Timeouts y fallas de conexión se devuelven como domain.ErrTransientStore.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	acquireCtx := ctx
	if r.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, r.acquireTimeout)
		defer cancel()
	}
	conn, err := r.pool.Acquire(acquireCtx)
	if err != nil {
		return fmt.Errorf("%w: adquirir conexión: %v", domain.ErrTransientStore, err)
	}
	defer conn.Release()

	if r.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.txTimeout)
		defer cancel()
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	// El rollback debe correr aunque ctx ya haya expirado.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if r.statementTimeout > 0 {
		ms := strconv.FormatInt(r.statementTimeout.Milliseconds(), 10)
		if _, err := tx.Exec(ctx, "SELECT set_config('statement_timeout', $1, true)", ms); err != nil {
			return wrapErr("set statement_timeout", err)
		}
	}

	if err := fn(ctx, txRepositories(tx)); err != nil {
		if isDomainError(err) {
			return err
		}
		return wrapErr("transaction", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}

func txRepositories(tx pgx.Tx) repository.TxRepositories {
	return repository.TxRepositories{
		Sales:      NewSaleRepository(tx),
		Returns:    NewReturnRepository(tx),
		Products:   NewProductRepository(tx),
		Alerts:     NewStockAlertRepository(tx),
		Movements:  NewStockMovementRepository(tx),
		Promotions: NewPromotionRepository(tx),
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrInvalidPrecondition,
		domain.ErrInvalidTransition, domain.ErrInsufficientQty, domain.ErrTransientStore,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
