package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/POS-api/internal/application/alerts"
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// catalogLoadTimeout límite de la carga compartida, independiente del contexto de quien la dispara.
const catalogLoadTimeout = 5 * time.Second

var _ alerts.CatalogProvider = (*AlertCatalogCache)(nil)

// CatalogStore almacenamiento del catálogo cacheado (memoria o Redis).
type CatalogStore interface {
	Get(ctx context.Context) (*entity.AlertCatalog, bool, error)
	Set(ctx context.Context, catalog *entity.AlertCatalog, ttl time.Duration) error
	Delete(ctx context.Context) error
}

// AlertCatalogCache entrega el catálogo de tipos/prioridades de alerta con vigencia explícita (TTL).
// Con Redis caído se degrada a leer de la BD; los fallos de caché nunca abortan una transición.
type AlertCatalogCache struct {
	loader repository.AlertCatalogRepository
	store  CatalogStore
	ttl    time.Duration
	log    zerolog.Logger
	group  singleflight.Group
}

// NewAlertCatalogCache construye el caché. ttl <= 0 desactiva el cacheo (siempre lee de la BD).
func NewAlertCatalogCache(loader repository.AlertCatalogRepository, store CatalogStore, ttl time.Duration, log zerolog.Logger) *AlertCatalogCache {
	return &AlertCatalogCache{loader: loader, store: store, ttl: ttl, log: log}
}

// Catalog devuelve el catálogo vigente; ante un miss lo carga una sola vez aunque haya llamadas concurrentes.
func (c *AlertCatalogCache) Catalog(ctx context.Context) (*entity.AlertCatalog, error) {
	if c.ttl > 0 {
		cached, ok, err := c.store.Get(ctx)
		if err != nil {
			c.log.Warn().Err(err).Msg("caché de catálogo de alertas no disponible")
		} else if ok {
			return cached, nil
		}
	}

	// La carga se comparte entre llamadores: no hereda la cancelación de la transacción que la dispara.
	ch := c.group.DoChan("catalog", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogLoadTimeout)
		defer cancel()
		catalog, err := c.loader.LoadCatalog(loadCtx)
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			if err := c.store.Set(loadCtx, catalog, c.ttl); err != nil {
				c.log.Warn().Err(err).Msg("no se pudo guardar el catálogo de alertas en caché")
			}
		}
		return catalog, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("cargar catálogo de alertas: %w", res.Err)
		}
		return res.Val.(*entity.AlertCatalog), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("cargar catálogo de alertas: %w", ctx.Err())
	}
}

// Invalidate descarta el catálogo cacheado (p. ej. tras modificar las tablas de referencia).
func (c *AlertCatalogCache) Invalidate(ctx context.Context) error {
	return c.store.Delete(ctx)
}
