package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/POS-api/internal/domain/entity"
)

// MemoryCatalogStore guarda el catálogo en el proceso. El reloj es inyectable para probar la vigencia.
type MemoryCatalogStore struct {
	mu        sync.RWMutex
	catalog   *entity.AlertCatalog
	expiresAt time.Time
	now       func() time.Time
}

// NewMemoryCatalogStore construye el store; now == nil usa time.Now.
func NewMemoryCatalogStore(now func() time.Time) *MemoryCatalogStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryCatalogStore{now: now}
}

func (s *MemoryCatalogStore) Get(_ context.Context) (*entity.AlertCatalog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil || !s.now().Before(s.expiresAt) {
		return nil, false, nil
	}
	return s.catalog, true, nil
}

func (s *MemoryCatalogStore) Set(_ context.Context, catalog *entity.AlertCatalog, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = catalog
	s.expiresAt = s.now().Add(ttl)
	return nil
}

func (s *MemoryCatalogStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = nil
	return nil
}
