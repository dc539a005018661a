package memory

import (
	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/promotion"
)

// SeedProducts carga productos (reemplaza los que tengan el mismo ID).
func (s *Store) SeedProducts(products ...*entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.st.products[p.ID] = cloneProduct(p)
	}
}

// SeedSale carga una venta tal cual, sin efectos de stock.
func (s *Store) SeedSale(sale *entity.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.sales[sale.ID] = cloneSale(sale)
}

// SeedPromotions reemplaza las promociones vigentes.
func (s *Store) SeedPromotions(promos ...promotion.Promotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.promotions = append([]promotion.Promotion(nil), promos...)
}

// SeedAlert carga una alerta existente.
func (s *Store) SeedAlert(a *entity.StockAlert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.alerts = append(s.st.alerts, cloneAlert(a))
}

// SetCatalog reemplaza el catálogo de tipos y prioridades de alerta.
func (s *Store) SetCatalog(c entity.AlertCatalog) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	s.catalog = c
}

// Alerts copia de todas las alertas (abiertas y resueltas), en orden de creación.
func (s *Store) Alerts() []*entity.StockAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.StockAlert, 0, len(s.st.alerts))
	for _, a := range s.st.alerts {
		out = append(out, cloneAlert(a))
	}
	return out
}

// Movements copia del kardex completo, en orden de registro.
func (s *Store) Movements() []*entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.StockMovement, 0, len(s.st.movements))
	for _, m := range s.st.movements {
		c := *m
		out = append(out, &c)
	}
	return out
}
