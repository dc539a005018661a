package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/internal/domain/inventory"
)

func TestClassifyStock_Bandas(t *testing.T) {
	d := decimal.NewFromFloat
	cases := []struct {
		name            string
		stock, minStock decimal.Decimal
		healthy         bool
		typ, priority   string
	}{
		{"sin mínimo", d(0), d(0), true, "", ""},
		{"igual al mínimo", d(10), d(10), true, "", ""},
		{"sobre el mínimo", d(12), d(10), true, "", ""},
		{"mínimo negativo", d(0), d(-2), true, "", ""},
		{"negativo sin mínimo", d(-3), d(0), false, entity.AlertTypeOutOfStock, entity.AlertPriorityCritical},
		{"agotado", d(0), d(10), false, entity.AlertTypeOutOfStock, entity.AlertPriorityCritical},
		{"negativo", d(-1), d(10), false, entity.AlertTypeOutOfStock, entity.AlertPriorityCritical},
		{"25% exacto", d(2.5), d(10), false, entity.AlertTypeLowStock, entity.AlertPriorityHigh},
		{"bajo 25%", d(1), d(10), false, entity.AlertTypeLowStock, entity.AlertPriorityHigh},
		{"50% exacto", d(5), d(10), false, entity.AlertTypeLowStock, entity.AlertPriorityMedium},
		{"sobre 50%", d(6), d(10), false, entity.AlertTypeLowStock, entity.AlertPriorityLow},
		{"apenas bajo el mínimo", d(9.999), d(10), false, entity.AlertTypeLowStock, entity.AlertPriorityLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := inventory.ClassifyStock(tc.stock, tc.minStock)
			assert.Equal(t, tc.healthy, got.Healthy)
			assert.Equal(t, tc.typ, got.TypeCode)
			assert.Equal(t, tc.priority, got.PriorityCode)
		})
	}
}
