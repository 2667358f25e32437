package tests_test

import (
	"testing"

	"github.com/labnotify/labnotify/internal/alert"
	"github.com/labnotify/labnotify/internal/inventory"
	"github.com/labnotify/labnotify/internal/tests"
	"github.com/stretchr/testify/require"
)

func threshold(value float64) *float64 {
	return &value
}

func TestAlertsEndpoint(t *testing.T) {
	fixture.Reset(t.Context())

	depleted := fixture.CreateTestItem(t.Context(), inventory.Item{Name: "ethanol", Quantity: 0, Unit: "ml"})
	low := fixture.CreateTestItem(t.Context(), inventory.Item{Name: "acetone", Quantity: 3, Unit: "ml", AlertThreshold: threshold(5)})
	fixture.CreateTestItem(t.Context(), inventory.Item{Name: "beakers", Quantity: 3, Unit: "pieces"})
	fixture.CreateTestItem(t.Context(), inventory.Item{Name: "toluene", Quantity: 50, Unit: "ml"})

	router := testRouter(labUser)

	var alerts []alert.Alert
	tests.GetOK(t, router, "/api/alerts", &alerts)
	require.Len(t, alerts, 2)

	byID := map[string]alert.Alert{}
	for _, entry := range alerts {
		byID[entry.ID] = entry
	}

	outOfStock, ok := byID[alert.OutOfStockID(depleted.ID)]
	require.True(t, ok)
	require.Equal(t, alert.OutOfStock, outOfStock.Type)
	require.Equal(t, alert.SeverityCritical, outOfStock.Severity)
	require.Equal(t, "Out of stock: ethanol is completely depleted", outOfStock.Message)

	lowStock, ok := byID[alert.LowStockID(low.ID)]
	require.True(t, ok)
	require.Equal(t, alert.LowStock, lowStock.Type)
	require.Equal(t, "Low stock alert: acetone has only 3 ml remaining (threshold: 5 ml)", lowStock.Message)
}

func TestAlertsEmptyInventory(t *testing.T) {
	fixture.Reset(t.Context())

	var alerts []alert.Alert
	tests.GetOK(t, testRouter(accountUser), "/api/alerts", &alerts)
	require.Empty(t, alerts)
}
