package alert_test

import (
	"testing"

	"github.com/labnotify/labnotify/internal/alert"
	"github.com/labnotify/labnotify/internal/inventory"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 {
	return &v
}

func TestDeriveOutOfStock(t *testing.T) {
	alerts := alert.Derive([]inventory.Item{
		{ID: 4, Name: "Acetone", Quantity: 0, Unit: "ml", AlertThreshold: ptr(100)},
	})

	require.Len(t, alerts, 1)
	require.Equal(t, "out_of_stock_4", alerts[0].ID)
	require.Equal(t, alert.OutOfStock, alerts[0].Type)
	require.Equal(t, alert.SeverityCritical, alerts[0].Severity)
	require.Equal(t, int64(4), alerts[0].SubjectID)
	require.Equal(t, "Out of stock: Acetone is completely depleted", alerts[0].Message)
}

func TestDeriveLowStock(t *testing.T) {
	alerts := alert.Derive([]inventory.Item{
		{ID: 7, Name: "Ethanol", Quantity: 5, Unit: "g", AlertThreshold: ptr(10)},
	})

	require.Len(t, alerts, 1)
	require.Equal(t, "low_stock_7", alerts[0].ID)
	require.Equal(t, alert.LowStock, alerts[0].Type)
	require.Equal(t, alert.SeverityWarning, alerts[0].Severity)
	require.Equal(t, "Low stock alert: Ethanol has only 5 g remaining (threshold: 10 g)", alerts[0].Message)
}

func TestDeriveExemptUnits(t *testing.T) {
	alerts := alert.Derive([]inventory.Item{
		{ID: 1, Name: "Cuvette", Quantity: 5, Unit: "pieces", AlertThreshold: ptr(10)},
		{ID: 2, Name: "Buffer", Quantity: 5, Unit: "bottles", AlertThreshold: ptr(10)},
	})

	require.Empty(t, alerts)

	// Out of stock still fires for discrete units.
	alerts = alert.Derive([]inventory.Item{
		{ID: 3, Name: "Cuvette", Quantity: 0, Unit: "pieces"},
	})
	require.Len(t, alerts, 1)
	require.Equal(t, alert.OutOfStock, alerts[0].Type)
}

func TestDeriveDefaultThreshold(t *testing.T) {
	// No explicit threshold, falls back to the default of 10.
	alerts := alert.Derive([]inventory.Item{
		{ID: 9, Name: "Methanol", Quantity: 9.5, Unit: "ml"},
		{ID: 10, Name: "Toluene", Quantity: 10, Unit: "ml"},
	})

	require.Len(t, alerts, 1)
	require.Equal(t, "low_stock_9", alerts[0].ID)
}

func TestDeriveMutuallyExclusive(t *testing.T) {
	// A depleted item produces only the out_of_stock alert even though its quantity
	// is also below threshold.
	alerts := alert.Derive([]inventory.Item{
		{ID: 5, Name: "Hexane", Quantity: -1, Unit: "ml", AlertThreshold: ptr(50)},
	})

	require.Len(t, alerts, 1)
	require.Equal(t, alert.OutOfStock, alerts[0].Type)
}

func TestDeriveDeterministicOrder(t *testing.T) {
	items := []inventory.Item{
		{ID: 2, Name: "B", Quantity: 0, Unit: "ml"},
		{ID: 1, Name: "A", Quantity: 1, Unit: "ml"},
		{ID: 3, Name: "C", Quantity: 500, Unit: "ml"},
	}

	first := alert.Derive(items)
	second := alert.Derive(items)

	require.Len(t, first, 2)
	require.Equal(t, "out_of_stock_2", first[0].ID)
	require.Equal(t, "low_stock_1", first[1].ID)

	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, first[i].ID, second[i].ID)
		require.Equal(t, first[i].Message, second[i].Message)
	}
}
