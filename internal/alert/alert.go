// Package alert derives transient stock alerts from inventory snapshots. Alerts are
// never persisted, every derivation fully replaces the previous set and repeated
// derivation over unchanged input yields an identical result.
package alert

import (
	"fmt"
	"time"

	"github.com/labnotify/labnotify/internal/inventory"
)

type Type string

const (
	LowStock   Type = "low_stock"
	OutOfStock Type = "out_of_stock"
)

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// DefaultThreshold applies to items without a configured alert threshold.
const DefaultThreshold = 10

// discreteUnits are units where a fractional "low stock" comparison against a weight
// style threshold is not meaningful, so the low stock rule skips them. Out of stock
// still applies.
var discreteUnits = map[string]bool{ //nolint:gochecknoglobals
	"pieces":  true,
	"bottles": true,
}

// LowStockID builds the deterministic id for a low stock alert on an item.
func LowStockID(chemicalID int64) string {
	return fmt.Sprintf("low_stock_%d", chemicalID)
}

// OutOfStockID builds the deterministic id for an out of stock alert on an item.
func OutOfStockID(chemicalID int64) string {
	return fmt.Sprintf("out_of_stock_%d", chemicalID)
}

type Alert struct {
	// ID is deterministic, derived from the item and alert type, so recomputed sets
	// stay stable across polls.
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Severity  Severity  `json:"severity"`
	SubjectID int64     `json:"chemical_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Derive computes the alert set for a snapshot. Input order is preserved, an item
// yields at most one alert and items that cannot be evaluated yield none. There is
// no error path, alert computation must never fail a caller's polling loop.
func Derive(items []inventory.Item) []Alert {
	now := time.Now()

	var alerts []Alert

	for _, item := range items {
		threshold := float64(DefaultThreshold)
		if item.AlertThreshold != nil {
			threshold = *item.AlertThreshold
		}

		switch {
		case item.Quantity <= 0:
			alerts = append(alerts, Alert{
				ID:        OutOfStockID(item.ID),
				Type:      OutOfStock,
				Severity:  SeverityCritical,
				SubjectID: item.ID,
				Message:   fmt.Sprintf("Out of stock: %s is completely depleted", item.Name),
				Timestamp: now,
			})
		case item.Quantity < threshold && !discreteUnits[item.Unit]:
			alerts = append(alerts, Alert{
				ID:        LowStockID(item.ID),
				Type:      LowStock,
				Severity:  SeverityWarning,
				SubjectID: item.ID,
				Message: fmt.Sprintf("Low stock alert: %s has only %v %s remaining (threshold: %v %s)",
					item.Name, item.Quantity, item.Unit, threshold, item.Unit),
				Timestamp: now,
			})
		}
	}

	return alerts
}
