// Package inventory provides read access to the chemical inventory this service
// derives stock alerts from. The inventory itself is owned by the upstream lab
// management system, we only consume snapshots of it.
package inventory

import (
	"context"
	"time"
)

// Item is a single chemical inventory row. AlertThreshold is optional, consumers
// fall back to a default when unset.
type Item struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Quantity       float64   `json:"quantity"`
	Unit           string    `json:"unit"`
	AlertThreshold *float64  `json:"alert_threshold"`
	CreatedOn      time.Time `json:"created_on"`
	UpdatedOn      time.Time `json:"updated_on"`
}

// Provider yields the current inventory snapshot.
type Provider interface {
	Items(ctx context.Context) ([]Item, error)
}
