// Package updater provides a polling cache that periodically refreshes a value via a
// user supplied func.
package updater

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/labnotify/labnotify/internal/database"
	"github.com/labnotify/labnotify/pkg/log"
)

// Updater periodically recomputes a data source and caches the result. A failed
// refresh keeps the previously cached value and is retried on the next tick, never
// immediately.
type Updater[T any] struct {
	data       T
	updateFn   func(ctx context.Context) (T, error)
	updateRate time.Duration
	dataMu     *sync.RWMutex
}

func New[T any](updateInterval time.Duration, updateFn func(ctx context.Context) (T, error)) *Updater[T] {
	return &Updater[T]{
		updateFn:   updateFn,
		dataMu:     &sync.RWMutex{},
		updateRate: updateInterval,
	}
}

func (c *Updater[T]) Data() T { //nolint:ireturn
	c.dataMu.RLock()
	defer c.dataMu.RUnlock()

	return c.data
}

func (c *Updater[T]) Update(ctx context.Context) {
	newData, errUpdate := c.updateFn(ctx)
	if errUpdate != nil && !errors.Is(errUpdate, database.ErrNoResult) {
		slog.Error("Failed to update data source", log.ErrAttr(errUpdate))

		return
	}

	c.dataMu.Lock()
	c.data = newData
	c.dataMu.Unlock()
}

// Start refreshes on a fixed cadence until ctx is cancelled. The ticker is stopped
// on return so teardown leaves no orphaned timers.
func (c *Updater[T]) Start(ctx context.Context) {
	refreshTimer := time.NewTicker(c.updateRate)
	defer refreshTimer.Stop()

	c.Update(ctx)

	for {
		select {
		case <-refreshTimer.C:
			c.Update(ctx)
		case <-ctx.Done():
			return
		}
	}
}
