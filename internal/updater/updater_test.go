package updater_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labnotify/labnotify/internal/updater"
	"github.com/stretchr/testify/require"
)

var errUnavailable = errors.New("backend unavailable")

func TestUpdaterRetainsValueOnError(t *testing.T) {
	failing := false

	cache := updater.New(time.Hour, func(_ context.Context) (int, error) {
		if failing {
			return 0, errUnavailable
		}

		return 42, nil
	})

	cache.Update(t.Context())
	require.Equal(t, 42, cache.Data())

	// A failed refresh must keep the last good value rather than clearing it.
	failing = true
	cache.Update(t.Context())
	require.Equal(t, 42, cache.Data())

	failing = false
	cache.Update(t.Context())
	require.Equal(t, 42, cache.Data())
}

func TestUpdaterStopsOnCancel(t *testing.T) {
	cache := updater.New(time.Millisecond, func(_ context.Context) (int, error) {
		return 1, nil
	})

	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan struct{})

	go func() {
		cache.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("updater did not stop after context cancellation")
	}
}
