package notification

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/labnotify/labnotify/internal/auth/role"
	"github.com/labnotify/labnotify/internal/auth/session"
	"github.com/labnotify/labnotify/internal/updater"
	"github.com/labnotify/labnotify/pkg/log"
)

const badgeCap = 99

// UnreadSource yields the unread total for a caller. Satisfied by Notifications.
type UnreadSource interface {
	UnreadCount(ctx context.Context, caller session.User) (int, error)
}

// ListSource yields a filtered, visibility restricted list. Satisfied by
// Notifications.
type ListSource interface {
	List(ctx context.Context, caller session.User, filter Filter) ([]Notification, error)
}

// UnreadCounter tracks the unread badge for a single caller. The count is
// refreshed on a fixed cadence and a failed refresh keeps the last good value
// until the next tick.
type UnreadCounter struct {
	cache *updater.Updater[int]
}

func NewUnreadCounter(source UnreadSource, caller session.User, refreshFreq time.Duration) *UnreadCounter {
	return &UnreadCounter{
		cache: updater.New(refreshFreq, func(ctx context.Context) (int, error) {
			return source.UnreadCount(ctx, caller)
		}),
	}
}

// Start blocks, refreshing until ctx is cancelled.
func (c *UnreadCounter) Start(ctx context.Context) {
	c.cache.Start(ctx)
}

// Refresh forces an immediate recount outside the regular cadence.
func (c *UnreadCounter) Refresh(ctx context.Context) {
	c.cache.Update(ctx)
}

// Count returns the uncapped unread total.
func (c *UnreadCounter) Count() int {
	return c.cache.Data()
}

// Badge renders the count for display, capping at "99+". An empty string means
// nothing to show.
func (c *UnreadCounter) Badge() string {
	count := c.cache.Data()

	switch {
	case count <= 0:
		return ""
	case count > badgeCap:
		return "99+"
	default:
		return strconv.Itoa(count)
	}
}

// CounterSet maintains one unread counter per known role so the badge endpoint
// can serve from cache instead of counting per request.
type CounterSet struct {
	counters map[role.Role]*UnreadCounter
}

func NewCounterSet(source UnreadSource, refreshFreq time.Duration) *CounterSet {
	counters := make(map[role.Role]*UnreadCounter, len(role.All()))

	for _, known := range role.All() {
		poller := session.User{ID: "poller." + known.String(), Role: known}
		counters[known] = NewUnreadCounter(source, poller, refreshFreq)
	}

	return &CounterSet{counters: counters}
}

// Start launches every per-role poller. Each stops when ctx is cancelled.
func (s *CounterSet) Start(ctx context.Context) {
	for _, counter := range s.counters {
		go counter.Start(ctx)
	}
}

// Refresh forces every counter to recount immediately.
func (s *CounterSet) Refresh(ctx context.Context) {
	for _, counter := range s.counters {
		counter.Refresh(ctx)
	}
}

// For returns the counter tracking the given role, or nil for unknown roles.
func (s *CounterSet) For(r role.Role) *UnreadCounter {
	return s.counters[r]
}

// Dashboard caches a filtered notification list for a single caller. Unlike the
// unread counter it refreshes on demand rather than on a timer.
type Dashboard struct {
	source ListSource
	caller session.User

	rowsMu sync.RWMutex
	rows   []Notification
	filter Filter
}

func NewDashboard(source ListSource, caller session.User) *Dashboard {
	return &Dashboard{source: source, caller: caller}
}

// Refresh re-queries with the given filter. On error the previously fetched
// rows are retained and the error is returned for the caller to surface.
func (d *Dashboard) Refresh(ctx context.Context, filter Filter) error {
	rows, errRows := d.source.List(ctx, d.caller, filter)
	if errRows != nil {
		slog.Error("Failed to refresh notification dashboard", log.ErrAttr(errRows))

		return errRows
	}

	d.rowsMu.Lock()
	d.rows = rows
	d.filter = filter
	d.rowsMu.Unlock()

	return nil
}

// Rows returns the most recently fetched list.
func (d *Dashboard) Rows() []Notification {
	d.rowsMu.RLock()
	defer d.rowsMu.RUnlock()

	return d.rows
}

// Filter returns the filter the current rows were fetched with.
func (d *Dashboard) Filter() Filter {
	d.rowsMu.RLock()
	defer d.rowsMu.RUnlock()

	return d.filter
}
