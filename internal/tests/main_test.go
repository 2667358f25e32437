//nolint:gochecknoglobals
package tests_test

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/labnotify/labnotify/internal/alert"
	"github.com/labnotify/labnotify/internal/auth/role"
	"github.com/labnotify/labnotify/internal/auth/session"
	"github.com/labnotify/labnotify/internal/inventory"
	"github.com/labnotify/labnotify/internal/notification"
	"github.com/labnotify/labnotify/internal/tests"
)

var (
	fixture *tests.Fixture

	adminUser   = session.User{ID: "admin-1", Role: role.Admin}
	labUser     = session.User{ID: "lab-1", Role: role.LabStaff}
	accountUser = session.User{ID: "acct-1", Role: role.Account}
	productUser = session.User{ID: "prod-1", Role: role.Product}
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	fixture = tests.NewFixture()

	code := m.Run()

	fixture.Close()
	os.Exit(code)
}

// testRouter builds a router whose auth middleware always resolves to user. The
// returned counter set only refreshes on demand.
func testRouterCounters(user session.User) (*gin.Engine, *notification.CounterSet) {
	router := fixture.CreateRouter()
	authenticator := &tests.StaticAuthenticator{Profile: user}
	notifications := fixture.Notifications()
	counters := notification.NewCounterSet(notifications, time.Hour)

	notification.NewNotificationHandler(router, authenticator, notifications, counters)
	alert.NewAlertHandler(router, authenticator, inventory.NewRepository(fixture.Database))

	return router, counters
}

func testRouter(user session.User) *gin.Engine {
	router, _ := testRouterCounters(user)

	return router
}
