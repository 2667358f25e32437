// Package tests provides the shared postgres container fixture and endpoint
// helpers used by the integration test suites.
package tests

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/gin-gonic/gin"
	"github.com/labnotify/labnotify/internal/auth/session"
	"github.com/labnotify/labnotify/internal/database"
	"github.com/labnotify/labnotify/internal/httphelper"
	"github.com/labnotify/labnotify/internal/inventory"
	"github.com/labnotify/labnotify/internal/notification"
	"github.com/labnotify/labnotify/pkg/log"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var ErrContainer = errors.New("failed to bring up test container")

// DefaultCategories mirrors the stock category vocabulary shipped in the default
// config.
var DefaultCategories = []string{"chemical", "product", "safety", "inventory", "general"} //nolint:gochecknoglobals

// StaticAuthenticator satisfies the handler Authenticator interfaces with a fixed
// profile, bypassing token validation entirely.
type StaticAuthenticator struct {
	Profile session.User
}

func (s *StaticAuthenticator) Middleware(adminOnly bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if adminOnly && !s.Profile.IsAdmin() {
			ctx.AbortWithStatus(http.StatusForbidden)

			return
		}

		ctx.Set(session.CtxKeyUserProfile, s.Profile)
	}
}

type postgresContainer struct {
	testcontainers.Container
	dbName   string
	user     string
	password string
	dsn      string
}

func newDB(ctx context.Context) (*postgresContainer, error) {
	const testInfo = "labnotify-test"
	username, password, dbName := testInfo, testInfo, testInfo

	cont, errContainer := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:17-alpine",
			HostConfigModifier: func(config *container.HostConfig) {
				config.AutoRemove = false
			},
			Env: map[string]string{
				"POSTGRES_DB":       dbName,
				"POSTGRES_USER":     username,
				"POSTGRES_PASSWORD": password,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.
				ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		},
		Started: true,
	})
	if errContainer != nil {
		return nil, errors.Join(errContainer, ErrContainer)
	}

	port, _ := cont.MappedPort(ctx, "5432")
	dsn := fmt.Sprintf("postgresql://%s:%s@localhost:%s/%s", username, password, port.Port(), dbName)

	pgContainer := postgresContainer{
		Container: cont,
		dbName:    dbName,
		user:      username,
		password:  password,
		dsn:       dsn,
	}

	return &pgContainer, nil
}

type Fixture struct {
	container *postgresContainer
	Database  database.Database
	Vocab     notification.Vocabulary
	DSN       string
	Close     func()
}

func NewFixture() *Fixture {
	testCtx, cancel := context.WithTimeout(context.Background(), time.Minute*2)
	defer cancel()

	testDB, errStore := newDB(testCtx)
	if errStore != nil {
		panic(errStore)
	}

	databaseConn := database.New(testDB.dsn, true, false)
	if err := databaseConn.Connect(testCtx); err != nil {
		panic(err)
	}

	return &Fixture{
		container: testDB,
		Database:  databaseConn,
		Vocab:     notification.NewVocabulary(DefaultCategories),
		DSN:       testDB.dsn,
		Close: func() {
			termCtx, termCancel := context.WithTimeout(context.Background(), time.Second*30)
			defer termCancel()

			if errTerm := testDB.Terminate(termCtx); errTerm != nil {
				panic(fmt.Sprintf("Failed to terminate test container: %v", errTerm))
			}
		},
	}
}

func (f *Fixture) CreateRouter() *gin.Engine {
	return httphelper.CreateRouter(httphelper.RouterOpts{LogLevel: log.Error, Mode: gin.TestMode})
}

func (f *Fixture) Notifications() notification.Notifications {
	return notification.NewNotifications(notification.NewRepository(f.Database), f.Vocab)
}

func (f *Fixture) Reset(ctx context.Context) {
	const query = `DO
$do$
BEGIN
   EXECUTE
   (SELECT 'TRUNCATE TABLE ' || string_agg(oid::regclass::text, ', ') || ' CASCADE'
    FROM   pg_class
    WHERE  relkind = 'r'
    AND    relnamespace = 'public'::regnamespace
    AND    oid::regclass::text NOT LIKE '\_%'
   );
END
$do$;`

	if err := f.Database.Exec(ctx, query); err != nil {
		panic(err)
	}
}

func (f *Fixture) CreateTestItem(ctx context.Context, item inventory.Item) inventory.Item {
	repo := inventory.NewRepository(f.Database)
	if err := repo.Save(ctx, &item); err != nil {
		panic(err)
	}

	return item
}

func (f *Fixture) CreateTestNotification(ctx context.Context, creator session.User, req notification.CreateRequest) notification.Notification {
	created, errCreate := f.Notifications().Create(ctx, creator, req)
	if errCreate != nil {
		panic(errCreate)
	}

	return created
}
