package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/labnotify/labnotify/internal/alert"
	"github.com/labnotify/labnotify/internal/auth"
	"github.com/labnotify/labnotify/internal/config"
	"github.com/labnotify/labnotify/internal/database"
	"github.com/labnotify/labnotify/internal/httphelper"
	"github.com/labnotify/labnotify/internal/inventory"
	"github.com/labnotify/labnotify/internal/notification"
	"github.com/labnotify/labnotify/pkg/log"
)

var (
	BuildVersion = "master" //nolint:gochecknoglobals
	BuildCommit  = ""       //nolint:gochecknoglobals
	BuildDate    = ""       //nolint:gochecknoglobals
	SentryDSN    = ""       //nolint:gochecknoglobals
)

type App struct {
	config        config.Config
	database      database.Database
	auth          *auth.Authentication
	inventory     inventory.Repository
	notifications notification.Notifications
	counters      *notification.CounterSet
	sentry        *sentry.Client

	stopPollers context.CancelFunc
	logCloser   func()
}

func NewApp() (*App, error) {
	conf, errConfig := config.Read(cfgFile)
	if errConfig != nil {
		slog.Error("Failed to read config", log.ErrAttr(errConfig))

		return nil, errConfig
	}

	return &App{config: conf}, nil
}

func (a *App) Init(ctx context.Context) error {
	dbConn := database.New(a.config.DB.DSN, a.config.DB.AutoMigrate, a.config.DB.LogQueries)
	if errConnect := dbConn.Connect(ctx); errConnect != nil {
		slog.Error("Cannot initialize database", log.ErrAttr(errConnect))

		return errConnect
	}

	a.database = dbConn

	// Build time DSN can be overridden by the env var or config file.
	if SentryDSN == "" {
		if a.config.Sentry.DSN != "" {
			SentryDSN = a.config.Sentry.DSN
		} else if value, found := os.LookupEnv("SENTRY_DSN"); found && value != "" {
			SentryDSN = value
		}
	}

	a.setupSentry()

	a.logCloser = log.MustCreateLogger(ctx, a.config.Log.File, a.config.Log.Level, SentryDSN != "", BuildVersion)

	slog.Info("Starting labnotify...",
		slog.String("version", BuildVersion),
		slog.String("commit", BuildCommit),
		slog.String("date", BuildDate))

	a.auth = auth.NewAuthentication(a.config.HTTP.AuthKey)
	a.inventory = inventory.NewRepository(a.database)
	a.notifications = notification.NewNotifications(
		notification.NewRepository(a.database),
		notification.NewVocabulary(a.config.Notifications.Categories))
	a.counters = notification.NewCounterSet(a.notifications, a.config.Notifications.UnreadRefreshFreq)

	return nil
}

// StartBackground launches the unread badge pollers. The pollers stop when
// Close is called, they do not outlive HTTP shutdown.
func (a *App) StartBackground(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)
	a.stopPollers = cancel

	a.counters.Start(pollCtx)
}

func (a *App) setupSentry() {
	if SentryDSN != "" {
		sentryClient, err := log.NewSentryClient(SentryDSN, a.config.Sentry.Trace, a.config.Sentry.SampleRate, BuildVersion, a.config.Mode.String())
		if err != nil {
			slog.Error("Failed to setup sentry client")
		} else {
			a.sentry = sentryClient
		}
	}
}

func (a *App) createRouter() *gin.Engine {
	mode := gin.ReleaseMode
	if a.config.Mode == config.DebugMode {
		mode = gin.DebugMode
	}

	router := httphelper.CreateRouter(httphelper.RouterOpts{
		HTTPLogEnabled:    a.config.Log.HTTPEnabled,
		LogLevel:          a.config.Log.Level,
		Mode:              mode,
		SentryDSN:         SentryDSN,
		Version:           BuildVersion,
		PProfEnabled:      a.config.Debug.PProfEnabled,
		PrometheusEnabled: a.config.Debug.PrometheusEnabled,
		CORSEnabled:       a.config.HTTP.CORSEnabled,
		CORSOrigins:       a.config.HTTP.CORSOrigins,
	})

	notification.NewNotificationHandler(router, a.auth, a.notifications, a.counters)
	alert.NewAlertHandler(router, a.auth, a.inventory)

	return router
}

func (a *App) Serve(rootCtx context.Context) error {
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := httphelper.NewServer(a.config.HTTP.Addr(), a.createRouter())

	go func() {
		<-ctx.Done()

		slog.Info("Shutting down HTTP service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		if errShutdown := httpServer.Shutdown(shutdownCtx); errShutdown != nil { //nolint:contextcheck
			slog.Error("Error shutting down http service", log.ErrAttr(errShutdown))
		}
	}()

	slog.Info("Starting HTTP server", slog.String("address", a.config.HTTP.Addr()))

	errServe := httpServer.ListenAndServe()
	if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		slog.Error("HTTP server returned error", log.ErrAttr(errServe))
	}

	<-ctx.Done()

	slog.Info("Exiting...")

	return nil
}

func (a *App) Close(_ context.Context) error {
	if a.stopPollers != nil {
		a.stopPollers()
	}

	if a.database != nil {
		if errClose := a.database.Close(); errClose != nil {
			slog.Error("Failed to close database cleanly", log.ErrAttr(errClose))
		}
	}

	if a.sentry != nil {
		a.sentry.Flush(2 * time.Second)
	}

	if a.logCloser != nil {
		a.logCloser()
	}

	return nil
}
