package notification

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/labnotify/labnotify/internal/auth/role"
	"github.com/labnotify/labnotify/internal/auth/session"
	"github.com/labnotify/labnotify/internal/database"
	"github.com/labnotify/labnotify/internal/httphelper"
)

type notificationHandler struct {
	notifications Notifications
	counters      *CounterSet
}

type Authenticator interface {
	Middleware(adminOnly bool) gin.HandlerFunc
}

func NewNotificationHandler(engine *gin.Engine, auth Authenticator, notifications Notifications, counters *CounterSet) {
	handler := notificationHandler{notifications: notifications, counters: counters}

	authedGrp := engine.Group("/")
	{
		authed := authedGrp.Use(auth.Middleware(false))
		authed.POST("/api/notifications", handler.onCreate())
		authed.GET("/api/notifications", handler.onList())
		authed.GET("/api/notifications/unread", handler.onUnread())
		authed.GET("/api/notifications/unread_count", handler.onUnreadCount())
		authed.GET("/api/notifications/active", handler.onActive())
		authed.GET("/api/notification/:notification_id", handler.onGet())
		authed.PUT("/api/notification/:notification_id", handler.onUpdate())
		authed.POST("/api/notification/:notification_id/read", handler.onMarkRead())
		authed.POST("/api/notification/:notification_id/dismiss", handler.onDismiss())
		authed.GET("/api/notification_categories", handler.onCategories())
		authed.GET("/api/notification_priorities", handler.onPriorities())
		authed.GET("/api/notification_statuses", handler.onStatuses())
	}

	adminGrp := engine.Group("/")
	{
		admin := adminGrp.Use(auth.Middleware(true))
		admin.DELETE("/api/notification/:notification_id", handler.onDelete())
	}
}

// setAPIError maps core errors onto the problem+json taxonomy.
func setAPIError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNoResult):
		httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusNotFound, errors.Join(err, httphelper.ErrNotFound)))
	case errors.Is(err, role.ErrDenied):
		httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusForbidden, errors.Join(err, role.ErrDenied)))
	case errors.Is(err, ErrInvalidTransition):
		httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusConflict, err))
	case errors.Is(err, ErrRecipientsEmpty),
		errors.Is(err, ErrUnknownRecipient),
		errors.Is(err, ErrUnknownCategory),
		errors.Is(err, ErrUnknownSeverity),
		errors.Is(err, ErrUnknownPriority),
		errors.Is(err, ErrUnknownStatus),
		errors.Is(err, ErrFlagReversed),
		errors.Is(err, ErrMessageEmpty):
		httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, err))
	default:
		httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(err, httphelper.ErrInternal)))
	}
}

func (h notificationHandler) onCreate() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req CreateRequest
		if !httphelper.Bind(ctx, &req) {
			return
		}

		user, _ := session.CurrentUser(ctx)

		created, errCreate := h.notifications.Create(ctx, user, req)
		if errCreate != nil {
			setAPIError(ctx, errCreate)

			return
		}

		ctx.JSON(http.StatusCreated, created)
	}
}

func (h notificationHandler) onList() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var filter Filter
		if !httphelper.BindQuery(ctx, &filter) {
			return
		}

		user, _ := session.CurrentUser(ctx)

		notifications, errList := h.notifications.List(ctx, user, filter)
		if errList != nil {
			setAPIError(ctx, errList)

			return
		}

		ctx.JSON(http.StatusOK, notifications)
	}
}

func (h notificationHandler) onUnread() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, _ := session.CurrentUser(ctx)

		notifications, errList := h.notifications.Unread(ctx, user)
		if errList != nil {
			setAPIError(ctx, errList)

			return
		}

		ctx.JSON(http.StatusOK, notifications)
	}
}

type unreadBadge struct {
	Count int    `json:"count"`
	Badge string `json:"badge"`
}

// onUnreadCount serves from the per-role poller cache, it does not hit the store.
func (h notificationHandler) onUnreadCount() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, _ := session.CurrentUser(ctx)

		counter := h.counters.For(user.Role)
		if counter == nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusForbidden, role.ErrDenied))

			return
		}

		ctx.JSON(http.StatusOK, unreadBadge{Count: counter.Count(), Badge: counter.Badge()})
	}
}

func (h notificationHandler) onActive() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, _ := session.CurrentUser(ctx)

		notifications, errList := h.notifications.Active(ctx, user)
		if errList != nil {
			setAPIError(ctx, errList)

			return
		}

		ctx.JSON(http.StatusOK, notifications)
	}
}

func (h notificationHandler) onGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		notificationID, ok := httphelper.GetInt64Param(ctx, "notification_id")
		if !ok {
			return
		}

		user, _ := session.CurrentUser(ctx)

		entity, errEntity := h.notifications.ByID(ctx, user, notificationID)
		if errEntity != nil {
			setAPIError(ctx, errEntity)

			return
		}

		ctx.JSON(http.StatusOK, entity)
	}
}

func (h notificationHandler) onUpdate() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		notificationID, ok := httphelper.GetInt64Param(ctx, "notification_id")
		if !ok {
			return
		}

		var patch UpdateRequest
		if !httphelper.Bind(ctx, &patch) {
			return
		}

		user, _ := session.CurrentUser(ctx)

		updated, errUpdate := h.notifications.Update(ctx, user, notificationID, patch)
		if errUpdate != nil {
			setAPIError(ctx, errUpdate)

			return
		}

		ctx.JSON(http.StatusOK, updated)
	}
}

func (h notificationHandler) onMarkRead() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		notificationID, ok := httphelper.GetInt64Param(ctx, "notification_id")
		if !ok {
			return
		}

		user, _ := session.CurrentUser(ctx)

		updated, errMark := h.notifications.MarkRead(ctx, user, notificationID)
		if errMark != nil {
			setAPIError(ctx, errMark)

			return
		}

		ctx.JSON(http.StatusOK, updated)
	}
}

func (h notificationHandler) onDismiss() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		notificationID, ok := httphelper.GetInt64Param(ctx, "notification_id")
		if !ok {
			return
		}

		user, _ := session.CurrentUser(ctx)

		updated, errDismiss := h.notifications.Dismiss(ctx, user, notificationID)
		if errDismiss != nil {
			setAPIError(ctx, errDismiss)

			return
		}

		ctx.JSON(http.StatusOK, updated)
	}
}

func (h notificationHandler) onDelete() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		notificationID, ok := httphelper.GetInt64Param(ctx, "notification_id")
		if !ok {
			return
		}

		user, _ := session.CurrentUser(ctx)

		if errDelete := h.notifications.Delete(ctx, user, notificationID); errDelete != nil {
			setAPIError(ctx, errDelete)

			return
		}

		ctx.JSON(http.StatusOK, gin.H{})
	}
}

type metaEntry struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func label(value string) string {
	words := strings.Fields(strings.ReplaceAll(value, "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}

	return strings.Join(words, " ")
}

func (h notificationHandler) onCategories() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		categories := h.notifications.Vocabulary().Categories()

		entries := make([]metaEntry, len(categories))
		for i, category := range categories {
			entries[i] = metaEntry{Value: category, Label: label(category)}
		}

		ctx.JSON(http.StatusOK, entries)
	}
}

func (h notificationHandler) onPriorities() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		priorities := Priorities()

		entries := make([]metaEntry, len(priorities))
		for i, priority := range priorities {
			entries[i] = metaEntry{Value: string(priority), Label: strings.ToUpper(string(priority))}
		}

		ctx.JSON(http.StatusOK, entries)
	}
}

func (h notificationHandler) onStatuses() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		statuses := Statuses()

		entries := make([]metaEntry, len(statuses))
		for i, status := range statuses {
			entries[i] = metaEntry{Value: string(status), Label: label(string(status))}
		}

		ctx.JSON(http.StatusOK, entries)
	}
}
