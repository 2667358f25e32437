package alert

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/labnotify/labnotify/internal/httphelper"
	"github.com/labnotify/labnotify/internal/inventory"
)

type alertHandler struct {
	items inventory.Provider
}

type Authenticator interface {
	Middleware(adminOnly bool) gin.HandlerFunc
}

func NewAlertHandler(engine *gin.Engine, auth Authenticator, items inventory.Provider) {
	handler := alertHandler{items: items}

	authedGrp := engine.Group("/")
	{
		authed := authedGrp.Use(auth.Middleware(false))
		authed.GET("/api/alerts", handler.onAlerts())
	}
}

// onAlerts recomputes the alert set from the current inventory snapshot on every
// request. Dismissal is a caller-local concern, an alert whose condition still holds
// will be returned again on the next poll.
func (h alertHandler) onAlerts() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		items, errItems := h.items.Items(ctx)
		if errItems != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errItems, httphelper.ErrInternal)))

			return
		}

		alerts := Derive(items)
		if alerts == nil {
			alerts = []Alert{}
		}

		ctx.JSON(http.StatusOK, alerts)
	}
}
