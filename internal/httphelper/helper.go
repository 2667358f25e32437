package httphelper

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

func NewServer(listenAddr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           listenAddr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

// Bind unmarshals the json request body, sending a bad request response on failure.
func Bind(ctx *gin.Context, target any) bool {
	if errBind := ctx.ShouldBindJSON(target); errBind != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(errBind, &validationErrs) {
			SetError(ctx, NewAPIError(http.StatusBadRequest, validationErrs))
		} else {
			SetError(ctx, NewAPIError(http.StatusBadRequest, ErrBadRequest))
		}

		return false
	}

	return true
}

// Decoder is a package global because it caches meta-data about structs, and an
// instance can be shared safely.
var Decoder = newDecoder() //nolint:gochecknoglobals

func newDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return decoder
}

func BindQuery(ctx *gin.Context, target any) bool {
	if errBind := Decoder.Decode(target, ctx.Request.URL.Query()); errBind != nil {
		SetError(ctx, NewAPIErrorf(http.StatusBadRequest,
			errors.Join(errBind, ErrBadRequest),
			"Could not decode query params"))

		return false
	}

	return true
}

func GetInt64Param(ctx *gin.Context, key string) (int64, bool) {
	valueStr := ctx.Param(key)
	if valueStr == "" {
		SetError(ctx, NewAPIErrorf(http.StatusBadRequest, ErrParamKeyMissing,
			"Cannot read value for param: %s", key))

		return 0, false
	}

	value, valueErr := strconv.ParseInt(valueStr, 10, 64)
	if valueErr != nil {
		SetError(ctx, NewAPIErrorf(http.StatusBadRequest, errors.Join(valueErr, ErrParamParse),
			"Must be a valid integer: %s", key))

		return 0, false
	}

	if value <= 0 {
		SetError(ctx, NewAPIErrorf(http.StatusBadRequest, ErrParamInvalid,
			"Integer value must be positive: %s", key))

		return 0, false
	}

	return value, true
}
