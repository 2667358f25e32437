package httphelper

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	ErrBadRequest       = errors.New("invalid request")
	ErrInternal         = errors.New("internal server error")
	ErrNotFound         = errors.New("entity not found")
	ErrParamKeyMissing  = errors.New("param key not found")
	ErrParamParse       = errors.New("failed to parse param value")
	ErrParamInvalid     = errors.New("param value invalid")
	ErrInvalidParameter = errors.New("invalid parameter format")
)

func NewAPIErrorf(code int, err error, message string, args ...any) APIError {
	apiErr := NewAPIError(code, err)
	apiErr.Detail = fmt.Sprintf(message, args...)

	return apiErr
}

func NewAPIError(code int, err error) APIError {
	apiErr := APIError{
		err:       err,
		Status:    code,
		Type:      "about:blank",
		Timestamp: time.Now(),
	}

	joined, ok := err.(interface{ Unwrap() []error })
	if ok {
		// Error was wrapped with errors.Join(), show only the very last error, which
		// should be one of our sentinel errors that is safe to expose and wont leak
		// internal details.
		wrappedErrs := joined.Unwrap()
		if len(wrappedErrs) > 0 {
			apiErr.Title = wrappedErrs[len(wrappedErrs)-1].Error()
		}

		return apiErr
	}

	apiErr.Title = err.Error()

	return apiErr
}

// APIError implements https://www.rfc-editor.org/rfc/rfc9457.html
// application/problem+json.
type APIError struct {
	err       error
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Status    int       `json:"status"`
	Detail    string    `json:"detail"`
	Instance  string    `json:"instance"`
	Timestamp time.Time `json:"timestamp"`
}

func (e APIError) Error() string {
	if e.err == nil {
		return e.Title
	}

	return e.err.Error()
}

// SetError hands the error to the error handler middleware. You should return from
// the handler after calling this.
func SetError(ctx *gin.Context, err APIError) {
	err.Instance = ctx.Request.URL.Path

	_ = ctx.Error(err)
}
