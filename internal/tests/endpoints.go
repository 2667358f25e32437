package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/stretchr/testify/require"
)

func GetOK(t *testing.T, router http.Handler, path string, receiver ...any) {
	t.Helper()

	if len(receiver) > 0 {
		endpointWithReceiver(t, router, http.MethodGet, path, nil, http.StatusOK, receiver[0])
	} else {
		endpoint(t, router, http.MethodGet, path, nil, http.StatusOK)
	}
}

// GetOKQuery encodes params into the query string before issuing the request.
func GetOKQuery(t *testing.T, router http.Handler, path string, params any, receiver any) {
	t.Helper()

	values, err := query.Values(params)
	if err != nil {
		t.Fatalf("failed to encode values: %v", err)
	}

	endpointWithReceiver(t, router, http.MethodGet, path+"?"+values.Encode(), nil, http.StatusOK, receiver)
}

func GetForbidden(t *testing.T, router http.Handler, path string) {
	t.Helper()

	endpoint(t, router, http.MethodGet, path, nil, http.StatusForbidden)
}

func GetNotFound(t *testing.T, router http.Handler, path string) {
	t.Helper()

	endpoint(t, router, http.MethodGet, path, nil, http.StatusNotFound)
}

func PostCreated(t *testing.T, router http.Handler, path string, body any, receiver ...any) {
	t.Helper()

	if len(receiver) > 0 {
		endpointWithReceiver(t, router, http.MethodPost, path, body, http.StatusCreated, receiver[0])
	} else {
		endpoint(t, router, http.MethodPost, path, body, http.StatusCreated)
	}
}

func PostOK(t *testing.T, router http.Handler, path string, body any, receiver ...any) {
	t.Helper()

	if len(receiver) > 0 {
		endpointWithReceiver(t, router, http.MethodPost, path, body, http.StatusOK, receiver[0])
	} else {
		endpoint(t, router, http.MethodPost, path, body, http.StatusOK)
	}
}

func PostBadRequest(t *testing.T, router http.Handler, path string, body any) {
	t.Helper()

	endpoint(t, router, http.MethodPost, path, body, http.StatusBadRequest)
}

func PostForbidden(t *testing.T, router http.Handler, path string, body any) {
	t.Helper()

	endpoint(t, router, http.MethodPost, path, body, http.StatusForbidden)
}

func PutOK(t *testing.T, router http.Handler, path string, body any, receiver ...any) {
	t.Helper()

	if len(receiver) > 0 {
		endpointWithReceiver(t, router, http.MethodPut, path, body, http.StatusOK, receiver[0])
	} else {
		endpoint(t, router, http.MethodPut, path, body, http.StatusOK)
	}
}

func PutConflict(t *testing.T, router http.Handler, path string, body any) {
	t.Helper()

	endpoint(t, router, http.MethodPut, path, body, http.StatusConflict)
}

func DeleteOK(t *testing.T, router http.Handler, path string) {
	t.Helper()

	endpoint(t, router, http.MethodDelete, path, nil, http.StatusOK)
}

func DeleteForbidden(t *testing.T, router http.Handler, path string) {
	t.Helper()

	endpoint(t, router, http.MethodDelete, path, nil, http.StatusForbidden)
}

func endpointWithReceiver(t *testing.T, router http.Handler, method string,
	path string, body any, expectedStatus int, receiver any,
) {
	t.Helper()

	resp := endpoint(t, router, method, path, body, expectedStatus)
	if receiver != nil {
		if err := json.NewDecoder(resp.Body).Decode(&receiver); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
}

func endpoint(t *testing.T, router http.Handler, method string, path string, body any, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	reqCtx, cancel := context.WithTimeout(t.Context(), time.Second*10)
	defer cancel()

	recorder := httptest.NewRecorder()

	var bodyReader io.Reader

	if body != nil {
		bodyJSON, errJSON := json.Marshal(body)
		if errJSON != nil {
			t.Fatalf("Failed to encode request: %v", errJSON)
		}

		bodyReader = bytes.NewReader(bodyJSON)
	}

	request, errRequest := http.NewRequestWithContext(reqCtx, method, path, bodyReader)
	if errRequest != nil {
		t.Fatalf("Failed to make request: %v", errRequest)
	}

	router.ServeHTTP(recorder, request)

	require.Equal(t, expectedStatus, recorder.Code, "Received invalid response code. method: %s path: %s", method, path)

	return recorder
}
