package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/labnotify/labnotify/internal/auth"
	"github.com/labnotify/labnotify/internal/auth/role"
	"github.com/labnotify/labnotify/internal/auth/session"
	"github.com/labnotify/labnotify/internal/httphelper"
	"github.com/stretchr/testify/require"
)

func newEngine(authenticator *auth.Authentication, adminOnly bool) *gin.Engine {
	engine := httphelper.CreateRouter(httphelper.RouterOpts{Mode: gin.TestMode})
	engine.GET("/probe", authenticator.Middleware(adminOnly), func(ctx *gin.Context) {
		user, _ := session.CurrentUser(ctx)
		ctx.JSON(http.StatusOK, user)
	})

	return engine
}

func probe(t *testing.T, engine *gin.Engine, token string) int {
	t.Helper()

	recorder := httptest.NewRecorder()

	request, errRequest := http.NewRequestWithContext(t.Context(), http.MethodGet, "/probe", nil)
	require.NoError(t, errRequest)

	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	engine.ServeHTTP(recorder, request)

	return recorder.Code
}

func TestTokenRoundTrip(t *testing.T) {
	authenticator := auth.NewAuthentication("test-signing-key")

	token, errToken := authenticator.NewUserToken("user-1", role.LabStaff, auth.TokenDuration)
	require.NoError(t, errToken)
	require.Equal(t, http.StatusOK, probe(t, newEngine(authenticator, false), token))
}

func TestTokenWrongKey(t *testing.T) {
	issuer := auth.NewAuthentication("issuer-key")
	verifier := auth.NewAuthentication("other-key")

	token, errToken := issuer.NewUserToken("user-1", role.LabStaff, auth.TokenDuration)
	require.NoError(t, errToken)
	require.Equal(t, http.StatusUnauthorized, probe(t, newEngine(verifier, false), token))
}

func TestTokenExpired(t *testing.T) {
	authenticator := auth.NewAuthentication("test-signing-key")

	token, errToken := authenticator.NewUserToken("user-1", role.LabStaff, -time.Minute)
	require.NoError(t, errToken)
	require.Equal(t, http.StatusUnauthorized, probe(t, newEngine(authenticator, false), token))
}

func TestMissingHeader(t *testing.T) {
	authenticator := auth.NewAuthentication("test-signing-key")

	require.Equal(t, http.StatusUnauthorized, probe(t, newEngine(authenticator, false), ""))
}

func TestUnknownRoleClaim(t *testing.T) {
	authenticator := auth.NewAuthentication("test-signing-key")

	token, errToken := authenticator.NewUserToken("user-1", role.Role("janitor"), auth.TokenDuration)
	require.NoError(t, errToken)
	require.Equal(t, http.StatusUnauthorized, probe(t, newEngine(authenticator, false), token))
}

func TestAdminOnly(t *testing.T) {
	authenticator := auth.NewAuthentication("test-signing-key")

	staffToken, errStaff := authenticator.NewUserToken("user-1", role.LabStaff, auth.TokenDuration)
	require.NoError(t, errStaff)
	require.Equal(t, http.StatusForbidden, probe(t, newEngine(authenticator, true), staffToken))

	adminToken, errAdmin := authenticator.NewUserToken("root", role.Admin, auth.TokenDuration)
	require.NoError(t, errAdmin)
	require.Equal(t, http.StatusOK, probe(t, newEngine(authenticator, true), adminToken))
}
