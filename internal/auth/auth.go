// Package auth validates bearer tokens issued by the upstream identity provider and
// resolves callers to their role token.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labnotify/labnotify/internal/auth/role"
	"github.com/labnotify/labnotify/internal/auth/session"
	"github.com/labnotify/labnotify/internal/httphelper"
)

const TokenDuration = time.Hour * 24 * 7

var (
	ErrMalformedAuthHeader = errors.New("invalid auth header format")
	ErrSigningMethod       = errors.New("invalid signing method")
	ErrInvalidToken        = errors.New("invalid token")
	ErrUnknownRole         = errors.New("unknown role claim")
)

type UserClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Authentication struct {
	signingKey []byte
}

func NewAuthentication(signingKey string) *Authentication {
	return &Authentication{signingKey: []byte(signingKey)}
}

// NewUserToken mints a signed token for the subject carrying its role claim. Used by
// tests and provisioning tooling, the production identity provider issues compatible
// tokens out of band.
func (a *Authentication) NewUserToken(subject string, userRole role.Role, validDuration time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		Role: userRole.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validDuration)),
		},
	}

	signed, errSign := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signingKey)
	if errSign != nil {
		return "", errors.Join(errSign, ErrInvalidToken)
	}

	return signed, nil
}

func (a *Authentication) userFromToken(token string) (session.User, error) {
	var claims UserClaims

	parsed, errParse := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSigningMethod
		}

		return a.signingKey, nil
	})
	if errParse != nil || !parsed.Valid {
		return session.User{}, ErrInvalidToken
	}

	userRole := role.Role(claims.Role)
	if !userRole.Known() {
		return session.User{}, ErrUnknownRole
	}

	return session.User{ID: claims.Subject, Role: userRole}, nil
}

func tokenFromHeader(ctx *gin.Context) (string, error) {
	header := ctx.GetHeader("Authorization")

	pieces := strings.SplitN(header, " ", 2)
	if len(pieces) != 2 || pieces[0] != "Bearer" || pieces[1] == "" {
		return "", ErrMalformedAuthHeader
	}

	return pieces[1], nil
}

// Middleware authenticates the request and attaches the caller profile to the
// context. adminOnly additionally rejects any caller whose role is not admin, used
// for destructive operations. Fine grained recipient checks happen in the
// notification core itself.
func (a *Authentication) Middleware(adminOnly bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, errToken := tokenFromHeader(ctx)
		if errToken != nil {
			ctx.AbortWithStatus(http.StatusUnauthorized)

			return
		}

		user, errUser := a.userFromToken(token)
		if errUser != nil {
			ctx.AbortWithStatus(http.StatusUnauthorized)

			return
		}

		if adminOnly && !user.IsAdmin() {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusForbidden, role.ErrDenied))
			ctx.Abort()

			return
		}

		ctx.Set(session.CtxKeyUserProfile, user)
		ctx.Next()
	}
}
