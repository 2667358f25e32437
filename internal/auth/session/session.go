// Package session exposes the per request caller profile attached by the auth
// middleware.
package session

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/labnotify/labnotify/internal/auth/role"
)

// CtxKeyUserProfile is the gin context key the auth middleware stores the caller
// profile under.
const CtxKeyUserProfile = "user_profile"

var ErrNotLoggedIn = errors.New("not logged in")

// User is the resolved caller identity. Identity issuance happens outside this
// service, all the core ever sees is the subject and its role token.
type User struct {
	ID   string    `json:"id"`
	Role role.Role `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == role.Admin
}

func CurrentUser(ctx *gin.Context) (User, error) {
	maybeUser, found := ctx.Get(CtxKeyUserProfile)
	if !found {
		return User{}, ErrNotLoggedIn
	}

	user, ok := maybeUser.(User)
	if !ok {
		return User{}, ErrNotLoggedIn
	}

	return user, nil
}
