package notification

import (
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/labnotify/labnotify/internal/auth/session"
)

// Visible is the recipient routing predicate: admins see everything, everyone else
// sees only notifications addressed to their role.
func Visible(entity Notification, caller session.User) bool {
	if caller.IsAdmin() {
		return true
	}

	return slices.Contains(entity.Recipients, caller.Role)
}

// CanAct gates mutations (status, read, dismiss, update) with the identical rule as
// Visible. There is no separate ACL, any role that can see a notification may act on
// it. Delete is the single exception and stays admin exclusive.
func CanAct(entity Notification, caller session.User) bool {
	return Visible(entity, caller)
}

// visibilityClause pushes the Visible predicate into list and count queries so the
// repository can never return rows the caller is not allowed to see.
func visibilityClause(caller session.User) sq.Sqlizer {
	if caller.IsAdmin() {
		return sq.Expr("true")
	}

	return sq.Expr("? = ANY(recipients)", caller.Role.String())
}
