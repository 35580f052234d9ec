package guard

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/apperr"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/models"
)

const identityKey = "identity"

// CheckRole authorizes an already resolved identity.
func CheckRole(identity *models.User, allowed ...models.Role) error {
	if !identity.IsVerified {
		return apperr.ErrNotVerified
	}
	if !slices.Contains(allowed, identity.Role) {
		return apperr.ErrInsufficientPermissions
	}
	return nil
}

type UserLoader interface {
	GetUserByUID(ctx context.Context, uid uuid.UUID) (*models.User, error)
}

// RequireRoles must run after an access guard.
func RequireRoles(loader UserLoader, allowed ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("guard", "role")

			claims := ClaimsFrom(c)
			if claims == nil {
				return apperr.ErrMissingCredential
			}
			uid, err := uuid.Parse(claims.User.UserUID)
			if err != nil {
				l.Warn("auth_rejected", "reason", "subject is not a uuid")
				return apperr.ErrInvalidToken
			}

			user, err := loader.GetUserByUID(ctx, uid)
			if err != nil {
				return err
			}

			if err := CheckRole(user, allowed...); err != nil {
				e := apperr.From(err)
				l.Warn("auth_rejected", "status", e.Status(), "reason", e.Code(), "user_uid", user.UID)
				return err
			}

			c.Set(identityKey, user)
			return next(c)
		}
	}
}

func IdentityFrom(c echo.Context) *models.User {
	u, _ := c.Get(identityKey).(*models.User)
	return u
}
