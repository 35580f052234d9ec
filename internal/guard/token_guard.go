package guard

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/apperr"
	"github.com/Skotchmaster/task_manager/internal/blocklist"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/tokens"
)

const claimsKey = "token_claims"

type Decoder interface {
	Parse(raw string) (*tokens.Claims, error)
}

type TokenGuard struct {
	codec   Decoder
	revoked blocklist.Store
}

func NewTokenGuard(codec Decoder, revoked blocklist.Store) *TokenGuard {
	return &TokenGuard{codec: codec, revoked: revoked}
}

// Authorize walks a bearer header through decode, revocation and type checks.
// The first failing step decides the error.
func (g *TokenGuard) Authorize(ctx context.Context, header string, kind Kind) (*tokens.Claims, error) {
	raw, ok := BearerToken(header)
	if !ok {
		return nil, apperr.ErrMissingCredential
	}

	claims, err := g.codec.Parse(raw)
	if err != nil {
		return nil, apperr.ErrInvalidToken
	}

	revoked, err := g.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("guard: revocation lookup: %w", err)
	}
	if revoked {
		return nil, apperr.ErrRevokedToken
	}

	if err := kind.Verifier().VerifyType(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func (g *TokenGuard) Require(kind Kind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("guard", kind.String())

			claims, err := g.Authorize(ctx, c.Request().Header.Get(echo.HeaderAuthorization), kind)
			if err != nil {
				e := apperr.From(err)
				if e.Kind == apperr.KindInternal {
					l.Error("auth_error", "status", e.Status(), "error", err)
				} else {
					l.Warn("auth_rejected", "status", e.Status(), "reason", e.Code())
				}
				return err
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

func (g *TokenGuard) RequireAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return g.Require(Access)(next)
}

func (g *TokenGuard) RequireRefresh(next echo.HandlerFunc) echo.HandlerFunc {
	return g.Require(Refresh)(next)
}

// ClaimsFrom returns the claims stored by a passed guard, or nil.
func ClaimsFrom(c echo.Context) *tokens.Claims {
	claims, _ := c.Get(claimsKey).(*tokens.Claims)
	return claims
}
