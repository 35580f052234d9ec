package guard

import (
	"github.com/Skotchmaster/task_manager/internal/apperr"
	"github.com/Skotchmaster/task_manager/internal/tokens"
)

// Kind selects which token type a guarded operation accepts.
type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

type TypeVerifier interface {
	VerifyType(claims *tokens.Claims) error
}

type accessOnly struct{}

func (accessOnly) VerifyType(claims *tokens.Claims) error {
	if claims.IsRefresh() {
		return apperr.ErrAccessTokenRequired
	}
	return nil
}

type refreshOnly struct{}

func (refreshOnly) VerifyType(claims *tokens.Claims) error {
	if !claims.IsRefresh() {
		return apperr.ErrRefreshTokenRequired
	}
	return nil
}

func (k Kind) Verifier() TypeVerifier {
	if k == Refresh {
		return refreshOnly{}
	}
	return accessOnly{}
}
