package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindMissingCredential
	KindInvalidToken
	KindRevokedToken
	KindAccessTokenRequired
	KindRefreshTokenRequired
	KindInsufficientPermissions
	KindNotVerified
	KindInvalidCredentials
	KindAlreadyExists
	KindUserNotFound
	KindTaskNotFound
	KindPasswordMismatch
	KindValidation
)

type kindInfo struct {
	status int
	code   string
}

var kinds = map[Kind]kindInfo{
	KindInternal:                {http.StatusInternalServerError, "internal_server_error"},
	KindMissingCredential:       {http.StatusUnauthorized, "missing_credentials"},
	KindInvalidToken:            {http.StatusUnauthorized, "invalid_token"},
	KindRevokedToken:            {http.StatusUnauthorized, "token_revoked"},
	KindAccessTokenRequired:     {http.StatusUnauthorized, "access_token_required"},
	KindRefreshTokenRequired:    {http.StatusForbidden, "refresh_token_required"},
	KindInsufficientPermissions: {http.StatusForbidden, "insufficient_permissions"},
	KindNotVerified:             {http.StatusForbidden, "account_not_verified"},
	KindInvalidCredentials:      {http.StatusBadRequest, "invalid_email_or_password"},
	KindAlreadyExists:           {http.StatusConflict, "user_exists"},
	KindUserNotFound:            {http.StatusNotFound, "user_not_found"},
	KindTaskNotFound:            {http.StatusNotFound, "task_not_found"},
	KindPasswordMismatch:        {http.StatusBadRequest, "password_mismatch"},
	KindValidation:              {http.StatusUnprocessableEntity, "validation_error"},
}

// Error is a domain failure with a fixed HTTP status and a stable code.
// Two errors match under errors.Is when their kinds are equal.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) Status() int { return kinds[e.Kind].status }

func (e *Error) Code() string { return kinds[e.Kind].code }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrMissingCredential       = New(KindMissingCredential, "Not authenticated")
	ErrInvalidToken            = New(KindInvalidToken, "Token is invalid or expired")
	ErrRevokedToken            = New(KindRevokedToken, "Token is invalid or has been revoked")
	ErrAccessTokenRequired     = New(KindAccessTokenRequired, "Please provide a valid access token")
	ErrRefreshTokenRequired    = New(KindRefreshTokenRequired, "Please provide a valid refresh token")
	ErrInsufficientPermissions = New(KindInsufficientPermissions, "You do not have enough permissions to perform this action")
	ErrNotVerified             = New(KindNotVerified, "Account not verified, check your email for verification details")
	ErrInvalidCredentials      = New(KindInvalidCredentials, "Invalid email or password")
	ErrAlreadyExists           = New(KindAlreadyExists, "User with email already exists")
	ErrUserNotFound            = New(KindUserNotFound, "User not found")
	ErrTaskNotFound            = New(KindTaskNotFound, "Task not found")
	ErrPasswordMismatch        = New(KindPasswordMismatch, "Passwords do not match")
	ErrInternal                = New(KindInternal, "Oops! Something went wrong")
)

// Validation builds a validation error carrying the offending detail.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// From returns the domain error wrapped in err, or ErrInternal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal
}
