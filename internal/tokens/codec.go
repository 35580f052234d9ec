package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/task_manager/internal/apperr"
)

// Subject is the identity summary embedded in every access and refresh token.
type Subject struct {
	UserUID string `json:"user_uid"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// Claims is the decoded content of an access or refresh token.
// Refresh is mandatory: a token without it does not parse.
type Claims struct {
	User    Subject `json:"user"`
	Refresh *bool   `json:"refresh"`
	jwt.RegisteredClaims
}

func (c *Claims) IsRefresh() bool {
	return c.Refresh != nil && *c.Refresh
}

type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

func NewCodec(secret []byte, algorithm string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("tokens: empty signing secret")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("tokens: unsupported signing algorithm %q", algorithm)
	}
	return &Codec{secret: secret, method: method, now: time.Now}, nil
}

// WithClock returns a copy of the codec reading time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) Issue(sub Subject, ttl time.Duration, refresh bool) (string, error) {
	now := c.now()
	claims := Claims{
		User:    sub,
		Refresh: &refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("tokens: sign: %w", err)
	}
	return signed, nil
}

func (c *Codec) Parse(raw string) (*Claims, error) {
	var claims Claims
	if err := c.parse(raw, &claims); err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Refresh == nil || claims.User.UserUID == "" {
		return nil, fmt.Errorf("%w: incomplete claims", apperr.ErrInvalidToken)
	}
	return &claims, nil
}

func (c *Codec) parse(raw string, claims jwt.Claims) error {
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return apperr.ErrInvalidToken
	}
	return nil
}
