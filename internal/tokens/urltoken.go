package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/task_manager/internal/apperr"
)

type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

type urlClaims struct {
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// IssueURLToken signs a short-lived token carried in mailed links.
func (c *Codec) IssueURLToken(email string, purpose Purpose, ttl time.Duration) (string, error) {
	now := c.now()
	claims := urlClaims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("tokens: sign url token: %w", err)
	}
	return signed, nil
}

// ParseURLToken returns the email of a valid token issued for purpose.
func (c *Codec) ParseURLToken(raw string, purpose Purpose) (string, error) {
	var claims urlClaims
	if err := c.parse(raw, &claims); err != nil {
		return "", err
	}
	if claims.Purpose != purpose || claims.Email == "" {
		return "", fmt.Errorf("%w: wrong token purpose", apperr.ErrInvalidToken)
	}
	return claims.Email, nil
}
