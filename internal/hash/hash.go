package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMismatch    = errors.New("hash: password does not match")
	ErrMalformed   = errors.New("hash: stored hash is not a bcrypt hash")
	ErrInvalidCost = errors.New("hash: bcrypt cost out of range")
)

// Hasher hashes passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

// Default uses bcrypt.DefaultCost.
var Default = &Hasher{cost: bcrypt.DefaultCost}

// NewHasher returns a Hasher for cost; zero means bcrypt.DefaultCost.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidCost, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

func (h *Hasher) Cost() int { return h.cost }

func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return string(b), nil
}

// Compare returns nil on a match, ErrMismatch for a wrong password and
// ErrMalformed when hashed cannot be parsed.
func (h *Hasher) Compare(hashed, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// NeedsRehash reports whether hashed was produced at a different cost.
func (h *Hasher) NeedsRehash(hashed string) bool {
	cost, err := bcrypt.Cost([]byte(hashed))
	return err != nil || cost != h.cost
}

func HashPassword(password string) (string, error) {
	return Default.Hash(password)
}

func CheckPassword(hashed, password string) bool {
	return Default.Compare(hashed, password) == nil
}
