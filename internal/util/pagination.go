package util

import "strconv"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Window clamps a skip/limit pair to sane bounds.
func Window(skip, limit int) (offset, size int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return skip, limit
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
