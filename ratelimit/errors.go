package ratelimit

import "errors"

var (
	// Common rate limiting errors.
	ErrInvalidRate       = errors.New("rate must be positive")
	ErrInvalidCapacity   = errors.New("capacity must be positive")
	ErrInvalidExpiration = errors.New("expiration must be positive")
	ErrInvalidTokens     = errors.New("token count must be positive")
)
