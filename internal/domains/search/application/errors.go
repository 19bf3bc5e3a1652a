package application

import "errors"

var (
	// ErrMissingQuery signals an absent or blank search term.
	ErrMissingQuery = errors.New("search query is required")
	// ErrInvalidPattern signals a raw query that is not a valid expression.
	ErrInvalidPattern = errors.New("search query is not a valid pattern")
)
