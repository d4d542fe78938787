package engine

import "errors"

var (
	// ErrUnknownDifficulty is returned for a tier outside {easy, medium, hard, expert}.
	ErrUnknownDifficulty = errors.New("unknown difficulty tier")

	// ErrInvalidProfile is returned for a search profile that cannot be used.
	ErrInvalidProfile = errors.New("invalid search profile")
)
