package domain

import "errors"

// Sentinel errors for the engine's failure taxonomy.
// Check with errors.Is: errors.Is(err, domain.ErrNotFound).
// Anything not matching one of these is a storage failure and is the only
// class a caller may retry.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("already exists")
	ErrInvalidInput = errors.New("invalid input")
)
