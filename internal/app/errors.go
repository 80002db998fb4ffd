package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnknownOperation  = errors.New("unknown bulk operation")
	ErrInvalidPayload    = errors.New("invalid bulk operation payload")
	ErrDuplicateID       = errors.New("duplicate task id")
	ErrSuggestionUnknown = errors.New("unknown suggestion")
)
