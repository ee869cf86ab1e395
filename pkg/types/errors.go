package types

import "errors"

// Product operation errors.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidID         = errors.New("invalid product ID")
	ErrInvalidName       = errors.New("invalid product name")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInvalidInterval   = errors.New("replacement interval must be positive")
	ErrInvalidDate       = errors.New("invalid date")
	ErrNoSchedule        = errors.New("product has no replacement schedule")
	ErrPersist           = errors.New("persisting products failed")
	ErrAlreadyConfigured = errors.New("product is already configured")
)
