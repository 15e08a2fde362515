package loader

import "errors"

// Sentinel kinds for loader errors.
var (
	ErrColumnNotFound = errors.New("column not found")
)
