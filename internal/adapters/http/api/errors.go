package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// Wrap annotates err with the operation that produced it.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// NewKind returns an error of the given sentinel kind tagged with op.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind combines a sentinel kind with the underlying cause.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
