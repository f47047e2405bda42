package service

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidCode    = errors.New("invalid code")
	ErrNotFound       = errors.New("code not found")
	ErrStorageFailure = errors.New("storage failure")
	ErrStartupFailure = errors.New("startup failure")
)

// OpError carries the failing operation and the underlying cause.
// errors.Is matches Kind; errors.Unwrap yields Err.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) Is(target error) bool { return target == e.Kind }

func storageFailure(op string, err error) error {
	return &OpError{Op: op, Kind: ErrStorageFailure, Err: err}
}

func startupFailure(op string, err error) error {
	return &OpError{Op: op, Kind: ErrStartupFailure, Err: err}
}
