package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a row does not exist or is not visible to the
// caller.
var ErrNotFound = errors.New("not found")

// ErrAlreadyProcessed is returned by conditional updates whose status guard
// matched no rows: the record moved on between the caller's read and write.
// It is a distinct outcome, not a retryable failure.
var ErrAlreadyProcessed = errors.New("already processed")

// StorageError wraps a query failure so callers can tell "no data" apart
// from "can't reach data".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
