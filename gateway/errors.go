// ABOUTME: Write error type returned by every failed gateway mutation
// ABOUTME: Wraps the store error and matches ErrPersistenceWriteFailed
package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("person not found")
	ErrPersistenceWriteFailed = errors.New("persistence write failed")
)

// WriteError reports a failed mutating call against the store.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrPersistenceWriteFailed, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPersistenceWriteFailed) match any WriteError.
func (e *WriteError) Is(target error) bool {
	return target == ErrPersistenceWriteFailed
}

func writeFailed(op string, err error) error {
	return &WriteError{Op: op, Err: err}
}
