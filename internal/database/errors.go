package database

import (
	"errors"
	"fmt"
)

// Sentinel errors for the bootstrap and store layers.
var (
	// ErrNotFound is returned when an operation references a ticket, user
	// or attachment that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrLockTimeout is returned when the bootstrap lock could not be
	// acquired within the configured timeout. Startup should abort or retry.
	ErrLockTimeout = errors.New("timeout acquiring database lock")
)

// StorageIOError wraps a file copy/move/read failure during bootstrap or
// attachment handling. Fatal during startup; there is no safe default.
type StorageIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageIOError) Error() string {
	return fmt.Sprintf("storage io failure: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageIOError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
