package errors

import "errors"

var (
	// ErrNotLocked is returned by Unlock when the lock was already free.
	ErrNotLocked = errors.New("not locked")
	// ErrUnsupported is returned by operations the lock does not implement.
	ErrUnsupported = errors.New("operation not supported")
	// ErrQuoteNotFound is returned when a requested quote id is out of range.
	ErrQuoteNotFound = errors.New("quote not found")

	ErrTimeout          = errors.New("timeout")
	ErrConnectionClosed = errors.New("connection closed")
)
