package store

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongType is returned when an operation is applied to a key holding the other kind of value.
	ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

	// ErrKeyNotFound is returned by Expire when the key is absent or expired.
	ErrKeyNotFound = errors.New("key does not exist")

	// ErrIndexOutOfRange is returned by Range for negative, out of bounds or inverted indices.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// kindError carries the exact reply text while still matching its sentinel with errors.Is.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func keyNotFound(key string) error {
	return &kindError{kind: ErrKeyNotFound, msg: fmt.Sprintf("Key '%s' does not exist", key)}
}

func indexOutOfRange(format string, args ...any) error {
	return &kindError{kind: ErrIndexOutOfRange, msg: fmt.Sprintf(format, args...)}
}
