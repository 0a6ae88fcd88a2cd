package storage

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Result Codes
// --------------------------------------------------------------------------

// ResultCode classifies the outcome of a storage operation.
type ResultCode uint8

const (
	CodeOk              ResultCode = iota // 0: operation succeeded
	CodeNotFound                          // 1: key is definitively absent
	CodeNotReady                          // 2: wrapper holds no backend
	CodeConfiguration                     // 3: invalid or incomplete construction parameters
	CodeMedium                            // 4: the underlying medium failed (I/O, connection, timeout)
	CodeSerialization                     // 5: a stored payload could not be decoded
	CodeUnsupported                       // 6: the backend or its mode does not support the operation
	CodeInvalidArgument                   // 7: empty key or unknown namespace
)

func (c ResultCode) String() string {
	switch c {
	case CodeOk:
		return "Ok"
	case CodeNotFound:
		return "NotFound"
	case CodeNotReady:
		return "NotReady"
	case CodeConfiguration:
		return "ConfigurationError"
	case CodeMedium:
		return "MediumError"
	case CodeSerialization:
		return "SerializationError"
	case CodeUnsupported:
		return "Unsupported"
	case CodeInvalidArgument:
		return "InvalidArgument"
	default:
		return fmt.Sprintf("ResultCode(%d)", uint8(c))
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error wraps a result code, a message and optionally the error reported by the medium.
type Error struct {
	Code ResultCode // The result code
	Msg  string     // The error message
	Err  error      // The underlying cause, may be nil
}

var (
	// ErrNotFound matches every error with CodeNotFound via errors.Is
	ErrNotFound = &Error{Code: CodeNotFound, Msg: "not found"}
	// ErrNotReady matches every error with CodeNotReady via errors.Is
	ErrNotReady = &Error{Code: CodeNotReady, Msg: "storage is not initialized"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage error (%s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("storage error (%s): %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is a *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new error with the given code and message.
func NewError(code ResultCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new error with the given code that wraps err.
func WrapError(code ResultCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// NotFound is a shorthand for the error returned on a definitive miss
func NotFound(id StorageID, key string) *Error {
	return NewError(CodeNotFound, fmt.Sprintf("key %q not found in %s", key, id))
}

// CodeOf maps an error to its result code. nil maps to CodeOk; errors that are not
// a *Error are treated as medium failures.
func CodeOf(err error) ResultCode {
	if err == nil {
		return CodeOk
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeMedium
}

// IsNotFound is short for CodeOf(err) == CodeNotFound
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// CheckKey validates the namespace and key of a keyed operation.
func CheckKey(id StorageID, key string) error {
	if !id.IsValid() {
		return NewError(CodeInvalidArgument, fmt.Sprintf("unknown storage id %d", uint8(id)))
	}
	if key == "" {
		return NewError(CodeInvalidArgument, "key must not be empty")
	}
	return nil
}

// CheckID validates the namespace of an operation that takes no key.
func CheckID(id StorageID) error {
	if !id.IsValid() {
		return NewError(CodeInvalidArgument, fmt.Sprintf("unknown storage id %d", uint8(id)))
	}
	return nil
}

// --------------------------------------------------------------------------
// Tagged Result
// --------------------------------------------------------------------------

// Result is the explicit outcome of one operation. It is used where outcomes must be
// passed around as values, e.g. over channels or when comparing dispatch strategies.
type Result[T any] struct {
	Value T
	Code  ResultCode
	Err   error
}

// NewResult converts a (value, error) pair into a Result.
// The value is dropped unless the outcome is Ok.
func NewResult[T any](value T, err error) Result[T] {
	if err != nil {
		var zero T
		return Result[T]{Value: zero, Code: CodeOf(err), Err: err}
	}
	return Result[T]{Value: value, Code: CodeOk}
}

// Ok reports whether the result is successful.
func (r Result[T]) Ok() bool {
	return r.Code == CodeOk
}

// Unpack returns the result as a (value, error) pair.
func (r Result[T]) Unpack() (T, error) {
	return r.Value, r.Err
}
