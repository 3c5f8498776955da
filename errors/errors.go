// Package errors defines the error taxonomy shared by every layer of the
// client: the method and header validators, the wire codec, the session
// engine and the result handle. Every error carries a stable Code a caller
// can match on, plus a human-readable message and, where one exists, the
// lower-level cause that produced it.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Code identifies the category of a failure, independent of the message
// text. Callers should switch on Code, never on the formatted string.
type Code int

const (
	// CodeNone is the zero value. No per-request error carries it; the
	// root package's ErrResultInvalidated sentinel does.
	CodeNone Code = iota

	// InvalidUrl means the URL could not be parsed by the URL parser.
	InvalidUrl
	// UnsupportedProtocol means the URL scheme is neither http nor https.
	UnsupportedProtocol
	// EmptyMethod means a Method was constructed from the empty string.
	EmptyMethod
	// InvalidCharacter means a Method token contained a forbidden byte.
	InvalidCharacter
	// HostnameError means DNS resolution of the request's host failed.
	HostnameError
	// NetworkError covers connect failure, a mid-stream read failure, an
	// unexpected connection close, and a short read against Content-Length.
	NetworkError
	// ProtocolError covers decompression init/decode failure, malformed
	// framing, and the chunked-transfer extension point being hit.
	ProtocolError
	// SystemError means the session failed to start its worker goroutines
	// or allocate its semaphores.
	SystemError
	// Canceled means the request was canceled, explicitly or implicitly.
	Canceled
)

func (c Code) String() string {
	switch c {
	case InvalidUrl:
		return "InvalidUrl"
	case UnsupportedProtocol:
		return "UnsupportedProtocol"
	case EmptyMethod:
		return "EmptyMethod"
	case InvalidCharacter:
		return "InvalidCharacter"
	case HostnameError:
		return "HostnameError"
	case NetworkError:
		return "NetworkError"
	case ProtocolError:
		return "ProtocolError"
	case SystemError:
		return "SystemError"
	case Canceled:
		return "Canceled"
	default:
		return "None"
	}
}

// Error is the concrete error type returned or recorded by this module.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// New creates an *Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an *Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches code and message to a lower-level cause, preserving it for
// Unwrap and for pkg/errors-style cause inspection.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{Code: code, Message: message, Cause: pkgerrors.Wrap(cause, message)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code Code, cause error, format string, args ...any) *Error {
	message := fmt.Sprintf(format, args...)
	return &Error{Code: code, Message: message, Cause: pkgerrors.Wrap(cause, message)}
}

func (e *Error) Error() string {
	if e == nil {
		return "no error"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, so errors.Is/As see through it.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error with the same Code, so callers
// can write errors.Is(err, errors.New(errors.Canceled, "")) style checks
// by comparing codes rather than pointer identity.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}
