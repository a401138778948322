package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the kinds of failure that abort a run
type ErrorType string

const (
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeNetwork  ErrorType = "network"
	ErrorTypeAuth     ErrorType = "auth"
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeParsing  ErrorType = "parsing"
	ErrorTypeStorage  ErrorType = "storage"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error is a failure tagged with its kind. Code carries the HTTP status when
// one was involved.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Type) + " error"
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a tagged error without a cause
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with a kind and a message. A nil err yields nil.
func Wrap(t ErrorType, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithCode creates a tagged error carrying an HTTP status code
func WithCode(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Code: code}
}

// TypeOf returns the kind of the first tagged error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err's chain contains an error of kind t
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// TypeForStatus maps an HTTP status code to an error kind
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 404 || statusCode == 410:
		return ErrorTypeNotFound
	case statusCode >= 400:
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}
