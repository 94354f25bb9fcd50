// Package reporterr defines the coded errors surfaced by the report pipeline.
//
// Callers branch on the code rather than on message text:
//
//	if reporterr.IsCode(err, reporterr.CodeTemplateNotFound) {
//	    ...
//	}
package reporterr

import (
	"errors"
	"fmt"
)

// Code classifies a pipeline failure.
type Code string

const (
	// CodeConfiguration indicates missing or invalid configuration, detected at construction time.
	CodeConfiguration Code = "CONFIGURATION"
	// CodeTemplateNotFound indicates no built-in template exists for the requested kind and format.
	CodeTemplateNotFound Code = "TEMPLATE_NOT_FOUND"
	// CodeTemplateSyntax indicates a custom template could not be parsed.
	CodeTemplateSyntax Code = "TEMPLATE_SYNTAX"
	// CodeTransportSetup indicates a sender could not initiate delivery (bad host, auth refused).
	CodeTransportSetup Code = "TRANSPORT_SETUP"
	// CodeTransportSend indicates delivery started but did not complete.
	CodeTransportSend Code = "TRANSPORT_SEND"
	// CodeFileWrite indicates the report could not be saved to disk.
	CodeFileWrite Code = "FILE_WRITE"
)

// Error carries a code, a human-readable message, the underlying cause and
// optional context for logging.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func WrapWithContext(code Code, message string, cause error, context map[string]any) *Error {
	return &Error{Code: code, Message: message, Cause: cause, Context: context}
}

// CodeOf returns the code of the first *Error in err's chain, or "" when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err's chain contains an *Error with the given code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
